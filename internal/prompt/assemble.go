package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
)

// Template is a pull request template and where it came from
type Template struct {
	Content string
	Source  string
}

// CommitInput is the repository state sent to the model for commit grouping
type CommitInput struct {
	Status    *git.Status
	Summary   *git.DiffSummary
	Diff      string
	Appendix  string
	Untracked []FileContext
}

const commitUserPrompt = `## Instructions
Group the changes below into commits. Every path listed under Status and Untracked Files must be covered exactly once.

## Git Context

### Status
` + "```json" + `
{{.Status}}
` + "```" + `

### Diff Summary
` + "```json" + `
{{.Summary}}
` + "```" + `

### Diff
` + "```diff" + `
{{.Diff}}
` + "```" + `
{{- if .Untracked}}

### Untracked Files
{{range .Untracked}}
#### {{.Path}}
{{- if .IsBinary}} (binary){{else if .IsTruncated}} (truncated){{end}}
` + "```" + `
{{.Content}}
` + "```" + `
{{end}}
{{- end}}
{{- if .Appendix}}

## Additional Context

{{.Appendix}}
{{- end}}

---

## Commit Message:
`

const prUserPrompt = `## Commits to Analyze
{{range .Commits}}
- {{.Message}}
{{- end}}
{{if .Template}}
## Pull Request Template ({{.Template.Source}})
` + "```markdown" + `
{{.Template.Content}}
` + "```" + `

The body must follow this template exactly: keep every heading in order and write N/A for sections that do not apply.
{{else}}
## Body Layout
Use these markdown sections in order:
- ## What
- ## Why
- ## Key Changes
- ## Breaking Changes (write "None" when there are none)
- ## Testing
{{end}}`

var (
	commitSystemTmpl = template.Must(template.New("commit_system").Parse(CommitSystemPrompt))
	prSystemTmpl     = template.Must(template.New("pr_system").Parse(PRSystemPrompt))
	commitUserTmpl   = template.Must(template.New("commit_user").Parse(commitUserPrompt))
	prUserTmpl       = template.Must(template.New("pr_user").Parse(prUserPrompt))
)

// statusView is the JSON shape of repository status shown to the model
type statusView struct {
	Branch     string       `json:"current"`
	Tracking   string       `json:"tracking,omitempty"`
	Ahead      int          `json:"ahead"`
	Behind     int          `json:"behind"`
	Staged     []string     `json:"staged"`
	Modified   []string     `json:"modified"`
	Deleted    []string     `json:"deleted"`
	Renamed    []git.Rename `json:"renamed"`
	NotAdded   []string     `json:"not_added"`
	Conflicted []string     `json:"conflicted"`
}

type fileView struct {
	File       string `json:"file"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
	Binary     bool   `json:"binary"`
}

type summaryView struct {
	Changed    int        `json:"changed"`
	Insertions int        `json:"insertions"`
	Deletions  int        `json:"deletions"`
	Files      []fileView `json:"files"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func newStatusView(s *git.Status) statusView {
	if s == nil {
		s = &git.Status{}
	}
	renamed := s.Renamed
	if renamed == nil {
		renamed = []git.Rename{}
	}
	return statusView{
		Branch:     s.Branch,
		Tracking:   s.Tracking,
		Ahead:      s.Ahead,
		Behind:     s.Behind,
		Staged:     nonNil(s.Staged),
		Modified:   nonNil(s.Modified),
		Deleted:    nonNil(s.Deleted),
		Renamed:    renamed,
		NotAdded:   nonNil(s.Untracked),
		Conflicted: nonNil(s.Conflicted),
	}
}

func newSummaryView(d *git.DiffSummary) summaryView {
	view := summaryView{Files: []fileView{}}
	if d == nil {
		return view
	}
	view.Changed = len(d.Files)
	view.Insertions = d.Insertions
	view.Deletions = d.Deletions
	for _, f := range d.Files {
		view.Files = append(view.Files, fileView{
			File:       f.Path,
			Insertions: f.Insertions,
			Deletions:  f.Deletions,
			Binary:     f.Binary,
		})
	}
	return view
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// CommitSystem returns the system instruction for commit grouping
func CommitSystem() (string, error) {
	return render(commitSystemTmpl, map[string]any{"ToolName": llm.CommitToolName})
}

// PRSystem returns the system instruction for pull request drafting
func PRSystem() (string, error) {
	return render(prSystemTmpl, map[string]any{
		"ToolName": llm.PRToolName,
		"MaxTitle": llm.MaxPRTitleLength,
	})
}

// BuildCommitPrompt assembles the user prompt. Token estimation runs over this exact text.
func BuildCommitPrompt(in CommitInput) (string, error) {
	status, err := json.Marshal(newStatusView(in.Status))
	if err != nil {
		return "", fmt.Errorf("failed to encode status: %w", err)
	}
	summary, err := json.Marshal(newSummaryView(in.Summary))
	if err != nil {
		return "", fmt.Errorf("failed to encode diff summary: %w", err)
	}

	return render(commitUserTmpl, map[string]any{
		"Status":    string(status),
		"Summary":   string(summary),
		"Diff":      strings.TrimRight(in.Diff, "\n"),
		"Untracked": in.Untracked,
		"Appendix":  strings.TrimSpace(in.Appendix),
	})
}

// BuildPRPrompt assembles the user prompt for a pull request covering commits
func BuildPRPrompt(commits []git.LogEntry, tpl *Template) (string, error) {
	return render(prUserTmpl, map[string]any{
		"Commits":  commits,
		"Template": tpl,
	})
}
