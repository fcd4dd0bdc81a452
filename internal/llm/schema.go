package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

// Tool names bound to the chat model for structured output
const (
	CommitToolName = "submit_commit_groups"
	PRToolName     = "submit_pr"
)

// MaxPRTitleLength caps generated pull request titles, in runes
const MaxPRTitleLength = 72

// CommitTypes is the closed set of conventional commit types the model may choose
var CommitTypes = []string{"fix", "feat", "build", "chore", "ci", "docs", "style", "refactor", "perf", "test", "other"}

// CommitGroup is one proposed commit: a set of files and its conventional message parts
type CommitGroup struct {
	Files       []string `json:"files"`
	Type        string   `json:"type"`
	Scope       string   `json:"scope,omitempty"`
	Description string   `json:"description"`
	Body        string   `json:"body,omitempty"`
	Breaking    bool     `json:"breaking"`
	Footers     []string `json:"footers,omitempty"`
}

// Validate checks the group once, at the provider boundary
func (g *CommitGroup) Validate() error {
	if len(g.Files) == 0 {
		return errors.New("files must not be empty")
	}
	seen := make(map[string]bool, len(g.Files))
	for _, f := range g.Files {
		if f == "" {
			return errors.New("files must not contain empty paths")
		}
		if seen[f] {
			return fmt.Errorf("duplicate file %q", f)
		}
		seen[f] = true
	}
	if !isCommitType(g.Type) {
		return fmt.Errorf("invalid commit type %q", g.Type)
	}
	if g.Description == "" {
		return errors.New("description is required")
	}
	return nil
}

func isCommitType(t string) bool {
	for _, ct := range CommitTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// normalize trims whitespace the model tends to leave around values
func (g *CommitGroup) normalize() {
	for i, f := range g.Files {
		g.Files[i] = strings.TrimPrefix(strings.TrimSpace(f), "./")
	}
	g.Type = strings.ToLower(strings.TrimSpace(g.Type))
	g.Scope = strings.TrimSpace(g.Scope)
	g.Description = strings.TrimSpace(g.Description)
	g.Body = strings.TrimSpace(g.Body)

	footers := g.Footers[:0]
	for _, f := range g.Footers {
		if f = strings.TrimSpace(f); f != "" {
			footers = append(footers, f)
		}
	}
	g.Footers = footers
}

// PRDraft is a generated pull request title and body
type PRDraft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// stripFences removes a surrounding markdown code fence
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// decodeError classifies a json decoding failure
func decodeError(err error, raw string) *OutputError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &OutputError{Reason: OutputSchemaMismatch, Detail: err.Error(), Raw: raw, cause: err}
	}
	return &OutputError{Reason: OutputMalformed, Detail: err.Error(), Raw: raw, cause: err}
}

// ParseCommitGroups decodes {"commits":[...]} or a bare array and validates every group
func ParseCommitGroups(raw string) ([]CommitGroup, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, &OutputError{Reason: OutputMissing, Detail: "empty response", Raw: raw}
	}

	var groups []CommitGroup
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &groups); err != nil {
			return nil, decodeError(err, raw)
		}
	} else {
		var envelope struct {
			Commits *[]CommitGroup `json:"commits"`
		}
		if err := json.Unmarshal([]byte(body), &envelope); err != nil {
			return nil, decodeError(err, raw)
		}
		if envelope.Commits == nil {
			return nil, &OutputError{Reason: OutputSchemaMismatch, Detail: `missing "commits"`, Raw: raw}
		}
		groups = *envelope.Commits
	}

	for i := range groups {
		groups[i].normalize()
		if err := groups[i].Validate(); err != nil {
			return nil, &OutputError{
				Reason: OutputSchemaMismatch,
				Detail: fmt.Sprintf("commits[%d]: %v", i, err),
				Raw:    raw,
				cause:  err,
			}
		}
	}

	if groups == nil {
		groups = []CommitGroup{}
	}
	return groups, nil
}

// ParsePRDraft decodes and validates a pull request draft
func ParsePRDraft(raw string) (*PRDraft, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, &OutputError{Reason: OutputMissing, Detail: "empty response", Raw: raw}
	}

	var draft PRDraft
	if err := json.Unmarshal([]byte(body), &draft); err != nil {
		return nil, decodeError(err, raw)
	}

	draft.Title = TruncateTitle(strings.TrimSpace(draft.Title))
	draft.Body = strings.TrimSpace(draft.Body)

	if draft.Title == "" {
		return nil, &OutputError{Reason: OutputSchemaMismatch, Detail: "title is required", Raw: raw}
	}
	if draft.Body == "" {
		return nil, &OutputError{Reason: OutputSchemaMismatch, Detail: "body is required", Raw: raw}
	}
	return &draft, nil
}

// TruncateTitle cuts a title to MaxPRTitleLength runes
func TruncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= MaxPRTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:MaxPRTitleLength]))
}

// stringArray describes a JSON array of strings
func stringArray(desc string, required bool) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type:     schema.Array,
		Desc:     desc,
		Required: required,
		ElemInfo: &schema.ParameterInfo{Type: schema.String},
	}
}

// commitGroupsTool is the response schema for commit generation
func commitGroupsTool() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: CommitToolName,
		Desc: "Submit the proposed commits. Call exactly once with every group.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"commits": {
				Type:     schema.Array,
				Desc:     "Ordered list of commit groups. Each changed file belongs to exactly one group.",
				Required: true,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.Object,
					SubParams: map[string]*schema.ParameterInfo{
						"files": stringArray("Repository-relative paths included in this commit", true),
						"type": {
							Type:     schema.String,
							Desc:     "Conventional commit type",
							Enum:     CommitTypes,
							Required: true,
						},
						"scope": {
							Type: schema.String,
							Desc: "Optional scope, a short noun such as auth or api",
						},
						"description": {
							Type:     schema.String,
							Desc:     "Imperative summary without type prefix or trailing period",
							Required: true,
						},
						"body": {
							Type: schema.String,
							Desc: "Optional explanation of what changed and why",
						},
						"breaking": {
							Type:     schema.Boolean,
							Desc:     "True when the change breaks compatibility",
							Required: true,
						},
						"footers": stringArray("Optional footers such as BREAKING CHANGE: ... or Closes #123", false),
					},
				},
			},
		}),
	}
}

// prTool is the response schema for pull request generation
func prTool() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: PRToolName,
		Desc: "Submit the pull request title and body.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {
				Type:     schema.String,
				Desc:     "Plain imperative English title, no conventional commit prefix or scope, at most 72 characters",
				Required: true,
			},
			"body": {
				Type:     schema.String,
				Desc:     "Markdown body",
				Required: true,
			},
		}),
	}
}
