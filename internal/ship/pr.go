package ship

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	serrors "github.com/huimingz/shipit-go/internal/errors"
	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
	"github.com/huimingz/shipit-go/internal/log"
	"github.com/huimingz/shipit-go/internal/prompt"
	"github.com/huimingz/shipit-go/internal/ui"
)

// PRStatus is the outcome of a pull request attempt
type PRStatus string

const (
	PRNoRemote     PRStatus = "no_remote"
	PRNoBase       PRStatus = "no_base"
	PROnBase       PRStatus = "on_base"
	PRNothingAhead PRStatus = "nothing_ahead"
	PRDeclined     PRStatus = "declined"
	PRPushFailed   PRStatus = "push_failed"
	PROpened       PRStatus = "opened"
	PROpenFailed   PRStatus = "open_failed"
	PRFailed       PRStatus = "failed"
)

// baseCandidates are tried in order on the remote
var baseCandidates = []string{"main", "master"}

// PRResult describes what the PR orchestrator did
type PRResult struct {
	Status PRStatus
	Branch string
	Base   string
	Title  string
	URL    string
	Err    error
}

// PRGit is the part of the git executor the PR orchestrator needs
type PRGit interface {
	PushGit
	RevParse(ctx context.Context, args ...string) (string, error)
}

// PRDraftGenerator writes a pull request title and body
type PRDraftGenerator interface {
	GeneratePRDraft(ctx context.Context, system, user string) (*llm.PRDraft, error)
}

// TemplateFinder returns the pull request template to follow, or nil
type TemplateFinder func() *prompt.Template

// PRCreator drafts a pull request for the current branch and hands it to an Opener.
// Every failure is reported through the interaction and never returned.
type PRCreator struct {
	git       PRGit
	generator PRDraftGenerator
	ui        ui.Interaction
	opener    Opener
	templates TemplateFinder
	remote    string
	tempDir   string
}

// NewPRCreator creates a PR orchestrator
func NewPRCreator(g PRGit, generator PRDraftGenerator, interaction ui.Interaction, opener Opener, templates TemplateFinder, remote string) *PRCreator {
	if remote == "" {
		remote = "origin"
	}
	return &PRCreator{
		git:       g,
		generator: generator,
		ui:        interaction,
		opener:    opener,
		templates: templates,
		remote:    remote,
	}
}

// Create runs the pull request flow. autoConfirm skips the initial "create a PR?" question.
func (c *PRCreator) Create(ctx context.Context, autoConfirm bool) *PRResult {
	result, err := c.create(ctx, autoConfirm)
	if err != nil {
		c.ui.Error(fmt.Sprintf("PR creation went sideways: %v", err))
		result.Status = PRFailed
		result.Err = err
	}
	return result
}

func (c *PRCreator) create(ctx context.Context, autoConfirm bool) (*PRResult, error) {
	result := &PRResult{}

	branch, err := c.git.CurrentBranch(ctx)
	if err != nil {
		return result, err
	}
	result.Branch = branch

	remoteURL, err := c.git.GetConfig(ctx, "remote."+c.remote+".url")
	if err != nil {
		return result, err
	}
	if remoteURL == "" {
		c.ui.Info("No remote? No PR. Push your code somewhere first! 🤷")
		result.Status = PRNoRemote
		return result, nil
	}

	base := c.resolveBase(ctx)
	if base == "" {
		c.ui.Info("No main or master branch? What kind of repo is this? 🤔")
		result.Status = PRNoBase
		return result, nil
	}
	result.Base = base

	if branch == base {
		c.ui.Info(fmt.Sprintf("You're on %s already. No PR needed, champ! 👑", base))
		result.Status = PROnBase
		return result, nil
	}

	ahead, err := c.git.Log(ctx, c.remote+"/"+base+"..HEAD")
	if err != nil {
		return result, err
	}
	if ahead.Total == 0 {
		c.ui.Info(fmt.Sprintf("No commits ahead of %s? Nothing to PR here! 🤷", base))
		result.Status = PRNothingAhead
		return result, nil
	}

	if !autoConfirm && !c.confirm(fmt.Sprintf("Want me to cook up a PR for %s?", ui.Plural(ahead.Total, "commit")), true) {
		result.Status = PRDeclined
		return result, nil
	}

	if status, ok := c.pushBranch(ctx, branch); !ok {
		result.Status = status
		return result, nil
	}

	draft, err := c.draft(ctx, ahead.Entries)
	if err != nil {
		return result, err
	}
	result.Title = draft.Title

	c.ui.Message(ui.RenderPR(draft.Title, draft.Body))
	if !c.confirm("Ship it to GitHub?", true) {
		result.Status = PRDeclined
		return result, nil
	}

	return c.open(ctx, result, draft, remoteURL)
}

func (c *PRCreator) resolveBase(ctx context.Context) string {
	for _, candidate := range baseCandidates {
		if _, err := c.git.RevParse(ctx, "--verify", "--quiet", c.remote+"/"+candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// pushBranch makes sure the remote has every local commit before the PR is opened
func (c *PRCreator) pushBranch(ctx context.Context, branch string) (PRStatus, bool) {
	target := c.remote + "/" + branch

	unpushed, err := c.git.Log(ctx, target+"..HEAD")
	switch {
	case err != nil && IsMissingUpstream(err):
		if !c.confirm(fmt.Sprintf("%s is not on %s yet. Push it with upstream tracking?", branch, c.remote), true) {
			return PRDeclined, false
		}
		return c.push(ctx, branch, target, true, 0)
	case err != nil:
		c.ui.Error(fmt.Sprintf("Push failed! You'll need to handle that manually first: %v", err))
		return PRPushFailed, false
	case unpushed.Total == 0:
		return "", true
	}

	if !c.confirm(fmt.Sprintf("Push %s to %s?", ui.Plural(unpushed.Total, "unpushed commit"), target), true) {
		return PRDeclined, false
	}
	return c.push(ctx, branch, target, false, unpushed.Total)
}

func (c *PRCreator) push(ctx context.Context, branch, target string, setUpstream bool, count int) (PRStatus, bool) {
	label := "branch"
	if count > 0 {
		label = ui.Plural(count, "commit")
	}
	progress := c.ui.Progress(fmt.Sprintf("Pushing %s to %s...", label, target))
	if err := c.git.Push(ctx, c.remote, branch, setUpstream); err != nil {
		progress.Stop("")
		c.ui.Error(fmt.Sprintf("Push failed! You'll need to handle that manually first: %v", err))
		return PRPushFailed, false
	}
	progress.Stop("Pushed! Your code is now live and ready to PR")
	return "", true
}

func (c *PRCreator) draft(ctx context.Context, commits []git.LogEntry) (*llm.PRDraft, error) {
	var tpl *prompt.Template
	if c.templates != nil {
		tpl = c.templates()
	}
	if tpl != nil {
		log.Debug("Using PR template from %s", tpl.Source)
	}

	system, err := prompt.PRSystem()
	if err != nil {
		return nil, err
	}
	user, err := prompt.BuildPRPrompt(commits, tpl)
	if err != nil {
		return nil, err
	}

	progress := c.ui.Progress("Getting the AI to write your PR...")
	draft, err := c.generator.GeneratePRDraft(ctx, system, user)
	if err != nil {
		progress.Stop("")
		return nil, serrors.New(serrors.KindPR, llm.DescribeError(err))
	}
	progress.Stop("Nice! Got your PR ready to rock...")
	return draft, nil
}

func (c *PRCreator) open(ctx context.Context, result *PRResult, draft *llm.PRDraft, remoteURL string) (*PRResult, error) {
	bodyFile, err := os.CreateTemp(c.tempDir, "shipit-pr-body-*.md")
	if err != nil {
		return result, fmt.Errorf("failed to create PR body file: %w", err)
	}
	defer func() {
		_ = os.Remove(bodyFile.Name())
	}()

	_, err = bodyFile.WriteString(draft.Body)
	if closeErr := bodyFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return result, fmt.Errorf("failed to write PR body file: %w", err)
	}

	opened, err := c.opener.Open(ctx, OpenRequest{
		Base:     result.Base,
		Title:    draft.Title,
		BodyFile: bodyFile.Name(),
	})
	if err != nil {
		c.ui.Error(fmt.Sprintf("Couldn't open PR in browser: %v", err))
		c.ui.Info("Manual backup plan:")
		c.ui.Info(color.CyanString(CompareURL(remoteURL, result.Base, result.Branch)))
		result.Status = PROpenFailed
		result.Err = err
		return result, nil
	}

	if stderr := strings.TrimSpace(opened.Stderr); stderr != "" && !strings.Contains(stderr, "Opening") {
		c.ui.Warn("GitHub CLI error: " + stderr)
	}
	if opened.Opened {
		c.ui.Success("PR opened in your browser! Time to ship it 🚀")
		if opened.URL != "" {
			c.ui.Info(color.CyanString(opened.URL))
		}
	}

	result.Status = PROpened
	result.URL = opened.URL
	return result, nil
}

// confirm treats an unreadable answer as a decline
func (c *PRCreator) confirm(message string, defaultYes bool) bool {
	ok, err := c.ui.Confirm(message, defaultYes)
	if err != nil {
		log.Debug("pr: confirmation failed: %v", err)
		return false
	}
	return ok
}
