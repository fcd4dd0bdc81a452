package ship

import (
	"context"
	"fmt"
	"strings"

	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/log"
	"github.com/huimingz/shipit-go/internal/ui"
)

// PushStatus is the outcome of a push attempt
type PushStatus string

const (
	PushNoRemote        PushStatus = "no_remote"
	PushUpToDate        PushStatus = "up_to_date"
	PushSkipped         PushStatus = "skipped"
	PushPushed          PushStatus = "pushed"
	PushPushedNewBranch PushStatus = "pushed_new_branch"
	PushFailed          PushStatus = "failed"
)

// PushResult describes what the push orchestrator did
type PushResult struct {
	Status PushStatus
	Branch string
	Count  int
	Err    error
}

// PushGit is the part of the git executor the push orchestrator needs
type PushGit interface {
	CurrentBranch(ctx context.Context) (string, error)
	GetConfig(ctx context.Context, key string) (string, error)
	Log(ctx context.Context, revRange string) (*git.LogResult, error)
	Push(ctx context.Context, remote, branch string, setUpstream bool) error
}

// missingUpstreamMarkers identify a log failure caused by an absent remote branch
var missingUpstreamMarkers = []string{"unknown revision", "bad revision"}

// IsMissingUpstream reports whether err comes from a revision range whose remote side does not exist
func IsMissingUpstream(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range missingUpstreamMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return strings.Contains(msg, "ambiguous argument") && strings.Contains(msg, "not in the working tree")
}

// Pusher pushes the current branch, confirming whenever it would publish commits this run did not create
type Pusher struct {
	git    PushGit
	ui     ui.Interaction
	remote string
}

// NewPusher creates a push orchestrator for the named remote
func NewPusher(g PushGit, interaction ui.Interaction, remote string) *Pusher {
	if remote == "" {
		remote = "origin"
	}
	return &Pusher{git: g, ui: interaction, remote: remote}
}

// Push pushes unpushed commits of the current branch. created holds the hashes committed in this run.
func (p *Pusher) Push(ctx context.Context, created []string) *PushResult {
	branch, err := p.git.CurrentBranch(ctx)
	if err != nil {
		return p.fail(branch, err)
	}

	remoteURL, err := p.git.GetConfig(ctx, "remote."+p.remote+".url")
	if err != nil {
		return p.fail(branch, err)
	}
	if remoteURL == "" {
		p.ui.Info("No remote? No push. Your code is safe... for now 🤷")
		return &PushResult{Status: PushNoRemote, Branch: branch}
	}

	target := p.remote + "/" + branch
	unpushed, err := p.git.Log(ctx, target+"..HEAD")
	if err != nil {
		if !IsMissingUpstream(err) {
			return p.fail(branch, err)
		}
		return p.firstPush(ctx, branch, target, created)
	}

	if unpushed.Total == 0 {
		p.ui.Info("Nothing to push. Your branch is up to date. 👍")
		return &PushResult{Status: PushUpToDate, Branch: branch}
	}

	createdSet := make(map[string]bool, len(created))
	for _, h := range created {
		createdSet[h] = true
	}
	foreign := 0
	for _, h := range unpushed.Hashes() {
		if !createdSet[h] {
			foreign++
		}
	}
	log.Debug("push: %d unpushed, %d not created this run", unpushed.Total, foreign)

	switch {
	case len(created) == 0:
		msg := fmt.Sprintf("No new shipit commits were created. Push %d existing unpushed commit(s) anyway?", unpushed.Total)
		if !p.confirm(msg, false) {
			return p.skipped(branch)
		}
	case foreign > 0:
		msg := fmt.Sprintf("%d unpushed commit(s) were not created by shipit in this run. Push everything anyway?", foreign)
		if !p.confirm(msg, false) {
			return p.skipped(branch)
		}
	}

	progress := p.ui.Progress(fmt.Sprintf("Pushing %s to %s...", ui.Plural(unpushed.Total, "commit"), target))
	if err := p.git.Push(ctx, p.remote, branch, false); err != nil {
		progress.Stop("")
		return p.fail(branch, err)
	}
	progress.Stop(fmt.Sprintf("Successfully pushed %s to %s!", ui.Plural(unpushed.Total, "commit"), target))
	return &PushResult{Status: PushPushed, Branch: branch, Count: unpushed.Total}
}

func (p *Pusher) firstPush(ctx context.Context, branch, target string, created []string) *PushResult {
	msg := fmt.Sprintf("No new commits were created by shipit. Push existing branch history to %s?", target)
	if len(created) > 0 {
		msg = fmt.Sprintf("This is the first push to %s. Push now?", target)
	}
	if !p.confirm(msg, len(created) > 0) {
		return p.skipped(branch)
	}

	progress := p.ui.Progress(fmt.Sprintf("Pushing new branch to %s...", target))
	if err := p.git.Push(ctx, p.remote, branch, true); err != nil {
		progress.Stop("")
		return p.fail(branch, err)
	}
	progress.Stop(fmt.Sprintf("Pushed new branch to %s", target))
	return &PushResult{Status: PushPushedNewBranch, Branch: branch, Count: len(created)}
}

// confirm treats an unreadable answer as a decline
func (p *Pusher) confirm(message string, defaultYes bool) bool {
	ok, err := p.ui.Confirm(message, defaultYes)
	if err != nil {
		log.Debug("push: confirmation failed: %v", err)
		return false
	}
	return ok
}

func (p *Pusher) skipped(branch string) *PushResult {
	p.ui.Info("Skipped push.")
	return &PushResult{Status: PushSkipped, Branch: branch}
}

func (p *Pusher) fail(branch string, err error) *PushResult {
	p.ui.Error(fmt.Sprintf("Push failed! You'll need to handle that manually: %v", err))
	return &PushResult{Status: PushFailed, Branch: branch, Err: err}
}
