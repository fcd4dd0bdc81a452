package ship

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	serrors "github.com/huimingz/shipit-go/internal/errors"
	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
	"github.com/huimingz/shipit-go/internal/log"
	"github.com/huimingz/shipit-go/internal/ui"
)

// ErrInterrupted marks a run the user stopped with Ctrl+C
var ErrInterrupted = errors.New("interrupted")

// interrupted reports a cancelled run without touching the index
func interrupted(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	return fmt.Errorf("%w, nothing further was staged or committed: %w", ErrInterrupted, ctx.Err())
}

// CommitState is a step of the commit orchestrator
type CommitState string

const (
	StateIdle                 CommitState = "idle"
	StateGenerating           CommitState = "generating"
	StatePresenting           CommitState = "presenting"
	StateAwaitingConfirmation CommitState = "awaiting_confirmation"
	StateStaging              CommitState = "staging"
	StateVerifyingStagedDiff  CommitState = "verifying_staged_diff"
	StateCommitting           CommitState = "committing"
	StateCommitted            CommitState = "committed"
	StateSkipped              CommitState = "skipped"
)

// CommitGit is the part of the git executor the commit orchestrator mutates
type CommitGit interface {
	Add(ctx context.Context, files []string) error
	DiffCached(ctx context.Context, files []string) (string, error)
	Commit(ctx context.Context, message string, files []string) (*git.CommitResult, error)
}

// CommitGroupGenerator proposes commit groups for a prompt
type CommitGroupGenerator interface {
	GenerateCommitGroups(ctx context.Context, system, user string) ([]llm.CommitGroup, error)
}

// CommitRun is the outcome of one orchestrator run
type CommitRun struct {
	Proposed  int
	Committed int
	Declined  int
	Empty     int
	Hashes    []string
}

// Created reports whether hash was committed during this run
func (r *CommitRun) Created(hash string) bool {
	for _, h := range r.Hashes {
		if h == hash {
			return true
		}
	}
	return false
}

// Committer turns generated commit groups into commits, one confirmed group at a time
type Committer struct {
	git       CommitGit
	generator CommitGroupGenerator
	ui        ui.Interaction
	state     CommitState
}

// NewCommitter creates a commit orchestrator
func NewCommitter(g CommitGit, generator CommitGroupGenerator, interaction ui.Interaction) *Committer {
	return &Committer{
		git:       g,
		generator: generator,
		ui:        interaction,
		state:     StateIdle,
	}
}

// State returns the current step
func (c *Committer) State() CommitState {
	return c.state
}

func (c *Committer) transition(to CommitState) {
	log.Debug("commit: %s -> %s", c.state, to)
	c.state = to
}

// Run generates commit groups and applies each accepted group in order.
// Staging and commit failures abort the run; commits already made stay in place.
func (c *Committer) Run(ctx context.Context, system, user string) (*CommitRun, error) {
	run := &CommitRun{}
	defer c.transition(StateIdle)

	c.transition(StateGenerating)
	progress := c.ui.Progress("Making commit messages that don't suck...")
	groups, err := c.generator.GenerateCommitGroups(ctx, system, user)
	if err != nil {
		progress.Stop("")
		return run, serrors.Wrap(serrors.KindProviderCall, llm.DescribeError(err), err)
	}

	run.Proposed = len(groups)
	if len(groups) == 0 {
		progress.Stop("")
		c.ui.Info("The AI looked at your changes and proposed nothing. Try adding an appendix with more context.")
		return run, nil
	}
	progress.Stop("Here come the goods...")

	for i, group := range groups {
		if err := interrupted(ctx); err != nil {
			return run, err
		}
		if i > 0 {
			c.ui.Info("Another one coming in hot...")
		}
		if err := c.apply(ctx, group, run); err != nil {
			return run, err
		}
	}

	c.ui.Success(fmt.Sprintf("Boom! %d commit(s) that actually make sense. You're welcome. 🎤⬇️", run.Committed))
	return run, nil
}

func (c *Committer) apply(ctx context.Context, group llm.CommitGroup, run *CommitRun) error {
	msg := Compose(group)

	c.transition(StatePresenting)
	c.ui.Message(ui.RenderCommitCard(ui.CommitCard{
		Prefix:      msg.Prefix,
		Description: msg.Description,
		Body:        group.Body,
		Footers:     group.Footers,
		Files:       group.Files,
	}))

	c.transition(StateAwaitingConfirmation)
	ok, err := c.ui.Confirm("Ship it?", true)
	// a Ctrl+C while the prompt blocks on stdin only shows up once the read returns
	if ierr := interrupted(ctx); ierr != nil {
		return ierr
	}
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		c.transition(StateSkipped)
		run.Declined++
		c.ui.Info("Your loss. Moving on...")
		return nil
	}

	c.transition(StateStaging)
	if err := c.git.Add(ctx, group.Files); err != nil {
		return serrors.Wrap(serrors.KindStaging, "Failed to stage files", err).
			WithHint("Check that every listed path exists: " + strings.Join(group.Files, ", "))
	}

	c.transition(StateVerifyingStagedDiff)
	staged, err := c.git.DiffCached(ctx, group.Files)
	if err != nil {
		return serrors.Wrap(serrors.KindStaging, "Failed to inspect staged changes", err)
	}
	if strings.TrimSpace(staged) == "" {
		c.transition(StateSkipped)
		run.Empty++
		c.ui.Warn("Nothing left to commit for these files (already committed above?). Skipping.")
		return nil
	}

	c.transition(StateCommitting)
	result, err := c.git.Commit(ctx, msg.Message, group.Files)
	if err != nil {
		return serrors.Wrap(serrors.KindCommit, "Commit failed", err)
	}

	c.transition(StateCommitted)
	run.Committed++
	run.Hashes = append(run.Hashes, result.Hash)
	c.ui.Success(fmt.Sprintf("Committed to %s: %s %s",
		result.Branch,
		color.New(color.Bold).Sprint(shortHash(result.Hash)),
		color.New(color.Faint).Sprintf("(%d changes, %s, %s)",
			result.Changes,
			color.GreenString("+%d", result.Insertions),
			color.RedString("-%d", result.Deletions)),
	))
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
