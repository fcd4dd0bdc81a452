package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/huimingz/shipit-go/internal/config"
	serrors "github.com/huimingz/shipit-go/internal/errors"
	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
	"github.com/huimingz/shipit-go/internal/log"
	"github.com/huimingz/shipit-go/internal/prompt"
	"github.com/huimingz/shipit-go/internal/ship"
	"github.com/huimingz/shipit-go/internal/ui"
)

// slowCount is the token counting time worth mentioning
const slowCount = 50 * time.Millisecond

type shipOptions struct {
	yes      bool
	force    bool
	unsafe   bool
	push     bool
	pr       bool
	silent   bool
	appendix string
}

func (o shipOptions) autoAccept() bool {
	return o.yes || o.force
}

// shipGit is everything the ship flow asks of the repository
type shipGit interface {
	IsRepository(ctx context.Context) bool
	Status(ctx context.Context, paths []string) (*git.Status, error)
	DiffSummary(ctx context.Context, paths []string) (*git.DiffSummary, error)
	Diff(ctx context.Context, paths []string) (string, error)
	ship.CommitGit
	ship.PRGit
}

// generator writes commit groups and PR drafts and reports token usage
type generator interface {
	ship.CommitGroupGenerator
	ship.PRDraftGenerator
	LastUsage() llm.Usage
}

// shipper runs one invocation: inspect, size, generate, commit, then optionally push and open a PR
type shipper struct {
	git       shipGit
	ui        ui.Interaction
	cfg       *config.Config
	env       config.Env
	root      string
	paths     []string
	opts      shipOptions
	generator func(*llm.Resolution) generator
	opener    ship.Opener
	templates ship.TemplateFinder
}

func errNotRepository() error {
	return serrors.New(serrors.KindRepositoryState, "Not a git repository").
		WithHint("Run shipit from inside a git working tree.")
}

func (s *shipper) run(ctx context.Context) error {
	if !s.git.IsRepository(ctx) {
		return errNotRepository()
	}

	resolution, err := llm.Resolve(s.env, s.cfg)
	if err != nil {
		return err
	}
	log.Debug("Using %s (%s, model %s)", resolution.Label, resolution.DisplayName, resolution.ModelID)

	gen := s.generator(resolution)

	s.ui.Info("Let's see what mess you've made this time...")
	input, err := s.inspect(ctx)
	if err != nil {
		return err
	}
	if input == nil {
		s.followUp(ctx, &ship.CommitRun{}, gen)
		return nil
	}

	user, err := prompt.BuildCommitPrompt(*input)
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}
	if !s.sizeGate(user) {
		return nil
	}

	system, err := prompt.CommitSystem()
	if err != nil {
		return fmt.Errorf("failed to build system prompt: %w", err)
	}

	s.ui.Info("Time to make the AI earn its keep...")
	start := time.Now()
	run, err := ship.NewCommitter(s.git, gen, s.ui).Run(ctx, system, user)
	debugSummary(gen.LastUsage(), start, time.Now())
	if err != nil {
		return err
	}

	s.followUp(ctx, run, gen)
	return nil
}

// debugSummary prints provider usage for the commit flow when --debug is on
func debugSummary(usage llm.Usage, start, end time.Time) {
	if !log.IsDebugMode() {
		return
	}
	printer := ui.NewStreamPrinter(log.Writer(), ui.WithColor(!color.NoColor))
	_ = printer.PrintStats(&ui.ExecutionStats{
		StartTime:        start,
		EndTime:          end,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	})
}

// inspect reads repository state and returns nil input for a clean tree
func (s *shipper) inspect(ctx context.Context) (*prompt.CommitInput, error) {
	progress := s.ui.Progress("Snooping around your repo...")

	progress.Update("Checking the damage...")
	// conflicts and stray staged files are checked repository wide
	full, err := s.git.Status(ctx, nil)
	if err != nil {
		progress.Stop("")
		return nil, serrors.Wrap(serrors.KindRepositoryState, "Failed to read repository status", err)
	}
	if full.HasConflicts() {
		progress.Stop("")
		return nil, serrors.Newf(serrors.KindRepositoryState, "Unresolved merge conflicts in: %s", strings.Join(full.Conflicted, ", ")).
			WithHint("Resolve the conflicts and stage the result before running shipit.")
	}
	if outside := full.StagedOutside(s.paths); len(outside) > 0 {
		progress.Stop("")
		return nil, serrors.Newf(serrors.KindRepositoryState, "Staged changes outside the selected paths: %s", strings.Join(outside, ", ")).
			WithHint("Unstage them or include them in the selection before running shipit on a subset.")
	}

	status := full
	if len(s.paths) > 0 {
		if status, err = s.git.Status(ctx, s.paths); err != nil {
			progress.Stop("")
			return nil, serrors.Wrap(serrors.KindRepositoryState, "Failed to read repository status", err)
		}
	}

	progress.Update("Tallying up your changes...")
	summary, err := s.git.DiffSummary(ctx, s.paths)
	if err != nil {
		progress.Stop("")
		return nil, serrors.Wrap(serrors.KindRepositoryState, "Failed to summarize changes", err)
	}

	progress.Update("Grabbing all the juicy details...")
	diff, err := s.git.Diff(ctx, s.paths)
	if err != nil {
		progress.Stop("")
		return nil, serrors.Wrap(serrors.KindRepositoryState, "Failed to read the diff", err)
	}

	changed := status.ChangedCount()
	if status.IsClean() || changed == 0 {
		progress.Stop("Huh... squeaky clean. Nothing to see here.")
		s.ui.Info("No changes? Seriously? Stop procrastinating and write some code! 🙄")
		return nil, nil
	}
	progress.Stop(fmt.Sprintf("%s Holy sh*t, you touched %s!",
		prompt.ChangeCountLabel(changed), color.New(color.Bold).Sprint(ui.Plural(changed, "file"))))

	collector := prompt.NewCollector(s.root, s.cfg.GetUntrackedConfig())
	return &prompt.CommitInput{
		Status:    status,
		Summary:   summary,
		Diff:      diff,
		Appendix:  s.opts.appendix,
		Untracked: collector.Collect(status.Untracked, s.paths),
	}, nil
}

// sizeGate estimates the prompt size and asks before spending a large budget
func (s *shipper) sizeGate(user string) bool {
	s.ui.Info("Cooking up a spicy prompt for the AI overlords...")
	progress := s.ui.Progress("Doing some quick math (don't worry, it's not your job)...")

	start := time.Now()
	tokens := prompt.CountTokens(user)
	took := time.Since(start)
	tier := prompt.ClassifyTokens(tokens)
	log.Debug("Prompt is %d characters, ~%d tokens", len(user), tokens)

	progress.Stop(tokenSummary(tokens, tier, took))

	if !tier.RequiresConfirmation || s.opts.unsafe {
		return true
	}

	ok, err := s.ui.Confirm(fmt.Sprintf("%s %s %s",
		color.New(color.Bold).Sprint(withEmoji(tier.Emoji, "Whoa there!")),
		tier.Description,
		color.New(color.Italic, color.Faint).Sprint("You sure you want to burn those tokens?")), false)
	if err != nil {
		log.Debug("size gate: confirmation failed: %v", err)
	}
	if !ok {
		s.ui.Info("Smart move. Maybe split that monster diff next time? 🤔")
		return false
	}
	return true
}

func tokenSummary(tokens int, tier prompt.Tier, took time.Duration) string {
	label := tier.Label
	if tier.Hint != "" {
		label += " " + color.New(color.Faint).Sprintf("(%s)", tier.Hint)
	}
	summary := fmt.Sprintf("That's %s of pure chaos, %s",
		color.New(color.Bold).Sprintf("~%d tokens", tokens), label)
	if took > slowCount {
		summary += " " + color.New(color.Faint).Sprintf("(took %dms to count 'em)", took.Milliseconds())
	}
	return withEmoji(tier.Emoji, summary)
}

func withEmoji(emoji, text string) string {
	if emoji == "" {
		return text
	}
	return emoji + " " + text
}

// followUp pushes and opens a PR as requested. Neither changes the exit status.
func (s *shipper) followUp(ctx context.Context, run *ship.CommitRun, gen generator) {
	remote := s.cfg.GetRemote()

	if s.opts.push {
		result := ship.NewPusher(s.git, s.ui, remote).Push(ctx, run.Hashes)
		log.Debug("push: %s", result.Status)
	}

	if s.opts.pr || (s.opts.push && run.Committed > 0) {
		result := ship.NewPRCreator(s.git, gen, s.ui, s.opener, s.templates, remote).Create(ctx, s.opts.pr)
		log.Debug("pr: %s", result.Status)
	}
}
