package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huimingz/shipit-go/internal/config"
	serrors "github.com/huimingz/shipit-go/internal/errors"
	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
	"github.com/huimingz/shipit-go/internal/log"
	"github.com/huimingz/shipit-go/internal/prompt"
	"github.com/huimingz/shipit-go/internal/ship"
	"github.com/huimingz/shipit-go/internal/ui"
)

var (
	// Global flags
	debugMode  bool
	configFile string

	// Ship flags
	opts shipOptions

	// Version info
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

// rootCmd runs the ship flow when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "shipit [paths...]",
	Short: "Turn your working tree into conventional commits",
	Long: `shipit reads your pending changes, asks an AI provider to split them into
conventional commits, and applies each group after you confirm it.

The provider is picked from the first API key found in the environment
(GOOGLE_GENERATIVE_AI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, GROQ_API_KEY).
Set SHIPIT_PROVIDER and SHIPIT_MODEL to choose explicitly.

Examples:
  shipit
  shipit src/auth docs
  shipit -a "This fixes the login loop reported in #42"
  shipit -fu --push
  shipit --pr`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			log.SetDebugMode(true)
			log.Debug("Debug mode enabled")
		}
	},
	RunE: runShip,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, commit, time string) {
	version = v
	gitCommit = commit
	buildTime = time
}

// GetVersionInfo returns version information
func GetVersionInfo() (string, string, string) {
	return version, gitCommit, buildTime
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode for verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: ./.shipit.yaml, then ~/.shipit.yaml)")

	rootCmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Accept every confirmation")
	rootCmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Same as --yes")
	rootCmd.Flags().BoolVarP(&opts.unsafe, "unsafe", "u", false, "Skip the token volume confirmation")
	rootCmd.Flags().BoolVarP(&opts.push, "push", "p", false, "Push after committing")
	rootCmd.Flags().BoolVar(&opts.pr, "pr", false, "Create a pull request even if nothing was committed")
	rootCmd.Flags().StringVarP(&opts.appendix, "appendix", "a", "", "Additional context for the AI")
	rootCmd.Flags().BoolVarP(&opts.silent, "silent", "s", false, "Only print errors")
}

func runShip(cmd *cobra.Command, args []string) error {
	ctx, stop := withInterrupt(context.Background())
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	probe := git.NewExecutor(cwd)
	if !probe.IsRepository(ctx) {
		return errNotRepository()
	}
	top, err := probe.TopLevel(ctx)
	if err != nil {
		return serrors.Wrap(serrors.KindRepositoryState, "Failed to find the repository root", err)
	}

	paths, err := selectPaths(top, cwd, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return serrors.Wrap(serrors.KindConfig, "Failed to load config", err)
	}
	log.DebugConfig("Configuration", cfg)

	env, err := config.LoadEnv(top)
	if err != nil {
		return serrors.Wrap(serrors.KindConfig, "Failed to read .env files", err)
	}

	retry := llm.RetryConfigFrom(cfg.GetRetryConfig())
	s := &shipper{
		git:   git.NewExecutor(top),
		ui:    ui.New(os.Stdin, os.Stdout, opts.silent, opts.autoAccept()),
		cfg:   cfg,
		env:   env,
		root:  top,
		paths: paths,
		opts:  opts,
		generator: func(res *llm.Resolution) generator {
			return llm.NewToolCallGenerator(res.Provider, retry)
		},
		opener: ship.NewGHOpener(top),
		templates: func() *prompt.Template {
			configured, err := cfg.GetPRTemplate()
			if err != nil {
				log.Warn("Ignoring configured PR template: %v", err)
			}
			tree, err := git.OpenHeadTree(top)
			if err != nil {
				log.Debug("PR template discovery disabled: %v", err)
			}
			return ship.ResolvePRTemplate(configured, tree)
		},
	}
	return s.run(ctx)
}

// selectPaths turns command line paths into repository-relative selections.
// Selecting the repository root means no selection.
func selectPaths(top, cwd string, args []string) ([]string, error) {
	if resolved, err := filepath.EvalSymlinks(cwd); err == nil {
		cwd = resolved
	}
	if resolved, err := filepath.EvalSymlinks(top); err == nil {
		top = resolved
	}

	var selected []string
	for _, arg := range args {
		abs := arg
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(cwd, arg)
		}
		rel, err := filepath.Rel(top, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, serrors.Newf(serrors.KindRepositoryState, "Path %s is outside the repository", arg)
		}
		if rel == "." {
			return nil, nil
		}
		selected = append(selected, filepath.ToSlash(rel))
	}
	return selected, nil
}
