package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/huimingz/shipit-go/internal/config"
	serrors "github.com/huimingz/shipit-go/internal/errors"
)

const defaultConfigTemplate = `# shipit configuration file
# API keys are read from the environment (or .env / .env.local in the repository root):
#   GOOGLE_GENERATIVE_AI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, GROQ_API_KEY
# SHIPIT_PROVIDER and SHIPIT_MODEL pick a provider and model explicitly.

# Remote used for push and pull requests
remote: origin

# Retry behaviour for provider calls
retry:
  enabled: true
  max_attempts: 3
  backoff_base: 1.0  # seconds
  backoff_max: 8.0   # seconds

# Limits for untracked file contents sent along with the diff
untracked:
  max_files: 20
  max_chars_per_file: 12000

# Optional endpoint overrides per provider
# providers:
#   openai:
#     base_url: https://api.openai.com/v1
#   groq:
#     base_url: https://api.groq.com/openai/v1

# PR description template (optional, takes precedence over the repository template)
# pr_template:
#   # Option 1: Inline template
#   template: |
#     ## Summary
#     Brief overview of the changes
#
#     ## Testing
#     How the change was verified
#
#   # Option 2: Load from file
#   # file: ~/.shipit-pr-template.md
`

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize shipit configuration",
	Long: `Create a default configuration file (~/.shipit.yaml).

The file is optional: shipit works with built-in defaults and an API key in
the environment. Edit it to tune retries, untracked file limits, provider
endpoints, or the PR template.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		configPath := filepath.Join(homeDir, config.DefaultConfigName)
		if err := writeDefaultConfig(configPath, initForce); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Configuration file created: %s\n", configPath)
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "  1. Export an API key for one of the providers (see 'shipit providers')")
		fmt.Fprintln(out, "  2. Adjust the config file if the defaults don't suit you")
		fmt.Fprintln(out, "  3. Run 'shipit' in a repository with changes")
		return nil
	},
}

// writeDefaultConfig writes the commented template, refusing to overwrite unless force is set
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return serrors.Newf(serrors.KindConfig, "config file already exists: %s", path).
			WithHint("Use --force to overwrite it.")
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
