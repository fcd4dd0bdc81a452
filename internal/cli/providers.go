package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/huimingz/shipit-go/internal/config"
	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List AI providers",
	Long: `List the registered AI providers in the order they are tried,
with their default model, the API key variable each one needs, and
which provider the current environment resolves to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		dir := cwd
		if top, err := git.NewExecutor(cwd).TopLevel(context.Background()); err == nil {
			dir = top
		}

		env, err := config.LoadEnv(dir)
		if err != nil {
			return fmt.Errorf("failed to read .env files: %w", err)
		}

		printProviders(cmd.OutOrStdout(), env, cfg)
		return nil
	},
}

// printProviders writes the registry and the current resolution
func printProviders(w io.Writer, env config.Env, cfg *config.Config) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	resolved, resolveErr := llm.Resolve(env, cfg)

	bold.Fprintln(w, "Providers (in priority order):")
	fmt.Fprintln(w)

	for _, desc := range llm.Registry() {
		if resolved != nil && resolved.ID == desc.ID {
			green.Fprintf(w, "  ✓ %s (%s) (selected)\n", desc.ID, desc.Label)
		} else {
			fmt.Fprintf(w, "    %s (%s)\n", desc.ID, desc.Label)
		}

		keyState := "not set"
		if env.IsSet(desc.APIKeyEnv) {
			keyState = "set"
		}
		cyan.Fprintf(w, "      Model:    %s (%s)\n", desc.DefaultModelID, desc.DefaultModelName)
		cyan.Fprintf(w, "      API key:  %s (%s)\n", desc.APIKeyEnv, keyState)
		if baseURL := cfg.BaseURL(desc.ID); baseURL != "" {
			cyan.Fprintf(w, "      Base URL: %s\n", baseURL)
		}
		fmt.Fprintln(w)
	}

	if resolveErr != nil {
		color.New(color.FgYellow).Fprintf(w, "⚠️  %v\n", resolveErr)
		return
	}
	fmt.Fprintf(w, "Using %s with model %s\n", resolved.Label, resolved.ModelID)
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
