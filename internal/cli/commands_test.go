package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huimingz/shipit-go/internal/config"
	serrors "github.com/huimingz/shipit-go/internal/errors"
	"github.com/huimingz/shipit-go/internal/ship"
)

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultConfigName)

	require.NoError(t, writeDefaultConfig(path, false))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "origin", cfg.GetRemote())
	assert.Equal(t, 20, cfg.GetUntrackedConfig().MaxFiles)
	assert.Equal(t, 3, cfg.GetRetryConfig().MaxAttempts)

	err = writeDefaultConfig(path, false)
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindConfig))
	assert.Contains(t, serrors.HintOf(err), "--force")

	require.NoError(t, os.WriteFile(path, []byte("remote: upstream\n"), 0600))
	require.NoError(t, writeDefaultConfig(path, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigTemplate, string(data))
}

func TestPrintProviders(t *testing.T) {
	t.Run("selected provider", func(t *testing.T) {
		var buf bytes.Buffer
		printProviders(&buf, config.Env{"OPENAI_API_KEY": "k"}, config.Default())

		out := buf.String()
		assert.Contains(t, out, "openai (OpenAI) (selected)")
		assert.Contains(t, out, "OPENAI_API_KEY (set)")
		assert.Contains(t, out, "GOOGLE_GENERATIVE_AI_API_KEY (not set)")
		assert.Contains(t, out, "Using OpenAI with model")
	})

	t.Run("nothing configured", func(t *testing.T) {
		var buf bytes.Buffer
		printProviders(&buf, config.Env{}, config.Default())

		out := buf.String()
		assert.NotContains(t, out, "(selected)")
		assert.Contains(t, out, "No AI provider API key found")
	})

	t.Run("base url override", func(t *testing.T) {
		cfg := config.Default()
		cfg.Providers = map[string]config.ProviderSettings{"groq": {BaseURL: "https://proxy.example/v1"}}

		var buf bytes.Buffer
		printProviders(&buf, config.Env{"GROQ_API_KEY": "k"}, cfg)
		assert.Contains(t, buf.String(), "Base URL: https://proxy.example/v1")
	})
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "today")
	t.Cleanup(func() { SetVersionInfo("dev", "unknown", "unknown") })

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, buf.String(), "shipit 1.2.3")
	assert.Contains(t, buf.String(), "Git Commit: abc123")
}

func TestRootCommand_Flags(t *testing.T) {
	for _, name := range []string{"yes", "force", "unsafe", "push", "pr", "appendix", "silent"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), name)
	}
	for short, long := range map[string]string{"y": "yes", "f": "force", "u": "unsafe", "p": "push", "a": "appendix", "s": "silent"} {
		flag := rootCmd.Flags().ShorthandLookup(short)
		require.NotNil(t, flag, short)
		assert.Equal(t, long, flag.Name)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestInterruptHandler_SecondSignalExits(t *testing.T) {
	cancelled := make(chan struct{})
	exited := make(chan int, 1)

	h := NewInterruptHandler(func() { close(cancelled) })
	h.exit = func(code int) { exited <- code }
	go h.handleSignals()

	h.sigChan <- os.Interrupt
	<-cancelled
	h.sigChan <- os.Interrupt
	assert.Equal(t, interruptExitCode, <-exited)
}

func TestInterruptHandler_StopWithoutSignal(t *testing.T) {
	called := false
	h := NewInterruptHandler(func() { called = true })
	h.Start()
	h.Stop()
	assert.False(t, called)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"interrupted at a prompt", fmt.Errorf("%w: %w", ship.ErrInterrupted, context.Canceled), interruptExitCode},
		{"cancelled git call", fmt.Errorf("git add: %w", context.Canceled), interruptExitCode},
		{"staging failure", serrors.New(serrors.KindStaging, "Failed to stage files"), 1},
		{"plain error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
