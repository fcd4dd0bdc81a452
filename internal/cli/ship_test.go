package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huimingz/shipit-go/internal/config"
	serrors "github.com/huimingz/shipit-go/internal/errors"
	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
	"github.com/huimingz/shipit-go/internal/log"
	"github.com/huimingz/shipit-go/internal/prompt"
	"github.com/huimingz/shipit-go/internal/ship"
	"github.com/huimingz/shipit-go/internal/ui"
)

// fakeRepo is an in-memory repository for the ship flow
type fakeRepo struct {
	notRepo   bool
	full      *git.Status
	scoped    *git.Status
	diff      string
	branch    string
	remoteURL string
	logs      map[string]*git.LogResult

	statusCalls [][]string
	commits     []string
	pushes      int
}

func newFakeRepo(files ...string) *fakeRepo {
	status := &git.Status{Branch: "main"}
	for _, f := range files {
		status.Files = append(status.Files, git.FileStatus{Path: f, WorkTree: 'M'})
		status.Modified = append(status.Modified, f)
	}
	return &fakeRepo{
		full:      status,
		diff:      "diff --git a/x b/x\n",
		branch:    "main",
		remoteURL: "https://github.com/acme/widgets.git",
		logs:      map[string]*git.LogResult{},
	}
}

func (r *fakeRepo) IsRepository(context.Context) bool { return !r.notRepo }

func (r *fakeRepo) Status(_ context.Context, paths []string) (*git.Status, error) {
	r.statusCalls = append(r.statusCalls, paths)
	if len(paths) > 0 && r.scoped != nil {
		return r.scoped, nil
	}
	return r.full, nil
}

func (r *fakeRepo) DiffSummary(context.Context, []string) (*git.DiffSummary, error) {
	return &git.DiffSummary{}, nil
}

func (r *fakeRepo) Diff(context.Context, []string) (string, error) { return r.diff, nil }
func (r *fakeRepo) Add(context.Context, []string) error            { return nil }

func (r *fakeRepo) DiffCached(_ context.Context, files []string) (string, error) {
	return "diff --git a/" + strings.Join(files, " ") + "\n", nil
}

func (r *fakeRepo) Commit(_ context.Context, message string, files []string) (*git.CommitResult, error) {
	r.commits = append(r.commits, message)
	return &git.CommitResult{Hash: fmt.Sprintf("%040d", len(r.commits)), Branch: r.branch, Changes: len(files)}, nil
}

func (r *fakeRepo) CurrentBranch(context.Context) (string, error) { return r.branch, nil }

func (r *fakeRepo) GetConfig(_ context.Context, key string) (string, error) {
	if key == "remote.origin.url" {
		return r.remoteURL, nil
	}
	return "", nil
}

func (r *fakeRepo) Log(_ context.Context, revRange string) (*git.LogResult, error) {
	if l, ok := r.logs[revRange]; ok {
		return l, nil
	}
	return &git.LogResult{}, nil
}

func (r *fakeRepo) Push(context.Context, string, string, bool) error {
	r.pushes++
	return nil
}

func (r *fakeRepo) RevParse(context.Context, ...string) (string, error) {
	return "", errors.New("fatal: Needed a single revision")
}

type fakeGen struct {
	groups []llm.CommitGroup
	err    error
	calls  int
}

func (g *fakeGen) GenerateCommitGroups(context.Context, string, string) ([]llm.CommitGroup, error) {
	g.calls++
	return g.groups, g.err
}

func (g *fakeGen) GeneratePRDraft(context.Context, string, string) (*llm.PRDraft, error) {
	g.calls++
	return &llm.PRDraft{Title: "Title", Body: "Body"}, g.err
}

func (g *fakeGen) LastUsage() llm.Usage { return llm.Usage{TotalTokens: 42} }

type fixture struct {
	repo *fakeRepo
	gen  *fakeGen
	out  *bytes.Buffer
	s    *shipper
}

func newFixture(t *testing.T, input string, repo *fakeRepo) *fixture {
	f := &fixture{
		repo: repo,
		gen:  &fakeGen{groups: []llm.CommitGroup{{Files: []string{"a.go"}, Type: "fix", Description: "Handle nil"}}},
		out:  &bytes.Buffer{},
	}
	f.s = &shipper{
		git:       repo,
		ui:        ui.New(strings.NewReader(input), f.out, false, false),
		cfg:       config.Default(),
		env:       config.Env{"GOOGLE_GENERATIVE_AI_API_KEY": "test-key"},
		root:      t.TempDir(),
		generator: func(*llm.Resolution) generator { return f.gen },
		templates: func() *prompt.Template { return nil },
	}
	return f
}

func TestShip_NotRepository(t *testing.T) {
	repo := newFakeRepo("a.go")
	repo.notRepo = true
	f := newFixture(t, "", repo)

	err := f.s.run(context.Background())
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindRepositoryState))
}

func TestShip_ConfigErrorBeforeInspection(t *testing.T) {
	f := newFixture(t, "", newFakeRepo("a.go"))
	f.s.env = config.Env{}

	err := f.s.run(context.Background())
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindConfig))
	assert.Contains(t, err.Error(), "GOOGLE_GENERATIVE_AI_API_KEY")
	assert.Empty(t, f.repo.statusCalls)
	assert.Zero(t, f.gen.calls)
}

func TestShip_RepositoryStateErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		want  string
	}{
		{
			name: "conflicts",
			setup: func(f *fixture) {
				f.repo.full.Conflicted = []string{"a.go"}
			},
			want: "Unresolved merge conflicts in: a.go",
		},
		{
			name: "staged outside the selection",
			setup: func(f *fixture) {
				f.repo.full.Staged = []string{"docs/readme.md", "src/a.go"}
				f.s.paths = []string{"src"}
			},
			want: "Staged changes outside the selected paths: docs/readme.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "", newFakeRepo("a.go"))
			tt.setup(f)

			err := f.s.run(context.Background())
			require.Error(t, err)
			assert.True(t, serrors.IsKind(err, serrors.KindRepositoryState))
			assert.Contains(t, err.Error(), tt.want)
			assert.NotEmpty(t, serrors.HintOf(err))
			assert.Zero(t, f.gen.calls)
		})
	}
}

func TestShip_SelectionUsesScopedStatus(t *testing.T) {
	repo := newFakeRepo("src/a.go", "docs/readme.md")
	repo.scoped = &git.Status{Files: []git.FileStatus{{Path: "src/a.go", WorkTree: 'M'}}}
	f := newFixture(t, "y\n", repo)
	f.s.paths = []string{"src"}

	require.NoError(t, f.s.run(context.Background()))
	require.Len(t, repo.statusCalls, 2)
	assert.Nil(t, repo.statusCalls[0])
	assert.Equal(t, []string{"src"}, repo.statusCalls[1])
}

func TestShip_CleanTree(t *testing.T) {
	f := newFixture(t, "", newFakeRepo())

	require.NoError(t, f.s.run(context.Background()))
	assert.Contains(t, f.out.String(), "squeaky clean")
	assert.Zero(t, f.gen.calls)
	assert.Zero(t, f.repo.pushes)
}

func TestShip_CommitsAcceptedGroup(t *testing.T) {
	f := newFixture(t, "y\n", newFakeRepo("a.go"))

	require.NoError(t, f.s.run(context.Background()))
	assert.Equal(t, []string{"fix: handle nil"}, f.repo.commits)
	assert.Contains(t, f.out.String(), "Boom! 1 commit(s)")
	assert.Zero(t, f.repo.pushes)
}

func TestShip_ProviderFailure(t *testing.T) {
	f := newFixture(t, "", newFakeRepo("a.go"))
	f.gen.err = errors.New("status code: 401")

	err := f.s.run(context.Background())
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindProviderCall))
	assert.Empty(t, f.repo.commits)
}

func TestShip_SizeGate(t *testing.T) {
	// well past the 100k token band under any BPE encoding
	huge := strings.Repeat("+\tresult = append(result, handler.process(ctx, item, index))\n", 12000)

	t.Run("decline stops before the provider", func(t *testing.T) {
		repo := newFakeRepo("a.go")
		repo.diff = huge
		f := newFixture(t, "\n", repo)

		require.NoError(t, f.s.run(context.Background()))
		assert.Contains(t, f.out.String(), "Whoa there!")
		assert.Contains(t, f.out.String(), "Smart move")
		assert.Zero(t, f.gen.calls)
	})

	t.Run("unsafe skips the question", func(t *testing.T) {
		repo := newFakeRepo("a.go")
		repo.diff = huge
		f := newFixture(t, "y\n", repo)
		f.s.opts.unsafe = true

		require.NoError(t, f.s.run(context.Background()))
		assert.NotContains(t, f.out.String(), "Whoa there!")
		assert.Equal(t, 1, f.gen.calls)
		assert.Len(t, f.repo.commits, 1)
	})

	t.Run("small prompts are not gated", func(t *testing.T) {
		f := newFixture(t, "y\n", newFakeRepo("a.go"))

		require.NoError(t, f.s.run(context.Background()))
		assert.NotContains(t, f.out.String(), "Whoa there!")
	})
}

func TestShip_PushAfterCommit(t *testing.T) {
	repo := newFakeRepo("a.go")
	repo.logs["origin/main..HEAD"] = &git.LogResult{
		Total:   1,
		Entries: []git.LogEntry{{Hash: fmt.Sprintf("%040d", 1)}},
	}
	f := newFixture(t, "y\n", repo)
	f.s.opts.push = true

	require.NoError(t, f.s.run(context.Background()))
	assert.Equal(t, 1, repo.pushes)
	// PR follows a push that produced commits; no base branch here
	assert.Contains(t, f.out.String(), "No main or master branch?")
}

func TestShip_PRFlagOnCleanTree(t *testing.T) {
	f := newFixture(t, "", newFakeRepo())
	f.s.opts.pr = true

	require.NoError(t, f.s.run(context.Background()))
	assert.Contains(t, f.out.String(), "squeaky clean")
	assert.Contains(t, f.out.String(), "No main or master branch?")
}

func TestSelectPaths(t *testing.T) {
	top, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	sub := filepath.Join(top, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	tests := []struct {
		name    string
		cwd     string
		args    []string
		want    []string
		wantErr bool
	}{
		{"no args", top, nil, nil, false},
		{"relative to subdirectory", sub, []string{"a.go", "pkg"}, []string{"sub/a.go", "sub/pkg"}, false},
		{"parent back to root", sub, []string{".."}, nil, false},
		{"absolute", top, []string{filepath.Join(top, "docs")}, []string{"docs"}, false},
		{"outside", top, []string{"../elsewhere"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectPaths(top, tt.cwd, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, serrors.IsKind(err, serrors.KindRepositoryState))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenSummary(t *testing.T) {
	tier := prompt.ClassifyTokens(100)

	fast := tokenSummary(100, tier, 10*time.Millisecond)
	assert.Contains(t, fast, "~100 tokens")
	assert.Contains(t, fast, "looking fresh")
	assert.NotContains(t, fast, "to count 'em")

	slow := tokenSummary(100, tier, 60*time.Millisecond)
	assert.Contains(t, slow, "took 60ms to count 'em")

	top := tokenSummary(200000, prompt.ClassifyTokens(200000), 0)
	assert.True(t, strings.HasPrefix(top, "That's"))
}

func TestShipOptions_AutoAccept(t *testing.T) {
	assert.False(t, shipOptions{}.autoAccept())
	assert.True(t, shipOptions{yes: true}.autoAccept())
	assert.True(t, shipOptions{force: true}.autoAccept())
}

var _ ship.PRGit = (*fakeRepo)(nil)

func TestDebugSummary(t *testing.T) {
	var buf bytes.Buffer
	prevNoColor := color.NoColor
	color.NoColor = true
	log.SetOutput(&buf)
	t.Cleanup(func() {
		color.NoColor = prevNoColor
		log.SetOutput(os.Stderr)
		log.SetDebugMode(false)
	})

	usage := llm.Usage{PromptTokens: 1200, CompletionTokens: 80, TotalTokens: 1280}
	start := time.Now()

	debugSummary(usage, start, start.Add(2*time.Second))
	assert.Empty(t, buf.String())

	log.SetDebugMode(true)
	debugSummary(usage, start, start.Add(2*time.Second))
	assert.Equal(t, "📊 Stats: 1280 tokens (prompt: 1200, completion: 80) | Time: 2.00s\n", buf.String())
}
