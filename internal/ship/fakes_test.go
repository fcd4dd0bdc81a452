package ship

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/llm"
	"github.com/huimingz/shipit-go/internal/ui"
)

type commitCall struct {
	message string
	files   []string
}

type pushCall struct {
	remote      string
	branch      string
	setUpstream bool
}

// fakeGit simulates a repository with pending changes, a remote and a commit history
type fakeGit struct {
	branch    string
	remoteURL string
	refs      map[string]bool
	logs      map[string]*git.LogResult
	logErrs   map[string]error

	pending map[string]bool
	staged  map[string]bool

	addErr       error
	failCommitAt int // 1-based attempt that fails, 0 never
	pushErr      error

	adds           [][]string
	commits        []commitCall
	commitAttempts int
	pushes         []pushCall
}

func newFakeGit(pending ...string) *fakeGit {
	f := &fakeGit{
		branch:    "main",
		remoteURL: "git@github.com:acme/widgets.git",
		refs:      map[string]bool{},
		logs:      map[string]*git.LogResult{},
		logErrs:   map[string]error{},
		pending:   map[string]bool{},
		staged:    map[string]bool{},
	}
	for _, p := range pending {
		f.pending[p] = true
	}
	return f
}

func (f *fakeGit) CurrentBranch(context.Context) (string, error) { return f.branch, nil }

func (f *fakeGit) GetConfig(_ context.Context, key string) (string, error) {
	if key == "remote.origin.url" {
		return f.remoteURL, nil
	}
	return "", nil
}

func (f *fakeGit) RevParse(_ context.Context, args ...string) (string, error) {
	ref := args[len(args)-1]
	if f.refs[ref] {
		return "abc123", nil
	}
	return "", errors.New("fatal: Needed a single revision")
}

func (f *fakeGit) Log(_ context.Context, revRange string) (*git.LogResult, error) {
	if err := f.logErrs[revRange]; err != nil {
		return nil, err
	}
	if l, ok := f.logs[revRange]; ok {
		return l, nil
	}
	return &git.LogResult{}, nil
}

func (f *fakeGit) Push(_ context.Context, remote, branch string, setUpstream bool) error {
	f.pushes = append(f.pushes, pushCall{remote, branch, setUpstream})
	return f.pushErr
}

func (f *fakeGit) Add(_ context.Context, files []string) error {
	f.adds = append(f.adds, files)
	if f.addErr != nil {
		return f.addErr
	}
	for _, file := range files {
		if f.pending[file] {
			f.staged[file] = true
		}
	}
	return nil
}

func (f *fakeGit) DiffCached(_ context.Context, files []string) (string, error) {
	var b strings.Builder
	for _, file := range files {
		if f.staged[file] {
			fmt.Fprintf(&b, "diff --git a/%s b/%s\n", file, file)
		}
	}
	return b.String(), nil
}

func (f *fakeGit) Commit(_ context.Context, message string, files []string) (*git.CommitResult, error) {
	f.commitAttempts++
	if f.commitAttempts == f.failCommitAt {
		return nil, errors.New("pre-commit hook failed")
	}
	f.commits = append(f.commits, commitCall{message, files})
	for _, file := range files {
		delete(f.staged, file)
		delete(f.pending, file)
	}
	return &git.CommitResult{
		Hash:    fmt.Sprintf("%040d", len(f.commits)),
		Branch:  f.branch,
		Changes: len(files),
	}, nil
}

func logOf(hashes ...string) *git.LogResult {
	l := &git.LogResult{Total: len(hashes)}
	for _, h := range hashes {
		l.Entries = append(l.Entries, git.LogEntry{Hash: h, Message: "commit " + h})
	}
	return l
}

// fakeUI records every interaction and answers confirmations from a script
type fakeUI struct {
	answers   []bool
	onConfirm func()
	confirms  []string
	defaults  []bool
	infos     []string
	successes []string
	warnings  []string
	errors    []string
	messages  []string
	progress  []string
}

func (f *fakeUI) Confirm(message string, defaultYes bool) (bool, error) {
	f.confirms = append(f.confirms, message)
	f.defaults = append(f.defaults, defaultYes)
	if f.onConfirm != nil {
		f.onConfirm()
	}
	if len(f.answers) == 0 {
		return defaultYes, nil
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

func (f *fakeUI) Info(message string)    { f.infos = append(f.infos, message) }
func (f *fakeUI) Success(message string) { f.successes = append(f.successes, message) }
func (f *fakeUI) Warn(message string)    { f.warnings = append(f.warnings, message) }
func (f *fakeUI) Error(message string)   { f.errors = append(f.errors, message) }
func (f *fakeUI) Message(message string) { f.messages = append(f.messages, message) }

func (f *fakeUI) Progress(message string) ui.Progress {
	f.progress = append(f.progress, message)
	return &fakeProgress{ui: f}
}

type fakeProgress struct {
	ui *fakeUI
}

func (p *fakeProgress) Update(message string) { p.ui.progress = append(p.ui.progress, message) }

func (p *fakeProgress) Stop(message string) {
	if message != "" {
		p.ui.successes = append(p.ui.successes, message)
	}
}

// fakeGenerator returns canned commit groups or a PR draft
type fakeGenerator struct {
	groups []llm.CommitGroup
	draft  *llm.PRDraft
	err    error

	system string
	user   string
	calls  int
}

func (f *fakeGenerator) GenerateCommitGroups(_ context.Context, system, user string) ([]llm.CommitGroup, error) {
	f.calls++
	f.system, f.user = system, user
	return f.groups, f.err
}

func (f *fakeGenerator) GeneratePRDraft(_ context.Context, system, user string) (*llm.PRDraft, error) {
	f.calls++
	f.system, f.user = system, user
	return f.draft, f.err
}
