package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// emptyTree is the well-known hash of the empty tree, used as a diff base before the first commit
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Executor defines the interface for git command execution
type Executor interface {
	// IsRepository reports whether the working directory is inside a work tree
	IsRepository(ctx context.Context) bool

	// TopLevel returns the absolute path of the repository root
	TopLevel(ctx context.Context) (string, error)

	// CurrentBranch returns the current branch name
	CurrentBranch(ctx context.Context) (string, error)

	// Status returns the parsed working tree status, optionally scoped to paths
	Status(ctx context.Context, paths []string) (*Status, error)

	// DiffSummary returns per-file insertions and deletions against HEAD
	DiffSummary(ctx context.Context, paths []string) (*DiffSummary, error)

	// Diff returns the textual diff of the working tree against HEAD
	Diff(ctx context.Context, paths []string) (string, error)

	// DiffCached returns the diff of staged changes restricted to files
	DiffCached(ctx context.Context, files []string) (string, error)

	// Add stages additions, modifications and removals of files
	Add(ctx context.Context, files []string) error

	// Commit records the staged state of files with the given message
	Commit(ctx context.Context, message string, files []string) (*CommitResult, error)

	// Push pushes branch to remote
	Push(ctx context.Context, remote, branch string, setUpstream bool) error

	// Log returns the commits in a revision range, newest first
	Log(ctx context.Context, revRange string) (*LogResult, error)

	// RevParse runs git rev-parse with args
	RevParse(ctx context.Context, args ...string) (string, error)

	// GetConfig returns a config value, or "" when the key is unset
	GetConfig(ctx context.Context, key string) (string, error)

	// Show returns detailed information about a commit
	Show(ctx context.Context, ref string) (string, error)

	// Raw runs an arbitrary git command
	Raw(ctx context.Context, args ...string) (string, error)
}

// CommitResult describes a commit created by Commit
type CommitResult struct {
	Hash       string
	Branch     string
	Changes    int
	Insertions int
	Deletions  int
}

// LogEntry is a single commit in a LogResult
type LogEntry struct {
	Hash    string
	Message string
	Author  string
	Date    string
}

// LogResult is the parsed output of Log
type LogResult struct {
	Total   int
	Entries []LogEntry
}

// Hashes returns the full hashes of every entry
func (l *LogResult) Hashes() []string {
	hashes := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		hashes = append(hashes, e.Hash)
	}
	return hashes
}

// DefaultExecutor is the default implementation of Executor
type DefaultExecutor struct {
	workDir string
}

// NewExecutor creates a new DefaultExecutor
func NewExecutor(workDir string) *DefaultExecutor {
	return &DefaultExecutor{workDir: workDir}
}

// WorkDir returns the directory git commands run in
func (e *DefaultExecutor) WorkDir() string {
	return e.workDir
}

// runGit runs a git command and returns the trimmed output
func (e *DefaultExecutor) runGit(ctx context.Context, args ...string) (string, error) {
	out, err := e.runGitRaw(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// runGitRaw runs a git command and returns stdout untouched.
// Porcelain output relies on leading spaces, so it must not be trimmed.
func (e *DefaultExecutor) runGitRaw(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, stderr.String())
	}

	return stdout.String(), nil
}

// withPaths appends a pathspec separator and paths when any are given
func withPaths(args []string, paths []string) []string {
	if len(paths) == 0 {
		return args
	}
	args = append(args, "--")
	return append(args, paths...)
}

// IsRepository reports whether the working directory is inside a work tree
func (e *DefaultExecutor) IsRepository(ctx context.Context) bool {
	out, err := e.runGit(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// TopLevel returns the absolute path of the repository root
func (e *DefaultExecutor) TopLevel(ctx context.Context) (string, error) {
	return e.runGit(ctx, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the current branch name.
// Before the first commit it falls back to the symbolic HEAD target.
func (e *DefaultExecutor) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := e.runGit(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err == nil {
		return branch, nil
	}
	if ref, symErr := e.runGit(ctx, "symbolic-ref", "--short", "HEAD"); symErr == nil {
		return ref, nil
	}
	return "", err
}

// hasHead reports whether the repository has at least one commit
func (e *DefaultExecutor) hasHead(ctx context.Context) bool {
	_, err := e.runGit(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// diffBase returns HEAD, or the empty tree for a repository without commits
func (e *DefaultExecutor) diffBase(ctx context.Context) string {
	if e.hasHead(ctx) {
		return "HEAD"
	}
	return emptyTree
}

// Status returns the parsed working tree status, optionally scoped to paths
func (e *DefaultExecutor) Status(ctx context.Context, paths []string) (*Status, error) {
	args := withPaths([]string{"status", "--porcelain", "-z", "--branch", "--untracked-files=all"}, paths)
	out, err := e.runGitRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseStatus(out), nil
}

// DiffSummary returns per-file insertions and deletions against HEAD
func (e *DefaultExecutor) DiffSummary(ctx context.Context, paths []string) (*DiffSummary, error) {
	args := withPaths([]string{"diff", e.diffBase(ctx), "--numstat", "-z", "--no-renames"}, paths)
	out, err := e.runGitRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseNumstat(out), nil
}

// Diff returns the textual diff of the working tree against HEAD
func (e *DefaultExecutor) Diff(ctx context.Context, paths []string) (string, error) {
	return e.runGit(ctx, withPaths([]string{"diff", e.diffBase(ctx)}, paths)...)
}

// DiffCached returns the diff of staged changes restricted to files
func (e *DefaultExecutor) DiffCached(ctx context.Context, files []string) (string, error) {
	return e.runGit(ctx, withPaths([]string{"diff", "--cached"}, files)...)
}

// Add stages additions, modifications and removals of files
func (e *DefaultExecutor) Add(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return errors.New("no files to stage")
	}
	_, err := e.runGit(ctx, withPaths([]string{"add", "-A"}, files)...)
	return err
}

// Commit records the staged state of files with the given message.
// With no files, everything currently staged is committed.
func (e *DefaultExecutor) Commit(ctx context.Context, message string, files []string) (*CommitResult, error) {
	if _, err := e.runGit(ctx, withPaths([]string{"commit", "-m", message}, files)...); err != nil {
		return nil, err
	}

	hash, err := e.runGit(ctx, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}
	result := &CommitResult{Hash: hash}

	if branch, err := e.CurrentBranch(ctx); err == nil {
		result.Branch = branch
	}

	// The root commit has no parent to diff against, so show always works here
	stat, err := e.runGit(ctx, "show", "--shortstat", "--format=", "HEAD")
	if err == nil {
		result.Changes, result.Insertions, result.Deletions = ParseShortstat(stat)
	}

	return result, nil
}

// Push pushes branch to remote
func (e *DefaultExecutor) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "--set-upstream")
	}
	args = append(args, remote, branch)
	_, err := e.runGit(ctx, args...)
	return err
}

// logFormat separates fields with US and records with RS so subjects may contain anything
const logFormat = "--format=%H%x1f%s%x1f%an%x1f%aI%x1e"

// Log returns the commits in a revision range, newest first
func (e *DefaultExecutor) Log(ctx context.Context, revRange string) (*LogResult, error) {
	args := []string{"log", logFormat}
	if revRange != "" {
		args = append(args, revRange)
	}

	output, err := e.runGitRaw(ctx, args...)
	if err != nil {
		// Empty repo returns error, return an empty log instead
		if strings.Contains(err.Error(), "does not have any commits") {
			return &LogResult{}, nil
		}
		return nil, err
	}
	return ParseLog(output), nil
}

// RevParse runs git rev-parse with args
func (e *DefaultExecutor) RevParse(ctx context.Context, args ...string) (string, error) {
	return e.runGit(ctx, append([]string{"rev-parse"}, args...)...)
}

// GetConfig returns a config value, or "" when the key is unset
func (e *DefaultExecutor) GetConfig(ctx context.Context, key string) (string, error) {
	out, err := e.runGit(ctx, "config", "--get", key)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// Show returns detailed information about a commit
func (e *DefaultExecutor) Show(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	return e.runGit(ctx, "show", ref, "--stat")
}

// Raw runs an arbitrary git command
func (e *DefaultExecutor) Raw(ctx context.Context, args ...string) (string, error) {
	return e.runGit(ctx, args...)
}

// ParseShortstat parses "N files changed, X insertions(+), Y deletions(-)"
func ParseShortstat(stat string) (changes, insertions, deletions int) {
	for _, part := range strings.Split(strings.TrimSpace(stat), ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(fields[1], "file"):
			changes = n
		case strings.HasPrefix(fields[1], "insertion"):
			insertions = n
		case strings.HasPrefix(fields[1], "deletion"):
			deletions = n
		}
	}
	return changes, insertions, deletions
}

// ParseLog parses output produced with logFormat
func ParseLog(output string) *LogResult {
	result := &LogResult{}
	for _, record := range strings.Split(output, "\x1e") {
		record = strings.Trim(record, "\r\n")
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, "\x1f", 4)
		entry := LogEntry{Hash: fields[0]}
		if len(fields) > 1 {
			entry.Message = fields[1]
		}
		if len(fields) > 2 {
			entry.Author = fields[2]
		}
		if len(fields) > 3 {
			entry.Date = fields[3]
		}
		result.Entries = append(result.Entries, entry)
	}
	result.Total = len(result.Entries)
	return result
}
