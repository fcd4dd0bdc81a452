package ship

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// OpenRequest is a pull request ready to be opened on the hosting service
type OpenRequest struct {
	Base     string
	Title    string
	BodyFile string
}

// OpenResult is what the opener reported
type OpenResult struct {
	Stdout string
	Stderr string
	URL    string
	Opened bool
}

// Opener hands a pull request to the hosting service
type Opener interface {
	Open(ctx context.Context, req OpenRequest) (*OpenResult, error)
}

var urlPattern = regexp.MustCompile(`https://\S+`)

// GHOpener opens the pull request creation page through the GitHub CLI
type GHOpener struct {
	workDir string
	bin     string
}

// NewGHOpener creates an opener running gh in workDir
func NewGHOpener(workDir string) *GHOpener {
	return &GHOpener{workDir: workDir, bin: "gh"}
}

func (o *GHOpener) Open(ctx context.Context, req OpenRequest) (*OpenResult, error) {
	cmd := exec.CommandContext(ctx, o.bin, "pr", "create",
		"--base", req.Base,
		"--title", req.Title,
		"--body-file", req.BodyFile,
		"--web",
	)
	cmd.Dir = o.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := ParseOpenOutput(stdout.String(), stderr.String())
	if runErr != nil {
		return result, fmt.Errorf("gh pr create failed: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}
	return result, nil
}

// ParseOpenOutput interprets the output of `gh pr create --web`
func ParseOpenOutput(stdout, stderr string) *OpenResult {
	return &OpenResult{
		Stdout: stdout,
		Stderr: stderr,
		URL:    urlPattern.FindString(stdout + stderr),
		Opened: strings.Contains(stdout, "Opening") ||
			strings.Contains(stdout, "https://") ||
			strings.Contains(stderr, "Opening"),
	}
}

// CompareURL builds the web compare page for base...head from a remote URL.
// SSH remotes are converted to their https form.
func CompareURL(remoteURL, base, head string) string {
	u := strings.TrimSpace(remoteURL)
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")

	switch {
	case strings.HasPrefix(u, "ssh://"):
		u = strings.TrimPrefix(u, "ssh://")
		if at := strings.Index(u, "@"); at >= 0 {
			u = u[at+1:]
		}
		u = "https://" + u
	case strings.HasPrefix(u, "git@"):
		u = "https://" + strings.Replace(strings.TrimPrefix(u, "git@"), ":", "/", 1)
	}

	return fmt.Sprintf("%s/compare/%s...%s", u, base, head)
}
