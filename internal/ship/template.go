package ship

import (
	"path"
	"strings"

	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/log"
	"github.com/huimingz/shipit-go/internal/prompt"
)

// templatePaths are checked in order before the template directory
var templatePaths = []string{
	".github/PULL_REQUEST_TEMPLATE.md",
	".github/pull_request_template.md",
	"PULL_REQUEST_TEMPLATE.md",
	"pull_request_template.md",
}

const templateDir = ".github/PULL_REQUEST_TEMPLATE"

// FindPRTemplate looks up a pull request template in the repository tree.
// It returns nil when there is none. Read failures are logged and skipped.
func FindPRTemplate(tree git.TreeReader) *prompt.Template {
	if tree == nil {
		return nil
	}

	for _, p := range templatePaths {
		if tpl := readTemplate(tree, p); tpl != nil {
			return tpl
		}
	}

	files, err := tree.ListFiles(templateDir)
	if err != nil {
		log.Warn("Failed to list %s: %v", templateDir, err)
		return nil
	}
	if len(files) == 0 {
		return nil
	}

	chosen := files[0]
	for _, f := range files {
		if strings.EqualFold(path.Ext(f), ".md") {
			chosen = f
			break
		}
	}
	return readTemplate(tree, path.Join(templateDir, chosen))
}

func readTemplate(tree git.TreeReader, p string) *prompt.Template {
	content, ok, err := tree.ReadFile(p)
	if err != nil {
		log.Warn("Failed to read PR template %s: %v", p, err)
		return nil
	}
	if !ok {
		return nil
	}
	return &prompt.Template{Content: strings.TrimSpace(content), Source: p}
}

// ResolvePRTemplate prefers configured template content over repository discovery
func ResolvePRTemplate(configured string, tree git.TreeReader) *prompt.Template {
	if strings.TrimSpace(configured) != "" {
		return &prompt.Template{Content: strings.TrimSpace(configured), Source: "config"}
	}
	return FindPRTemplate(tree)
}
