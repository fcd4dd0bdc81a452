package prompt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huimingz/shipit-go/internal/config"
	"github.com/huimingz/shipit-go/internal/git"
	"github.com/huimingz/shipit-go/internal/log"
)

// BinaryPlaceholder replaces the content of files that contain a NUL byte
const BinaryPlaceholder = "[binary file omitted]"

// FileContext is the content of one untracked file as shown to the model
type FileContext struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	IsBinary    bool   `json:"is_binary"`
	IsTruncated bool   `json:"is_truncated"`
}

// Collector reads untracked files within a path selection, bounded by file count and size
type Collector struct {
	Root            string
	MaxFiles        int
	MaxCharsPerFile int
}

// NewCollector creates a collector reading paths relative to root
func NewCollector(root string, limits *config.UntrackedConfig) *Collector {
	if limits == nil {
		limits = config.DefaultUntrackedConfig()
	}
	c := &Collector{
		Root:            root,
		MaxFiles:        limits.MaxFiles,
		MaxCharsPerFile: limits.MaxCharsPerFile,
	}
	defaults := config.DefaultUntrackedConfig()
	if c.MaxFiles <= 0 {
		c.MaxFiles = defaults.MaxFiles
	}
	if c.MaxCharsPerFile <= 0 {
		c.MaxCharsPerFile = defaults.MaxCharsPerFile
	}
	return c
}

// Collect returns contexts for filePaths in input order.
// A file that cannot be read yields an entry describing the failure.
func (c *Collector) Collect(filePaths, selected []string) []FileContext {
	contexts := make([]FileContext, 0, min(len(filePaths), c.MaxFiles))

	for _, path := range filePaths {
		if !git.PathSelected(path, selected) {
			continue
		}
		if len(contexts) >= c.MaxFiles {
			log.Debug("Untracked file limit reached (%d), skipping the rest", c.MaxFiles)
			break
		}
		contexts = append(contexts, c.read(path))
	}

	return contexts
}

func (c *Collector) read(path string) FileContext {
	data, err := os.ReadFile(filepath.Join(c.Root, filepath.FromSlash(path)))
	if err != nil {
		return FileContext{
			Path:    path,
			Content: fmt.Sprintf("[unable to read file: %v]", err),
		}
	}

	if bytes.IndexByte(data, 0) >= 0 {
		return FileContext{Path: path, Content: BinaryPlaceholder, IsBinary: true}
	}

	content, truncated := truncateRunes(string(data), c.MaxCharsPerFile)
	return FileContext{Path: path, Content: content, IsTruncated: truncated}
}

// truncateRunes cuts s to at most limit characters
func truncateRunes(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	return string(runes[:limit]), true
}
