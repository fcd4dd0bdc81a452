package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huimingz/shipit-go/internal/config"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	c := NewCollector("/repo", nil)
	assert.Equal(t, 20, c.MaxFiles)
	assert.Equal(t, 12000, c.MaxCharsPerFile)

	c = NewCollector("/repo", &config.UntrackedConfig{MaxFiles: 3})
	assert.Equal(t, 3, c.MaxFiles)
	assert.Equal(t, 12000, c.MaxCharsPerFile)
}

func TestCollector_PathSelection(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/new.ts":  "export {}",
		"docs/new.md": "# docs",
		"srcfoo.txt":  "not under src",
	})
	files := []string{"src/new.ts", "docs/new.md", "srcfoo.txt"}

	tests := []struct {
		name     string
		selected []string
		want     []string
	}{
		{"no selection includes everything", nil, []string{"src/new.ts", "docs/new.md", "srcfoo.txt"}},
		{"directory prefix", []string{"src"}, []string{"src/new.ts"}},
		{"exact file", []string{"docs/new.md"}, []string{"docs/new.md"}},
		{"trailing slash", []string{"docs/"}, []string{"docs/new.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contexts := NewCollector(root, nil).Collect(files, tt.selected)
			var got []string
			for _, c := range contexts {
				got = append(got, c.Path)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollector_MaxFiles(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	var paths []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		files[name] = name
		paths = append(paths, name)
	}
	writeFiles(t, root, files)

	contexts := NewCollector(root, &config.UntrackedConfig{MaxFiles: 2, MaxCharsPerFile: 100}).Collect(paths, nil)
	require.Len(t, contexts, 2)
	assert.Equal(t, "a.txt", contexts[0].Path)
	assert.Equal(t, "b.txt", contexts[1].Path)
}

func TestCollector_Truncation(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"exact.txt": "12345",
		"long.txt":  "1234567890",
		"wide.txt":  "héllo wörld",
	})

	c := NewCollector(root, &config.UntrackedConfig{MaxFiles: 10, MaxCharsPerFile: 5})
	contexts := c.Collect([]string{"exact.txt", "long.txt", "wide.txt"}, nil)
	require.Len(t, contexts, 3)

	assert.Equal(t, "12345", contexts[0].Content)
	assert.False(t, contexts[0].IsTruncated)

	assert.Equal(t, "12345", contexts[1].Content)
	assert.True(t, contexts[1].IsTruncated)

	assert.Equal(t, "héllo", contexts[2].Content)
	assert.True(t, contexts[2].IsTruncated)

	for _, ctx := range contexts {
		assert.LessOrEqual(t, len([]rune(ctx.Content)), 5)
	}
}

func TestCollector_Binary(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"image.bin": "PNG\x00\x01\x02"})

	contexts := NewCollector(root, nil).Collect([]string{"image.bin"}, nil)
	require.Len(t, contexts, 1)
	assert.True(t, contexts[0].IsBinary)
	assert.False(t, contexts[0].IsTruncated)
	assert.Equal(t, BinaryPlaceholder, contexts[0].Content)
}

func TestCollector_ReadErrorDoesNotAbort(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"ok.txt": "fine"})

	contexts := NewCollector(root, nil).Collect([]string{"missing.txt", "ok.txt"}, nil)
	require.Len(t, contexts, 2)
	assert.True(t, strings.HasPrefix(contexts[0].Content, "[unable to read file: "))
	assert.False(t, contexts[0].IsBinary)
	assert.Equal(t, "fine", contexts[1].Content)
}
