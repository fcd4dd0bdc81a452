package git

import (
	"sort"
	"strconv"
	"strings"
)

// FileStatus is one entry of porcelain status output
type FileStatus struct {
	Path     string
	From     string // original path of a rename or copy
	Index    byte
	WorkTree byte
}

// Rename records a staged rename
type Rename struct {
	From string
	To   string
}

// Status is the parsed working tree status
type Status struct {
	Branch     string
	Tracking   string
	Ahead      int
	Behind     int
	Files      []FileStatus
	Staged     []string
	Modified   []string
	Deleted    []string
	Renamed    []Rename
	Untracked  []string
	Conflicted []string
}

// conflictCodes are the unmerged XY pairs documented by git status
var conflictCodes = map[string]bool{
	"DD": true, "AU": true, "UD": true, "UA": true,
	"DU": true, "AA": true, "UU": true,
}

// IsClean reports whether there is nothing to commit
func (s *Status) IsClean() bool {
	return len(s.Files) == 0
}

// HasConflicts reports whether any path is unmerged
func (s *Status) HasConflicts() bool {
	return len(s.Conflicted) > 0
}

// ChangedCount returns the number of distinct changed or new paths
func (s *Status) ChangedCount() int {
	return len(s.Paths())
}

// Paths returns every path that has a pending change, sorted
func (s *Status) Paths() []string {
	seen := make(map[string]bool, len(s.Files))
	paths := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		if !seen[f.Path] {
			seen[f.Path] = true
			paths = append(paths, f.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// StagedOutside returns staged paths not covered by the selection.
// An empty selection covers everything.
func (s *Status) StagedOutside(selected []string) []string {
	if len(selected) == 0 {
		return nil
	}
	var outside []string
	for _, path := range s.Staged {
		if !PathSelected(path, selected) {
			outside = append(outside, path)
		}
	}
	return outside
}

// PathSelected reports whether path equals a selected path or lies beneath one
func PathSelected(path string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, sel := range selected {
		sel = strings.TrimSuffix(sel, "/")
		if sel == "" || sel == "." {
			return true
		}
		if path == sel || strings.HasPrefix(path, sel+"/") {
			return true
		}
	}
	return false
}

// ParseStatus parses `git status --porcelain -z --branch` output
func ParseStatus(output string) *Status {
	status := &Status{}
	tokens := strings.Split(output, "\x00")

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, "## ") {
			parseBranchLine(status, strings.TrimPrefix(token, "## "))
			continue
		}
		if len(token) < 4 {
			continue
		}

		x, y := token[0], token[1]
		entry := FileStatus{Path: token[3:], Index: x, WorkTree: y}
		if x == 'R' || x == 'C' {
			// The source path follows as its own token
			if i+1 < len(tokens) {
				entry.From = tokens[i+1]
				i++
			}
		}

		code := string([]byte{x, y})
		switch {
		case code == "!!":
			continue
		case conflictCodes[code]:
			status.Conflicted = append(status.Conflicted, entry.Path)
		case code == "??":
			status.Untracked = append(status.Untracked, entry.Path)
		default:
			if x != ' ' {
				status.Staged = append(status.Staged, entry.Path)
			}
			if x == 'R' {
				status.Renamed = append(status.Renamed, Rename{From: entry.From, To: entry.Path})
			}
			if x == 'D' || y == 'D' {
				status.Deleted = append(status.Deleted, entry.Path)
			}
			if y == 'M' || y == 'A' || y == 'T' {
				status.Modified = append(status.Modified, entry.Path)
			}
		}
		status.Files = append(status.Files, entry)
	}

	return status
}

// parseBranchLine handles "main...origin/main [ahead 1, behind 2]" and its variants
func parseBranchLine(status *Status, line string) {
	if rest, ok := strings.CutPrefix(line, "No commits yet on "); ok {
		status.Branch = rest
		return
	}
	if rest, ok := strings.CutPrefix(line, "Initial commit on "); ok {
		status.Branch = rest
		return
	}

	head, counts, _ := strings.Cut(line, " [")
	branch, tracking, _ := strings.Cut(head, "...")
	status.Branch = branch
	status.Tracking = tracking

	counts = strings.TrimSuffix(counts, "]")
	for _, part := range strings.Split(counts, ",") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		switch fields[0] {
		case "ahead":
			status.Ahead = n
		case "behind":
			status.Behind = n
		}
	}
}

// FileDiff is a per-file change record
type FileDiff struct {
	Path       string
	Insertions int
	Deletions  int
	Binary     bool
}

// DiffSummary is an ordered list of per-file change records
type DiffSummary struct {
	Files      []FileDiff
	Insertions int
	Deletions  int
}

// ParseNumstat parses `git diff --numstat -z --no-renames` output
func ParseNumstat(output string) *DiffSummary {
	summary := &DiffSummary{Files: []FileDiff{}}
	for _, record := range strings.Split(output, "\x00") {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		parts := strings.SplitN(record, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		file := FileDiff{Path: parts[2]}
		if parts[0] == "-" && parts[1] == "-" {
			file.Binary = true
		} else {
			file.Insertions, _ = strconv.Atoi(parts[0])
			file.Deletions, _ = strconv.Atoi(parts[1])
		}
		summary.Insertions += file.Insertions
		summary.Deletions += file.Deletions
		summary.Files = append(summary.Files, file)
	}
	return summary
}
