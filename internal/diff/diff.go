// Package diff reads git diffs to find which lines of a file were added, so
// reports can be limited to changed code.
package diff

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/bluekeyes/go-gitdiff/gitdiff"
	log "github.com/sirupsen/logrus"
)

// WorkingTree selects the working tree against HEAD instead of a range.
const WorkingTree = "-"

// File is one file of a diff with the lines it adds.
type File struct {
	NewName   string
	IsDeleted bool
	// Added holds zero-based line numbers in the new version of the file.
	Added        []int
	DeletedLines int
}

// DiffSet holds the parsed diff for all files.
type DiffSet struct {
	Files []*File
}

// Stats returns aggregate statistics.
func (ds *DiffSet) Stats() (files, added, deleted int) {
	files = len(ds.Files)
	for _, f := range ds.Files {
		added += len(f.Added)
		deleted += f.DeletedLines
	}
	return
}

// Find returns the file whose new name is path (slash-separated, relative to
// the repository root), or nil.
func (ds *DiffSet) Find(path string) *File {
	path = filepath.ToSlash(filepath.Clean(path))
	for _, f := range ds.Files {
		if !f.IsDeleted && f.NewName == path {
			return f
		}
	}
	return nil
}

// Changed returns the set of added lines for path. A file absent from the
// diff yields an empty set.
func (ds *DiffSet) Changed(path string) map[int]bool {
	out := make(map[int]bool)
	if f := ds.Find(path); f != nil {
		for _, ln := range f.Added {
			out[ln] = true
		}
	}
	return out
}

// Parse reads a unified diff string and returns a DiffSet.
func Parse(raw string) (*DiffSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ds := &DiffSet{}
	for _, f := range parsed {
		df := &File{NewName: f.NewName, IsDeleted: f.IsDelete}

		for _, frag := range f.TextFragments {
			pos, err := safecast.Conv[int](frag.NewPosition)
			if err != nil {
				return nil, fmt.Errorf("parsing diff: %s: %w", f.NewName, err)
			}
			// NewPosition is 1-based; a pure deletion at the top reports 0.
			ln := max(pos-1, 0)
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					df.Added = append(df.Added, ln)
					ln++
				case gitdiff.OpContext:
					ln++
				case gitdiff.OpDelete:
					df.DeletedLines++
				}
			}
		}

		ds.Files = append(ds.Files, df)
	}

	return ds, nil
}

// GitDiff runs `git diff` with the given arguments and returns the raw output.
func GitDiff(repoDir string, args ...string) (string, error) {
	cmdArgs := append([]string{"diff"}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Dir = repoDir

	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("git diff: %w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git diff: %w", err)
	}

	return string(out), nil
}

// RepoRoot returns the top level of the git repository containing dir.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", dir)
	}
	return strings.TrimSpace(string(out)), nil
}

// ChangedLines returns the zero-based lines of the file at path that were
// added by commitRange. WorkingTree compares the working tree with HEAD.
func ChangedLines(path, commitRange string) (map[int]bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	root, err := RepoRoot(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	// git reports paths below the resolved top level.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, err
	}

	args := []string{"-U0", "--no-color", "--no-ext-diff"}
	if commitRange == WorkingTree || commitRange == "" {
		args = append(args, "HEAD")
	} else {
		args = append(args, commitRange)
	}
	args = append(args, "--", rel)

	raw, err := GitDiff(root, args...)
	if err != nil {
		return nil, err
	}
	ds, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	files, added, deleted := ds.Stats()
	log.WithFields(log.Fields{
		"path":    rel,
		"range":   commitRange,
		"files":   files,
		"added":   added,
		"deleted": deleted,
	}).Debug("diff parsed")
	return ds.Changed(rel), nil
}
