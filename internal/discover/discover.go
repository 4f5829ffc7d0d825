// Package discover finds documentation files and the project root they
// describe.
package discover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultInclude are the document globs used when none are configured.
var DefaultInclude = []string{"**/*.rst", "**/*.md"}

// ErrNoProjectRoot is returned when no ancestor of the docs directory
// holds a .git directory.
var ErrNoProjectRoot = errors.New("could not find ancestor path containing a .git dir - configure project_root")

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	"_build":        {},
	"build":         {},
	"dist":          {},
	"site":          {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
}

// SkipDir reports whether a directory with this name is never searched for
// documents or watched for changes.
func SkipDir(name string) bool {
	if _, skip := skipDirs[name]; skip {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Documents returns the documents under docsDir matching one of include
// and none of exclude, as sorted slash-separated paths relative to docsDir.
// Files ignored by git (or by docsDir/.gitignore outside a work tree) are
// skipped.
func Documents(docsDir string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid document pattern %q", pattern)
		}
	}

	gitFiles := gitLsFiles(docsDir)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = Ignorer(docsDir)
	}

	var results []string

	err := filepath.WalkDir(docsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == docsDir {
				return nil
			}
			if SkipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(docsDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if !matchAny(include, rel) || matchAny(exclude, rel) {
			return nil
		}

		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

// ProjectRoot finds the root the targets are relative to. An explicit
// relative path is resolved against docsDir and must be an existing
// directory; otherwise the nearest ancestor of docsDir containing a .git
// directory is used.
func ProjectRoot(docsDir string, relative *string) (string, error) {
	abs, err := filepath.Abs(docsDir)
	if err != nil {
		return "", err
	}

	if relative != nil {
		root := filepath.Join(abs, *relative)
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("project root %s does not exist - check your project_root", root)
		}
		return root, nil
	}

	for dir := abs; ; dir = filepath.Dir(dir) {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir, nil
		}
		if dir == filepath.Dir(dir) {
			return "", ErrNoProjectRoot
		}
	}
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// gitLsFiles lists tracked and untracked-but-not-ignored files below dir,
// relative to dir. Returns nil outside a git work tree.
func gitLsFiles(dir string) map[string]struct{} {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

// Ignorer returns a matcher for dir/.gitignore, or nil when there is none.
func Ignorer(dir string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
