// Package gitrepo reads the few bits of local git metadata gitref needs:
// the URL of a remote and the checked-out branch.
package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// DefaultRemote is the remote consulted when none is configured.
const DefaultRemote = "origin"

const headPrefix = "ref: refs/heads/"

// Repo is a local .git directory. A Repo for a missing directory answers
// empty values for everything.
type Repo struct {
	path string
}

// Open wraps the .git directory at gitDir.
func Open(gitDir string) *Repo {
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return &Repo{}
	}
	return &Repo{path: gitDir}
}

// RemoteURL returns the url of the named remote from .git/config. A
// missing config file or remote section yields "". A config file that
// cannot be parsed is an error.
func (r *Repo) RemoteURL(name string) (string, error) {
	if r.path == "" {
		return "", nil
	}
	if name == "" {
		name = DefaultRemote
	}

	configPath := filepath.Join(r.path, "config")
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		KeyValueDelimiters:  "=",
		AllowShadows:        true,
	}, configPath)
	if err != nil {
		return "", fmt.Errorf("reading git config %s: %w", configPath, err)
	}

	section, err := cfg.GetSection(fmt.Sprintf("remote %q", name))
	if err != nil {
		return "", nil
	}
	return section.Key("url").String(), nil
}

// Branch returns the branch HEAD points at, or "" for a detached or
// unreadable HEAD.
func (r *Repo) Branch() string {
	if r.path == "" {
		return ""
	}
	raw, err := os.ReadFile(filepath.Join(r.path, "HEAD"))
	if err != nil {
		return ""
	}
	head := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(head, headPrefix) {
		return ""
	}
	return strings.TrimPrefix(head, headPrefix)
}
