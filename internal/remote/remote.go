// Package remote formats links to files on a git hosting provider.
package remote

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoMatch is returned when no provider recognizes a remote URL.
var ErrNoMatch = errors.New("unable to find a match")

// Remote builds browser URLs for files in one repository and branch.
type Remote interface {
	// URL links to filename, anchored at line when line > 0.
	URL(filename string, line int) string
	Repo() string
	Branch() string
}

// Provider describes a hosting service: which remote URLs belong to it
// and how its file URLs look.
type Provider struct {
	Name   string
	Match  *regexp.Regexp // must capture a "repo" group
	File   string         // format with repo, branch, filename
	Anchor string         // format with line
}

func (p *Provider) repo(url string) (string, bool) {
	m := p.Match.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	i := p.Match.SubexpIndex("repo")
	if i < 0 {
		return "", false
	}
	return m[i], true
}

// hosted is a Remote on a known provider.
type hosted struct {
	provider *Provider
	repo     string
	branch   string
}

func (h *hosted) URL(filename string, line int) string {
	u := fmt.Sprintf(h.provider.File, h.repo, h.branch, strings.TrimPrefix(filename, "/"))
	if line > 0 {
		u += fmt.Sprintf(h.provider.Anchor, line)
	}
	return u
}

func (h *hosted) Repo() string   { return h.repo }
func (h *hosted) Branch() string { return h.branch }

func hostPattern(host string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:git@` + regexp.QuoteMeta(host) + `:|(?:ssh|https?)://(?:[^@/]+@)?` +
		regexp.QuoteMeta(host) + `/)(?P<repo>.+?)(?:\.git)?/?$`)
}

var (
	GitHub = &Provider{
		Name:   "github",
		Match:  hostPattern("github.com"),
		File:   "https://github.com/%s/blob/%s/%s",
		Anchor: "#L%d",
	}
	GitLab = &Provider{
		Name:   "gitlab",
		Match:  hostPattern("gitlab.com"),
		File:   "https://gitlab.com/%s/blob/%s/%s",
		Anchor: "#L%d",
	}
	Bitbucket = &Provider{
		Name:   "bitbucket",
		Match:  hostPattern("bitbucket.org"),
		File:   "https://bitbucket.org/%s/src/%s/%s",
		Anchor: "#lines-%d",
	}
)

// Registry holds the known providers in match order.
type Registry struct {
	providers []*Provider
}

// NewRegistry returns a registry of the built-in providers.
func NewRegistry() *Registry {
	return &Registry{providers: []*Provider{GitHub, GitLab, Bitbucket}}
}

// ForURL returns the remote for a git remote URL. The first provider
// whose pattern matches wins.
func (r *Registry) ForURL(url, branch string) (Remote, error) {
	for _, p := range r.providers {
		if repo, ok := p.repo(url); ok {
			return &hosted{provider: p, repo: repo, branch: branch}, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrNoMatch, url)
}

// Template is a remote for self-hosted services, configured with a URL
// template and a line anchor. The template may use {repo}, {branch},
// {filename} and {remote}; the anchor may use {line}.
type Template struct {
	RemoteURL string
	Format    string
	LineFmt   string
	BranchRef string
}

var genericRepo = regexp.MustCompile(`^(?:[^@/]+@[^:/]+:|[a-z+]+://(?:[^@/]+@)?[^/]+/)(?P<repo>.+?)(?:\.git)?/?$`)

func (t *Template) URL(filename string, line int) string {
	u := strings.NewReplacer(
		"{remote}", t.RemoteURL,
		"{repo}", t.Repo(),
		"{branch}", t.BranchRef,
		"{filename}", strings.TrimPrefix(filename, "/"),
	).Replace(t.Format)
	if line > 0 && t.LineFmt != "" {
		u += strings.ReplaceAll(t.LineFmt, "{line}", strconv.Itoa(line))
	}
	return u
}

// Repo returns the path part of the remote URL without a .git suffix.
func (t *Template) Repo() string {
	if m := genericRepo.FindStringSubmatch(t.RemoteURL); m != nil {
		return m[genericRepo.SubexpIndex("repo")]
	}
	return t.RemoteURL
}

func (t *Template) Branch() string { return t.BranchRef }
