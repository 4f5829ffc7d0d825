// Package config loads gitref.yaml and resolves it into the settings of a
// pass.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/gitref/internal/baseline"
	"github.com/phobologic/gitref/internal/discover"
	"github.com/phobologic/gitref/internal/gitrepo"
	"github.com/phobologic/gitref/internal/logging"
	"github.com/phobologic/gitref/internal/markup"
	"github.com/phobologic/gitref/internal/remote"
)

// Filename is the name of the configuration file in the docs directory.
const Filename = "gitref.yaml"

// Environment variables that override the file.
const (
	EnvRemoteURL = "GITREF_REMOTE_URL"
	EnvBranch    = "GITREF_BRANCH"
	EnvLogLevel  = "GITREF_LOG_LEVEL"
)

// ErrNotFound is returned when the docs directory has no gitref.yaml.
var ErrNotFound = errors.New("no " + Filename + " found - run \"gitref init\"")

// Config mirrors gitref.yaml. Unset keys are nil.
type Config struct {
	ProjectRoot *string  `yaml:"project_root"`
	RemoteURL   *string  `yaml:"remote_url"`
	RemoteName  *string  `yaml:"remote_name"`
	Branch      *string  `yaml:"branch"`
	URLTemplate *string  `yaml:"url_template"`
	LineAnchor  *string  `yaml:"line_anchor"`
	LabelFormat *string  `yaml:"label_format"`
	Hashing     *bool    `yaml:"hashing"`
	HashFile    *string  `yaml:"hash_file"`
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Workers     *int     `yaml:"workers"`
	LogLevel    *string  `yaml:"log_level"`
}

// Resolved is a validated configuration with every default applied.
type Resolved struct {
	DocsDir      string
	ProjectRoot  string
	BaselinePath string
	Remote       remote.Remote
	LabelFormat  string
	Hashing      bool
	Include      []string
	Exclude      []string
	Workers      int
	LogLevel     slog.Level
}

// Load reads docsDir/gitref.yaml. A .env file in docsDir is loaded first,
// then the GITREF_* environment variables override the file.
func Load(docsDir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(docsDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	path := filepath.Join(docsDir, Filename)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNotFound, docsDir)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if v := os.Getenv(EnvRemoteURL); v != "" {
		cfg.RemoteURL = &v
	}
	if v := os.Getenv(EnvBranch); v != "" {
		cfg.Branch = &v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = &v
	}
	return cfg, nil
}

// Parse decodes a gitref.yaml document. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// Validate resolves the configuration for the docs directory. Git
// metadata fills in the remote URL and branch when they are not set.
func (c *Config) Validate(docsDir string) (*Resolved, error) {
	docsDir, err := filepath.Abs(docsDir)
	if err != nil {
		return nil, err
	}

	root, err := discover.ProjectRoot(docsDir, c.ProjectRoot)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		DocsDir:      docsDir,
		ProjectRoot:  root,
		BaselinePath: filepath.Join(docsDir, value(c.HashFile, baseline.DefaultFilename)),
		LabelFormat:  value(c.LabelFormat, markup.DefaultLabelFormat),
		Hashing:      c.Hashing == nil || *c.Hashing,
		Include:      c.Include,
		Exclude:      c.Exclude,
		Workers:      runtime.GOMAXPROCS(0),
		LogLevel:     slog.LevelInfo,
	}
	if len(r.Include) == 0 {
		r.Include = discover.DefaultInclude
	}
	for _, pattern := range append(append([]string{}, r.Include...), r.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid document pattern %q", pattern)
		}
	}

	if c.Workers != nil {
		if *c.Workers < 0 {
			return nil, fmt.Errorf("workers must not be negative, got %d", *c.Workers)
		}
		if *c.Workers > 0 {
			r.Workers = *c.Workers
		}
	}

	if c.LogLevel != nil {
		level, ok := logging.ParseLevel(*c.LogLevel)
		if !ok {
			return nil, fmt.Errorf("unknown log_level %q", *c.LogLevel)
		}
		r.LogLevel = level
	}

	r.Remote, err = c.remote(root)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Config) remote(root string) (remote.Remote, error) {
	repo := gitrepo.Open(filepath.Join(root, ".git"))

	url := value(c.RemoteURL, "")
	if url == "" {
		var err error
		url, err = repo.RemoteURL(value(c.RemoteName, gitrepo.DefaultRemote))
		if err != nil {
			return nil, err
		}
	}
	if url == "" {
		return nil, errors.New("could not determine remote_url, must set explicitly")
	}

	branch := value(c.Branch, "")
	if branch == "" {
		branch = repo.Branch()
	}
	if branch == "" {
		return nil, errors.New("could not determine branch, must set explicitly")
	}

	found, err := remote.NewRegistry().ForURL(url, branch)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, remote.ErrNoMatch) || c.URLTemplate == nil {
		return nil, fmt.Errorf("%w - set url_template for self-hosted remotes", err)
	}
	return &remote.Template{
		RemoteURL: url,
		Format:    *c.URLTemplate,
		LineFmt:   value(c.LineAnchor, ""),
		BranchRef: branch,
	}, nil
}

func value[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
