// Package baseline reads and writes the versioned hash file that records
// the fingerprint and line of every referenced target.
package baseline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/phobologic/gitref/internal/model"
)

// Version is the only hash file format this build understands.
const Version = 1

// DefaultFilename is the hash file name used when none is configured.
const DefaultFilename = "gitref.json"

// Baseline is the persisted snapshot from the last update.
type Baseline struct {
	Version int               `json:"version"`
	Hashes  map[string]string `json:"hashes"`
	Lines   map[string]int    `json:"lines"`
}

// New returns an empty baseline at the current version.
func New() *Baseline {
	return &Baseline{
		Version: Version,
		Hashes:  make(map[string]string),
		Lines:   make(map[string]int),
	}
}

// Targets returns the baselined targets in sorted order.
func (b *Baseline) Targets() []string {
	targets := make([]string, 0, len(b.Hashes))
	for target := range b.Hashes {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// Load reads the hash file at path. A missing file is not an error and
// returns (nil, nil); callers decide whether that is acceptable.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading hash file: %w", err)
	}

	var header struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decoding hash file %s: %w", path, err)
	}
	if header.Version == nil || *header.Version != Version {
		found := "missing"
		if header.Version != nil {
			found = fmt.Sprint(*header.Version)
		}
		return nil, fmt.Errorf("%w: code understands %d, file is %s", model.ErrIncompatibleFormat, Version, found)
	}

	b := New()
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decoding hash file %s: %w", path, err)
	}
	if b.Hashes == nil {
		b.Hashes = make(map[string]string)
	}
	if b.Lines == nil {
		b.Lines = make(map[string]int)
	}
	return b, nil
}

// Encode renders the baseline as indented JSON with sorted keys.
func (b *Baseline) Encode() ([]byte, error) {
	out := Baseline{Version: Version, Hashes: b.Hashes, Lines: b.Lines}
	if out.Hashes == nil {
		out.Hashes = map[string]string{}
	}
	if out.Lines == nil {
		out.Lines = map[string]int{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the full baseline to path, replacing any existing file.
func Save(path string, b *Baseline) error {
	data, err := b.Encode()
	if err != nil {
		return fmt.Errorf("encoding hash file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".gitref-*.json")
	if err != nil {
		return fmt.Errorf("writing hash file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing hash file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing hash file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing hash file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing hash file: %w", err)
	}
	return nil
}
