// Package fingerprint computes the content digests used to detect drift.
//
// Digests are lowercase hex SHA-256 over UTF-8 text. The algorithm is part
// of baseline format version 1; changing it invalidates every stored
// fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/phobologic/gitref/internal/outline"
)

// Text returns the digest of s.
func Text(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Node returns the digest of a located definition's canonical text.
func Node(n *outline.Node) string {
	return Text(n.Text)
}

// File returns the digest of a whole file, byte for byte. A directory is
// fingerprinted by its sorted entry names, subdirectories suffixed "/".
func File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return dir(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return Text(string(data)), nil
}

func dir(path string) (string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return Text(strings.Join(names, "\n")), nil
}
