package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/gitref/internal/baseline"
	"github.com/phobologic/gitref/internal/discover"
	"github.com/phobologic/gitref/internal/config"
	"github.com/phobologic/gitref/internal/model"
	"github.com/phobologic/gitref/internal/parse"
	"github.com/phobologic/gitref/internal/remote"
	"github.com/phobologic/gitref/internal/report"
)

const example = `value = 1


class Reader:
    def read(self):
        return value
`

const index = "Reading\n=======\n\nCall :gitref:`example.py::Reader.read` after\nsetting :gitref:`the value <example.py::value>`.\n"

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixture lays out a project with example.py and a docs directory.
func fixture(t *testing.T, docs map[string]string) *config.Resolved {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "example.py", example)
	for rel, content := range docs {
		writeFile(t, root, filepath.Join("docs", rel), content)
	}

	r, err := remote.NewRegistry().ForURL("git@github.com:user/repo.git", "main")
	require.NoError(t, err)
	return &config.Resolved{
		DocsDir:      filepath.Join(root, "docs"),
		ProjectRoot:  root,
		BaselinePath: filepath.Join(root, "docs", baseline.DefaultFilename),
		Remote:       r,
		LabelFormat:  "{filename}::{coderef}",
		Hashing:      true,
		Include:      discover.DefaultInclude,
		Workers:      4,
	}
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRunUpdateThenCheck(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, map[string]string{"index.rst": index})

	res, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeUpdate, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.True(t, res.Report.Passed)
	assert.Equal(t, 2, res.Report.Found)
	_, err = uuid.Parse(res.PassID)
	assert.NoError(t, err)

	require.Len(t, res.Documents, 1)
	doc := res.Documents[0]
	assert.Equal(t, "index.rst", doc.Path)
	require.Len(t, doc.Links, 2)
	assert.Equal(t, model.Link{
		Document: "index.rst",
		Line:     4,
		Target:   "example.py::Reader.read",
		Label:    "example.py::Reader.read",
		URL:      "https://github.com/user/repo/blob/main/example.py#L5",
	}, doc.Links[0])
	assert.Equal(t, "the value", doc.Links[1].Label)
	assert.Equal(t, "https://github.com/user/repo/blob/main/example.py#L1", doc.Links[1].URL)
	assert.Contains(t, doc.Content,
		`Call <a href="https://github.com/user/repo/blob/main/example.py#L5">example.py::Reader.read</a> after`)

	check, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeCheck, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.True(t, check.Report.Passed)
	assert.NotEqual(t, res.PassID, check.PassID)
}

func TestRunCheckDetectsDrift(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, map[string]string{"index.rst": index})

	_, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeUpdate, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)

	writeFile(t, cfg.ProjectRoot, "example.py", "value = 2\n\n\nclass Reader:\n    def read(self):\n        return value\n")

	var logs bytes.Buffer
	res, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeCheck, Logger: testLogger(&logs)})
	require.NoError(t, err)
	assert.False(t, res.Report.Passed)
	assert.ErrorIs(t, res.Report.Err(), report.ErrFailed)
	require.Len(t, res.Report.Problems, 1)
	assert.Equal(t, "example.py::value", res.Report.Problems[0].Target)

	links := res.Links()
	require.Len(t, links, 2)
	assert.NoError(t, links[0].Err)
	assert.ErrorIs(t, links[1].Err, model.ErrTargetChanged)
	// Changed targets still link to their current location.
	assert.NotEmpty(t, links[1].URL)
	assert.Contains(t, logs.String(), "document=index.rst")
	assert.Contains(t, logs.String(), "pass=")
}

func TestRunMissingFileRendersPlainLabel(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, map[string]string{"index.md": "See {gitref}`missing.py`.\n"})

	res, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeUpdate, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.True(t, res.Report.Passed)
	require.Len(t, res.Report.Problems, 1)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "See missing.py.\n", res.Documents[0].Content)
	assert.ErrorIs(t, res.Documents[0].Links[0].Err, model.ErrFileNotFound)
}

func TestRunCheckWithoutBaseline(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, map[string]string{"index.rst": index})

	_, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeCheck, Logger: testLogger(&bytes.Buffer{})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gitref update")
}

func TestRunHashingDisabled(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, map[string]string{"index.rst": index})
	cfg.Hashing = false

	res, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeCheck, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.Equal(t, model.ModeOff, res.Mode)
	assert.True(t, res.Report.Passed)
	_, err = os.Stat(cfg.BaselinePath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunManyDocuments(t *testing.T) {
	t.Parallel()
	docs := make(map[string]string)
	for i := range 12 {
		docs[fmt.Sprintf("page%02d.rst", i)] = index
	}
	cfg := fixture(t, docs)
	cache, err := parse.NewCache(parse.DefaultCacheSize)
	require.NoError(t, err)

	res, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeUpdate, Cache: cache, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.True(t, res.Report.Passed)
	assert.Equal(t, 2, res.Report.Found)
	require.Len(t, res.Documents, 12)
	assert.Equal(t, "page00.rst", res.Documents[0].Path)
	assert.Equal(t, "page11.rst", res.Documents[11].Path)
	assert.Len(t, res.Links(), 24)
	assert.Equal(t, 1, cache.Len())

	b, err := baseline.Load(cfg.BaselinePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.py::Reader.read", "example.py::value"}, b.Targets())
}

func TestRunUnusedBaselineEntry(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, map[string]string{"index.rst": index})

	_, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeUpdate, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)

	writeFile(t, cfg.DocsDir, "index.rst", "Only :gitref:`example.py::value`.\n")

	res, err := Run(context.Background(), Options{Config: cfg, Mode: model.ModeCheck, Logger: testLogger(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.True(t, res.Report.Passed)
	assert.Equal(t, []string{"example.py::Reader.read"}, res.Report.Unused)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, map[string]string{"index.rst": index})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{Config: cfg, Mode: model.ModeUpdate, Logger: testLogger(&bytes.Buffer{})})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(cfg.BaselinePath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRunRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
