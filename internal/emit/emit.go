// Package emit writes integration artifacts into a layout plan's
// directories.
//
// Generators directory layout:
//
//	<generators>/
//	  .lock                 # held while writing
//	  .llman-state.json     # artifacts written by the last run and their hashes
//	  llman-deps.cmake
//	  ...
package emit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goplus/llman/internal/generate"
	"github.com/goplus/llman/internal/layout"
	"github.com/rogpeppe/go-internal/lockedfile"
)

const (
	stateFile = ".llman-state.json"
	lockFile  = ".lock"
)

// stateEntry records one artifact written by a previous run.
type stateEntry struct {
	Kind   string `json:"kind"`
	SHA256 string `json:"sha256"`
}

// state maps artifact names to their entries.
type state struct {
	Files map[string]*stateEntry `json:"files"`
}

func (s *state) get(name string) (*stateEntry, bool) {
	e, ok := s.Files[name]
	return e, ok
}

func (s *state) set(name string, e *stateEntry) {
	if s.Files == nil {
		s.Files = make(map[string]*stateEntry)
	}
	s.Files[name] = e
}

// loadState reads the state file of dir.
func loadState(dir string) (*state, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		return nil, err
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// saveState writes the state file of dir.
func saveState(dir string, s *state) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, stateFile), append(data, '\n'), 0o644)
}

// Report lists what Write did, by artifact name.
type Report struct {
	Written   []string
	Unchanged []string
	Removed   []string // left over from an earlier run
}

// Writer writes artifacts to disk.
type Writer struct {
	logger *log.Logger
}

// NewWriter returns a Writer logging to logger, or nowhere if logger is
// nil.
func NewWriter(logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Writer{logger: logger}
}

// Write creates the directories of plan and writes arts into its
// generators directory. Artifacts whose content is already on disk are not
// rewritten; artifacts written by an earlier run but absent from arts are
// removed. Each file is replaced atomically.
func (w *Writer) Write(ctx context.Context, plan layout.Plan, arts []generate.Artifact) (*Report, error) {
	for _, a := range arts {
		if !filepath.IsLocal(a.Name) || strings.ContainsAny(a.Name, `/\`) {
			return nil, fmt.Errorf("artifact %s: invalid name %q", a.Kind, a.Name)
		}
	}
	for _, dir := range []string{plan.Generators, plan.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	unlock, err := lockedfile.MutexAt(filepath.Join(plan.Generators, lockFile)).Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	prev, err := loadState(plan.Generators)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("ignoring unreadable state", "dir", plan.Generators, "err", err)
		}
		prev = &state{}
	}

	var (
		report Report
		next   state
	)
	for _, a := range arts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum := sha256.Sum256(a.Body)
		entry := &stateEntry{Kind: a.Kind, SHA256: hex.EncodeToString(sum[:])}
		next.set(a.Name, entry)

		path := filepath.Join(plan.Generators, a.Name)
		if e, ok := prev.get(a.Name); ok && e.SHA256 == entry.SHA256 && sameContent(path, sum) {
			report.Unchanged = append(report.Unchanged, a.Name)
			w.logger.Debug("unchanged", "file", a.Name)
			continue
		}
		if err := writeFile(path, a.Body, modeOf(a.Name)); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.Name, err)
		}
		report.Written = append(report.Written, a.Name)
		w.logger.Debug("wrote", "file", a.Name, "bytes", len(a.Body))
	}

	for _, name := range slices.Sorted(maps.Keys(prev.Files)) {
		if _, ok := next.get(name); ok {
			continue
		}
		if !filepath.IsLocal(name) {
			continue
		}
		err := os.Remove(filepath.Join(plan.Generators, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		report.Removed = append(report.Removed, name)
		w.logger.Debug("removed stale", "file", name)
	}

	if err := saveState(plan.Generators, &next); err != nil {
		return nil, err
	}
	return &report, nil
}

// sameContent reports whether the file at path hashes to sum.
func sameContent(path string, sum [sha256.Size]byte) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == sum
}

func modeOf(name string) fs.FileMode {
	if strings.HasSuffix(name, ".sh") {
		return 0o755
	}
	return 0o644
}

// writeFile replaces the file at path with data through a temporary file
// in the same directory.
func writeFile(path string, data []byte, perm fs.FileMode) (err error) {
	dir, base := filepath.Split(path)
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Chmod(perm); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
