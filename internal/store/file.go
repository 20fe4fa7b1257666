package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/cuckoodo/internal/issue"
)

const fileFormatVersion = 1

// File keeps all issues in one JSON document.
//
// Every mutation reloads the document under an exclusive file lock and
// rewrites it atomically, so several processes may share one file and a crash
// leaves either the old or the new contents. Reads load the current document
// without locking.
type File struct {
	path string

	mu     sync.Mutex
	closed bool
}

type fileDocument struct {
	Version int           `json:"version"`
	Issues  []issue.Issue `json:"issues"` // insertion order
}

// OpenFile opens the document at path. A missing file is an empty store.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("open store: path is empty")
	}

	f := &File{path: filepath.Clean(path)}

	err := os.MkdirAll(filepath.Dir(f.path), 0o750)
	if err != nil {
		return nil, fmt.Errorf("open store: create directory: %w", err)
	}

	_, err = f.load()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return f, nil
}

// Close makes further operations fail. The document is already on disk.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

// Insert adds a new issue.
func (f *File) Insert(_ context.Context, it issue.Issue) error {
	return f.mutate(func(issues []issue.Issue) ([]issue.Issue, error) {
		if indexOf(issues, it.ID) >= 0 {
			return nil, fmt.Errorf("insert issue %s: duplicate id", it.ID)
		}

		return append(issues, cloneIssue(it)), nil
	})
}

// Find returns the issues matching f in creation order.
func (f *File) Find(_ context.Context, filter issue.Filter) ([]issue.Issue, error) {
	issues, err := f.snapshot()
	if err != nil {
		return nil, err
	}

	var out []issue.Issue

	for i := range issues {
		if filter.Matches(&issues[i]) {
			out = append(out, issues[i])
		}
	}

	// Stable: equal timestamps keep insertion order.
	slices.SortStableFunc(out, func(a, b issue.Issue) int {
		return a.Created.Compare(b.Created)
	})

	return out, nil
}

// Get returns the issue with id.
func (f *File) Get(_ context.Context, id string) (issue.Issue, error) {
	issues, err := f.snapshot()
	if err != nil {
		return issue.Issue{}, err
	}

	i := indexOf(issues, id)
	if i < 0 {
		return issue.Issue{}, fmt.Errorf("%w: %s", issue.ErrNotFound, id)
	}

	return issues[i], nil
}

// SetDone marks the issue done.
func (f *File) SetDone(_ context.Context, id string) error {
	return f.update(id, func(it *issue.Issue) { it.Done = true })
}

// SetAssignee moves the issue to assignee.
func (f *File) SetAssignee(_ context.Context, id, assignee string) error {
	return f.update(id, func(it *issue.Issue) { it.Assignee = assignee })
}

// Delete removes the issue.
func (f *File) Delete(_ context.Context, id string) error {
	return f.mutate(func(issues []issue.Issue) ([]issue.Issue, error) {
		i := indexOf(issues, id)
		if i < 0 {
			return nil, fmt.Errorf("delete: %w: %s", issue.ErrNotFound, id)
		}

		return slices.Delete(issues, i, i+1), nil
	})
}

func (f *File) update(id string, fn func(*issue.Issue)) error {
	return f.mutate(func(issues []issue.Issue) ([]issue.Issue, error) {
		i := indexOf(issues, id)
		if i < 0 {
			return nil, fmt.Errorf("update: %w: %s", issue.ErrNotFound, id)
		}

		fn(&issues[i])

		return issues, nil
	})
}

func (f *File) snapshot() ([]issue.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	return f.load()
}

// mutate applies fn to the current document and writes the result. Nothing
// is written when fn fails.
func (f *File) mutate(fn func([]issue.Issue) ([]issue.Issue, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	return withFileLock(f.path, func() error {
		issues, err := f.load()
		if err != nil {
			return err
		}

		next, err := fn(issues)
		if err != nil {
			return err
		}

		return f.write(next)
	})
}

// load reads the document. A missing file is an empty document.
func (f *File) load() ([]issue.Issue, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var doc fileDocument

	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}

	if doc.Version != fileFormatVersion {
		return nil, fmt.Errorf("%s: %w: %d", f.path, ErrSchemaVersion, doc.Version)
	}

	return doc.Issues, nil
}

func (f *File) write(issues []issue.Issue) error {
	if issues == nil {
		issues = []issue.Issue{}
	}

	data, err := json.MarshalIndent(fileDocument{Version: fileFormatVersion, Issues: issues}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}

	err = atomic.WriteFile(f.path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}

	return nil
}

func indexOf(issues []issue.Issue, id string) int {
	return slices.IndexFunc(issues, func(it issue.Issue) bool { return it.ID == id })
}
