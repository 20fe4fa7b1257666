package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/calvinalkan/cuckoodo/internal/issue"
)

// Memory keeps issues in process memory. Contents are lost on Close.
type Memory struct {
	mu     sync.RWMutex
	issues map[string]*memEntry
	seq    int64
	closed bool
}

type memEntry struct {
	issue issue.Issue
	seq   int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{issues: make(map[string]*memEntry)}
}

// Close drops all issues.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.issues = nil
	m.closed = true

	return nil
}

// Insert adds a new issue.
func (m *Memory) Insert(_ context.Context, it issue.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, exists := m.issues[it.ID]; exists {
		return fmt.Errorf("insert issue %s: duplicate id", it.ID)
	}

	m.seq++
	m.issues[it.ID] = &memEntry{issue: cloneIssue(it), seq: m.seq}

	return nil
}

// Find returns the issues matching f in creation order.
func (m *Memory) Find(_ context.Context, f issue.Filter) ([]issue.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	entries := make([]*memEntry, 0, len(m.issues))

	for _, e := range m.issues {
		if f.Matches(&e.issue) {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.issue.Created.Equal(b.issue.Created) {
			return a.issue.Created.Before(b.issue.Created)
		}

		return a.seq < b.seq
	})

	out := make([]issue.Issue, 0, len(entries))
	for _, e := range entries {
		out = append(out, cloneIssue(e.issue))
	}

	return out, nil
}

// Get returns the issue with id.
func (m *Memory) Get(_ context.Context, id string) (issue.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return issue.Issue{}, ErrClosed
	}

	e, ok := m.issues[id]
	if !ok {
		return issue.Issue{}, fmt.Errorf("%w: %s", issue.ErrNotFound, id)
	}

	return cloneIssue(e.issue), nil
}

// SetDone marks the issue done.
func (m *Memory) SetDone(_ context.Context, id string) error {
	return m.update(id, func(it *issue.Issue) { it.Done = true })
}

// SetAssignee moves the issue to assignee.
func (m *Memory) SetAssignee(_ context.Context, id, assignee string) error {
	return m.update(id, func(it *issue.Issue) { it.Assignee = assignee })
}

// Delete removes the issue.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, ok := m.issues[id]; !ok {
		return fmt.Errorf("delete: %w: %s", issue.ErrNotFound, id)
	}

	delete(m.issues, id)

	return nil
}

func (m *Memory) update(id string, fn func(*issue.Issue)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	e, ok := m.issues[id]
	if !ok {
		return fmt.Errorf("update: %w: %s", issue.ErrNotFound, id)
	}

	fn(&e.issue)

	return nil
}

// cloneIssue copies it so callers never share the Interval pointer with the store.
func cloneIssue(it issue.Issue) issue.Issue {
	if it.Interval != nil {
		d := *it.Interval
		it.Interval = &d
	}

	return it
}
