// Package issue defines the tracked note, the repository contract every
// storage driver implements, and the ordinal addressing used by chat commands.
package issue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssigneeAll is the assignee of notes nobody in particular is responsible for.
const AssigneeAll = "all"

var (
	// ErrNotFound is returned by id-keyed repository operations for unknown ids.
	ErrNotFound = errors.New("issue not found")
	// ErrOutOfRange is returned by Resolve for positions outside the view.
	ErrOutOfRange = errors.New("position out of range")
	// ErrTextEmpty is returned by New for blank text.
	ErrTextEmpty = errors.New("issue text is empty")
)

// Issue is a single tracked note.
type Issue struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Owner    int64          `json:"owner"`
	Created  time.Time      `json:"created"`
	Assignee string         `json:"assignee"`
	Interval *time.Duration `json:"interval,omitempty"`
	Done     bool           `json:"done"`
}

// New returns an undone issue with a fresh time-ordered id.
// An empty assignee becomes [AssigneeAll].
func New(owner int64, text, assignee string, created time.Time, interval *time.Duration) (Issue, error) {
	if text == "" {
		return Issue{}, ErrTextEmpty
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Issue{}, fmt.Errorf("generate uuidv7: %w", err)
	}

	if assignee == "" {
		assignee = AssigneeAll
	}

	return Issue{
		ID:       id.String(),
		Text:     text,
		Owner:    owner,
		Created:  created,
		Assignee: assignee,
		Interval: interval,
	}, nil
}

// Filter selects the issues of one owner.
// An empty Assignee means every assignee.
type Filter struct {
	Owner    int64
	Assignee string
}

// Matches reports whether it passes the filter.
func (f Filter) Matches(it *Issue) bool {
	if it.Owner != f.Owner {
		return false
	}

	return f.Assignee == "" || it.Assignee == f.Assignee
}

// Repository is the durable store behind the chat commands.
//
// Find returns issues ordered by Created ascending, ties in insertion order.
// Id-keyed operations return [ErrNotFound] for unknown ids; any other error is
// a storage failure.
type Repository interface {
	Insert(ctx context.Context, it Issue) error
	Find(ctx context.Context, f Filter) ([]Issue, error)
	Get(ctx context.Context, id string) (Issue, error)
	SetDone(ctx context.Context, id string) error
	SetAssignee(ctx context.Context, id, assignee string) error
	Delete(ctx context.Context, id string) error
}
