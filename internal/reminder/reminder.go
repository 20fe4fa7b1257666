// Package reminder delivers one-shot reminders for issues.
//
// Pending reminders live in memory only; a restart forgets them.
package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calvinalkan/cuckoodo/internal/issue"
)

// ErrStopped is returned by Schedule after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Sender delivers a message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Lookup finds an issue by id. It returns [issue.ErrNotFound] for deleted issues.
type Lookup interface {
	Get(ctx context.Context, id string) (issue.Issue, error)
}

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock creates timers. The real clock uses [time.AfterFunc].
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Scheduler owns the pending reminder timers, keyed by timer id.
type Scheduler struct {
	ctx    context.Context
	issues Lookup
	sender Sender
	clock  Clock
	log    *slog.Logger

	mu      sync.Mutex
	pending map[string]Timer
	stopped bool
	wg      sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New returns a scheduler delivering through sender. Deliveries run with ctx.
func New(ctx context.Context, issues Lookup, sender Sender, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:     ctx,
		issues:  issues,
		sender:  sender,
		clock:   realClock{},
		log:     slog.New(slog.DiscardHandler),
		pending: make(map[string]Timer),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Schedule arranges for issueID to be looked up and delivered to its owner
// once delay has elapsed. It returns the timer id.
func (s *Scheduler) Schedule(issueID string, delay time.Duration) (string, error) {
	if delay < 0 {
		delay = 0
	}

	timerID := uuid.NewString()

	// Held across AfterFunc so a zero delay cannot fire before registration.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return "", ErrStopped
	}

	s.pending[timerID] = s.clock.AfterFunc(delay, func() { s.fire(timerID, issueID) })

	s.log.Info("reminder scheduled", "timer", timerID, "issue", issueID, "delay", delay.String())

	return timerID, nil
}

// Pending returns the number of reminders that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

// Stop cancels every pending reminder and waits for deliveries in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()

	s.stopped = true

	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}

	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) fire(timerID, issueID string) {
	s.mu.Lock()

	if _, ok := s.pending[timerID]; !ok {
		s.mu.Unlock()

		return
	}

	delete(s.pending, timerID)
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	it, err := s.issues.Get(s.ctx, issueID)
	if errors.Is(err, issue.ErrNotFound) {
		s.log.Debug("reminder skipped, issue gone", "timer", timerID, "issue", issueID)

		return
	}

	if err != nil {
		s.log.Error("reminder lookup failed", "timer", timerID, "issue", issueID, "error", err)

		return
	}

	err = s.sender.Send(s.ctx, it.Owner, it.Text)
	if err != nil {
		s.log.Warn("reminder delivery failed", "timer", timerID, "issue", issueID, "chat", it.Owner, "error", err)

		return
	}

	s.log.Info("reminder fired", "timer", timerID, "issue", issueID, "chat", it.Owner)
}
