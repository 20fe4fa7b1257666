// Package bot turns chat messages into issue operations and replies, and
// connects that to Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/calvinalkan/cuckoodo/internal/command"
	"github.com/calvinalkan/cuckoodo/internal/issue"
)

// Scheduler registers one-shot reminders.
type Scheduler interface {
	Schedule(issueID string, delay time.Duration) (string, error)
}

// Handler answers chat messages. ok is false for messages that are not
// commands; those get no reply.
type Handler interface {
	Handle(ctx context.Context, chatID int64, text string) (reply string, ok bool, err error)
}

// Service implements the chat commands on top of a repository.
type Service struct {
	repo      issue.Repository
	reminders Scheduler
	aliases   *command.Aliases
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNow replaces time.Now for creation timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService wires the handlers.
func NewService(repo issue.Repository, reminders Scheduler, aliases *command.Aliases, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		reminders: reminders,
		aliases:   aliases,
		now:       time.Now,
		log:       slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var _ Handler = (*Service)(nil)

// Handle parses text and runs the command for chatID.
//
// Parse failures and out-of-range positions produce fixed replies and no
// error. A non-nil error means the store failed; the command may or may not
// have taken effect.
func (s *Service) Handle(ctx context.Context, chatID int64, text string) (string, bool, error) {
	kind, word, ok := s.aliases.Lookup(text)
	if !ok {
		return "", false, nil
	}

	cmd, err := command.Parse(kind, text)
	if err != nil {
		s.log.Info("message invalid", "chat", chatID, "command", word)

		return MsgNotUnderstood, true, nil
	}

	reply, err := s.run(ctx, chatID, cmd)
	if err != nil {
		return "", true, fmt.Errorf("%s: %w", kind, err)
	}

	s.log.Info("command handled", "chat", chatID, "command", kind, "word", word)

	return reply, true, nil
}

func (s *Service) run(ctx context.Context, chatID int64, cmd command.Command) (string, error) {
	switch cmd.Kind {
	case command.KindStart:
		return MsgStart, nil
	case command.KindHelp:
		return helpText(s.aliases), nil
	case command.KindAdd:
		return s.add(ctx, chatID, cmd)
	case command.KindList:
		return s.list(ctx, issue.Filter{Owner: chatID, Assignee: cmd.Assignee})
	case command.KindDone:
		return s.mutate(ctx, chatID, cmd, s.repo.SetDone, cmd.Assignee)
	case command.KindDelete:
		return s.mutate(ctx, chatID, cmd, s.repo.Delete, cmd.Assignee)
	case command.KindReassign:
		reassign := func(ctx context.Context, id string) error {
			return s.repo.SetAssignee(ctx, id, cmd.NewAssignee)
		}

		return s.mutate(ctx, chatID, cmd, reassign, cmd.NewAssignee)
	default:
		return MsgNotUnderstood, nil
	}
}

func (s *Service) add(ctx context.Context, chatID int64, cmd command.Command) (string, error) {
	it, err := issue.New(chatID, cmd.Text, cmd.Assignee, s.now(), cmd.Interval)
	if err != nil {
		return "", err
	}

	err = s.repo.Insert(ctx, it)
	if err != nil {
		return "", err
	}

	s.log.Debug("issue added", "chat", chatID, "issue", it.ID, "assignee", it.Assignee)

	if it.Interval == nil {
		return addReply(it.Text, it.Assignee), nil
	}

	// The issue is stored either way; a scheduling failure only loses the reminder.
	_, err = s.reminders.Schedule(it.ID, *it.Interval)
	if err != nil {
		s.log.Warn("reminder not scheduled", "issue", it.ID, "error", err)
	}

	return addReminderReply(it.Text, it.Assignee, cmd.Phrase), nil
}

func (s *Service) list(ctx context.Context, f issue.Filter) (string, error) {
	view, err := s.repo.Find(ctx, f)
	if err != nil {
		return "", err
	}

	return issue.FormatList(view), nil
}

// mutate resolves cmd.Position against a fresh view of cmd.Assignee, applies
// the mutation to that id and renders the view of renderAssignee.
//
// Nothing serialises the find and the mutation: a concurrent command for the
// same chat can shift positions in between.
func (s *Service) mutate(
	ctx context.Context,
	chatID int64,
	cmd command.Command,
	apply func(ctx context.Context, id string) error,
	renderAssignee string,
) (string, error) {
	view, err := s.repo.Find(ctx, issue.Filter{Owner: chatID, Assignee: cmd.Assignee})
	if err != nil {
		return "", err
	}

	target, err := issue.Resolve(view, cmd.Position)
	if errors.Is(err, issue.ErrOutOfRange) {
		s.log.Info("position out of range", "chat", chatID, "command", cmd.Kind, "position", cmd.Position, "size", len(view))

		return MsgNoSuchIssue, nil
	}

	err = apply(ctx, target.ID)
	if errors.Is(err, issue.ErrNotFound) {
		s.log.Warn("issue vanished before mutation", "chat", chatID, "command", cmd.Kind, "issue", target.ID)

		return MsgNoSuchIssue, nil
	}

	if err != nil {
		return "", err
	}

	s.log.Debug("issue updated", "chat", chatID, "command", cmd.Kind, "issue", target.ID)

	return s.list(ctx, issue.Filter{Owner: chatID, Assignee: renderAssignee})
}
