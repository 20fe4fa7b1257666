package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calvinalkan/cuckoodo/internal/bot"
	"github.com/calvinalkan/cuckoodo/internal/config"

	flag "github.com/spf13/pflag"
)

// ErrTextRequired is returned by exec without a message.
var ErrTextRequired = errors.New("message text is required")

// defaultChatID is the chat used by local commands.
const defaultChatID = 1

// ExecCmd returns the exec command.
func ExecCmd(cfg *config.Config) *Command {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	chatID := fs.Int64("chat", defaultChatID, "Chat id to act as")

	return &Command{
		Flags: fs,
		Usage: "exec [--chat N] <text>",
		Short: "Handle one chat message and print the reply",
		Long: `Handle one chat message, such as "/add milk @bob", against the configured
store and print the reply. Arguments are joined with spaces; put "--" before
text that starts with "-".

Reminders cannot fire because the process exits right away.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execExec(ctx, o, cfg, *chatID, strings.Join(args, " "))
		},
	}
}

func execExec(ctx context.Context, o *IO, cfg *config.Config, chatID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrTextRequired
	}

	log := cfg.NewLogger(o.ErrWriter())

	a, err := openApp(ctx, cfg, &printSender{o: o}, log)
	if err != nil {
		return err
	}

	defer func() { _ = a.Close() }()

	reply, ok, err := a.svc.Handle(ctx, chatID, text)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: %q (try /help)", ErrNotACommand, text)
	}

	o.Println(replyText(reply))

	if n := a.sched.Pending(); n > 0 {
		o.Warn(fmt.Sprintf("%d reminder(s) will not fire", n), "run serve or console to receive reminders")
	}

	return nil
}

// ErrNotACommand is returned for text that is no known command.
var ErrNotACommand = errors.New("not a command")

// replyText makes empty replies visible.
func replyText(reply string) string {
	if reply == "" {
		return bot.MsgEmptyList
	}

	return reply
}

// printSender delivers reminders by printing them.
type printSender struct {
	o *IO
}

// reminderPrefix marks reminder output in the terminal.
const reminderPrefix = "⏰ "

func (s *printSender) Send(_ context.Context, chatID int64, text string) error {
	s.o.Printf("%s%s (chat %d)\n", reminderPrefix, text, chatID)

	return nil
}
