package cli

import (
	"context"

	"github.com/calvinalkan/cuckoodo/internal/bot"
	"github.com/calvinalkan/cuckoodo/internal/config"

	flag "github.com/spf13/pflag"
)

// ServeCmd returns the serve command.
func ServeCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("serve", flag.ContinueOnError),
		Usage: "serve",
		Short: "Run the Telegram bot",
		Long: `Run the Telegram bot with long polling until interrupted.

The bot token comes from the TOKEN environment variable or the "token"
config field. Pending reminders are lost when the process exits.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execServe(ctx, o, cfg)
		},
	}
}

func execServe(ctx context.Context, o *IO, cfg *config.Config) error {
	log := cfg.NewLogger(o.ErrWriter())

	err := bot.SetLibraryLogger(log.With("component", "telegram-api"))
	if err != nil {
		return err
	}

	tg, err := bot.NewTelegram(cfg.Token,
		bot.WithPollTimeout(cfg.PollTimeout),
		bot.WithTelegramLogger(log.With("component", "telegram")),
	)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg, tg, log)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := a.Close()
		if closeErr != nil {
			log.Error("close store", "error", closeErr)
		}
	}()

	err = tg.RegisterCommands()
	if err != nil {
		log.Warn("command menu not registered", "error", err)
	}

	log.Info("serving", "bot", tg.UserName(), "store", cfg.Store.Driver)

	err = tg.Run(ctx, a.svc)

	log.Info("stopped", "pending_reminders", a.sched.Pending())

	return err
}
