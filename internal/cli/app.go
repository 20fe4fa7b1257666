package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calvinalkan/cuckoodo/internal/bot"
	"github.com/calvinalkan/cuckoodo/internal/config"
	"github.com/calvinalkan/cuckoodo/internal/reminder"
	"github.com/calvinalkan/cuckoodo/internal/store"
)

// app is the store, scheduler and command service for one process.
type app struct {
	store store.Store
	sched *reminder.Scheduler
	svc   *bot.Service
}

// openApp opens the configured store and wires the service. Reminders are
// delivered through sender.
func openApp(ctx context.Context, cfg *config.Config, sender reminder.Sender, log *slog.Logger) (*app, error) {
	aliases, err := cfg.AliasTable()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.StorePathAbs)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	log.Debug("store opened", "driver", cfg.Store.Driver, "path", cfg.StorePathAbs)

	sched := reminder.New(ctx, st, sender, reminder.WithLogger(log.With("component", "reminder")))
	svc := bot.NewService(st, sched, aliases, bot.WithLogger(log.With("component", "bot")))

	return &app{store: st, sched: sched, svc: svc}, nil
}

// Close drops pending reminders and closes the store.
func (a *app) Close() error {
	a.sched.Stop()

	return a.store.Close()
}
