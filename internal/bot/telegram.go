package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/calvinalkan/cuckoodo/internal/command"
)

// ErrNoToken is returned by NewTelegram for an empty token.
var ErrNoToken = errors.New("telegram token is empty")

const defaultPollTimeout = 30

// Telegram receives updates by long polling and sends replies and reminders.
type Telegram struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	log         *slog.Logger
}

// TelegramOption configures a Telegram transport.
type TelegramOption func(*telegramOptions)

type telegramOptions struct {
	endpoint    string
	client      tgbotapi.HTTPClient
	pollTimeout int
	log         *slog.Logger
}

// WithEndpoint overrides the Bot API URL format (two %s: token, method).
func WithEndpoint(endpoint string) TelegramOption {
	return func(o *telegramOptions) { o.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c tgbotapi.HTTPClient) TelegramOption {
	return func(o *telegramOptions) { o.client = c }
}

// WithPollTimeout sets the long polling timeout in seconds.
func WithPollTimeout(seconds int) TelegramOption {
	return func(o *telegramOptions) {
		if seconds > 0 {
			o.pollTimeout = seconds
		}
	}
}

// WithTelegramLogger sets the logger.
func WithTelegramLogger(l *slog.Logger) TelegramOption {
	return func(o *telegramOptions) { o.log = l }
}

// NewTelegram authenticates with the Bot API (getMe).
func NewTelegram(token string, opts ...TelegramOption) (*Telegram, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}

	o := telegramOptions{
		endpoint:    tgbotapi.APIEndpoint,
		client:      &http.Client{},
		pollTimeout: defaultPollTimeout,
		log:         slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(&o)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.client)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}

	o.log.Info("telegram authorized", "bot", api.Self.UserName)

	return &Telegram{api: api, pollTimeout: o.pollTimeout, log: o.log}, nil
}

// UserName is the bot's Telegram username.
func (t *Telegram) UserName() string {
	return t.api.Self.UserName
}

// Send delivers text to chatID. Telegram rejects empty messages, so an empty
// text is sent as [MsgEmptyList].
func (t *Telegram) Send(_ context.Context, chatID int64, text string) error {
	if text == "" {
		text = MsgEmptyList
	}

	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}

	return nil
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (t *Telegram) RegisterCommands() error {
	var cmds []tgbotapi.BotCommand

	for _, line := range helpLines {
		usage := line.usage
		if _, desc, ok := strings.Cut(usage, " - "); ok {
			usage = desc
		}

		cmds = append(cmds, tgbotapi.BotCommand{Command: line.kind.String(), Description: usage})
	}

	_, err := t.api.Request(tgbotapi.NewSetMyCommands(cmds...))
	if err != nil {
		return fmt.Errorf("telegram set commands: %w", err)
	}

	return nil
}

// Run polls for updates and handles each message on its own goroutine until
// ctx is cancelled. Messages already received are finished before Run returns.
func (t *Telegram) Run(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout

	updates := t.api.GetUpdatesChan(u)
	stop := context.AfterFunc(ctx, t.api.StopReceivingUpdates)

	defer stop()

	// In-flight messages outlive the polling loop.
	handleCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil {
			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			t.handle(handleCtx, h, msg.Chat.ID, msg.Text)
		}()
	}

	wg.Wait()

	return nil
}

func (t *Telegram) handle(ctx context.Context, h Handler, chatID int64, text string) {
	if addressedElsewhere(text, t.api.Self.UserName) {
		return
	}

	reply, ok, err := h.Handle(ctx, chatID, text)
	if !ok {
		return
	}

	if err != nil {
		t.log.Error("command failed", "chat", chatID, "error", err)

		reply = MsgFailed
	}

	err = t.Send(ctx, chatID, reply)
	if err != nil {
		t.log.Warn("reply not delivered", "chat", chatID, "error", err)
	}
}

var mentionPattern = regexp.MustCompile(`^\s*/` + command.WordExpr + `@([A-Za-z0-9_]+)`)

// addressedElsewhere reports whether a command carries an @botname suffix
// naming a different bot. Group chats deliver every bot's commands.
func addressedElsewhere(text, self string) bool {
	m := mentionPattern.FindStringSubmatch(text)
	if m == nil || self == "" {
		return false
	}

	return !strings.EqualFold(m[1], self)
}

// tgLogger routes the Bot API library's own logging into slog.
type tgLogger struct {
	log *slog.Logger
}

func (l tgLogger) Println(v ...any) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintln(v...)), "source", "telegram")
}

func (l tgLogger) Printf(format string, v ...any) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "telegram")
}

// SetLibraryLogger installs l as the Bot API library's logger. The library
// keeps a single package-level logger.
func SetLibraryLogger(l *slog.Logger) error {
	return tgbotapi.SetLogger(tgLogger{log: l})
}
