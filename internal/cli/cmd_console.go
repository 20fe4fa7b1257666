package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/calvinalkan/cuckoodo/internal/bot"
	"github.com/calvinalkan/cuckoodo/internal/command"
	"github.com/calvinalkan/cuckoodo/internal/config"

	flag "github.com/spf13/pflag"
)

const consolePrompt = "cuckoodo> "

// ConsoleCmd returns the console command.
func ConsoleCmd(cfg *config.Config, stdin io.Reader) *Command {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	chatID := fs.Int64("chat", defaultChatID, "Chat id to act as")

	return &Command{
		Flags: fs,
		Usage: "console [--chat N]",
		Short: "Chat with the bot locally",
		Long: `Read chat messages line by line and print the replies, as if typed in a
Telegram chat. Reminders are printed when they fire. On a terminal the
prompt has history and completes command words; end with Ctrl-D.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execConsole(ctx, o, cfg, stdin, *chatID)
		},
	}
}

// lineReader yields input lines until io.EOF.
type lineReader interface {
	ReadLine() (string, error)
	Close()
}

func execConsole(ctx context.Context, o *IO, cfg *config.Config, stdin io.Reader, chatID int64) error {
	log := cfg.NewLogger(o.ErrWriter())

	a, err := openApp(ctx, cfg, &printSender{o: o}, log)
	if err != nil {
		return err
	}

	defer func() { _ = a.Close() }()

	aliases, err := cfg.AliasTable()
	if err != nil {
		return err
	}

	var in lineReader
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		in = newLinerReader(aliases, cfg.Sources.Global)
		o.Println("cuckoodo console, chat", chatID, "- type /help, Ctrl-D to quit")
	} else {
		in = newScanReader(stdin)
	}

	defer in.Close()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		for {
			line, err := in.ReadLine()
			if err != nil {
				readErr <- err

				return
			}

			select {
			case lines <- line:
			case <-ctx.Done():
				readErr <- ctx.Err()

				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				if errors.Is(err, context.Canceled) {
					return nil
				}

				if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
					return fmt.Errorf("reading input: %w", err)
				}

				if n := a.sched.Pending(); n > 0 {
					o.Warn(fmt.Sprintf("%d pending reminder(s) dropped", n), "keep the console open until reminders fire")
				}

				return nil
			}

			handleConsoleLine(ctx, o, a.svc, chatID, line)
		}
	}
}

func handleConsoleLine(ctx context.Context, o *IO, h bot.Handler, chatID int64, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	reply, ok, err := h.Handle(ctx, chatID, line)

	switch {
	case err != nil:
		o.ErrPrintln("error:", err)
	case !ok:
		o.Println("(not a command, try /help)")
	default:
		o.Println(replyText(reply))
	}
}

type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	if r == nil {
		r = strings.NewReader("")
	}

	return &scanReader{sc: bufio.NewScanner(r)}
}

func (r *scanReader) ReadLine() (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}

	if err := r.sc.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

func (r *scanReader) Close() {}

// linerReader is an interactive prompt with history and completion.
type linerReader struct {
	state   *liner.State
	history string
}

func newLinerReader(aliases *command.Aliases, globalConfig string) *linerReader {
	r := &linerReader{state: liner.NewLiner(), history: historyFile(globalConfig)}

	r.state.SetCtrlCAborts(true)
	r.state.SetCompleter(commandCompleter(aliases))

	if r.history != "" {
		if f, err := os.Open(r.history); err == nil {
			_, _ = r.state.ReadHistory(f)
			_ = f.Close()
		}
	}

	return r
}

func (r *linerReader) ReadLine() (string, error) {
	line, err := r.state.Prompt(consolePrompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}

	return line, nil
}

func (r *linerReader) Close() {
	if r.history != "" {
		if f, err := os.Create(r.history); err == nil {
			_, _ = r.state.WriteHistory(f)
			_ = f.Close()
		}
	}

	_ = r.state.Close()
}

// historyFile keeps console history next to the global config, or in the
// home directory when there is none.
func historyFile(globalConfig string) string {
	if globalConfig != "" {
		return filepath.Join(filepath.Dir(globalConfig), "console_history")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".cuckoodo_history")
}

// commandCompleter completes the command word at the start of the line.
func commandCompleter(aliases *command.Aliases) liner.Completer {
	var words []string

	for _, kind := range command.Kinds() {
		for _, w := range aliases.Words(kind) {
			words = append(words, "/"+w)
		}
	}

	sort.Strings(words)

	return func(line string) []string {
		if strings.ContainsAny(line, " \t") {
			return nil
		}

		prefix := strings.ToLower(line)
		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}

		var completions []string

		for _, w := range words {
			if strings.HasPrefix(w, prefix) {
				completions = append(completions, w+" ")
			}
		}

		return completions
	}
}
