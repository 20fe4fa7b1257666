package bot

import (
	"fmt"
	"strings"

	"github.com/calvinalkan/cuckoodo/internal/command"
)

// Fixed replies.
const (
	MsgNotUnderstood = "Не понял"
	MsgNoSuchIssue   = "Нет заметки с таким номером"
	MsgFailed        = "Что-то пошло не так, попробуйте ещё раз"
	MsgEmptyList     = "Список пуст"
	MsgStart         = "Привет! Я записываю заметки и напоминаю о них. Список команд: /help"
)

const (
	addFormat         = "Добавлена заметка %s для %s"
	addReminderFormat = "Добавлено напоминание %s для %s, напомню через %s"
)

func addReply(text, assignee string) string {
	return fmt.Sprintf(addFormat, text, assignee)
}

func addReminderReply(text, assignee, phrase string) string {
	return fmt.Sprintf(addReminderFormat, text, assignee, phrase)
}

var helpLines = []struct {
	kind  command.Kind
	usage string
}{
	{command.KindAdd, "/add <текст> [@кто] [через 1 час 30 минут] - добавить заметку"},
	{command.KindList, "/list [@кто] - показать заметки"},
	{command.KindDone, "/done <номер> [@кто] - отметить выполненной"},
	{command.KindDelete, "/delete <номер> [@кто] - удалить"},
	{command.KindReassign, "/reassign <номер> @кто на @кого - передать"},
	{command.KindHelp, "/help - эта справка"},
}

// helpText lists the commands and every alias that reaches them.
func helpText(aliases *command.Aliases) string {
	var b strings.Builder

	for _, line := range helpLines {
		b.WriteString(line.usage)
		b.WriteString("\n")
	}

	b.WriteString("\nСинонимы:")

	for _, line := range helpLines {
		var others []string

		for _, w := range aliases.Words(line.kind) {
			if w != line.kind.String() {
				others = append(others, "/"+w)
			}
		}

		if len(others) == 0 {
			continue
		}

		b.WriteString("\n/")
		b.WriteString(line.kind.String())
		b.WriteString(": ")
		b.WriteString(strings.Join(others, " "))
	}

	return b.String()
}
