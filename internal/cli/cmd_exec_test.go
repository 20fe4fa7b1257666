package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/cuckoodo/internal/cli"
)

func Test_Exec_Persists_Issues_In_SQLite_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("exec", "/add", "купить", "хлеб")
	if got, want := stdout, "Добавлена заметка купить хлеб для all"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	c.MustRun("exec", "/add молоко @bob")

	stdout = c.MustRun("exec", "/list")
	if got, want := stdout, "📌1. купить хлеб @all\n📌2. молоко @bob"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	stdout = c.MustRun("exec", "/done 1 @bob")
	if got, want := stdout, "✅1. молоко @bob"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	if _, err := os.Stat(filepath.Join(c.Dir, ".cuckoodo", "issues.db")); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func Test_Exec_Uses_File_Store_When_Configured(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	c.MustRun("--store", "file:issues.json", "exec", "/add a")
	c.MustRun("--store", "file:issues.json", "exec", "/add b")
	c.MustRun("--store", "file:issues.json", "exec", "/delete 1")

	data, err := os.ReadFile(filepath.Join(c.Dir, "issues.json"))
	if err != nil {
		t.Fatalf("read store: %v", err)
	}

	cli.AssertContains(t, string(data), `"text": "b"`)
	cli.AssertNotContains(t, string(data), `"text": "a"`)
}

func Test_Exec_Keeps_Chats_Apart_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	c.MustRun("exec", "--chat", "7", "/add seven")
	c.MustRun("exec", "--chat=8", "/add eight")

	if got, want := c.MustRun("exec", "--chat", "7", "/list"), "📌1. seven @all"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Exec_Prints_Placeholder_When_List_Empty(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if got, want := c.MustRun("--store", "memory", "exec", "/list"), "Список пуст"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Exec_Replies_Fixed_Text_When_Arguments_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if got, want := c.MustRun("--store", "memory", "exec", "/done", "first"), "Не понял"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	if got, want := c.MustRun("--store", "memory", "exec", "/done 3"), "Нет заметки с таким номером"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Exec_Warns_When_Reminder_Cannot_Fire(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("--store", "memory", "exec", "/add позвонить через 2 часа")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "Добавлено напоминание позвонить для all, напомню через 2 часа")
	cli.AssertContains(t, stderr, "warning: 1 reminder(s) will not fire")
}

func Test_Exec_Fails_When_Text_Is_Not_A_Command(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stderr := c.MustFail("--store", "memory", "exec", "hello")
	cli.AssertContains(t, stderr, "not a command")

	stderr = c.MustFail("--store", "memory", "exec")
	cli.AssertContains(t, stderr, "message text is required")
}

func Test_Exec_Uses_Configured_Aliases_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".cuckoodo.json", `{"store": {"driver": "memory"}, "aliases": {"add": ["купи"]}}`)

	if got, want := c.MustRun("exec", "/купи молоко"), "Добавлена заметка молоко для all"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}
