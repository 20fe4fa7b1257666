package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/cuckoodo/internal/issue"
	"github.com/calvinalkan/cuckoodo/internal/reminder"
	"github.com/calvinalkan/cuckoodo/internal/store"
	"github.com/calvinalkan/cuckoodo/internal/testutil"
)

type fixture struct {
	clock  *testutil.Clock
	repo   *store.Memory
	outbox *testutil.Outbox
	sched  *reminder.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock:  testutil.NewClock(),
		repo:   store.NewMemory(),
		outbox: &testutil.Outbox{},
	}
	f.sched = reminder.New(t.Context(), f.repo, f.outbox, reminder.WithClock(f.clock))

	return f
}

func (f *fixture) insert(t *testing.T, owner int64, text string) issue.Issue {
	t.Helper()

	it, err := issue.New(owner, text, "", f.clock.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, f.repo.Insert(t.Context(), it))

	return it
}

func Test_Schedule_Delivers_Text_To_Owner_When_Delay_Elapses(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	it := f.insert(t, 42, "позвонить маме")

	id, err := f.sched.Schedule(it.ID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, 1, f.sched.Pending())

	f.clock.Advance(59 * time.Minute)
	require.Empty(t, f.outbox.Messages(), "must not fire early")

	f.clock.Advance(time.Minute)

	want := []testutil.Message{{ChatID: 42, Text: "позвонить маме"}}
	if diff := cmp.Diff(want, f.outbox.Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 0, f.sched.Pending())

	f.clock.Advance(24 * time.Hour)
	require.Len(t, f.outbox.Messages(), 1, "one-shot reminder fired twice")
}

func Test_Schedule_Delivers_Nothing_When_Issue_Deleted_Before_Firing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	it := f.insert(t, 1, "gone")

	_, err := f.sched.Schedule(it.ID, 10*time.Second)
	require.NoError(t, err)
	require.NoError(t, f.repo.Delete(t.Context(), it.ID))

	f.clock.Advance(time.Minute)

	require.Empty(t, f.outbox.Messages())
	require.Equal(t, 0, f.sched.Pending())
}

func Test_Schedule_Fires_Each_Reminder_Once_In_Due_Order(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	late := f.insert(t, 1, "late")
	early := f.insert(t, 2, "early")
	now := f.insert(t, 3, "now")

	for _, s := range []struct {
		id    string
		delay time.Duration
	}{{late.ID, 2 * time.Hour}, {early.ID, time.Hour}, {now.ID, 0}} {
		_, err := f.sched.Schedule(s.id, s.delay)
		require.NoError(t, err)
	}

	f.clock.Advance(3 * time.Hour)

	want := []testutil.Message{
		{ChatID: 3, Text: "now"},
		{ChatID: 2, Text: "early"},
		{ChatID: 1, Text: "late"},
	}
	if diff := cmp.Diff(want, f.outbox.Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func Test_Stop_Drops_Pending_Reminders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	it := f.insert(t, 1, "never")

	_, err := f.sched.Schedule(it.ID, time.Minute)
	require.NoError(t, err)

	f.sched.Stop()

	require.Equal(t, 0, f.sched.Pending())
	require.Equal(t, 0, f.clock.Timers())

	f.clock.Advance(time.Hour)
	require.Empty(t, f.outbox.Messages())

	_, err = f.sched.Schedule(it.ID, time.Minute)
	require.ErrorIs(t, err, reminder.ErrStopped)
}

func Test_Schedule_Survives_Send_Failure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.outbox.Err = errors.New("network down")
	it := f.insert(t, 1, "text")

	_, err := f.sched.Schedule(it.ID, time.Second)
	require.NoError(t, err)

	f.clock.Advance(time.Second)

	require.Equal(t, 0, f.sched.Pending())
}

type countingSender struct{ sent chan testutil.Message }

func (c countingSender) Send(_ context.Context, chatID int64, text string) error {
	c.sent <- testutil.Message{ChatID: chatID, Text: text}

	return nil
}

func Test_Schedule_Uses_Wall_Clock_By_Default(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	sender := countingSender{sent: make(chan testutil.Message, 1)}
	sched := reminder.New(t.Context(), repo, sender)

	t.Cleanup(sched.Stop)

	it, err := issue.New(5, "soon", "", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(t.Context(), it))

	_, err = sched.Schedule(it.ID, 10*time.Millisecond)
	require.NoError(t, err)

	select {
	case msg := <-sender.sent:
		require.Equal(t, testutil.Message{ChatID: 5, Text: "soon"}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("reminder did not fire")
	}
}
