package testutil

import (
	"context"
	"sync"
)

// Message is one delivered chat message.
type Message struct {
	ChatID int64
	Text   string
}

// Outbox is a reminder.Sender that records messages.
type Outbox struct {
	mu       sync.Mutex
	messages []Message

	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

// Send records the message.
func (o *Outbox) Send(_ context.Context, chatID int64, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Err != nil {
		return o.Err
	}

	o.messages = append(o.messages, Message{ChatID: chatID, Text: text})

	return nil
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]Message(nil), o.messages...)
}
