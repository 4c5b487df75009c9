package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMessageNotFound is returned by Delete for an unknown id.
var ErrMessageNotFound = errors.New("message not found")

// Log is an append-only list of messages. Only Delete and Truncate remove
// entries.
type Log struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append adds m, filling in the id and timestamp when unset, and returns
// the stored message.
func (l *Log) Append(m Message) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m.ID == "" {
		prefix := "msg"
		if m.Type == TypeFeedback {
			prefix = "feedback"
		}
		m.ID = NewID(prefix)
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = l.now()
	}
	if m.Type == "" {
		m.Type = TypeText
	}
	l.messages = append(l.messages, m)
	return m
}

// Delete removes the message with the given id.
func (l *Log) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, m := range l.messages {
		if m.ID == id {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
}

// Truncate drops every message past the first n.
func (l *Log) Truncate(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n >= 0 && n < len(l.messages) {
		l.messages = l.messages[:n]
	}
}

// Messages returns a copy of every message in order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages, feedback included.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Last returns the most recent message.
func (l *Log) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Rendered returns the messages shown to the user.
func (l *Log) Rendered() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, 0, len(l.messages))
	for _, m := range l.messages {
		if m.Visible() {
			out = append(out, m)
		}
	}
	return out
}

// MarshalJSON encodes the log as a JSON array of messages.
func (l *Log) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.messages)
}

// Load decodes a log previously written by MarshalJSON. Empty input yields
// an empty log.
func Load(data []byte) (*Log, error) {
	l := NewLog()
	if len(data) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.messages); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return l, nil
}
