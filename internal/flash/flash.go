// Package flash queues user-visible notifications across page views.
package flash

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Level is the severity of a message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultHeading is used when the sender gives none.
const DefaultHeading = "header"

// Message is one notification.
type Message struct {
	ID       string `json:"id"`
	Level    Level  `json:"level"`
	Heading  string `json:"heading"`
	Message  string `json:"message"`
	Closable bool   `json:"closable"`
}

// Option adjusts a message before it is queued.
type Option func(*Message)

// WithHeading sets the message heading.
func WithHeading(heading string) Option {
	return func(m *Message) { m.Heading = heading }
}

// NotClosable marks a message as shown once and never dismissable.
func NotClosable() Option {
	return func(m *Message) { m.Closable = false }
}

// Queue is the ordered list of pending messages for one viewer.
type Queue struct {
	mu       sync.Mutex
	messages []Message
	changed  bool
	newID    func() string
	onSend   func(Level)
}

// NewQueue returns a queue seeded with previously stored messages.
func NewQueue(existing []Message) *Queue {
	return &Queue{messages: slices.Clone(existing), newID: uuid.NewString}
}

// Send appends a message unless it repeats the text of the last one.
// It reports whether the message was queued.
func (q *Queue) Send(level Level, message string, opts ...Option) bool {
	m := Message{Level: level, Heading: DefaultHeading, Message: message, Closable: true}
	for _, opt := range opts {
		opt(&m)
	}

	q.mu.Lock()
	if n := len(q.messages); n > 0 && q.messages[n-1].Message == m.Message {
		q.mu.Unlock()
		return false
	}
	m.ID = q.newID()
	q.messages = append(q.messages, m)
	q.changed = true
	observe := q.onSend
	q.mu.Unlock()

	if observe != nil {
		observe(level)
	}
	return true
}

// Messages returns a copy of the queued messages in send order.
func (q *Queue) Messages() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.messages)
}

// Dismiss removes the closable message with the given id.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := slices.IndexFunc(q.messages, func(m Message) bool { return m.ID == id && m.Closable })
	if idx < 0 {
		return false
	}
	q.messages = slices.Delete(q.messages, idx, idx+1)
	q.changed = true
	return true
}

// Consume returns the messages to display now. Messages that cannot be
// closed are dropped after this view; closable ones stay until dismissed.
func (q *Queue) Consume() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	shown := slices.Clone(q.messages)
	kept := slices.DeleteFunc(q.messages, func(m Message) bool { return !m.Closable })
	if len(kept) != len(shown) {
		q.changed = true
	}
	q.messages = kept
	return shown
}

// Changed reports whether the queue differs from what it was seeded with.
func (q *Queue) Changed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.changed
}

type contextKey struct{}

// WithQueue returns a copy of ctx carrying q.
func WithQueue(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, contextKey{}, q)
}

// FromContext returns the queue carried by ctx, or a detached empty queue.
func FromContext(ctx context.Context) *Queue {
	if q, ok := ctx.Value(contextKey{}).(*Queue); ok && q != nil {
		return q
	}
	return NewQueue(nil)
}
