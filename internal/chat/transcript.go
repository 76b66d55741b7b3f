package chat

import (
	"sync"

	"github.com/arin/fitbuddy/internal/models"
)

// Transcript is the caller-owned, ordered conversation a Session writes into.
// A Session only ever appends, replaces the content of the last message, or
// removes the last message.
type Transcript interface {
	Messages() []models.Message
	Append(msg models.Message)
	ReplaceLast(content string)
	RemoveLast()
}

// Log is an in-memory Transcript safe for concurrent readers.
type Log struct {
	mu   sync.RWMutex
	msgs []models.Message
}

// NewLog creates a Log seeded with initial.
func NewLog(initial ...models.Message) *Log {
	return &Log{msgs: models.Clone(initial)}
}

// Messages returns a copy of the conversation, oldest first.
func (l *Log) Messages() []models.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.Clone(l.msgs)
}

func (l *Log) Append(msg models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

// ReplaceLast is a no-op on an empty Log.
func (l *Log) ReplaceLast(content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.msgs) == 0 {
		return
	}
	l.msgs[len(l.msgs)-1].Content = content
}

// RemoveLast is a no-op on an empty Log.
func (l *Log) RemoveLast() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.msgs) == 0 {
		return
	}
	l.msgs = l.msgs[:len(l.msgs)-1]
}

// Len returns the number of messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.msgs)
}

// Last returns the most recent message.
func (l *Log) Last() (models.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.msgs) == 0 {
		return models.Message{}, false
	}
	return l.msgs[len(l.msgs)-1], true
}

// Reset replaces the whole conversation with initial.
func (l *Log) Reset(initial ...models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = models.Clone(initial)
}
