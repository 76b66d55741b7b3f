package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/arin/fitbuddy/internal/chat"
	"github.com/arin/fitbuddy/internal/models"
)

// EchoTranscript wraps a chat.Transcript and writes the assistant reply to w
// as the session grows it. Only the unseen suffix of each update is written,
// so the terminal shows the reply exactly once.
type EchoTranscript struct {
	chat.Transcript

	mu        sync.Mutex
	w         io.Writer
	prefix    string
	onFirst   func()
	printed   int
	streaming bool
}

// NewEchoTranscript echoes assistant output from inner to w. prefix is written
// before the first fragment of each reply (e.g. "  ").
func NewEchoTranscript(inner chat.Transcript, w io.Writer, prefix string) *EchoTranscript {
	return &EchoTranscript{Transcript: inner, w: w, prefix: prefix}
}

// OnFirstDelta registers fn to run before the first fragment of the next
// reply is written. It is typically used to stop a spinner.
func (e *EchoTranscript) OnFirstDelta(fn func()) {
	e.mu.Lock()
	e.onFirst = fn
	e.mu.Unlock()
}

func (e *EchoTranscript) Append(msg models.Message) {
	e.Transcript.Append(msg)
	if msg.Role != models.RoleAssistant {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.onFirst != nil {
		e.onFirst()
		e.onFirst = nil
	}
	fmt.Fprint(e.w, e.prefix)
	e.streaming = true
	e.printed = 0
	e.writeSuffix(msg.Content)
}

func (e *EchoTranscript) ReplaceLast(content string) {
	e.Transcript.ReplaceLast(content)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streaming {
		e.writeSuffix(content)
	}
}

// RemoveLast ends a partially echoed reply before forwarding the removal.
func (e *EchoTranscript) RemoveLast() {
	e.mu.Lock()
	e.breakLine()
	e.mu.Unlock()
	e.Transcript.RemoveLast()
}

// Finish terminates the echoed reply, if any, and reports whether anything
// was written since the last Finish.
func (e *EchoTranscript) Finish() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFirst = nil
	if !e.streaming {
		return false
	}
	fmt.Fprint(e.w, "\n\n")
	e.streaming = false
	e.printed = 0
	return true
}

// Notifier wraps n so that a notification never lands in the middle of an
// echoed line.
func (e *EchoTranscript) Notifier(n chat.Notifier) chat.Notifier {
	return chat.NotifierFunc(func(title, description string, severity chat.Severity) {
		e.mu.Lock()
		e.breakLine()
		e.onFirst = nil
		e.mu.Unlock()
		n.Notify(title, description, severity)
	})
}

func (e *EchoTranscript) breakLine() {
	if e.streaming {
		fmt.Fprintln(e.w)
		e.streaming = false
		e.printed = 0
	}
}

func (e *EchoTranscript) writeSuffix(content string) {
	if len(content) <= e.printed {
		return
	}
	fmt.Fprint(e.w, content[e.printed:])
	e.printed = len(content)
}
