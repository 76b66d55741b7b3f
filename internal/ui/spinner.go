// Package ui provides terminal UI helpers.
package ui

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner shows a waiting indicator until the first delta arrives.
// Stop is safe to call more than once.
type Spinner struct {
	mu     sync.Mutex
	s      *spinner.Spinner
	w      io.Writer
	active bool
}

// NewSpinner creates a spinner with the given message, drawn on stderr.
func NewSpinner(msg string) *Spinner {
	return NewSpinnerTo(os.Stderr, msg)
}

// NewSpinnerTo creates a spinner drawn on w.
func NewSpinnerTo(w io.Writer, msg string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = "  " + msg
	s.Color("cyan")
	return &Spinner{s: s, w: w}
}

// Start begins the spinner animation.
func (sp *Spinner) Start() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.active {
		return
	}
	sp.active = true
	sp.s.Start()
}

// Stop halts the spinner and clears the line.
func (sp *Spinner) Stop() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if !sp.active {
		return
	}
	sp.active = false
	sp.s.Stop()
}

// Active reports whether the spinner is running.
func (sp *Spinner) Active() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.active
}

// Success stops the spinner and prints a green check.
func (sp *Spinner) Success(msg string) {
	sp.Stop()
	color.New(color.FgGreen).Fprintf(sp.w, "  ✓ %s\n", msg)
}

// Fail stops the spinner and prints a red cross.
func (sp *Spinner) Fail(msg string) {
	sp.Stop()
	color.New(color.FgRed).Fprintf(sp.w, "  ✗ %s\n", msg)
}
