// Package chat runs streaming chat exchanges against a completion endpoint,
// folding the streamed deltas into a caller-owned Transcript.
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/apex/log"

	errs "github.com/arin/fitbuddy/internal/errors"
	"github.com/arin/fitbuddy/internal/models"
	"github.com/arin/fitbuddy/internal/sse"
)

const defaultChunkSize = 4096

var (
	// ErrEmptyPrompt is returned for input that is blank after trimming.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrExchangeInFlight is returned when Submit is called while another
	// exchange on the same Session has not settled.
	ErrExchangeInFlight = errors.New("an exchange is already in flight")
)

// Endpoint opens a streamed completion for a conversation. A non-success
// response must be reported as an error; the returned body is the raw
// event stream.
type Endpoint interface {
	Open(ctx context.Context, messages []models.Message) (io.ReadCloser, error)
}

// Result describes a settled exchange.
type Result struct {
	Content    string
	Deltas     int
	Bytes      int
	Terminated bool // the stream ended with the terminal marker
	FirstDelta time.Duration
	Duration   time.Duration
}

// Session serializes exchanges with one Endpoint.
type Session struct {
	endpoint  Endpoint
	notifier  Notifier
	logger    log.Interface
	maxBuffer int
	chunkSize int
	busy      atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets where failures are reported. Defaults to a LogNotifier.
func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(l log.Interface) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithMaxBuffer caps how much undecodable text an exchange may hold back
// before it fails. See sse.WithMaxBuffer.
func WithMaxBuffer(n int) Option {
	return func(s *Session) {
		s.maxBuffer = n
	}
}

// WithChunkSize sets the read size used on the response body.
func WithChunkSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewSession creates a Session bound to endpoint.
func NewSession(endpoint Endpoint, opts ...Option) *Session {
	s := &Session{
		endpoint:  endpoint,
		logger:    log.Log,
		maxBuffer: sse.DefaultMaxBuffer,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	return s
}

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Submit runs one exchange. The trimmed userText is appended to t before any
// network activity. Deltas are folded into a single assistant message as
// they arrive.
//
// On failure the Notifier is told, the last message of t is removed (the user
// turn, or the partial assistant reply if one was started) and the error is
// returned. A stream that ends without the terminal marker is not a failure.
func (s *Session) Submit(ctx context.Context, t Transcript, userText string) (*Result, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, ErrEmptyPrompt
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrExchangeInFlight
	}
	defer s.busy.Store(false)

	t.Append(models.Message{Role: models.RoleUser, Content: text})

	ex := &exchange{transcript: t, start: time.Now()}
	history := t.Messages()
	logger := s.logger.WithField("turns", len(history))

	body, err := s.endpoint.Open(ctx, history)
	if err == nil && body == nil {
		err = errs.ErrNoBody
	}
	if err != nil {
		s.fail(logger, t, err)
		return nil, err
	}
	defer body.Close()

	if err := s.consume(ctx, body, ex); err != nil {
		s.fail(logger.WithField("deltas", ex.deltas), t, err)
		return nil, err
	}

	res := ex.result()
	logger.WithFields(log.Fields{
		"deltas":     res.Deltas,
		"bytes":      res.Bytes,
		"terminated": res.Terminated,
		"duration":   res.Duration.String(),
	}).Debug("exchange complete")
	return res, nil
}

// consume is the decode loop: read, feed, fold, until the terminal marker
// or the end of the body. Trailing unterminated text is dropped.
func (s *Session) consume(ctx context.Context, body io.Reader, ex *exchange) error {
	dec := sse.NewDecoder(sse.WithMaxBuffer(s.maxBuffer))
	buf := make([]byte, s.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			ex.bytes += n
			frames, ferr := dec.Feed(buf[:n])
			for _, f := range frames {
				if f.Kind == sse.FrameDelta {
					ex.foldDelta(f.Content)
				}
			}
			if ferr != nil {
				return ferr
			}
			if dec.Terminated() {
				ex.terminated = true
				return nil
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

func (s *Session) fail(logger *log.Entry, t Transcript, err error) {
	logger.WithError(err).Warn("exchange failed")
	s.notifier.Notify("Error", describe(err), SeverityError)
	t.RemoveLast()
}

// describe turns err into the text shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return errs.NewTimeoutError("no response from the assistant").Error()
	}
	var apiErr *errs.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to send message"
}

// exchange is the per-submission state: the accumulated reply and whether
// its assistant message exists in the transcript yet.
type exchange struct {
	transcript Transcript
	content    string
	appended   bool
	deltas     int
	bytes      int
	terminated bool
	start      time.Time
	firstDelta time.Duration
}

// foldDelta keeps exactly one assistant message per exchange whose content
// is every fragment so far, in arrival order.
func (e *exchange) foldDelta(fragment string) {
	if fragment == "" {
		return
	}
	e.content += fragment
	e.deltas++
	if !e.appended {
		e.firstDelta = time.Since(e.start)
		e.transcript.Append(models.Message{Role: models.RoleAssistant, Content: e.content})
		e.appended = true
		return
	}
	e.transcript.ReplaceLast(e.content)
}

func (e *exchange) result() *Result {
	return &Result{
		Content:    e.content,
		Deltas:     e.deltas,
		Bytes:      e.bytes,
		Terminated: e.terminated,
		FirstDelta: e.firstDelta,
		Duration:   time.Since(e.start),
	}
}
