// Package sse decodes the completion endpoint's server-sent-events stream into
// content deltas. A Decoder is fed raw transport chunks in arrival order and
// carries partial runes and partial lines across chunk boundaries.
package sse

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	errs "github.com/arin/fitbuddy/internal/errors"
)

const (
	dataPrefix  = "data: "
	doneMarker  = "[DONE]"
	deltaPath   = "choices.0.delta.content"
	commentMark = ":"

	// DefaultMaxBuffer bounds the text held back while waiting for a frame to complete.
	DefaultMaxBuffer = 1 << 20
)

// FrameKind distinguishes content deltas from the terminal marker.
type FrameKind int

const (
	FrameDelta FrameKind = iota
	FrameDone
)

func (k FrameKind) String() string {
	if k == FrameDone {
		return "done"
	}
	return "delta"
}

// Frame is one decoded server event.
type Frame struct {
	Kind    FrameKind
	Content string
}

// Decoder turns a chunked byte stream into frames. It is not safe for
// concurrent use; one exchange owns one Decoder.
type Decoder struct {
	utf8      transform.Transformer
	pending   []byte
	buf       string
	maxBuffer int
	done      bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxBuffer caps the undecoded text a Decoder will hold. Zero or a negative
// value disables the cap.
func WithMaxBuffer(n int) Option {
	return func(d *Decoder) {
		d.maxBuffer = n
	}
}

// NewDecoder creates a Decoder with DefaultMaxBuffer.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		utf8:      unicode.UTF8.NewDecoder(),
		maxBuffer: DefaultMaxBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed decodes chunk and returns every frame it completes, in order. After
// the terminal marker has been seen Feed returns nothing.
//
// A data line whose payload is not valid JSON is put back at the head of the
// buffer and line extraction stops until more bytes arrive. A FrameError is
// returned when the held-back text grows past the buffer cap.
func (d *Decoder) Feed(chunk []byte) ([]Frame, error) {
	if d.done {
		return nil, nil
	}

	text, err := d.decode(chunk)
	if err != nil {
		return nil, errs.NewFrameError(err.Error(), len(d.buf))
	}
	d.buf += text

	var frames []Frame
	for {
		i := strings.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(d.buf[:i], "\r")
		d.buf = d.buf[i+1:]

		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentMark) {
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == doneMarker {
			d.done = true
			d.buf = ""
			d.pending = nil
			return append(frames, Frame{Kind: FrameDone}), nil
		}

		if !gjson.Valid(payload) {
			// Probably cut mid-payload; wait for the rest.
			d.buf = line + "\n" + d.buf
			break
		}
		if content := gjson.Get(payload, deltaPath); content.Type == gjson.String && content.Str != "" {
			frames = append(frames, Frame{Kind: FrameDelta, Content: content.Str})
		}
	}

	if d.maxBuffer > 0 && len(d.buf) > d.maxBuffer {
		return frames, errs.NewFrameError("frame exceeds buffer limit", len(d.buf))
	}
	return frames, nil
}

// decode converts chunk to text, holding back the bytes of a rune that has
// not fully arrived yet. Ill-formed bytes become U+FFFD.
func (d *Decoder) decode(chunk []byte) (string, error) {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
	}
	if len(src) == 0 {
		return "", nil
	}

	// Worst case every byte is replaced by the 3-byte U+FFFD.
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	nDst, nSrc, err := d.utf8.Transform(dst, src, false)
	if err != nil && err != transform.ErrShortSrc {
		return "", err
	}
	d.pending = append([]byte(nil), src[nSrc:]...)
	return string(dst[:nDst]), nil
}

// Terminated reports whether the terminal marker has been decoded.
func (d *Decoder) Terminated() bool {
	return d.done
}

// Buffered returns the number of bytes held back, decoded or not.
func (d *Decoder) Buffered() int {
	return len(d.buf) + len(d.pending)
}

// Reset discards all buffered state so the Decoder can serve a new exchange.
func (d *Decoder) Reset() {
	d.utf8.Reset()
	d.pending = nil
	d.buf = ""
	d.done = false
}
