package extract

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Outcome labels reported to the Observer.
const (
	OutcomeOK          = "ok"
	OutcomeDegraded    = "degraded"
	OutcomeFailed      = "failed"
	OutcomeUnsupported = "unsupported"
)

// ErrInvalidUTF8 is returned by the text extractor for undecodable input.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// Fallback is an error that still carries text for the caller. Route returns
// Text instead of the empty string when an extractor fails with a Fallback.
type Fallback struct {
	Text string
	Err  error
}

func (f *Fallback) Error() string {
	return f.Err.Error()
}

func (f *Fallback) Unwrap() error {
	return f.Err
}

// result is the raw outcome of one extractor call.
type result struct {
	text string
	err  error
}

// run calls e and turns a panic into an error.
func run(e Extractor, path string) (res result) {
	defer func() {
		if p := recover(); p != nil {
			res = result{err: fmt.Errorf("extractor panic: %v", p)}
		}
	}()
	text, err := e.Extract(path)
	return result{text: text, err: err}
}

// settle converts a result into the text handed to callers. This is the only
// place where extraction errors are dropped.
func (r *Registry) settle(f Format, path string, res result) (string, string) {
	if res.err == nil {
		return res.text, OutcomeOK
	}
	var fb *Fallback
	if errors.As(res.err, &fb) {
		r.logger.Error("extraction degraded",
			zap.String("format", f.String()),
			zap.String("path", path),
			zap.Error(fb.Err),
		)
		return fb.Text, OutcomeDegraded
	}
	r.logger.Error("extraction failed",
		zap.String("format", f.String()),
		zap.String("path", path),
		zap.Error(res.err),
	)
	return "", OutcomeFailed
}
