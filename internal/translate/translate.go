// Package translate renders listing prose in a second language.
//
// Every translator may fail; Chain tries each in turn and falls back to the
// original text, so a translation fault never fails the caller.
package translate

import (
	"context"
	"errors"
	"strings"

	"github.com/jonathan/npa-sniper/internal/logging"
)

// English is the default target language.
const English = "en"

// ErrEmptyResponse is returned when a backend answers without a translation.
var ErrEmptyResponse = errors.New("empty translation")

// Translator translates text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Noop returns text unchanged.
type Noop struct{}

// Translate implements Translator.
func (Noop) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

// Recorder observes translation outcomes.
type Recorder interface {
	TranslationFailed(backend string)
}

// named lets a translator identify itself in logs and metrics.
type named interface {
	Name() string
}

// Chain tries translators in order and returns the first success.
// When all fail it returns the original text and no error.
type Chain struct {
	translators []Translator
	recorder    Recorder
	logger      logging.Logger
}

// NewChain builds a chain. Nil translators are skipped.
func NewChain(logger logging.Logger, translators ...Translator) *Chain {
	if logger == nil {
		logger = logging.NewNop()
	}
	kept := make([]Translator, 0, len(translators))
	for _, t := range translators {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Chain{translators: kept, logger: logger}
}

// WithRecorder sets the failure observer.
func (c *Chain) WithRecorder(r Recorder) *Chain {
	c.recorder = r
	return c
}

// Len returns the number of backends in the chain.
func (c *Chain) Len() int {
	return len(c.translators)
}

// Translate implements Translator. It never returns an error.
func (c *Chain) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	for _, t := range c.translators {
		out, err := t.Translate(ctx, text, target)
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		name := backendName(t)
		if c.recorder != nil {
			c.recorder.TranslationFailed(name)
		}
		c.logger.Warn("translation failed, trying next backend",
			logging.String("backend", name),
			logging.Error(err))
	}
	return text, nil
}

func backendName(t Translator) string {
	if n, ok := t.(named); ok {
		return n.Name()
	}
	return "unknown"
}
