// Package tokens estimates the token footprint of an exchange request
// (query plus prior turn history). The estimate is observational: it
// feeds request logging and never changes what is sent to the backend.
package tokens

import (
	"log/slog"

	"github.com/tiktoken-go/tokenizer"

	"github.com/tpatole/rag-helper-bot/internal/chat"
)

// Counter estimates how many tokens one backend request will carry.
type Counter interface {
	Count(query string, history []chat.Turn) int
}

// NewCounter returns a tiktoken-backed counter, falling back to the
// character estimator when the encoding cannot be loaded.
func NewCounter(logger *slog.Logger) Counter {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := NewTiktokenCounter()
	if err != nil {
		logger.Warn("tiktoken unavailable, using character estimator",
			slog.String("error", err.Error()),
		)
		return NewEstimator()
	}
	return c
}

// TiktokenCounter counts tokens with the cl100k_base encoding.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter loads the encoding once; the codec is safe for
// concurrent use.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{codec: codec}, nil
}

func (c *TiktokenCounter) Count(query string, history []chat.Turn) int {
	total := 0
	ids, _, _ := c.codec.Encode(query)
	total += len(ids)
	for _, turn := range history {
		ids, _, _ := c.codec.Encode(turn.Text)
		// role tokens + separators
		total += len(ids) + 4
	}
	return total
}

// Estimator approximates token counts from character length.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4)
	CharsPerToken float64
}

// NewEstimator creates an estimator with the default ratio.
func NewEstimator() *Estimator {
	return &Estimator{CharsPerToken: 4.0}
}

func (e *Estimator) Count(query string, history []chat.Turn) int {
	totalChars := len(query)
	for _, turn := range history {
		totalChars += len(turn.Role) + len(turn.Text) + 4
	}
	if totalChars == 0 {
		return 0
	}
	n := int(float64(totalChars) / e.CharsPerToken)
	if n < 1 {
		n = 1
	}
	return n
}
