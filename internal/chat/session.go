package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// FallbackAnswer is displayed when the backend returns no answer or
// the call fails outright. There is no retry layer above the session,
// so failures surface as answer text, never as an error crossing the
// session boundary.
const FallbackAnswer = "Sorry, I couldn't generate a response."

// Exchange is one rendered prompt/answer pair. Corrupted is set when
// the stored answer was not a string, in which case Answer holds an
// error marker instead of the stored value.
type Exchange struct {
	Query     string
	Answer    string
	Corrupted bool
}

// Session owns one user's conversation state: the prompt log, the
// answer log (formatted display strings), and the turn history sent to
// the backend. The three logs grow in lockstep: after every exchange
// the prompt and answer logs have equal length and the turn history
// holds one complete human/ai pair per exchange.
//
// A Session is owned by exactly one logical user session and shares
// nothing with other sessions.
type Session struct {
	backend Answerer
	logger  *slog.Logger

	mu      sync.Mutex
	prompts []string
	// answers holds formatted display strings. It is typed any so the
	// renderer can tag a corrupt entry instead of panicking on it.
	answers []any
	history []Turn
}

// NewSession creates an empty session bound to an answering backend.
func NewSession(backend Answerer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{backend: backend, logger: logger}
}

// Ask runs one exchange: it sends the query and the current turn
// history to the backend, normalizes the result, and appends the new
// exchange to all three logs. The returned exchange is the one this
// call appended, captured under the same lock hold, so callers get
// their own pair even when a reset or another ask lands immediately
// after. The caller must not pass a blank query.
//
// Ask never returns an error. A malformed payload is absorbed by
// coercion and defaulting; a failed backend call yields the fallback
// answer with an empty citation list and a structured log entry.
// The lock spans the backend call so overlapping asks serialize.
func (s *Session) Ask(ctx context.Context, query string) Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.backend.Answer(ctx, query, s.history)
	if err != nil {
		s.logger.Error("backend call failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		resp = nil
	}

	var answer string
	var sources map[string]struct{}
	if resp != nil {
		var ok bool
		answer, ok = coerceAnswer(resp.Answer)
		if !ok {
			answer = FallbackAnswer
		}
		sources = collectSources(resp.Context)
	} else {
		answer = FallbackAnswer
	}

	display := answer + "\n\n" + FormatSources(sources)

	s.prompts = append(s.prompts, query)
	s.answers = append(s.answers, display)
	s.history = append(s.history, Turn{Role: RoleHuman, Text: query})
	// The clean answer text goes into the history, not the formatted
	// display string with its citation block.
	s.history = append(s.history, Turn{Role: RoleAI, Text: answer})

	return Exchange{Query: query, Answer: display}
}

// Reset clears all three logs atomically, returning the session to its
// construction state. Safe to call at any time.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = nil
	s.answers = nil
	s.history = nil
}

// Render pairs the prompt and answer logs positionally. An answer that
// is, contrary to invariant, not a string is reported as a corrupted
// exchange with an error marker; rendering never panics on bad
// history.
func (s *Session) Render() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	exchanges := make([]Exchange, 0, len(s.prompts))
	for i, prompt := range s.prompts {
		answer, ok := s.answers[i].(string)
		if !ok {
			exchanges = append(exchanges, Exchange{
				Query:     prompt,
				Answer:    fmt.Sprintf("invalid response format in history: %T", s.answers[i]),
				Corrupted: true,
			})
			continue
		}
		exchanges = append(exchanges, Exchange{Query: prompt, Answer: answer})
	}
	return exchanges
}

// History returns a copy of the turn history.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Len reports the number of completed exchanges.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
