package tokens

import (
	"testing"

	"github.com/tpatole/rag-helper-bot/internal/chat"
)

func TestEstimator_Count(t *testing.T) {
	e := NewEstimator()

	tests := []struct {
		name    string
		query   string
		history []chat.Turn
		min     int
		max     int
	}{
		{
			name:  "query only",
			query: "Hello, how are you?",
			min:   3,
			max:   10,
		},
		{
			name:  "with history",
			query: "And then?",
			history: []chat.Turn{
				{Role: chat.RoleHuman, Text: "What is 2+2?"},
				{Role: chat.RoleAI, Text: "2+2 equals 4."},
			},
			min:  8,
			max:  25,
		},
		{
			name:  "empty request",
			query: "",
			min:   0,
			max:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Count(tt.query, tt.history)
			if got < tt.min || got > tt.max {
				t.Errorf("Count() = %d, want between %d and %d", got, tt.min, tt.max)
			}
		})
	}
}

func TestTiktokenCounter_Count(t *testing.T) {
	c, err := NewTiktokenCounter()
	if err != nil {
		t.Fatalf("NewTiktokenCounter() error = %v", err)
	}

	got := c.Count("Hello world", nil)
	if got < 1 || got > 5 {
		t.Errorf("Count(\"Hello world\") = %d, want a small positive count", got)
	}

	withHistory := c.Count("Hello world", []chat.Turn{
		{Role: chat.RoleHuman, Text: "first question"},
		{Role: chat.RoleAI, Text: "first answer"},
	})
	if withHistory <= got {
		t.Errorf("Count() with history = %d, want more than %d", withHistory, got)
	}
}

func TestNewCounter_ReturnsWorkingCounter(t *testing.T) {
	c := NewCounter(nil)
	if c == nil {
		t.Fatal("NewCounter() returned nil")
	}
	if got := c.Count("some text here", nil); got < 1 {
		t.Errorf("Count() = %d, want at least 1", got)
	}
}
