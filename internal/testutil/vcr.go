// Package testutil provides shared test helpers.
package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// Replay returns an HTTP client whose transport serves the named
// cassette from testdata/fixtures. Set VCR_MODE=record to re-record
// against a live retrieval backend; recordings have their bearer
// tokens stripped before they hit disk. The recorder is stopped when
// the test ends.
func Replay(t *testing.T, name string) *http.Client {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("VCR_MODE") == "record" {
		mode = recorder.ModeRecording
	}

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", name), mode, nil)
	if err != nil {
		t.Fatalf("failed to create recorder for cassette %s: %v", name, err)
	}

	// Query requests embed the whole turn history, so matching on the
	// body would tie every cassette to one exact conversation. Method
	// plus URL is enough: the backend exposes a single query endpoint.
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})

	r.AddFilter(func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	})

	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("failed to stop recorder: %v", err)
		}
	})

	return &http.Client{Transport: r}
}
