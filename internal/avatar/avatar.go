// Package avatar fetches the sidebar profile picture from Gravatar.
// The fetch is strictly best-effort: any failure degrades to a flat
// grey placeholder of the configured size, never an error.
package avatar

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://www.gravatar.com"

// Option configures the fetcher.
type Option func(*Fetcher)

// WithBaseURL sets a custom Gravatar endpoint.
func WithBaseURL(baseURL string) Option {
	return func(f *Fetcher) {
		f.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = httpClient
	}
}

// Fetcher retrieves square avatar images by email.
type Fetcher struct {
	baseURL    string
	size       int
	logger     *slog.Logger
	httpClient *http.Client
}

// New creates a fetcher producing size x size avatars.
func New(size int, logger *slog.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fetcher{
		baseURL:    defaultBaseURL,
		size:       size,
		logger:     logger,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns PNG bytes for the email's Gravatar identicon, or the
// placeholder when anything goes wrong.
func (f *Fetcher) Fetch(ctx context.Context, email string) []byte {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	url := fmt.Sprintf("%s/avatar/%x?d=identicon&s=%d", f.baseURL, hash, f.size)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return f.placeholder()
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Warn("avatar fetch failed", slog.String("error", err.Error()))
		return f.placeholder()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("avatar fetch failed", slog.Int("status", resp.StatusCode))
		return f.placeholder()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Warn("avatar fetch failed", slog.String("error", err.Error()))
		return f.placeholder()
	}
	return body
}

// placeholder is a flat grey square, matching what the page showed
// when Gravatar was unreachable.
func (f *Fetcher) placeholder() []byte {
	img := image.NewRGBA(image.Rect(0, 0, f.size, f.size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
