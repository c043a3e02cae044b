// Package lyrics provides a client for a lyrics.ovh-style lyrics API.
package lyrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"context"
)

const userAgent = "go-mood-recommender/1.0"

// Sentinel errors.
var (
	// ErrNotFound is returned when the provider has no lyrics for the
	// track. Expected and non-fatal during batch analysis.
	ErrNotFound = errors.New("lyrics not found")

	// ErrServiceUnavailable is returned on any other upstream failure.
	ErrServiceUnavailable = errors.New("lyrics service unavailable")
)

// Client fetches song lyrics over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a lyrics client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// lyricsResponse is the JSON body returned by the provider.
type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
	Error  string `json:"error"`
}

// Lyrics fetches the lyric text for a track. Returns ErrNotFound when
// the provider has no lyrics, ErrServiceUnavailable on other failures.
func (c *Client) Lyrics(ctx context.Context, artist, title string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(artist), url.PathEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: unexpected status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrServiceUnavailable, err)
	}

	var lr lyricsResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("%w: parsing response: %v", ErrServiceUnavailable, err)
	}
	if lr.Error != "" || strings.TrimSpace(lr.Lyrics) == "" {
		return "", ErrNotFound
	}

	return lr.Lyrics, nil
}
