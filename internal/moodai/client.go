// Package moodai provides a client for the external AI mood service,
// which predicts mood vectors from lyrics and recommends songs for a
// given mood.
package moodai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vchernysh/go-mood-recommender/internal/mood"
)

const userAgent = "go-mood-recommender/1.0"

// Sentinel errors.
var (
	// ErrPrediction is returned when a mood prediction call fails or
	// yields a malformed response.
	ErrPrediction = errors.New("mood prediction failed")

	// ErrRecommendation is returned when a recommendation query fails
	// or yields a malformed response.
	ErrRecommendation = errors.New("recommendation query failed")
)

// RecommendedSong is one entry from the AI service's recommendation
// index. The prediction is the mood vector the service stored for the
// song.
type RecommendedSong struct {
	Artist     string      `json:"artist"`
	Title      string      `json:"title"`
	Prediction mood.Vector `json:"prediction"`
}

// Client talks to the AI mood service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a mood AI client. apiKey may be empty when the
// service is unauthenticated.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// predictRequest is the body for a mood prediction call.
type predictRequest struct {
	Lyrics string `json:"lyrics"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// PredictMood asks the AI service for the emotional profile of a
// song's lyrics. The response is validated strictly: any component
// outside [0,1] is rejected as ErrPrediction rather than stored.
func (c *Client) PredictMood(ctx context.Context, lyricsText, artist, title string) (mood.Vector, error) {
	body, err := c.post(ctx, "/", predictRequest{Lyrics: lyricsText, Artist: artist, Title: title})
	if err != nil {
		return mood.Vector{}, fmt.Errorf("%w: %v", ErrPrediction, err)
	}

	var vector mood.Vector
	if err := json.Unmarshal(body, &vector); err != nil {
		return mood.Vector{}, fmt.Errorf("%w: parsing response: %v", ErrPrediction, err)
	}
	if err := vector.Validate(); err != nil {
		return mood.Vector{}, fmt.Errorf("%w: %v", ErrPrediction, err)
	}

	return vector, nil
}

// Recommend queries the AI service's vector index for songs closest to
// the given mood. The returned order is the service's ranking and is
// passed through unmodified.
func (c *Client) Recommend(ctx context.Context, vector mood.Vector) ([]RecommendedSong, error) {
	body, err := c.post(ctx, "/closest", vector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecommendation, err)
	}

	var songs []RecommendedSong
	if err := json.Unmarshal(body, &songs); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", ErrRecommendation, err)
	}

	return songs, nil
}

// post sends a JSON request and returns the raw response body, erroring
// on any non-200 status.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
