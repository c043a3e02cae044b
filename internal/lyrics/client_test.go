package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLyrics(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantLyrics string
		wantErr    error
	}{
		{
			name:       "lyrics found",
			status:     http.StatusOK,
			body:       lyricsResponse{Lyrics: "Hello darkness my old friend"},
			wantLyrics: "Hello darkness my old friend",
		},
		{
			name:    "provider 404",
			status:  http.StatusNotFound,
			body:    lyricsResponse{Error: "No lyrics found"},
			wantErr: ErrNotFound,
		},
		{
			name:    "200 with error field",
			status:  http.StatusOK,
			body:    lyricsResponse{Error: "No lyrics found"},
			wantErr: ErrNotFound,
		},
		{
			name:    "200 with blank lyrics",
			status:  http.StatusOK,
			body:    lyricsResponse{Lyrics: "   "},
			wantErr: ErrNotFound,
		},
		{
			name:    "upstream failure",
			status:  http.StatusBadGateway,
			body:    map[string]string{"message": "gateway error"},
			wantErr: ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second)
			got, err := client.Lyrics(context.Background(), "Simon & Garfunkel", "The Sound of Silence")

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Lyrics() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.wantLyrics {
				t.Errorf("Lyrics() = %q, want %q", got, tt.wantLyrics)
			}
		})
	}
}

func TestLyricsEscapesPathSegments(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(lyricsResponse{Lyrics: "la la"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Lyrics(context.Background(), "AC/DC", "Back in Black"); err != nil {
		t.Fatalf("Lyrics() error = %v", err)
	}

	if gotPath != "/AC%2FDC/Back%20in%20Black" {
		t.Errorf("request path = %q, want escaped artist and title", gotPath)
	}
}

func TestLyricsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 20*time.Millisecond)
	_, err := client.Lyrics(context.Background(), "Artist", "Title")

	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Lyrics() error = %v, want ErrServiceUnavailable on timeout", err)
	}
}
