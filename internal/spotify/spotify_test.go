package spotify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

func TestConvertTrack(t *testing.T) {
	st := spotify.SimpleTrack{
		ID:   "6rqhFgbbKwnb9MLmUQDhG6",
		Name: "Paranoid Android",
		Artists: []spotify.SimpleArtist{
			{Name: "Radiohead"},
			{Name: "Someone Else"},
		},
		URI:        "spotify:track:6rqhFgbbKwnb9MLmUQDhG6",
		PreviewURL: "https://p.scdn.co/preview",
	}
	st.Album.Name = "OK Computer"

	track := convertTrack(st)

	if track.ID != "6rqhFgbbKwnb9MLmUQDhG6" {
		t.Errorf("ID = %q", track.ID)
	}
	if track.Artist != "Radiohead, Someone Else" {
		t.Errorf("Artist = %q, want joined names", track.Artist)
	}
	if track.Album != "OK Computer" {
		t.Errorf("Album = %q", track.Album)
	}
	if track.URI != "spotify:track:6rqhFgbbKwnb9MLmUQDhG6" {
		t.Errorf("URI = %q", track.URI)
	}
}

func TestRecentlyPlayedOptions(t *testing.T) {
	opts := recentlyPlayedOptions(25)
	if opts.Limit != spotify.Numeric(25) {
		t.Errorf("Limit = %d, want 25", opts.Limit)
	}
}

func TestCallContextDeadline(t *testing.T) {
	svc := NewService(Config{Timeout: time.Minute}, nil, zap.NewNop())

	ctx, cancel := svc.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("call context has no deadline")
	}
	if remaining := time.Until(deadline); remaining > time.Minute || remaining < 50*time.Second {
		t.Errorf("deadline in %v, want about a minute", remaining)
	}
}

func TestCallContextDefaultTimeout(t *testing.T) {
	svc := NewService(Config{}, nil, zap.NewNop())

	if svc.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", svc.timeout, DefaultTimeout)
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unauthorized maps to auth expired",
			err:  spotify.Error{Status: http.StatusUnauthorized, Message: "The access token expired"},
			want: ErrAuthExpired,
		},
		{
			name: "missing device maps to no active device",
			err:  spotify.Error{Status: http.StatusNotFound, Message: "Player command failed: No active device found"},
			want: ErrNoActiveDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translateError(tt.err, "op"); !errors.Is(got, tt.want) {
				t.Errorf("translateError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("connection reset")
	got := translateError(cause, "fetching recently played tracks")

	if !errors.Is(got, cause) {
		t.Errorf("translateError() lost the cause: %v", got)
	}
	if errors.Is(got, ErrAuthExpired) || errors.Is(got, ErrNoActiveDevice) {
		t.Errorf("translateError() misclassified unknown error: %v", got)
	}
}
