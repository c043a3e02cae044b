package mood

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vchernysh/go-mood-recommender/internal/db"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		vectors []Vector
		want    Vector
		wantErr error
	}{
		{
			name:    "empty input",
			vectors: nil,
			wantErr: ErrEmptyInput,
		},
		{
			name:    "single vector is identity",
			vectors: []Vector{{Happy: 0.7, Sad: 0.1, Angry: 0.05, Relaxed: 0.15}},
			want:    Vector{Happy: 0.7, Sad: 0.1, Angry: 0.05, Relaxed: 0.15},
		},
		{
			name: "mean of three vectors",
			vectors: []Vector{
				{Happy: 0.9, Sad: 0.0, Angry: 0.0, Relaxed: 0.3},
				{Happy: 0.3, Sad: 0.6, Angry: 0.3, Relaxed: 0.0},
				{Happy: 0.6, Sad: 0.3, Angry: 0.6, Relaxed: 0.6},
			},
			want: Vector{Happy: 0.6, Sad: 0.3, Angry: 0.3, Relaxed: 0.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.vectors)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Aggregate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if !almostEqual(got.Happy, tt.want.Happy) ||
				!almostEqual(got.Sad, tt.want.Sad) ||
				!almostEqual(got.Angry, tt.want.Angry) ||
				!almostEqual(got.Relaxed, tt.want.Relaxed) {
				t.Errorf("Aggregate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	forward := []Vector{
		{Happy: 0.1, Sad: 0.2, Angry: 0.3, Relaxed: 0.4},
		{Happy: 0.5, Sad: 0.6, Angry: 0.7, Relaxed: 0.8},
		{Happy: 0.9, Sad: 0.1, Angry: 0.2, Relaxed: 0.3},
	}
	reversed := []Vector{forward[2], forward[1], forward[0]}

	a, err := Aggregate(forward)
	if err != nil {
		t.Fatalf("Aggregate(forward) error = %v", err)
	}
	b, err := Aggregate(reversed)
	if err != nil {
		t.Fatalf("Aggregate(reversed) error = %v", err)
	}

	if !almostEqual(a.Happy, b.Happy) || !almostEqual(a.Sad, b.Sad) ||
		!almostEqual(a.Angry, b.Angry) || !almostEqual(a.Relaxed, b.Relaxed) {
		t.Errorf("aggregate depends on input order: %+v vs %+v", a, b)
	}
}

func TestVectorValidate(t *testing.T) {
	tests := []struct {
		name    string
		vector  Vector
		wantErr bool
	}{
		{name: "all in range", vector: Vector{Happy: 0.2, Sad: 0.3, Angry: 0.1, Relaxed: 0.4}},
		{name: "boundaries are valid", vector: Vector{Happy: 0, Sad: 1, Angry: 0, Relaxed: 1}},
		{name: "negative component", vector: Vector{Happy: -0.1, Sad: 0.3, Angry: 0.1, Relaxed: 0.4}, wantErr: true},
		{name: "component above one", vector: Vector{Happy: 0.1, Sad: 0.3, Angry: 1.1, Relaxed: 0.4}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vector.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func recordAt(daysAgo int, v Vector) db.MoodRecord {
	return db.MoodRecord{
		Happy:      v.Happy,
		Sad:        v.Sad,
		Angry:      v.Angry,
		Relaxed:    v.Relaxed,
		RecordedAt: time.Now().UTC().AddDate(0, 0, -daysAgo),
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now().UTC()
	records := []db.MoodRecord{
		recordAt(1, Vector{Happy: 0.8, Sad: 0.1, Angry: 0.0, Relaxed: 0.5}),
		recordAt(2, Vector{Happy: 0.4, Sad: 0.5, Angry: 0.2, Relaxed: 0.1}),
		recordAt(20, Vector{Happy: 0.0, Sad: 0.9, Angry: 0.9, Relaxed: 0.0}), // outside window
	}

	stats := Summarize(records, now.AddDate(0, 0, -7), now)

	if stats.Count != 2 {
		t.Fatalf("Count = %d, want 2", stats.Count)
	}
	if !almostEqual(stats.Happy.Mean, 0.6) {
		t.Errorf("Happy.Mean = %g, want 0.6", stats.Happy.Mean)
	}
	if !almostEqual(stats.Happy.Min, 0.4) || !almostEqual(stats.Happy.Max, 0.8) {
		t.Errorf("Happy min/max = %g/%g, want 0.4/0.8", stats.Happy.Min, stats.Happy.Max)
	}
	if !almostEqual(stats.Sad.Mean, 0.3) {
		t.Errorf("Sad.Mean = %g, want 0.3", stats.Sad.Mean)
	}
}

func TestSummarizeEmptyWindow(t *testing.T) {
	now := time.Now().UTC()
	records := []db.MoodRecord{
		recordAt(30, Vector{Happy: 0.5, Sad: 0.5, Angry: 0.5, Relaxed: 0.5}),
	}

	stats := Summarize(records, now.AddDate(0, 0, -7), now)

	if stats.Count != 0 {
		t.Errorf("Count = %d, want 0", stats.Count)
	}
	if stats.Happy.Mean != 0 || stats.Happy.Min != 0 || stats.Happy.Max != 0 {
		t.Errorf("expected zero-valued stats for empty window, got %+v", stats.Happy)
	}
}
