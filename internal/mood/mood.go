// Package mood implements mood vector aggregation and history statistics.
package mood

import (
	"errors"
	"fmt"
	"time"

	"github.com/vchernysh/go-mood-recommender/internal/db"
)

// Common errors.
var (
	// ErrEmptyInput is returned when aggregation is attempted over zero vectors.
	ErrEmptyInput = errors.New("no mood vectors to aggregate")
)

// Vector is a four-dimensional emotional profile. Each component is a
// probability-like value in [0,1]. Components are not required to sum
// to 1 unless produced by a single softmax prediction.
type Vector struct {
	Happy   float64 `json:"happy"`
	Sad     float64 `json:"sad"`
	Angry   float64 `json:"angry"`
	Relaxed float64 `json:"relaxed"`
}

// Validate checks that every component lies in [0,1].
func (v Vector) Validate() error {
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"happy", v.Happy},
		{"sad", v.Sad},
		{"angry", v.Angry},
		{"relaxed", v.Relaxed},
	} {
		if c.value < 0 || c.value > 1 {
			return fmt.Errorf("%s score %g outside [0,1]", c.name, c.value)
		}
	}
	return nil
}

// FromRecord extracts the vector stored in a mood record.
func FromRecord(rec db.MoodRecord) Vector {
	return Vector{
		Happy:   rec.Happy,
		Sad:     rec.Sad,
		Angry:   rec.Angry,
		Relaxed: rec.Relaxed,
	}
}

// Aggregate returns the element-wise mean of the input vectors.
// Returns ErrEmptyInput for an empty slice; callers decide whether that
// means "no data" or a failure.
func Aggregate(vectors []Vector) (Vector, error) {
	if len(vectors) == 0 {
		return Vector{}, ErrEmptyInput
	}

	var sum Vector
	for _, v := range vectors {
		sum.Happy += v.Happy
		sum.Sad += v.Sad
		sum.Angry += v.Angry
		sum.Relaxed += v.Relaxed
	}

	n := float64(len(vectors))
	return Vector{
		Happy:   sum.Happy / n,
		Sad:     sum.Sad / n,
		Angry:   sum.Angry / n,
		Relaxed: sum.Relaxed / n,
	}, nil
}

// DimensionStats summarizes one mood dimension over a set of records.
type DimensionStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Statistics summarizes a user's mood records over a time window.
// Count of zero means the window contained no records; the per-dimension
// stats are zero-valued in that case.
type Statistics struct {
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	Count     int            `json:"count"`
	Happy     DimensionStats `json:"happy"`
	Sad       DimensionStats `json:"sad"`
	Angry     DimensionStats `json:"angry"`
	Relaxed   DimensionStats `json:"relaxed"`
}

// Summarize computes per-dimension statistics over the records that
// fall within [from, to]. An empty window yields a zero-valued result,
// never a division by zero.
func Summarize(records []db.MoodRecord, from, to time.Time) Statistics {
	stats := Statistics{StartDate: from, EndDate: to}

	var inWindow []db.MoodRecord
	for _, rec := range records {
		if rec.RecordedAt.Before(from) || rec.RecordedAt.After(to) {
			continue
		}
		inWindow = append(inWindow, rec)
	}
	if len(inWindow) == 0 {
		return stats
	}

	stats.Count = len(inWindow)
	stats.Happy = dimensionStats(inWindow, func(r db.MoodRecord) float64 { return r.Happy })
	stats.Sad = dimensionStats(inWindow, func(r db.MoodRecord) float64 { return r.Sad })
	stats.Angry = dimensionStats(inWindow, func(r db.MoodRecord) float64 { return r.Angry })
	stats.Relaxed = dimensionStats(inWindow, func(r db.MoodRecord) float64 { return r.Relaxed })
	return stats
}

func dimensionStats(records []db.MoodRecord, score func(db.MoodRecord) float64) DimensionStats {
	first := score(records[0])
	ds := DimensionStats{Min: first, Max: first}

	var sum float64
	for _, rec := range records {
		v := score(rec)
		sum += v
		if v < ds.Min {
			ds.Min = v
		}
		if v > ds.Max {
			ds.Max = v
		}
	}
	ds.Mean = sum / float64(len(records))
	return ds
}
