package mood

import (
	"fmt"
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/vchernysh/go-mood-recommender/internal/db"
)

// PhaseConfig holds mood-phase clustering parameters.
type PhaseConfig struct {
	NumPhases    int // number of clusters to create
	MinPhaseSize int // smaller clusters are dropped as noise
}

// DefaultPhaseConfig returns the recommended default configuration.
func DefaultPhaseConfig() PhaseConfig {
	return PhaseConfig{
		NumPhases:    3,
		MinPhaseSize: 3,
	}
}

// Phase is a cluster of similar mood records in a user's history.
type Phase struct {
	Name        string    `json:"name"`
	Centroid    Vector    `json:"centroid"`
	RecordCount int       `json:"record_count"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// recordObservation wraps a record to implement clusters.Observation.
type recordObservation struct {
	record *db.MoodRecord
	coords clusters.Coordinates
}

func (o recordObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o recordObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectPhases groups a user's mood history into phases by k-means
// clustering over the four mood dimensions. Clusters smaller than
// MinPhaseSize are dropped. Returns nil when there are fewer records
// than requested phases.
func DetectPhases(records []db.MoodRecord, cfg PhaseConfig) ([]Phase, error) {
	if cfg.NumPhases <= 0 {
		cfg.NumPhases = DefaultPhaseConfig().NumPhases
	}
	if len(records) < cfg.NumPhases {
		return nil, nil
	}

	var obs clusters.Observations
	for i := range records {
		rec := &records[i]
		obs = append(obs, recordObservation{
			record: rec,
			coords: clusters.Coordinates{rec.Happy, rec.Sad, rec.Angry, rec.Relaxed},
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumPhases)
	if err != nil {
		return nil, fmt.Errorf("clustering mood records: %w", err)
	}

	var phases []Phase
	for _, cluster := range result {
		var clusterRecords []db.MoodRecord
		for _, o := range cluster.Observations {
			if ro, ok := o.(recordObservation); ok {
				clusterRecords = append(clusterRecords, *ro.record)
			}
		}
		if len(clusterRecords) < cfg.MinPhaseSize {
			continue
		}

		slices.SortFunc(clusterRecords, func(a, b db.MoodRecord) int {
			return a.RecordedAt.Compare(b.RecordedAt)
		})

		centroid := Vector{
			Happy:   cluster.Center[0],
			Sad:     cluster.Center[1],
			Angry:   cluster.Center[2],
			Relaxed: cluster.Center[3],
		}

		phases = append(phases, Phase{
			Name:        phaseName(centroid),
			Centroid:    centroid,
			RecordCount: len(clusterRecords),
			StartDate:   clusterRecords[0].RecordedAt,
			EndDate:     clusterRecords[len(clusterRecords)-1].RecordedAt,
		})
	}

	// Most recent phase first.
	slices.SortFunc(phases, func(a, b Phase) int {
		return b.StartDate.Compare(a.StartDate)
	})

	return phases, nil
}

// dimension pairs a mood dimension name with its centroid value.
type dimension struct {
	name  string
	value float64
}

// phaseName labels a centroid by its dominant dimension, with a
// secondary modifier when another dimension comes close.
func phaseName(c Vector) string {
	dims := []dimension{
		{"Joyful", c.Happy},
		{"Melancholic", c.Sad},
		{"Agitated", c.Angry},
		{"Serene", c.Relaxed},
	}

	slices.SortStableFunc(dims, func(a, b dimension) int {
		switch {
		case a.value > b.value:
			return -1
		case a.value < b.value:
			return 1
		default:
			return 0
		}
	})

	// A near-tie on the second dimension gets a compound name.
	if dims[0].value-dims[1].value < 0.1 {
		return dims[0].name + " & " + dims[1].name
	}
	return dims[0].name
}
