package domain

import "math"

// Chunk types produced by the ingestion pipeline. Each restaurant is indexed
// as several semantic chunks so narrow queries ("easy parking", "open late")
// can land on the aspect they ask about.
const (
	ChunkOverview        = "overview"
	ChunkOperational     = "operational"
	ChunkParkingLocation = "parking_location"
	ChunkExperience      = "experience"
	ChunkFeatures        = "features"
)

// VectorMatch is one nearest-neighbor hit. Transient: produced and consumed
// within a single retrieval call.
type VectorMatch struct {
	PlaceID    string
	Similarity float64 // raw cosine similarity in [0,1]
	ChunkType  string
	Content    string
}

// Similarity-to-score curve. Real-world cosine similarities cluster in
// 0.3-0.9, so the raw value is clamped to [0.3,1.0], normalized, curved with
// exponent 0.6 and mapped into [50,98]: anything retrieved at all scores at
// least 50, and nothing scores a perfect 100.
const (
	simFloor    = 0.3
	simCeil     = 1.0
	simExponent = 0.6
	simBase     = 50.0
	simSpan     = 48.0
)

// MapSimilarity converts a raw cosine similarity to a 0-100 display score.
func MapSimilarity(sim float64) float64 {
	if sim < simFloor {
		sim = simFloor
	}
	if sim > simCeil {
		sim = simCeil
	}
	norm := (sim - simFloor) / (simCeil - simFloor)
	return simBase + simSpan*math.Pow(norm, simExponent)
}
