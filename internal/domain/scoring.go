package domain

import "math"

// Fusion weights. The LLM pass has read actual review text and dominates;
// vector similarity provides a broad semantic floor; keyword match is the
// most literal signal and is weighted lowest.
const (
	WeightVector  = 0.20
	WeightKeyword = 0.15
	WeightLLM     = 0.65
)

// FuseScores combines the three pipeline signals into the final match score.
// Monotonic in each input; (100,100,100) fuses to 100 and (0,0,0) to 0.
func FuseScores(vectorScore, keywordScore float64, llmScore int) int {
	fused := vectorScore*WeightVector + keywordScore*WeightKeyword + float64(llmScore)*WeightLLM
	return int(math.Round(fused))
}
