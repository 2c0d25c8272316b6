package domain

// Candidate is the unit threaded through the search pipeline. It is created
// during candidate gathering with metadata only, then mutated in place by
// enrichment and scoring stages. VectorScore and KeywordScore are always in
// [0,100]; a candidate that never matched vector search has VectorScore 0.
type Candidate struct {
	PlaceID      string
	Name         string
	Cuisines     []string
	Description  string
	Location     string
	Rating       float64
	ReviewsCount int
	Price        string
	PriceLevel   int
	Features     []string
	VectorScore  float64
	KeywordScore float64

	// Enrichment, attached only for finalists.
	Reviews      []Review
	OpeningHours []DayHours
	HoursText    string
	ParkingText  string
}

// CandidateFromRestaurant builds a metadata-only candidate (reviews empty).
func CandidateFromRestaurant(r Restaurant) Candidate {
	cuisines := r.Categories
	if len(cuisines) == 0 && r.CategoryName != "" {
		cuisines = []string{r.CategoryName}
	}
	return Candidate{
		PlaceID:      r.PlaceID,
		Name:         r.Title,
		Cuisines:     cuisines,
		Description:  r.Description,
		Location:     r.Location(),
		Rating:       r.TotalScore,
		ReviewsCount: r.ReviewsCount,
		Price:        r.Price,
		PriceLevel:   r.PriceLevel,
		Features:     r.Features,
	}
}

// ScoredCandidate is a candidate with AI scoring and the final fused score.
type ScoredCandidate struct {
	Candidate
	LLMScore        int
	LLMReasoning    string
	MatchedCriteria []string
	MissingCriteria []string
	KeyStrengths    []string
	AIMatchScore    int
}

// SearchResult is the ordered outcome of one search request.
type SearchResult struct {
	Results        []ScoredCandidate
	Query          string
	RewrittenQuery string
	Steps          []string
	TookMS         int64
}
