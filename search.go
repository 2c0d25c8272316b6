package chowgpt

import (
	"context"
	"fmt"

	"github.com/chowgpt/chowgpt/internal/domain"
)

// SearchOptions narrows and sizes a search.
type SearchOptions struct {
	Cuisines  []string
	PriceMin  int
	PriceMax  int
	Location  string
	MinRating float64
	Features  []string
	Limit     int
}

// Review is a customer review attached to a result.
type Review struct {
	Text   string
	Rating float64
}

// Result is one ranked restaurant.
type Result struct {
	PlaceID         string
	Name            string
	Cuisines        []string
	Description     string
	Location        string
	Rating          float64
	ReviewsCount    int
	Price           string
	Features        []string
	VectorScore     float64
	KeywordScore    float64
	LLMScore        int
	LLMReasoning    string
	MatchedCriteria []string
	MissingCriteria []string
	KeyStrengths    []string
	MatchScore      int
	Hours           string
	Parking         string
	Reviews         []Review
}

// SearchResponse is the outcome of one search.
type SearchResponse struct {
	Results        []Result
	Query          string
	RewrittenQuery string
	Steps          []string
	TookMS         int64
}

// ChatReply is the outcome of one chat turn.
type ChatReply struct {
	SessionID string
	Answer    string
	Results   []Result
}

// Search runs the query pipeline.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (SearchResponse, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	q, err := domain.NewQuery(query, domain.Filters{
		Cuisines:  opts.Cuisines,
		PriceMin:  opts.PriceMin,
		PriceMax:  opts.PriceMax,
		Location:  opts.Location,
		MinRating: opts.MinRating,
		Features:  opts.Features,
	}, opts.Limit)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}

	res, err := c.searchSvc.Search(ctx, q)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}

	return SearchResponse{
		Results:        fromScored(res.Results),
		Query:          res.Query,
		RewrittenQuery: res.RewrittenQuery,
		Steps:          res.Steps,
		TookMS:         res.TookMS,
	}, nil
}

// Suggestions returns curated query phrases matching the partial input.
func (c *Client) Suggestions(text string) []string {
	return c.searchSvc.Suggestions(text)
}

// Chat runs one conversational turn. An empty sessionID starts a new
// session; the returned reply carries the session to continue with.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (ChatReply, error) {
	reply, err := c.chatSvc.Message(ctx, sessionID, message)
	if err != nil {
		return ChatReply{}, fmt.Errorf("chat: %w", err)
	}
	return ChatReply{
		SessionID: reply.SessionID,
		Answer:    reply.Answer,
		Results:   fromScored(reply.Results),
	}, nil
}

// EndChat discards a chat session.
func (c *Client) EndChat(sessionID string) {
	c.chatSvc.End(sessionID)
}

func fromScored(scored []domain.ScoredCandidate) []Result {
	out := make([]Result, len(scored))
	for i := range scored {
		s := &scored[i]
		reviews := make([]Review, len(s.Reviews))
		for j, r := range s.Reviews {
			reviews[j] = Review{Text: r.Text, Rating: r.Rating}
		}
		out[i] = Result{
			PlaceID:         s.PlaceID,
			Name:            s.Name,
			Cuisines:        s.Cuisines,
			Description:     s.Description,
			Location:        s.Location,
			Rating:          s.Rating,
			ReviewsCount:    s.ReviewsCount,
			Price:           s.Price,
			Features:        s.Features,
			VectorScore:     s.VectorScore,
			KeywordScore:    s.KeywordScore,
			LLMScore:        s.LLMScore,
			LLMReasoning:    s.LLMReasoning,
			MatchedCriteria: s.MatchedCriteria,
			MissingCriteria: s.MissingCriteria,
			KeyStrengths:    s.KeyStrengths,
			MatchScore:      s.AIMatchScore,
			Hours:           s.HoursText,
			Parking:         s.ParkingText,
			Reviews:         reviews,
		}
	}
	return out
}
