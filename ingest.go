package chowgpt

import (
	"context"
	"fmt"

	"github.com/chowgpt/chowgpt/internal/domain"
)

// DayHours is one weekday's opening-hours entry.
type DayHours struct {
	Day   string
	Hours string
}

// Restaurant is the ingestion input record. Chunks maps a chunk type
// (overview, operational, parking_location, experience, features) to the
// text embedded for semantic retrieval.
type Restaurant struct {
	PlaceID      string
	Title        string
	Description  string
	CategoryName string
	Categories   []string
	Neighborhood string
	Address      string
	Rating       float64
	ReviewsCount int
	Price        string
	PriceLevel   int
	Phone        string
	Website      string
	OpeningHours []DayHours
	PopularTimes string
	Features     []string
	ParkingText  string
	Reviews      []Review
	Chunks       map[string]string
}

// IndexRestaurant stores the restaurant row, its reviews, and its embedded
// content chunks. Chunk embedding failures abort the call; a partially
// indexed restaurant is still searchable by keyword.
func (c *Client) IndexRestaurant(ctx context.Context, r Restaurant) error {
	if r.PlaceID == "" {
		return fmt.Errorf("chowgpt: place id is required")
	}

	if err := c.restaurants.Upsert(ctx, toDomainRestaurant(r)); err != nil {
		return fmt.Errorf("index restaurant: %w", err)
	}

	if len(r.Reviews) > 0 {
		reviews := make([]domain.Review, len(r.Reviews))
		for i, rev := range r.Reviews {
			reviews[i] = domain.Review{Text: rev.Text, Rating: rev.Rating}
		}
		if err := c.restaurants.SetReviews(ctx, r.PlaceID, reviews); err != nil {
			return fmt.Errorf("index reviews: %w", err)
		}
	}

	for chunkType, content := range r.Chunks {
		if content == "" {
			continue
		}
		if err := c.indexer.Upsert(ctx, r.PlaceID, chunkType, content); err != nil {
			return fmt.Errorf("index chunk: %w", err)
		}
	}
	return nil
}

func toDomainRestaurant(r Restaurant) domain.Restaurant {
	hours := make([]domain.DayHours, len(r.OpeningHours))
	for i, h := range r.OpeningHours {
		hours[i] = domain.DayHours{Day: h.Day, Hours: h.Hours}
	}
	return domain.Restaurant{
		PlaceID:      r.PlaceID,
		Title:        r.Title,
		Description:  r.Description,
		CategoryName: r.CategoryName,
		Categories:   r.Categories,
		Neighborhood: r.Neighborhood,
		Address:      r.Address,
		TotalScore:   r.Rating,
		ReviewsCount: r.ReviewsCount,
		Price:        r.Price,
		PriceLevel:   r.PriceLevel,
		Phone:        r.Phone,
		Website:      r.Website,
		OpeningHours: hours,
		PopularTimes: r.PopularTimes,
		Features:     r.Features,
		ParkingText:  r.ParkingText,
	}
}
