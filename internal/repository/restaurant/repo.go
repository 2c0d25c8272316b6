// Package restaurant stores restaurant rows and their reviews as JSON
// documents and serves the batched fetches the search pipeline relies on.
package restaurant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chowgpt/chowgpt/internal/db"
	"github.com/chowgpt/chowgpt/internal/domain"
)

// Key and index layout.
const (
	KeyPrefix       = domain.KeyPrefix + "restaurant:"
	ReviewKeyPrefix = domain.KeyPrefix + "reviews:"
	IndexName       = domain.KeyPrefix + "restaurant_idx"
)

// store is the consumer interface for restaurant persistence (ISP).
type store interface {
	db.JSONStore
	db.Searcher
}

// Repo provides batched restaurant and review fetches.
type Repo struct {
	store store
}

// New creates a restaurant repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// IndexDefinition returns the FT index over restaurant documents used by
// List for bounded enumeration.
func IndexDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        IndexName,
		StorageType: db.StorageJSON,
		Prefixes:    []string{KeyPrefix},
		Fields: []db.IndexField{
			{Name: "$.placeId", Alias: "placeId", Type: db.IndexFieldTag},
			{Name: "$.title", Alias: "title", Type: db.IndexFieldText},
		},
	}
}

// FetchMeta returns lightweight rows (no reviews) for the given identifiers
// in one batched call. Unknown identifiers are skipped.
func (r *Repo) FetchMeta(ctx context.Context, placeIDs []string) ([]domain.Restaurant, error) {
	return r.fetchRows(ctx, placeIDs)
}

// FetchDetails returns full rows for the given identifiers in one batched
// call. The expensive companion, review fetching, is a separate call so the
// pipeline pays for it only for finalists.
func (r *Repo) FetchDetails(ctx context.Context, placeIDs []string) ([]domain.Restaurant, error) {
	return r.fetchRows(ctx, placeIDs)
}

func (r *Repo) fetchRows(ctx context.Context, placeIDs []string) ([]domain.Restaurant, error) {
	if len(placeIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(placeIDs))
	for i, id := range placeIDs {
		keys[i] = KeyPrefix + id
	}

	docs, err := r.store.JSONMGet(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("fetch restaurants: %w", err)
	}

	rows := make([]domain.Restaurant, 0, len(placeIDs))
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		dto, err := unmarshalRoot[restaurantDTO](doc)
		if err != nil {
			return nil, fmt.Errorf("decode restaurant %s: %w", placeIDs[i], err)
		}
		rows = append(rows, dto.toDomain())
	}
	return rows, nil
}

// FetchReviews returns up to perRestaurant reviews per identifier, keyed by
// identifier, in one batched call. Identifiers without stored reviews are
// absent from the map.
func (r *Repo) FetchReviews(
	ctx context.Context, placeIDs []string, perRestaurant int,
) (map[string][]domain.Review, error) {
	if len(placeIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(placeIDs))
	for i, id := range placeIDs {
		keys[i] = ReviewKeyPrefix + id
	}

	docs, err := r.store.JSONMGet(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}

	out := make(map[string][]domain.Review, len(placeIDs))
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		dtos, err := unmarshalRoot[[]reviewDTO](doc)
		if err != nil {
			return nil, fmt.Errorf("decode reviews %s: %w", placeIDs[i], err)
		}
		if perRestaurant > 0 && len(dtos) > perRestaurant {
			dtos = dtos[:perRestaurant]
		}
		if len(dtos) > 0 {
			out[placeIDs[i]] = reviewsToDomain(dtos)
		}
	}
	return out, nil
}

// List returns a bounded page of restaurants with no filter applied. Used by
// the keyword-only fallback when vector search is unavailable.
func (r *Repo) List(ctx context.Context, limit int) ([]domain.Restaurant, error) {
	res, err := r.store.SearchList(ctx, IndexName, "*", 0, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}

	rows := make([]domain.Restaurant, 0, len(res.Entries))
	for _, entry := range res.Entries {
		raw, ok := entry.Fields["$"]
		if !ok {
			continue
		}
		var dto restaurantDTO
		if err := json.Unmarshal([]byte(raw), &dto); err != nil {
			return nil, fmt.Errorf("decode restaurant %s: %w", entry.Key, err)
		}
		rows = append(rows, dto.toDomain())
	}
	return rows, nil
}

// Upsert stores a restaurant row.
func (r *Repo) Upsert(ctx context.Context, row domain.Restaurant) error {
	dto := toDTO(row)
	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal restaurant %s: %w", row.PlaceID, err)
	}
	if err := r.store.JSONSet(ctx, KeyPrefix+row.PlaceID, "$", data); err != nil {
		return fmt.Errorf("store restaurant %s: %w", row.PlaceID, err)
	}
	return nil
}

// SetReviews stores the review list for a restaurant.
func (r *Repo) SetReviews(ctx context.Context, placeID string, reviews []domain.Review) error {
	dtos := make([]reviewDTO, 0, len(reviews))
	for _, rev := range reviews {
		dtos = append(dtos, reviewDTO{Text: rev.Text, Stars: rev.Rating})
	}
	data, err := json.Marshal(dtos)
	if err != nil {
		return fmt.Errorf("marshal reviews %s: %w", placeID, err)
	}
	if err := r.store.JSONSet(ctx, ReviewKeyPrefix+placeID, "$", data); err != nil {
		return fmt.Errorf("store reviews %s: %w", placeID, err)
	}
	return nil
}

func toDTO(row domain.Restaurant) restaurantDTO {
	hours := make([]dayHoursDTO, 0, len(row.OpeningHours))
	for _, h := range row.OpeningHours {
		hours = append(hours, dayHoursDTO{Day: h.Day, Hours: h.Hours})
	}
	return restaurantDTO{
		PlaceID:      row.PlaceID,
		Title:        row.Title,
		Description:  row.Description,
		CategoryName: row.CategoryName,
		Categories:   row.Categories,
		Neighborhood: row.Neighborhood,
		Address:      row.Address,
		TotalScore:   row.TotalScore,
		ReviewsCount: row.ReviewsCount,
		Price:        row.Price,
		PriceLevel:   row.PriceLevel,
		Phone:        row.Phone,
		Website:      row.Website,
		OpeningHours: hours,
		PopularTimes: row.PopularTimes,
		Features:     row.Features,
		ParkingInfo:  row.ParkingText,
	}
}

// unmarshalRoot decodes a JSON.MGET "$"-path result, which arrives wrapped
// in a one-element array.
func unmarshalRoot[T any](doc []byte) (T, error) {
	var wrapped []T
	if err := json.Unmarshal(doc, &wrapped); err != nil {
		var zero T
		return zero, err
	}
	if len(wrapped) == 0 {
		var zero T
		return zero, fmt.Errorf("empty document")
	}
	return wrapped[0], nil
}
