package hybrid

import (
	"context"

	"github.com/chowgpt/chowgpt/internal/domain"
)

// VectorSearcher returns nearest restaurant chunks for a query.
type VectorSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.VectorMatch, error)
}

// RestaurantStore provides restaurant metadata in two phases: cheap
// metadata for the whole candidate pool, then full details and reviews
// for the finalists only.
type RestaurantStore interface {
	FetchMeta(ctx context.Context, placeIDs []string) ([]domain.Restaurant, error)
	FetchDetails(ctx context.Context, placeIDs []string) ([]domain.Restaurant, error)
	FetchReviews(ctx context.Context, placeIDs []string, perRestaurant int) (map[string][]domain.Review, error)
	List(ctx context.Context, limit int) ([]domain.Restaurant, error)
}
