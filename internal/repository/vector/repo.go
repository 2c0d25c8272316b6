// Package vector retrieves restaurant-chunk nearest neighbors: it embeds
// the query text and runs a KNN search over the chunk index.
package vector

import (
	"context"
	"fmt"

	"github.com/chowgpt/chowgpt/internal/db"
	"github.com/chowgpt/chowgpt/internal/domain"
)

// Key and index layout for chunk documents. The ingestion pipeline writes
// several semantic chunks per restaurant (overview, operational,
// parking_location, experience, features).
const (
	ChunkKeyPrefix = domain.KeyPrefix + "chunk:"
	IndexName      = domain.KeyPrefix + "chunk_idx"
)

// DefaultTopK is the number of matches fetched per query.
const DefaultTopK = 30

// IndexDefinition returns the FT index over chunk documents.
func IndexDefinition(dimensions int) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        IndexName,
		StorageType: db.StorageJSON,
		Prefixes:    []string{ChunkKeyPrefix},
		Fields: []db.IndexField{
			{Name: "$.placeId", Alias: "placeId", Type: db.IndexFieldTag},
			{Name: "$.chunkType", Alias: "chunkType", Type: db.IndexFieldTag},
			{Name: "$.content", Alias: "content", Type: db.IndexFieldText},
			{
				Name:           "$.embedding",
				Alias:          "embedding",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorHNSW,
				VectorDim:      dimensions,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
}

// Retriever embeds queries and searches the chunk index.
type Retriever struct {
	embed  domain.Embedder
	search db.Searcher
}

// New creates a chunk retriever.
func New(embed domain.Embedder, search db.Searcher) *Retriever {
	return &Retriever{embed: embed, search: search}
}

// Search embeds the query and returns up to topK nearest chunks with raw
// similarity scores. Both the embedding call and the index query propagate
// their errors: the orchestrator uses them to trigger the keyword-only
// fallback.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.VectorMatch, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embResult, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	res, err := r.search.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Vector:       embResult.Embedding,
		K:            topK,
		ReturnFields: []string{"placeId", "chunkType", "content"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	matches := make([]domain.VectorMatch, 0, len(res.Entries))
	for _, entry := range res.Entries {
		placeID := entry.Fields["placeId"]
		if placeID == "" {
			continue
		}
		matches = append(matches, domain.VectorMatch{
			PlaceID:    placeID,
			Similarity: entry.Score,
			ChunkType:  entry.Fields["chunkType"],
			Content:    entry.Fields["content"],
		})
	}
	return matches, nil
}
