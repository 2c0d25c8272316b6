package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chowgpt/chowgpt/internal/db"
	"github.com/chowgpt/chowgpt/internal/domain"
)

type chunkDTO struct {
	PlaceID   string    `json:"placeId"`
	ChunkType string    `json:"chunkType"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// Indexer writes embedded chunk documents for the retriever to search.
type Indexer struct {
	embed domain.Embedder
	store db.JSONStore
}

// NewIndexer creates a chunk indexer.
func NewIndexer(embed domain.Embedder, store db.JSONStore) *Indexer {
	return &Indexer{embed: embed, store: store}
}

// Upsert embeds the content and stores it as a chunk document keyed by
// restaurant and chunk type.
func (ix *Indexer) Upsert(ctx context.Context, placeID, chunkType, content string) error {
	res, err := ix.embed.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed chunk %s:%s: %w", placeID, chunkType, err)
	}

	data, err := json.Marshal(chunkDTO{
		PlaceID:   placeID,
		ChunkType: chunkType,
		Content:   content,
		Embedding: res.Embedding,
	})
	if err != nil {
		return fmt.Errorf("marshal chunk %s:%s: %w", placeID, chunkType, err)
	}

	key := fmt.Sprintf("%s%s:%s", ChunkKeyPrefix, placeID, chunkType)
	if err := ix.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("store chunk %s:%s: %w", placeID, chunkType, err)
	}
	return nil
}

// Delete removes one chunk document.
func (ix *Indexer) Delete(ctx context.Context, placeID, chunkType string) error {
	key := fmt.Sprintf("%s%s:%s", ChunkKeyPrefix, placeID, chunkType)
	if err := ix.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete chunk %s:%s: %w", placeID, chunkType, err)
	}
	return nil
}
