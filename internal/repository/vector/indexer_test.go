package vector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/chowgpt/chowgpt/internal/domain"
)

type mockJSONStore struct {
	docs    map[string][]byte
	deleted []string
	setErr  error
}

func newMockJSONStore() *mockJSONStore { return &mockJSONStore{docs: make(map[string][]byte)} }

func (m *mockJSONStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.docs[key] = data
	return nil
}

func (m *mockJSONStore) JSONGet(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return nil, nil
}

func (m *mockJSONStore) JSONMGet(_ context.Context, keys []string, _ string) ([][]byte, error) {
	return make([][]byte, len(keys)), nil
}

func (m *mockJSONStore) Del(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func TestIndexerUpsert_WritesChunkDoc(t *testing.T) {
	store := newMockJSONStore()
	ix := NewIndexer(&mockEmbedder{vec: []float32{0.1, 0.2}}, store)

	err := ix.Upsert(context.Background(), "p1", domain.ChunkOverview, "cozy italian trattoria")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, ok := store.docs[ChunkKeyPrefix+"p1:"+domain.ChunkOverview]
	if !ok {
		t.Fatalf("chunk doc not written, keys: %v", store.docs)
	}
	var doc chunkDTO
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode chunk doc: %v", err)
	}
	if doc.PlaceID != "p1" || doc.ChunkType != domain.ChunkOverview {
		t.Errorf("unexpected doc: %+v", doc)
	}
	if len(doc.Embedding) != 2 {
		t.Errorf("embedding not stored: %+v", doc.Embedding)
	}
}

func TestIndexerUpsert_EmbedErrorPropagates(t *testing.T) {
	ix := NewIndexer(&mockEmbedder{err: errors.New("provider down")}, newMockJSONStore())

	if err := ix.Upsert(context.Background(), "p1", domain.ChunkOverview, "text"); err == nil {
		t.Fatal("expected embed error to propagate")
	}
}

func TestIndexerDelete(t *testing.T) {
	store := newMockJSONStore()
	ix := NewIndexer(&mockEmbedder{vec: []float32{0.1}}, store)

	if err := ix.Delete(context.Background(), "p1", domain.ChunkOverview); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != ChunkKeyPrefix+"p1:"+domain.ChunkOverview {
		t.Errorf("unexpected deletes: %v", store.deleted)
	}
}
