package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

func TestSearchService_Search_NoEmbedder(t *testing.T) {
	s := NewSearchService(nil, &fakeIndex{})
	_, err := s.Search(context.Background(), "query", 5, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSearchService_Search_NoIndex(t *testing.T) {
	s := NewSearchService(&fakeEmbedder{}, nil)
	_, err := s.Search(context.Background(), "query", 5, nil)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	s := NewSearchService(&fakeEmbedder{}, &fakeIndex{})

	_, err := s.Search(context.Background(), "", 5, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Search(context.Background(), "   \t", 5, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_Search_DefaultLimit(t *testing.T) {
	index := &fakeIndex{}
	s := NewSearchService(&fakeEmbedder{}, index)

	_, err := s.Search(context.Background(), "query", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchLimit, index.lastLimit)
}

func TestSearchService_Search_PassesFilterThrough(t *testing.T) {
	index := &fakeIndex{hits: []driven.VectorHit{
		{Chunk: domain.Chunk{ID: "1001_v3_s0_c0"}, Similarity: 0.9},
	}}
	s := NewSearchService(&fakeEmbedder{}, index)

	filter := &driven.VectorFilter{SpaceKey: "OPS"}
	hits, err := s.Search(context.Background(), "restart the api", 3, filter)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1001_v3_s0_c0", hits[0].Chunk.ID)
	assert.Equal(t, 3, index.lastLimit)
	assert.Equal(t, filter, index.lastFilter)
}

func TestSearchService_Search_EmbedFailure(t *testing.T) {
	s := NewSearchService(&fakeEmbedder{err: errors.New("model offline")}, &fakeIndex{})

	_, err := s.Search(context.Background(), "query", 5, nil)
	assert.ErrorContains(t, err, "embed query")
}
