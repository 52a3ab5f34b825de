package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// letterEmbedder counts a handful of letters, giving stable similarities.
type letterEmbedder struct{ err error }

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, 3)
	for i, r := range "vwr" {
		vec[i] = float32(strings.Count(strings.ToLower(text), string(r)))
	}
	return vec, nil
}

func (e *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *letterEmbedder) Dimensions() int              { return 3 }
func (e *letterEmbedder) ModelName() string            { return "letters" }
func (e *letterEmbedder) Ping(_ context.Context) error { return nil }
func (e *letterEmbedder) Close() error                 { return nil }

func doc(id, summary, store string) domain.Document {
	return domain.Document{
		RecordID: id,
		Summary:  summary,
		Metadata: domain.DocumentMetadata{RecordID: id, StoreName: store},
	}
}

func TestIndex_SearchOrdersByScore(t *testing.T) {
	index := NewIndex(&letterEmbedder{})
	ctx := context.Background()
	require.NoError(t, index.AddDocuments(ctx, []domain.Document{
		doc("b", "vvv", "Hy-Vee"),
		doc("a", "vvv", "Casey's"),
		doc("c", "rrr", "Hy-Vee"),
	}))

	results, err := index.Search(ctx, "v", 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.RecordID, "ties break by record id")
	assert.Equal(t, "b", results[1].Document.RecordID)

	filtered, err := index.Search(ctx, "v", 10, domain.MetadataFilter{domain.MetaStoreName: "Hy-Vee"})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "b", filtered[0].Document.RecordID)
	assert.Equal(t, "c", filtered[1].Document.RecordID)
}

func TestIndex_InvalidFilter(t *testing.T) {
	_, err := NewIndex(&letterEmbedder{}).Search(context.Background(), "v", 1, domain.MetadataFilter{"bogus": "x"})

	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestIndex_UpsertAndRecordIDs(t *testing.T) {
	index := NewIndex(&letterEmbedder{})
	ctx := context.Background()

	require.NoError(t, index.AddDocuments(ctx, []domain.Document{doc("b", "v", ""), doc("a", "v", "")}))
	require.NoError(t, index.AddDocuments(ctx, []domain.Document{doc("a", "r", "")}))

	ids, err := index.RecordIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	n, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, index.Close())
	n, _ = index.Count(ctx)
	assert.Zero(t, n)
}

func TestIndex_EmbeddingFailure(t *testing.T) {
	index := NewIndex(&letterEmbedder{err: errors.New("down")})
	ctx := context.Background()

	err := index.AddDocuments(ctx, []domain.Document{doc("a", "v", "")})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	n, _ := index.Count(ctx)
	assert.Zero(t, n)

	_, err = index.Search(ctx, "v", 1, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	assert.ErrorIs(t, NewIndex(nil).AddDocuments(ctx, []domain.Document{doc("a", "v", "")}), domain.ErrEmbeddingUnavailable)
}
