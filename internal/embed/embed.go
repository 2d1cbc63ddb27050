// Package embed produces embedding vectors for evidence text via the
// OpenAI embeddings API, used to surface near-duplicate evidence spans
// when reviewing conflicts. Vectors for identical text are memoized.
package embed

import (
	"context"
	"fmt"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = string(openai.SmallEmbedding3)

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Embedder turns text into vectors.
type Embedder struct {
	client embeddingClient
	model  openai.EmbeddingModel
	cache  *gocache.Cache
}

// New creates an Embedder backed by the given OpenAI client.
func New(client *openai.Client, model string) *Embedder {
	return newWithClient(client, model)
}

func newWithClient(client embeddingClient, model string) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{
		client: client,
		model:  openai.EmbeddingModel(model),
		cache:  gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Embed returns one vector per input text. Cached texts are served without
// an API call; only the misses go out in a single batched request.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if v, ok := e.cache.Get(text); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: missing,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}
	if len(resp.Data) != len(missing) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(missing))
	}

	for i, d := range resp.Data {
		out[missingIdx[i]] = d.Embedding
		e.cache.Set(missing[i], d.Embedding, gocache.DefaultExpiration)
	}
	return out, nil
}

// NearDuplicateGroups clusters texts by embedding similarity. Each text
// joins the earliest group whose first member it matches at or above
// threshold, so the output is deterministic for a fixed input order and
// every index appears in exactly one group.
func (e *Embedder) NearDuplicateGroups(ctx context.Context, texts []string, threshold float64) ([][]int, error) {
	vectors, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	var groups [][]int
	for i := range texts {
		placed := false
		for gi, g := range groups {
			if CosineSimilarity(vectors[g[0]], vectors[i]) >= threshold {
				groups[gi] = append(groups[gi], i)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []int{i})
		}
	}
	return groups, nil
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 for mismatched or zero-magnitude inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
