// Package similarity wraps an external text-embedding provider with the
// vector operations the ranking engine needs: near-duplicate
// suppression, query-based re-ranking and coarse intent classification.
// Every operation fails open: when the provider is unavailable or
// returns a malformed result, callers get their input back unchanged.
package similarity

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var errShortEmbedding = errors.New("embedding provider returned short result")

// Embedder is the external embedding capability. A nil result, an error,
// or a length-mismatched result all signal provider unavailability.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Prototype is a labeled description used for intent classification.
type Prototype struct {
	Label       string
	Description string
}

// Engine performs embedding-based similarity operations.
type Engine struct {
	embedder        Embedder
	log             zerolog.Logger
	dedupThreshold  float64
	ambiguityMargin float64
	defaultLabel    string
	prototypes      []Prototype

	group     singleflight.Group
	mu        sync.RWMutex
	protoVecs [][]float64
}

// New creates a similarity engine. embedder may be nil, in which case
// every operation degrades to its fail-open path.
func New(embedder Embedder, prototypes []Prototype, defaultLabel string, log zerolog.Logger) *Engine {
	return &Engine{
		embedder:        embedder,
		log:             log,
		dedupThreshold:  0.9,
		ambiguityMargin: 0.05,
		defaultLabel:    defaultLabel,
		prototypes:      prototypes,
	}
}

// Available reports whether an embedding provider is configured.
func (e *Engine) Available() bool {
	return e != nil && e.embedder != nil
}

// Cosine returns the cosine similarity of two vectors, or 0 when either
// has zero magnitude or the dimensions differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// DedupIndices embeds the given texts and greedily keeps each one unless
// its cosine similarity to an already-kept text reaches the threshold.
// First occurrence in input order wins. On provider failure all indices
// are kept.
func (e *Engine) DedupIndices(ctx context.Context, texts []string) []int {
	all := make([]int, len(texts))
	for i := range texts {
		all[i] = i
	}
	if len(texts) == 0 || !e.Available() {
		return all
	}

	embeds, err := e.embedder.Embed(ctx, texts)
	if err != nil || len(embeds) != len(texts) {
		e.log.Warn().Err(err).Int("texts", len(texts)).Msg("embedding unavailable, skipping dedup")
		return all
	}

	var kept []int
	var keptVecs [][]float64
	for i, vec := range embeds {
		duplicate := false
		for _, kv := range keptVecs {
			if Cosine(vec, kv) >= e.dedupThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, i)
		keptVecs = append(keptVecs, vec)
	}
	return kept
}

// RerankIndices embeds the query and all texts in one batched call and
// returns the indices sorted by descending similarity to the query,
// stable on ties. The second return is false when the provider was
// unavailable and the original order should be kept.
func (e *Engine) RerankIndices(ctx context.Context, query string, texts []string) ([]int, bool) {
	order := make([]int, len(texts))
	for i := range texts {
		order[i] = i
	}
	if len(texts) == 0 || query == "" || !e.Available() {
		return order, false
	}

	batch := append([]string{query}, texts...)
	embeds, err := e.embedder.Embed(ctx, batch)
	if err != nil || len(embeds) != len(batch) {
		e.log.Warn().Err(err).Msg("embedding unavailable, keeping original order")
		return order, false
	}

	queryVec := embeds[0]
	sims := make([]float64, len(texts))
	for i := range texts {
		sims[i] = Cosine(queryVec, embeds[i+1])
	}
	sort.SliceStable(order, func(i, j int) bool {
		return sims[order[i]] > sims[order[j]]
	})
	return order, true
}

// Similarities embeds the query and all texts and returns per-text
// cosine similarity to the query. ok is false on provider failure.
func (e *Engine) Similarities(ctx context.Context, query string, texts []string) ([]float64, bool) {
	if len(texts) == 0 || query == "" || !e.Available() {
		return nil, false
	}
	batch := append([]string{query}, texts...)
	embeds, err := e.embedder.Embed(ctx, batch)
	if err != nil || len(embeds) != len(batch) {
		e.log.Warn().Err(err).Msg("embedding unavailable, skipping retrieval")
		return nil, false
	}
	queryVec := embeds[0]
	sims := make([]float64, len(texts))
	for i := range texts {
		sims[i] = Cosine(queryVec, embeds[i+1])
	}
	return sims, true
}

// Classify assigns the nearest prototype label to the text. When the top
// two similarities are within the ambiguity margin, or the provider is
// unavailable, it returns the default label instead of guessing.
func (e *Engine) Classify(ctx context.Context, text string) string {
	if !e.Available() || text == "" || len(e.prototypes) == 0 {
		return e.defaultLabel
	}

	protoVecs, err := e.prototypeEmbeddings(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("prototype embedding failed, using default intent")
		return e.defaultLabel
	}

	embeds, err := e.embedder.Embed(ctx, []string{text})
	if err != nil || len(embeds) != 1 {
		e.log.Warn().Err(err).Msg("query embedding failed, using default intent")
		return e.defaultLabel
	}

	sims := make([]float64, len(protoVecs))
	for i := range protoVecs {
		sims[i] = Cosine(embeds[0], protoVecs[i])
	}

	best, second := -1, -1
	for i, sim := range sims {
		switch {
		case best < 0 || sim > sims[best]:
			second = best
			best = i
		case second < 0 || sim > sims[second]:
			second = i
		}
	}
	if best < 0 {
		return e.defaultLabel
	}
	if second >= 0 && sims[best]-sims[second] < e.ambiguityMargin {
		return e.defaultLabel
	}
	return e.prototypes[best].Label
}

// prototypeEmbeddings memoizes the prototype vectors for the process
// lifetime. The first caller pays the embedding cost; concurrent first
// calls collapse into a single provider request.
func (e *Engine) prototypeEmbeddings(ctx context.Context) ([][]float64, error) {
	e.mu.RLock()
	cached := e.protoVecs
	e.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := e.group.Do("prototypes", func() (any, error) {
		texts := make([]string, len(e.prototypes))
		for i, p := range e.prototypes {
			texts[i] = p.Description
		}
		embeds, err := e.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(embeds) != len(texts) {
			return nil, errShortEmbedding
		}
		e.mu.Lock()
		e.protoVecs = embeds
		e.mu.Unlock()
		return embeds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float64), nil
}
