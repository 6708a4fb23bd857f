// File path: internal/kb/index.go
package kb

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nicodishanthj/Katral_bw/internal/common"
	"github.com/nicodishanthj/Katral_bw/internal/common/telemetry"
	"github.com/nicodishanthj/Katral_bw/internal/ir"
	"github.com/nicodishanthj/Katral_bw/internal/vector"
)

// Index is the run-scoped, append-only knowledge index shared by every
// process unit. It is safe for concurrent use.
type Index struct {
	backend EmbeddingBackend
	mirror  vector.Store
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []indexed

	degraded     atomic.Bool
	degradedOnce sync.Once
	mirrorOnce   sync.Once
}

type indexed struct {
	entry  Entry
	tokens map[string]struct{}
}

// Option configures an Index.
type Option func(*Index)

// WithMirror copies every indexed entry into an external vector store.
func WithMirror(store vector.Store) Option {
	return func(idx *Index) {
		idx.mirror = store
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// NewIndex builds an empty index. The backend is fixed for the index's
// lifetime; a nil backend selects lexical scoring.
func NewIndex(backend EmbeddingBackend, opts ...Option) *Index {
	if backend == nil {
		backend = LexicalFallbackBackend{}
	}
	idx := &Index{backend: backend, logger: common.Logger()}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Backend names the active backend.
func (idx *Index) Backend() string {
	if idx == nil {
		return ""
	}
	return idx.backend.Name()
}

// Degraded reports whether the index has fallen back to lexical scoring.
func (idx *Index) Degraded() bool {
	return idx != nil && idx.degraded.Load()
}

// IndexActivities appends one entry per activity. It never fails: when
// vectors cannot be computed the entries are stored without them and the
// degradation is logged once.
func (idx *Index) IndexActivities(ctx context.Context, sourceProcess string, activities []ir.Activity) {
	if idx == nil || len(activities) == 0 {
		return
	}
	batch := make([]Entry, 0, len(activities))
	texts := make([]string, 0, len(activities))
	for _, activity := range activities {
		entry := Entry{
			ActivityID:    activity.ID,
			SourceProcess: sourceProcess,
			Kind:          activity.Kind,
			Name:          activity.Name,
			Text:          TextFor(activity),
		}
		entry.Fingerprint = ComputeFingerprint(entry)
		batch = append(batch, entry)
		texts = append(texts, entry.Text)
	}

	if !idx.degraded.Load() {
		vectors, err := idx.backend.Embed(ctx, texts)
		switch {
		case err != nil:
			idx.degrade("embedding failed", err)
		case vectors == nil:
			idx.degrade("embedding unavailable", nil)
		default:
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
		}
	}

	idx.mu.Lock()
	for _, entry := range batch {
		idx.entries = append(idx.entries, indexed{entry: entry, tokens: tokenSet(entry.Text)})
	}
	idx.mu.Unlock()
	telemetry.RecordKnowledgeEntries(idx.scoringName(), len(batch))
	idx.mirrorEntries(ctx, batch)
}

func (idx *Index) degrade(reason string, err error) {
	idx.degraded.Store(true)
	idx.degradedOnce.Do(func() {
		telemetry.RecordEmbeddingDegradation()
		attrs := []any{"backend", idx.backend.Name(), "reason", reason}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		idx.logger.Warn("kb: embeddings unavailable, using lexical scoring for this run", attrs...)
	})
}

func (idx *Index) mirrorEntries(ctx context.Context, batch []Entry) {
	if idx.mirror == nil || !idx.mirror.Available() {
		return
	}
	records := make([]vector.Record, 0, len(batch))
	for _, entry := range batch {
		records = append(records, vector.Record{
			ID:       entry.ActivityID,
			Document: entry.Text,
			Metadata: map[string]string{
				"source_process": entry.SourceProcess,
				"kind":           string(entry.Kind),
				"name":           entry.Name,
				"fingerprint":    entry.Fingerprint,
			},
			Embedding: entry.Embedding,
		})
	}
	if err := idx.mirror.Upsert(ctx, records); err != nil {
		idx.mirrorOnce.Do(func() {
			idx.logger.Warn("kb: vector mirror upsert failed", "collection", idx.mirror.Collection(), "error", err)
		})
	}
}

// Query returns at most k entries ordered by similarity to text. It is
// total: an empty index or k <= 0 yields an empty list.
func (idx *Index) Query(ctx context.Context, text string, k int) []Match {
	if idx == nil || k <= 0 {
		return []Match{}
	}
	idx.mu.RLock()
	snapshot := make([]indexed, len(idx.entries))
	copy(snapshot, idx.entries)
	idx.mu.RUnlock()
	if len(snapshot) == 0 {
		return []Match{}
	}

	var matches []Match
	backend := "lexical"
	if qvec := idx.queryVector(ctx, text, snapshot); qvec != nil {
		backend = idx.backend.Name()
		matches = rankByVector(qvec, snapshot)
	} else {
		matches = rankLexical(text, snapshot)
	}
	telemetry.RecordKnowledgeQuery(backend)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].SourceProcess != matches[j].SourceProcess {
			return matches[i].SourceProcess < matches[j].SourceProcess
		}
		return matches[i].ActivityID < matches[j].ActivityID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	if matches == nil {
		return []Match{}
	}
	return matches
}

// queryVector returns nil unless every entry is embedded and the query
// itself can be embedded.
func (idx *Index) queryVector(ctx context.Context, text string, snapshot []indexed) []float32 {
	if idx.degraded.Load() {
		return nil
	}
	for _, item := range snapshot {
		if !item.entry.HasVector() {
			return nil
		}
	}
	vec, err := idx.backend.EmbedQuery(ctx, text)
	if err != nil {
		idx.logger.Debug("kb: query embedding failed, scoring lexically", "error", err)
		return nil
	}
	return vec
}

func rankByVector(query []float32, snapshot []indexed) []Match {
	matches := make([]Match, 0, len(snapshot))
	for _, item := range snapshot {
		matches = append(matches, Match{Entry: item.entry, Score: cosine(query, item.entry.Embedding)})
	}
	return matches
}

// rankLexical scores by the number of distinct query tokens present in the
// entry. Entries sharing no token are omitted.
func rankLexical(text string, snapshot []indexed) []Match {
	query := tokenSet(text)
	var matches []Match
	for _, item := range snapshot {
		score := 0
		for token := range query {
			if _, ok := item.tokens[token]; ok {
				score++
			}
		}
		if score == 0 {
			continue
		}
		matches = append(matches, Match{Entry: item.entry, Score: float64(score)})
	}
	return matches
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Entries returns a copy of every indexed entry in insertion order.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Entry, 0, len(idx.entries))
	for _, item := range idx.entries {
		out = append(out, item.entry)
	}
	return out
}

// Len reports the number of indexed entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func (idx *Index) scoringName() string {
	if idx.degraded.Load() {
		return "lexical"
	}
	return idx.backend.Name()
}
