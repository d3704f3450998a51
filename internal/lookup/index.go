// Package lookup is a local label search that produces similarity maps. It stands in for the
// semantic-search collaborator: any Searcher can feed the scene.
package lookup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/models"
)

// Searcher turns a free-text query into per-point similarity scores in [0,1].
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (models.SimilarityMap, error)
}

// Index is an in-memory bleve index over point labels and ids. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	index     bleve.Index
	cache     *resultCache
	limit     int
	fuzziness int
	logger    *zap.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the index logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Index) { i.logger = l }
}

// NewIndex creates an empty index using the search section of the config.
func NewIndex(cfg *config.SearchConfig, opts ...Option) (*Index, error) {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create label index: %w", err)
	}
	i := &Index{
		index:     idx,
		cache:     newResultCache(cfg.CacheSize),
		limit:     cfg.Limit,
		fuzziness: cfg.Fuzziness,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// standard analyzer: lowercase + tokenize, no stemming, so short labels match as typed
	labelMapping := bleve.NewTextFieldMapping()
	labelMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("label", labelMapping)
	docMapping.AddFieldMappingsAt("id", bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("point", docMapping)
	im.DefaultType = "point"
	im.DefaultMapping = docMapping
	return im
}

// Rebuild replaces the indexed points with those of ds. Cached results are dropped.
func (i *Index) Rebuild(ctx context.Context, ds *models.Dataset) error {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return fmt.Errorf("failed to create label index: %w", err)
	}
	batch := idx.NewBatch()
	n := 0
	if ds != nil {
		for _, p := range ds.Points {
			if err := ctx.Err(); err != nil {
				_ = idx.Close()
				return err
			}
			if p.ID == "" {
				continue
			}
			if err := batch.Index(p.ID, map[string]interface{}{"id": p.ID, "label": p.Label}); err != nil {
				_ = idx.Close()
				return fmt.Errorf("failed to index point %s: %w", p.ID, err)
			}
			n++
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("failed to index points: %w", err)
	}

	i.mu.Lock()
	old := i.index
	i.index = idx
	i.mu.Unlock()
	i.cache.Purge()
	if old != nil {
		_ = old.Close()
	}
	i.logger.Debug("label index rebuilt", zap.Int("points", n))
	return nil
}

// Search matches query against labels (and exact ids) and returns hit scores divided by the best
// hit's score, so the top hit scores 1. limit <= 0 uses the configured limit. An empty query
// returns nil, meaning no active search.
func (i *Index) Search(ctx context.Context, query string, limit int) (models.SimilarityMap, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = i.limit
	}
	key := strconv.Itoa(limit) + "\x00" + query
	if m, ok := i.cache.Get(key); ok {
		return m, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	m, err := i.run(ctx, exactQuery(query), limit)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 && i.fuzziness > 0 {
		i.logger.Debug("no exact label match, retrying fuzzy", zap.String("query", query))
		if m, err = i.run(ctx, fuzzyQuery(query, i.fuzziness), limit); err != nil {
			return nil, err
		}
	}
	i.cache.Set(key, m)
	return m.Clone(), nil
}

func (i *Index) run(ctx context.Context, q blevequery.Query, limit int) (models.SimilarityMap, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("label search failed: %w", err)
	}
	m := make(models.SimilarityMap, len(results.Hits))
	if len(results.Hits) == 0 {
		return m, nil
	}
	best := results.MaxScore
	for _, hit := range results.Hits {
		if hit.Score > best {
			best = hit.Score
		}
	}
	for _, hit := range results.Hits {
		s := 1.0
		if best > 0 {
			s = hit.Score / best
		}
		m[hit.ID] = s
	}
	return m, nil
}

// Len returns the number of indexed points.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n, err := i.index.DocCount()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}

func exactQuery(query string) blevequery.Query {
	label := bleve.NewMatchQuery(query)
	label.SetField("label")
	id := bleve.NewTermQuery(query)
	id.SetField("id")
	return bleve.NewDisjunctionQuery(label, id)
}

// fuzzyQuery matches any query term within fuzziness edits of a label term.
func fuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := strings.Fields(strings.ToLower(query))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField("label")
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}
