// Package search maintains a Bleve full-text index over stored trades so the
// API can answer free-text queries ("tesla buys in march") without pushing
// fuzzy matching into SQL.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// TradeDocument is the indexed projection of a trade.
type TradeDocument struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	AssetType string  `json:"asset_type"`
	Side      string  `json:"side"`
	Source    string  `json:"source"`
	Currency  string  `json:"currency"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Executed  string  `json:"executed"`
}

// Hit is one search result with its relevance score.
type Hit struct {
	TradeID uuid.UUID
	Symbol  string
	Score   float64
}

// Index is an in-memory Bleve index over the trade set. It is rebuilt from
// the repository on startup and updated as trades change.
type Index struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = simple.Name

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	numericField := bleve.NewNumericFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("symbol", textField)
	docMapping.AddFieldMappingsAt("asset_type", keywordField)
	docMapping.AddFieldMappingsAt("side", keywordField)
	docMapping.AddFieldMappingsAt("source", keywordField)
	docMapping.AddFieldMappingsAt("currency", keywordField)
	docMapping.AddFieldMappingsAt("quantity", numericField)
	docMapping.AddFieldMappingsAt("price", numericField)
	docMapping.AddFieldMappingsAt("executed", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// IndexTrades adds or replaces a batch of trades in one Bleve batch.
func (ix *Index) IndexTrades(batch []trades.Trade) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	b := ix.index.NewBatch()
	for _, t := range batch {
		doc := toDocument(t)
		if err := b.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index trade %s: %w", t.ID, err)
		}
	}
	if err := ix.index.Batch(b); err != nil {
		return fmt.Errorf("failed to execute index batch: %w", err)
	}
	return nil
}

// Delete removes one trade from the index.
func (ix *Index) Delete(id uuid.UUID) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Delete(id.String())
}

// Search runs a fuzzy match query and returns hits by descending score.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Fields = []string{"symbol"}

	res, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, parseErr := uuid.Parse(hit.ID)
		if parseErr != nil {
			continue
		}
		h := Hit{TradeID: id, Score: hit.Score}
		if symbol, ok := hit.Fields["symbol"].(string); ok {
			h.Symbol = symbol
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// DocumentCount reports how many trades are indexed.
func (ix *Index) DocumentCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Close releases the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}

func toDocument(t trades.Trade) TradeDocument {
	qty, _ := t.Quantity.Float64()
	price, _ := t.Price.Float64()
	return TradeDocument{
		ID:        t.ID.String(),
		Symbol:    t.Symbol,
		AssetType: string(t.AssetType),
		Side:      string(t.Side),
		Source:    t.Source,
		Currency:  t.Currency,
		Quantity:  qty,
		Price:     price,
		Executed:  t.ExecutedAt.Format("2006-01-02"),
	}
}
