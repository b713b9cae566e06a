package scoutx

import (
	"context"
	"encoding/json"
)

// SearchRequest is the query body submitted to the engine.
type SearchRequest struct {
	// Query is the engine query DSL clause.
	Query map[string]any `json:"query"`

	// From is the offset of the result window.
	From int `json:"from"`

	// Size is the size of the result window.
	Size int `json:"size"`

	// Sort is the ordered list of sort clauses, one single-entry mapping
	// per clause. Omitted when empty so the engine's default order applies.
	Sort []map[string]string `json:"sort,omitempty"`
}

// Hit is one matching document in a search response.
type Hit struct {
	// ID is the engine identifier of the document.
	ID string `json:"_id"`

	// Index is the index the hit came from.
	Index string `json:"_index,omitempty"`

	// Score is the engine-assigned relevance score, if any.
	Score *float64 `json:"_score,omitempty"`

	// Source contains the indexed document fields.
	Source map[string]any `json:"_source,omitempty"`
}

// HitsTotal is the engine's total-match count.
type HitsTotal struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation,omitempty"`
}

// SearchHits groups the hits of a search response.
type SearchHits struct {
	Total HitsTotal `json:"total"`
	Hits  []Hit     `json:"hits"`
}

// SearchResponse is the raw engine response to a search request.
type SearchResponse struct {
	Took     int64      `json:"took"`
	TimedOut bool       `json:"timed_out"`
	Hits     SearchHits `json:"hits"`
}

// BulkOp is one directive line of a bulk mutation request. Action headers
// and document payloads are both single directives.
type BulkOp map[string]any

// BulkResponse is the engine's acknowledgement of a bulk request. Per-item
// results are kept raw; the adapter does not inspect them.
type BulkResponse struct {
	Took   int64             `json:"took"`
	Errors bool              `json:"errors"`
	Items  []json.RawMessage `json:"items"`
}

// Client is the search engine client the adapter drives. Implementations
// speak the engine's native protocol; see the elastic and inmemory packages.
type Client interface {
	// Bulk submits an ordered list of mutation directives as a single
	// request.
	Bulk(ctx context.Context, ops []BulkOp) (*BulkResponse, error)

	// Search executes a query body against the given index.
	Search(ctx context.Context, index string, req *SearchRequest) (*SearchResponse, error)

	// DeleteIndex removes an entire index. Destructive and irreversible.
	DeleteIndex(ctx context.Context, index string) error
}

// SearchFunc is a caller-supplied execution override carried by a Query.
// It receives the engine client, the free-text term and the request the
// translator built, and its return value becomes the final search result.
// Escape hatch for queries the translator cannot express.
type SearchFunc func(ctx context.Context, client Client, term string, req *SearchRequest) (*SearchResponse, error)
