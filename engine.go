// Package scoutx is a search-indexing adapter: it translates generic query
// descriptors into an Elasticsearch-style query DSL, performs batched
// upsert/delete mutations, and maps raw engine responses back into ordered
// domain-object collections.
package scoutx

import "context"

// DefaultPageSize is the result-window size used when a query carries no
// explicit limit.
const DefaultPageSize = 10

// Engine orchestrates query translation, batch mutations and result
// mapping against a search engine client. It holds no mutable state and is
// safe for concurrent use as long as the underlying client is.
type Engine struct {
	client Client
}

// NewEngine creates an engine backed by the given client.
func NewEngine(client Client) *Engine {
	return &Engine{client: client}
}

// Page is the result of a Paginate call: the raw response plus the
// pagination metadata derived from it.
type Page struct {
	// Results is the raw engine response for the requested page.
	Results *SearchResponse

	// Total is the engine's total-match count.
	Total int64

	// PerPage is the requested page size.
	PerPage int

	// CurrentPage is the requested 1-indexed page number.
	CurrentPage int

	// LastPage is the number of the last non-empty page,
	// ceil(Total/PerPage).
	LastPage int
}

// Update upserts the given documents into their indexes as a single bulk
// request. Documents with no existing index entry are created. An empty
// document set is a no-op, not an error. Per-item failures inside the bulk
// response are not inspected; the call succeeds or fails as a whole.
func (e *Engine) Update(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := e.client.Bulk(ctx, updateOps(docs))
	return err
}

// Delete removes the given documents from their indexes as a single bulk
// request. An empty document set is a no-op.
func (e *Engine) Delete(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := e.client.Bulk(ctx, deleteOps(docs))
	return err
}

// Search executes the query with a window starting at the first result,
// sized by the query's limit or DefaultPageSize.
func (e *Engine) Search(ctx context.Context, q *Query) (*SearchResponse, error) {
	size := q.Limit
	if size <= 0 {
		size = DefaultPageSize
	}
	return e.performSearch(ctx, q, 0, size)
}

// Paginate executes the query with a window for the given 1-indexed page
// and returns the raw response together with pagination metadata.
func (e *Engine) Paginate(ctx context.Context, q *Query, perPage, page int) (*Page, error) {
	res, err := e.performSearch(ctx, q, page*perPage-perPage, perPage)
	if err != nil {
		return nil, err
	}

	total := res.Hits.Total.Value
	p := &Page{
		Results:     res,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
	}
	if perPage > 0 {
		p.LastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return p, nil
}

// performSearch resolves the target index, builds the query body and
// submits it, or hands execution to the query's callback when one is set.
func (e *Engine) performSearch(ctx context.Context, q *Query, from, size int) (*SearchResponse, error) {
	index, err := q.TargetIndex()
	if err != nil {
		return nil, err
	}

	req := buildSearchRequest(q, from, size)

	if q.Callback != nil {
		return q.Callback(ctx, e.client, q.Term, req)
	}

	return e.client.Search(ctx, index, req)
}

// MapIDs extracts the identifier of each hit, preserving engine order.
// Duplicates are not removed.
func (e *Engine) MapIDs(res *SearchResponse) []string {
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids
}

// Map resolves the hits of a response into domain objects via the store and
// reorders them to match the engine's hit order exactly. Identifiers the
// store cannot resolve are silently dropped; index and store are eventually
// consistent, not transactional. A zero-total response short-circuits to an
// empty collection without touching the store.
func (e *Engine) Map(ctx context.Context, q *Query, res *SearchResponse, store Store) ([]Document, error) {
	if res.Hits.Total.Value == 0 {
		return []Document{}, nil
	}

	ids := e.MapIDs(res)
	positions := make(map[string]int, len(ids))
	for i, id := range ids {
		positions[id] = i
	}

	models, err := store.ModelsByIDs(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	// Guard against over-fetching stores, then restore engine rank order.
	ordered := make([]Document, len(ids))
	for _, m := range models {
		if pos, ok := positions[m.SearchKey()]; ok {
			ordered[pos] = m
		}
	}

	out := make([]Document, 0, len(models))
	for _, m := range ordered {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// TotalCount returns the engine's reported total-match count verbatim.
func (e *Engine) TotalCount(res *SearchResponse) int64 {
	return res.Hits.Total.Value
}

// Flush deletes the entire index the model belongs to. Destructive and
// irreversible; callers must gate it.
func (e *Engine) Flush(ctx context.Context, model Document) error {
	return e.client.DeleteIndex(ctx, model.SearchIndex())
}
