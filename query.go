package scoutx

// Filter is a single equality filter clause. Filters are applied
// conjunctively: every clause must match.
type Filter struct {
	// Field is the name of the field to filter on.
	Field string
	// Value is the exact value the field must carry.
	Value any
}

// Sort is a single sort clause. Clauses form a tie-break chain, most
// significant first, in the order the caller supplied them.
type Sort struct {
	// Field is the name of the field to sort by.
	Field string
	// Desc indicates descending order (true) or ascending order (false).
	Desc bool
}

// Query describes one search request: filters, sort, pagination window and
// free-text term. Build one with NewQuery and the With* options.
type Query struct {
	// Term is the free-text query term. Empty means match everything.
	Term string

	// Index overrides the target index. When empty, the index of Model is
	// used instead.
	Index string

	// Model supplies the default index when Index is not set.
	Model Document

	// Filters contains the equality filter clauses, in caller order.
	Filters []Filter

	// Sorts contains the sort clauses, in caller order.
	Sorts []Sort

	// Limit caps the result window for Search. Zero means the default
	// page size applies.
	Limit int

	// Callback, when set, replaces query translation and execution
	// entirely. See SearchFunc.
	Callback SearchFunc
}

// QueryOption configures a Query.
type QueryOption interface {
	Apply(*Query)
}

// queryOptionFunc is a function that implements QueryOption.
type queryOptionFunc func(*Query)

// Apply implements the QueryOption interface for queryOptionFunc.
func (f queryOptionFunc) Apply(q *Query) {
	f(q)
}

// NewQuery builds a query for the given free-text term.
func NewQuery(term string, opts ...QueryOption) *Query {
	q := &Query{Term: term}
	for _, opt := range opts {
		opt.Apply(q)
	}
	return q
}

// Where adds an equality filter clause.
func Where(field string, value any) QueryOption {
	return queryOptionFunc(func(q *Query) {
		q.Filters = append(q.Filters, Filter{Field: field, Value: value})
	})
}

// OrderBy adds a sort clause.
func OrderBy(field string, desc bool) QueryOption {
	return queryOptionFunc(func(q *Query) {
		q.Sorts = append(q.Sorts, Sort{Field: field, Desc: desc})
	})
}

// WithIndex overrides the target index.
func WithIndex(index string) QueryOption {
	return queryOptionFunc(func(q *Query) {
		q.Index = index
	})
}

// ForModel sets the document type whose index is searched when no explicit
// index override is present.
func ForModel(model Document) QueryOption {
	return queryOptionFunc(func(q *Query) {
		q.Model = model
	})
}

// WithLimit caps the number of results returned by Search.
func WithLimit(n int) QueryOption {
	return queryOptionFunc(func(q *Query) {
		q.Limit = n
	})
}

// WithCallback installs a custom execution function that bypasses query
// translation. The callback receives the engine client, the free-text term
// and the request the translator built, and its return value becomes the
// final result.
func WithCallback(fn SearchFunc) QueryOption {
	return queryOptionFunc(func(q *Query) {
		q.Callback = fn
	})
}

// TargetIndex resolves the target index: explicit override first, then the
// model's default index.
func (q *Query) TargetIndex() (string, error) {
	if q.Index != "" {
		return q.Index, nil
	}
	if q.Model != nil {
		return q.Model.SearchIndex(), nil
	}
	return "", ErrNoIndex
}
