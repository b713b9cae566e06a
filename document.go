package scoutx

import "context"

// Document is a domain object that can be indexed by a search engine.
// Implementations are owned by the application's persistence layer; the
// adapter only reads them.
type Document interface {
	// SearchIndex returns the name of the index this document belongs to.
	SearchIndex() string

	// SearchKey returns the stable engine identifier for this document.
	SearchKey() string

	// SearchableFields returns the key-value representation of the
	// document's searchable fields, as the engine should index them.
	SearchableFields() map[string]any
}

// Store resolves engine identifiers back into domain objects. It is the
// adapter's view of the persistence layer.
type Store interface {
	// ModelsByIDs resolves the given identifiers into documents. The query
	// is passed through so implementations can apply their own additional
	// scoping. Implementations may over-fetch or miss identifiers; callers
	// are responsible for filtering and ordering.
	ModelsByIDs(ctx context.Context, q *Query, ids []string) ([]Document, error)
}
