// Package inmemory provides an in-memory search engine client for tests
// and local development. It interprets the subset of the query DSL the
// adapter emits: term filters, multi_match, match_all, sort chains and
// from/size windows.
package inmemory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/letmevibethatforyou/scoutx"
)

// Document represents a JSON document held by the in-memory engine.
type Document struct {
	// ID is the unique identifier for the document.
	ID string
	// Fields contains the document's data as key-value pairs.
	Fields map[string]any
}

// index is one named index: insertion-ordered documents plus an ID lookup.
type index struct {
	documents []Document
	idIndex   map[string]int
}

func newIndex() *index {
	return &index{idIndex: make(map[string]int)}
}

func (ix *index) upsert(doc Document) {
	if pos, exists := ix.idIndex[doc.ID]; exists {
		ix.documents[pos] = doc
		return
	}
	ix.idIndex[doc.ID] = len(ix.documents)
	ix.documents = append(ix.documents, doc)
}

func (ix *index) remove(id string) bool {
	pos, exists := ix.idIndex[id]
	if !exists {
		return false
	}

	ix.documents = append(ix.documents[:pos], ix.documents[pos+1:]...)

	delete(ix.idIndex, id)
	for i := pos; i < len(ix.documents); i++ {
		ix.idIndex[ix.documents[i].ID] = i
	}
	return true
}

// Client implements the scoutx.Client contract against process memory.
type Client struct {
	mu      sync.RWMutex
	indexes map[string]*index
}

var _ scoutx.Client = (*Client)(nil)

// New creates a new in-memory engine client. It is ready to use and safe
// for concurrent operations.
func New() *Client {
	return &Client{indexes: make(map[string]*index)}
}

// AddDocument puts a document directly into the named index, bypassing the
// bulk protocol. Existing documents with the same ID are replaced.
func (c *Client) AddDocument(indexName string, doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(indexName).upsert(doc)
}

// Size returns the number of documents currently held by the named index.
func (c *Client) Size(indexName string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[indexName]
	if !ok {
		return 0
	}
	return len(ix.documents)
}

// Bulk applies the directives in order: an update header consumes the
// following payload directive as its document, a delete header stands
// alone. Unknown directives fail the whole batch.
func (c *Client) Bulk(ctx context.Context, ops []scoutx.BulkOp) (*scoutx.BulkResponse, error) {
	select {
	case <-ctx.Done():
		return nil, scoutx.ErrCanceled
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp := &scoutx.BulkResponse{}
	for i := 0; i < len(ops); i++ {
		switch {
		case ops[i]["update"] != nil:
			indexName, id, err := actionTarget(ops[i]["update"])
			if err != nil {
				return nil, err
			}
			if i+1 >= len(ops) {
				return nil, errors.New("inmemory: update directive without payload")
			}
			i++
			fields, err := payloadFields(ops[i])
			if err != nil {
				return nil, err
			}
			c.getOrCreate(indexName).upsert(Document{ID: id, Fields: fields})
			resp.Items = append(resp.Items, itemResult("update", id, 200))

		case ops[i]["delete"] != nil:
			indexName, id, err := actionTarget(ops[i]["delete"])
			if err != nil {
				return nil, err
			}
			status := 404
			if ix, ok := c.indexes[indexName]; ok && ix.remove(id) {
				status = 200
			}
			resp.Items = append(resp.Items, itemResult("delete", id, status))

		default:
			return nil, errors.Newf("inmemory: unknown bulk directive: %v", ops[i])
		}
	}
	return resp, nil
}

// DeleteIndex drops the named index and everything in it.
func (c *Client) DeleteIndex(ctx context.Context, indexName string) error {
	select {
	case <-ctx.Done():
		return scoutx.ErrCanceled
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[indexName]; !ok {
		return scoutx.WrapEngineError(errors.Newf("no such index [%s]", indexName))
	}
	delete(c.indexes, indexName)
	return nil
}

func (c *Client) getOrCreate(indexName string) *index {
	ix, ok := c.indexes[indexName]
	if !ok {
		ix = newIndex()
		c.indexes[indexName] = ix
	}
	return ix
}

// actionTarget extracts the index and document ID from an action header.
func actionTarget(meta any) (indexName, id string, err error) {
	m, ok := meta.(map[string]any)
	if !ok {
		return "", "", errors.Newf("inmemory: malformed action header: %v", meta)
	}
	indexName, _ = m["_index"].(string)
	id, _ = m["_id"].(string)
	if indexName == "" || id == "" {
		return "", "", errors.Newf("inmemory: action header missing _index or _id: %v", meta)
	}
	return indexName, id, nil
}

// payloadFields extracts the document fields from an update payload.
func payloadFields(op scoutx.BulkOp) (map[string]any, error) {
	doc, ok := op["doc"].(map[string]any)
	if !ok {
		return nil, errors.Newf("inmemory: update payload missing doc: %v", op)
	}
	return doc, nil
}

func itemResult(action, id string, status int) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		action: map[string]any{"_id": id, "status": status},
	})
	return raw
}
