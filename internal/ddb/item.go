package ddb

import "github.com/letmevibethatforyou/scoutx"

// Item is one searchable row of the table. The partition key is the engine
// identifier, the sort key is the index the item belongs to, and the object
// attribute carries the searchable fields.
type Item struct {
	ID        string         `dynamodbav:"pk"`
	IndexName string         `dynamodbav:"sk"`
	Object    map[string]any `dynamodbav:"object"`
}

var _ scoutx.Document = Item{}

// SearchIndex implements scoutx.Document.
func (i Item) SearchIndex() string {
	return i.IndexName
}

// SearchKey implements scoutx.Document.
func (i Item) SearchKey() string {
	return i.ID
}

// SearchableFields implements scoutx.Document.
func (i Item) SearchableFields() map[string]any {
	return i.Object
}
