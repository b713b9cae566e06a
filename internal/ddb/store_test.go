package ddb

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"

	"github.com/letmevibethatforyou/scoutx"
)

// fakeBatchGetClient serves items from an in-memory table keyed by "pk|sk".
// It records the key count of every request and can defer a configurable
// number of keys per call through UnprocessedKeys.
type fakeBatchGetClient struct {
	items        map[string]map[string]types.AttributeValue
	requestSizes []int
	deferPerCall int
	err          error
}

func batchKey(pk, sk string) string {
	return pk + "|" + sk
}

func (f *fakeBatchGetClient) BatchGetItem(_ context.Context, params *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	var table string
	var keys []map[string]types.AttributeValue
	for name, req := range params.RequestItems {
		table = name
		keys = req.Keys
	}
	f.requestSizes = append(f.requestSizes, len(keys))

	deferred := f.deferPerCall
	if deferred > len(keys) {
		deferred = len(keys)
	}
	serve := keys[:len(keys)-deferred]
	unprocessed := keys[len(keys)-deferred:]
	f.deferPerCall = 0

	out := &dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]types.AttributeValue{},
	}
	for _, key := range serve {
		pk := key["pk"].(*types.AttributeValueMemberS).Value
		sk := key["sk"].(*types.AttributeValueMemberS).Value
		if item, ok := f.items[batchKey(pk, sk)]; ok {
			out.Responses[table] = append(out.Responses[table], item)
		}
	}
	if len(unprocessed) > 0 {
		out.UnprocessedKeys = map[string]types.KeysAndAttributes{
			table: {Keys: unprocessed},
		}
	}
	return out, nil
}

func storedItem(id, index, name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: id},
		"sk": &types.AttributeValueMemberS{Value: index},
		"object": &types.AttributeValueMemberM{
			Value: map[string]types.AttributeValue{
				"name": &types.AttributeValueMemberS{Value: name},
			},
		},
	}
}

func TestModelsByIDs(t *testing.T) {
	client := &fakeBatchGetClient{
		items: map[string]map[string]types.AttributeValue{
			batchKey("p1", "products"): storedItem("p1", "products", "Desk Lamp"),
			batchKey("p2", "products"): storedItem("p2", "products", "Kettle"),
		},
	}
	store := NewStore(client, "search-items")

	q := scoutx.NewQuery("", scoutx.WithIndex("products"))
	docs, err := store.ModelsByIDs(context.Background(), q, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("ModelsByIDs failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("docs length mismatch: got %d, want 2", len(docs))
	}

	first, ok := docs[0].(Item)
	if !ok {
		t.Fatalf("expected Item, got %T", docs[0])
	}
	if first.ID != "p1" || first.IndexName != "products" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.Object["name"] != "Desk Lamp" {
		t.Errorf("Object.name mismatch: got %v, want Desk Lamp", first.Object["name"])
	}
}

func TestModelsByIDs_EmptyIDs(t *testing.T) {
	client := &fakeBatchGetClient{}
	store := NewStore(client, "search-items")

	docs, err := store.ModelsByIDs(context.Background(), scoutx.NewQuery("", scoutx.WithIndex("products")), nil)
	if err != nil {
		t.Fatalf("ModelsByIDs failed: %v", err)
	}
	if docs != nil {
		t.Errorf("expected nil docs, got %v", docs)
	}
	if len(client.requestSizes) != 0 {
		t.Errorf("expected no requests, got %d", len(client.requestSizes))
	}
}

func TestModelsByIDs_MissingItemsAbsent(t *testing.T) {
	client := &fakeBatchGetClient{
		items: map[string]map[string]types.AttributeValue{
			batchKey("p1", "products"): storedItem("p1", "products", "Desk Lamp"),
		},
	}
	store := NewStore(client, "search-items")

	q := scoutx.NewQuery("", scoutx.WithIndex("products"))
	docs, err := store.ModelsByIDs(context.Background(), q, []string{"p1", "missing"})
	if err != nil {
		t.Fatalf("ModelsByIDs failed: %v", err)
	}

	if len(docs) != 1 {
		t.Fatalf("docs length mismatch: got %d, want 1", len(docs))
	}
	if docs[0].SearchKey() != "p1" {
		t.Errorf("SearchKey mismatch: got %s, want p1", docs[0].SearchKey())
	}
}

func TestModelsByIDs_ChunksLargeRequests(t *testing.T) {
	client := &fakeBatchGetClient{items: map[string]map[string]types.AttributeValue{}}

	ids := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("p%03d", i)
		ids = append(ids, id)
		client.items[batchKey(id, "products")] = storedItem(id, "products", "Item")
	}
	store := NewStore(client, "search-items")

	q := scoutx.NewQuery("", scoutx.WithIndex("products"))
	docs, err := store.ModelsByIDs(context.Background(), q, ids)
	if err != nil {
		t.Fatalf("ModelsByIDs failed: %v", err)
	}

	if len(docs) != 150 {
		t.Errorf("docs length mismatch: got %d, want 150", len(docs))
	}
	if len(client.requestSizes) != 2 {
		t.Fatalf("request count mismatch: got %d, want 2", len(client.requestSizes))
	}
	if client.requestSizes[0] != 100 || client.requestSizes[1] != 50 {
		t.Errorf("request sizes mismatch: got %v, want [100 50]", client.requestSizes)
	}
}

func TestModelsByIDs_RetriesUnprocessedKeys(t *testing.T) {
	client := &fakeBatchGetClient{
		items: map[string]map[string]types.AttributeValue{
			batchKey("p1", "products"): storedItem("p1", "products", "Desk Lamp"),
			batchKey("p2", "products"): storedItem("p2", "products", "Kettle"),
			batchKey("p3", "products"): storedItem("p3", "products", "Chair"),
		},
		deferPerCall: 1,
	}
	store := NewStore(client, "search-items")

	q := scoutx.NewQuery("", scoutx.WithIndex("products"))
	docs, err := store.ModelsByIDs(context.Background(), q, []string{"p1", "p2", "p3"})
	if err != nil {
		t.Fatalf("ModelsByIDs failed: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("docs length mismatch: got %d, want 3", len(docs))
	}
	if len(client.requestSizes) != 2 {
		t.Fatalf("request count mismatch: got %d, want 2", len(client.requestSizes))
	}
	if client.requestSizes[1] != 1 {
		t.Errorf("retry request size mismatch: got %d, want 1", client.requestSizes[1])
	}
}

func TestModelsByIDs_NoIndex(t *testing.T) {
	store := NewStore(&fakeBatchGetClient{}, "search-items")

	_, err := store.ModelsByIDs(context.Background(), scoutx.NewQuery(""), []string{"p1"})
	if !errors.Is(err, scoutx.ErrNoIndex) {
		t.Errorf("expected ErrNoIndex, got %v", err)
	}
}

func TestModelsByIDs_ClientError(t *testing.T) {
	client := &fakeBatchGetClient{err: errors.New("throttled")}
	store := NewStore(client, "search-items")

	q := scoutx.NewQuery("", scoutx.WithIndex("products"))
	_, err := store.ModelsByIDs(context.Background(), q, []string{"p1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
