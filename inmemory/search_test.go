package inmemory

import (
	"context"
	"reflect"
	"testing"

	"github.com/letmevibethatforyou/scoutx"
)

func seedProducts(client *Client) {
	client.AddDocument("products", Document{ID: "p1", Fields: map[string]any{
		"name": "Acme Lamp", "category": "office", "status": "active", "price": 25.0,
	}})
	client.AddDocument("products", Document{ID: "p2", Fields: map[string]any{
		"name": "Acme Desk", "category": "office", "status": "discontinued", "price": 140.0,
	}})
	client.AddDocument("products", Document{ID: "p3", Fields: map[string]any{
		"name": "Globex Lamp", "category": "kitchen", "status": "active", "price": 25.0,
	}})
	client.AddDocument("products", Document{ID: "p4", Fields: map[string]any{
		"name": "Globex Kettle", "category": "kitchen", "status": "active", "price": 60.0,
	}})
}

func searchIDs(t *testing.T, client *Client, req *scoutx.SearchRequest) []string {
	t.Helper()
	res, err := client.Search(context.Background(), "products", req)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}

func TestSearchMatchAll(t *testing.T) {
	client := New()
	seedProducts(client)

	res, err := client.Search(context.Background(), "products", &scoutx.SearchRequest{
		Query: map[string]any{"match_all": map[string]any{}},
		Size:  10,
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if res.Hits.Total.Value != 4 {
		t.Errorf("expected total 4, got %d", res.Hits.Total.Value)
	}
	if len(res.Hits.Hits) != 4 {
		t.Errorf("expected 4 hits, got %d", len(res.Hits.Hits))
	}
}

func TestSearchTermFilters(t *testing.T) {
	client := New()
	seedProducts(client)

	tests := map[string]struct {
		filters  []map[string]any
		expected int
	}{
		"single_filter": {
			filters: []map[string]any{
				{"term": map[string]any{"status": "active"}},
			},
			expected: 3,
		},
		"conjunctive_filters": {
			filters: []map[string]any{
				{"term": map[string]any{"status": "active"}},
				{"term": map[string]any{"category": "kitchen"}},
			},
			expected: 2,
		},
		"numeric_filter": {
			filters: []map[string]any{
				{"term": map[string]any{"price": 25.0}},
			},
			expected: 2,
		},
		"no_match": {
			filters: []map[string]any{
				{"term": map[string]any{"status": "archived"}},
			},
			expected: 0,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := &scoutx.SearchRequest{
				Query: map[string]any{
					"bool": map[string]any{
						"must":   map[string]any{"match_all": map[string]any{}},
						"filter": tc.filters,
					},
				},
				Size: 10,
			}
			ids := searchIDs(t, client, req)
			if len(ids) != tc.expected {
				t.Errorf("expected %d hits, got %d (%v)", tc.expected, len(ids), ids)
			}
		})
	}
}

func TestSearchFreeText(t *testing.T) {
	client := New()
	seedProducts(client)

	req := &scoutx.SearchRequest{
		Query: map[string]any{
			"multi_match": map[string]any{"query": "lamp", "fields": []string{"*"}},
		},
		Size: 10,
	}

	ids := searchIDs(t, client, req)
	if len(ids) != 2 {
		t.Fatalf("expected 2 hits for lamp, got %v", ids)
	}
}

func TestSearchSortChain(t *testing.T) {
	client := New()
	seedProducts(client)

	// Price descending, then name ascending as tie-break.
	req := &scoutx.SearchRequest{
		Query: map[string]any{"match_all": map[string]any{}},
		Size:  10,
		Sort: []map[string]string{
			{"price": "desc"},
			{"name": "asc"},
		},
	}

	ids := searchIDs(t, client, req)
	expected := []string{"p2", "p4", "p1", "p3"}
	if !reflect.DeepEqual(ids, expected) {
		t.Errorf("expected order %v, got %v", expected, ids)
	}
}

func TestSearchWindow(t *testing.T) {
	client := New()
	seedProducts(client)

	base := &scoutx.SearchRequest{
		Query: map[string]any{"match_all": map[string]any{}},
		Sort:  []map[string]string{{"name": "asc"}},
	}

	tests := map[string]struct {
		from     int
		size     int
		expected []string
	}{
		"first_window": {
			from:     0,
			size:     2,
			expected: []string{"p2", "p1"},
		},
		"second_window": {
			from:     2,
			size:     2,
			expected: []string{"p4", "p3"},
		},
		"window_past_end": {
			from:     10,
			size:     2,
			expected: []string{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := &scoutx.SearchRequest{Query: base.Query, Sort: base.Sort, From: tc.from, Size: tc.size}

			res, err := client.Search(context.Background(), "products", req)
			if err != nil {
				t.Fatalf("Search returned error: %v", err)
			}

			// Total reflects all matches, not the window.
			if res.Hits.Total.Value != 4 {
				t.Errorf("expected total 4, got %d", res.Hits.Total.Value)
			}

			ids := make([]string, 0, len(res.Hits.Hits))
			for _, h := range res.Hits.Hits {
				ids = append(ids, h.ID)
			}
			if len(tc.expected) == 0 && len(ids) == 0 {
				return
			}
			if !reflect.DeepEqual(ids, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, ids)
			}
		})
	}
}

// TestEngineRoundTrip drives the adapter end to end against the in-memory
// engine: index, search with filters, paginate and flush.
func TestEngineRoundTrip(t *testing.T) {
	client := New()
	engine := scoutx.NewEngine(client)
	ctx := context.Background()

	docs := []scoutx.Document{
		product{id: "p1", fields: map[string]any{"name": "Acme Lamp", "status": "active"}},
		product{id: "p2", fields: map[string]any{"name": "Acme Desk", "status": "discontinued"}},
		product{id: "p3", fields: map[string]any{"name": "Globex Lamp", "status": "active"}},
	}

	if err := engine.Update(ctx, docs); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if size := client.Size("products"); size != 3 {
		t.Fatalf("expected 3 indexed documents, got %d", size)
	}

	q := scoutx.NewQuery("lamp", scoutx.WithIndex("products"), scoutx.Where("status", "active"))
	res, err := engine.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	ids := engine.MapIDs(res)
	if len(ids) != 2 {
		t.Fatalf("expected 2 active lamps, got %v", ids)
	}

	p, err := engine.Paginate(ctx, scoutx.NewQuery("", scoutx.WithIndex("products")), 2, 2)
	if err != nil {
		t.Fatalf("Paginate returned error: %v", err)
	}
	if p.Total != 3 || p.LastPage != 2 || len(p.Results.Hits.Hits) != 1 {
		t.Errorf("unexpected page: total=%d lastPage=%d hits=%d", p.Total, p.LastPage, len(p.Results.Hits.Hits))
	}

	if err := engine.Delete(ctx, docs[:1]); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if size := client.Size("products"); size != 2 {
		t.Errorf("expected 2 documents after delete, got %d", size)
	}

	if err := engine.Flush(ctx, docs[1].(product)); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if size := client.Size("products"); size != 0 {
		t.Errorf("expected empty index after flush, got %d", size)
	}
}

// product is a minimal scoutx.Document used by the round-trip test.
type product struct {
	id     string
	fields map[string]any
}

func (p product) SearchIndex() string { return "products" }

func (p product) SearchKey() string { return p.id }

func (p product) SearchableFields() map[string]any { return p.fields }
