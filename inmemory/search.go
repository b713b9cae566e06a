package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/letmevibethatforyou/scoutx"
)

// termFilter is one exact-match condition extracted from the query body.
type termFilter struct {
	field string
	value any
}

// Search implements the scoutx.Client search contract.
func (c *Client) Search(ctx context.Context, indexName string, req *scoutx.SearchRequest) (*scoutx.SearchResponse, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, scoutx.ErrCanceled
	default:
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ix, ok := c.indexes[indexName]
	if !ok {
		return nil, scoutx.WrapEngineError(errors.Newf("no such index [%s]", indexName))
	}

	term, filters, err := parseQueryClause(req.Query)
	if err != nil {
		return nil, err
	}

	var matches []scoredDocument
	for _, doc := range ix.documents {
		if !matchesFilters(doc, filters) {
			continue
		}
		score := scoreDocument(doc, term)
		if score > 0 {
			matches = append(matches, scoredDocument{document: doc, score: score})
		}
	}

	sortMatches(matches, req.Sort)

	total := int64(len(matches))
	start := req.From
	end := req.From + req.Size
	if end > len(matches) {
		end = len(matches)
	}
	if start > len(matches) {
		start = len(matches)
	}

	res := &scoutx.SearchResponse{
		Took: time.Since(startTime).Milliseconds(),
	}
	res.Hits.Total = scoutx.HitsTotal{Value: total, Relation: "eq"}
	res.Hits.Hits = make([]scoutx.Hit, 0, end-start)

	for i := start; i < end; i++ {
		match := matches[i]
		score := match.score
		res.Hits.Hits = append(res.Hits.Hits, scoutx.Hit{
			ID:     match.document.ID,
			Index:  indexName,
			Score:  &score,
			Source: match.document.Fields,
		})
	}

	return res, nil
}

type scoredDocument struct {
	document Document
	score    float64
}

// parseQueryClause extracts the free-text term and the exact-match filters
// from the query DSL clause. A nil clause matches everything.
func parseQueryClause(q map[string]any) (string, []termFilter, error) {
	if q == nil {
		return "", nil, nil
	}

	if b, ok := q["bool"].(map[string]any); ok {
		term, _, err := parseTextClause(b["must"])
		if err != nil {
			return "", nil, err
		}
		filters, err := parseFilterList(b["filter"])
		if err != nil {
			return "", nil, err
		}
		return term, filters, nil
	}

	term, known, err := parseTextClause(q)
	if err != nil {
		return "", nil, err
	}
	if !known {
		return "", nil, errors.Newf("inmemory: unsupported query clause: %v", q)
	}
	return term, nil, nil
}

// parseTextClause handles the match_all and multi_match forms.
func parseTextClause(clause any) (term string, known bool, err error) {
	if clause == nil {
		return "", true, nil
	}
	m, ok := clause.(map[string]any)
	if !ok {
		return "", false, errors.Newf("inmemory: malformed text clause: %v", clause)
	}
	if _, ok := m["match_all"]; ok {
		return "", true, nil
	}
	if mm, ok := m["multi_match"].(map[string]any); ok {
		term, _ := mm["query"].(string)
		return term, true, nil
	}
	return "", false, nil
}

// parseFilterList handles both the []map form the translator builds and the
// []any form a JSON round-trip produces.
func parseFilterList(raw any) ([]termFilter, error) {
	if raw == nil {
		return nil, nil
	}

	var clauses []any
	switch v := raw.(type) {
	case []map[string]any:
		for _, m := range v {
			clauses = append(clauses, m)
		}
	case []any:
		clauses = v
	default:
		return nil, errors.Newf("inmemory: malformed filter container: %v", raw)
	}

	filters := make([]termFilter, 0, len(clauses))
	for _, clause := range clauses {
		m, ok := clause.(map[string]any)
		if !ok {
			return nil, errors.Newf("inmemory: malformed filter clause: %v", clause)
		}
		t, ok := m["term"].(map[string]any)
		if !ok || len(t) != 1 {
			return nil, errors.Newf("inmemory: unsupported filter clause: %v", clause)
		}
		for field, value := range t {
			filters = append(filters, termFilter{field: field, value: value})
		}
	}
	return filters, nil
}

// matchesFilters checks if a document matches all the filter conditions.
func matchesFilters(doc Document, filters []termFilter) bool {
	for _, f := range filters {
		docValue, exists := doc.Fields[f.field]
		if !exists {
			return false
		}
		if !compareEqual(docValue, f.value) {
			return false
		}
	}
	return true
}

// scoreDocument calculates the relevance score for a document based on the
// free-text term. An empty term matches every document.
func scoreDocument(doc Document, term string) float64 {
	if term == "" {
		return 1.0
	}

	term = strings.ToLower(term)
	words := strings.Fields(term)
	if len(words) == 0 {
		return 1.0
	}

	score := 0.0
	matchedWords := 0

	for _, word := range words {
		wordMatched := false
		for _, value := range doc.Fields {
			if valueContainsWord(value, word) {
				wordMatched = true
				score += 1.0
			}
		}
		if wordMatched {
			matchedWords++
		}
	}

	if matchedWords == 0 {
		return 0
	}

	// Boost score if all words matched
	if matchedWords == len(words) {
		score *= 1.5
	}

	return score
}

// valueContainsWord checks if a value contains the search word.
func valueContainsWord(value any, word string) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), word)
	case []any:
		for _, item := range v {
			if valueContainsWord(item, word) {
				return true
			}
		}
	case map[string]any:
		for _, item := range v {
			if valueContainsWord(item, word) {
				return true
			}
		}
	default:
		str := fmt.Sprintf("%v", v)
		return strings.Contains(strings.ToLower(str), word)
	}
	return false
}

// sortMatches sorts the matched documents according to the sort clauses.
// With no clauses the engine default applies: score descending.
func sortMatches(matches []scoredDocument, clauses []map[string]string) {
	if len(clauses) == 0 {
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].score > matches[j].score
		})
		return
	}

	sort.SliceStable(matches, func(i, j int) bool {
		for _, clause := range clauses {
			for field, order := range clause {
				desc := order == "desc"

				val1 := matches[i].document.Fields[field]
				val2 := matches[j].document.Fields[field]

				cmp := compareValues(val1, val2)
				if cmp != 0 {
					if desc {
						return cmp > 0
					}
					return cmp < 0
				}
			}
		}
		return false
	})
}

// compareEqual checks if two values are equal.
func compareEqual(v1, v2 any) bool {
	if v1 == nil || v2 == nil {
		return v1 == v2
	}

	// Try numeric comparison
	if f1, ok1 := toFloat64(v1); ok1 {
		if f2, ok2 := toFloat64(v2); ok2 {
			return f1 == f2
		}
	}

	// Fall back to string comparison
	return fmt.Sprintf("%v", v1) == fmt.Sprintf("%v", v2)
}

// compareValues compares two values for sorting.
func compareValues(v1, v2 any) int {
	if v1 == nil && v2 == nil {
		return 0
	}
	if v1 == nil {
		return -1
	}
	if v2 == nil {
		return 1
	}

	if f1, ok1 := toFloat64(v1); ok1 {
		if f2, ok2 := toFloat64(v2); ok2 {
			if f1 < f2 {
				return -1
			} else if f1 > f2 {
				return 1
			}
			return 0
		}
	}

	s1 := fmt.Sprintf("%v", v1)
	s2 := fmt.Sprintf("%v", v2)
	return strings.Compare(s1, s2)
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}
