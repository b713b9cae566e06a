package scoutx

// buildSearchRequest translates a query descriptor and a pagination window
// into the engine query body.
//
// The free-text term becomes a multi_match clause across all fields; an
// empty term falls back to match_all. Equality filters map to exact term
// conditions under a single bool filter container, which is omitted
// entirely when no filters are present. Sort clauses keep the caller's
// sequence so the engine applies them as a tie-break chain.
func buildSearchRequest(q *Query, from, size int) *SearchRequest {
	req := &SearchRequest{
		Query: buildQueryClause(q),
		From:  from,
		Size:  size,
	}

	for _, s := range q.Sorts {
		order := "asc"
		if s.Desc {
			order = "desc"
		}
		req.Sort = append(req.Sort, map[string]string{s.Field: order})
	}

	return req
}

// buildQueryClause builds the top-level query DSL clause.
func buildQueryClause(q *Query) map[string]any {
	text := buildTextClause(q.Term)
	if len(q.Filters) == 0 {
		return text
	}

	filters := make([]map[string]any, 0, len(q.Filters))
	for _, f := range q.Filters {
		filters = append(filters, map[string]any{
			"term": map[string]any{f.Field: f.Value},
		})
	}

	return map[string]any{
		"bool": map[string]any{
			"must":   text,
			"filter": filters,
		},
	}
}

// buildTextClause builds the free-text clause for the term, or match_all
// when the term is empty.
func buildTextClause(term string) map[string]any {
	if term == "" {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{
		"multi_match": map[string]any{
			"query":  term,
			"fields": []string{"*"},
		},
	}
}
