package scoutx

// updateOps builds the bulk directives for an upsert of the given
// documents: one update action header plus one payload per document. The
// doc_as_upsert flag makes the engine insert documents that have no
// existing index entry instead of rejecting them.
func updateOps(docs []Document) []BulkOp {
	ops := make([]BulkOp, 0, 2*len(docs))
	for _, doc := range docs {
		ops = append(ops, BulkOp{
			"update": map[string]any{
				"_index": doc.SearchIndex(),
				"_id":    doc.SearchKey(),
			},
		})
		ops = append(ops, BulkOp{
			"doc":           doc.SearchableFields(),
			"doc_as_upsert": true,
		})
	}
	return ops
}

// deleteOps builds the bulk directives for a delete of the given
// documents: one delete action header per document.
func deleteOps(docs []Document) []BulkOp {
	ops := make([]BulkOp, 0, len(docs))
	for _, doc := range docs {
		ops = append(ops, BulkOp{
			"delete": map[string]any{
				"_index": doc.SearchIndex(),
				"_id":    doc.SearchKey(),
			},
		})
	}
	return ops
}
