package ddb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"

	"github.com/letmevibethatforyou/scoutx"
)

// batchGetLimit is the DynamoDB cap on keys per BatchGetItem request.
const batchGetLimit = 100

// BatchGetAPI defines the interface for the DynamoDB batch-read operation.
type BatchGetAPI interface {
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// Store resolves engine identifiers into table items. It implements the
// scoutx.Store contract; ordering and filtering of the result is the
// adapter's job, not the store's.
type Store struct {
	client BatchGetAPI
	table  string
}

var _ scoutx.Store = (*Store)(nil)

// NewStore creates a store reading from the given table.
func NewStore(client BatchGetAPI, table string) *Store {
	return &Store{client: client, table: table}
}

// ModelsByIDs implements scoutx.Store. The query scopes the lookup to one
// index (the table's sort key). Identifiers with no backing item are simply
// absent from the result.
func (s *Store) ModelsByIDs(ctx context.Context, q *scoutx.Query, ids []string) ([]scoutx.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	indexName, err := q.TargetIndex()
	if err != nil {
		return nil, err
	}

	docs := make([]scoutx.Document, 0, len(ids))
	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}

		chunk, err := s.batchGet(ctx, indexName, ids[start:end])
		if err != nil {
			return nil, err
		}
		docs = append(docs, chunk...)
	}
	return docs, nil
}

// batchGet reads one chunk of keys, re-requesting unprocessed keys until
// DynamoDB has answered for all of them.
func (s *Store) batchGet(ctx context.Context, indexName string, ids []string) ([]scoutx.Document, error) {
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: id},
			"sk": &types.AttributeValueMemberS{Value: indexName},
		})
	}

	var docs []scoutx.Document
	for len(keys) > 0 {
		out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				s.table: {Keys: keys},
			},
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to batch get items from table %s", s.table)
		}

		for _, raw := range out.Responses[s.table] {
			var item Item
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal item from table %s", s.table)
			}
			docs = append(docs, item)
		}

		keys = out.UnprocessedKeys[s.table].Keys
	}
	return docs, nil
}
