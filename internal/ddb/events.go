// Package ddb holds the DynamoDB-backed collaborators of the adapter: the
// stream event shapes that drive incremental reindexing and a Store that
// resolves search hits back into items.
package ddb

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// StreamEvent represents a DynamoDB stream event
type StreamEvent struct {
	Records []StreamEventRecord `json:"Records"`
}

// StreamEventRecord represents a single DynamoDB stream record
type StreamEventRecord struct {
	AWSRegion      string       `json:"awsRegion"`
	Change         StreamRecord `json:"dynamodb"`
	EventID        string       `json:"eventID"`
	EventName      string       `json:"eventName"`
	EventSource    string       `json:"eventSource"`
	EventVersion   string       `json:"eventVersion"`
	EventSourceArn string       `json:"eventSourceARN"`
}

// StreamRecord represents the DynamoDB stream data
type StreamRecord struct {
	ApproximateCreationDateTime int64                           `json:"ApproximateCreationDateTime,omitempty"`
	Keys                        map[string]types.AttributeValue `json:"Keys,omitempty"`
	NewImage                    map[string]types.AttributeValue `json:"NewImage,omitempty"`
	OldImage                    map[string]types.AttributeValue `json:"OldImage,omitempty"`
	SequenceNumber              string                          `json:"SequenceNumber"`
	SizeBytes                   int64                           `json:"SizeBytes"`
	StreamViewType              string                          `json:"StreamViewType"`
}

// UnmarshalJSON decodes the DynamoDB stream wire format, where Keys and the
// images use the tagged AttributeValue representation ({"S": ...}, {"N": ...})
// that encoding/json cannot place into a types.AttributeValue on its own.
func (r *StreamRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		ApproximateCreationDateTime float64         `json:"ApproximateCreationDateTime"`
		Keys                        json.RawMessage `json:"Keys"`
		NewImage                    json.RawMessage `json:"NewImage"`
		OldImage                    json.RawMessage `json:"OldImage"`
		SequenceNumber              string          `json:"SequenceNumber"`
		SizeBytes                   int64           `json:"SizeBytes"`
		StreamViewType              string          `json:"StreamViewType"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ApproximateCreationDateTime = int64(aux.ApproximateCreationDateTime)
	r.SequenceNumber = aux.SequenceNumber
	r.SizeBytes = aux.SizeBytes
	r.StreamViewType = aux.StreamViewType

	var err error
	if len(aux.Keys) > 0 {
		if r.Keys, err = UnmarshalAttributeValueMap(aux.Keys); err != nil {
			return err
		}
	}
	if len(aux.NewImage) > 0 {
		if r.NewImage, err = UnmarshalAttributeValueMap(aux.NewImage); err != nil {
			return err
		}
	}
	if len(aux.OldImage) > 0 {
		if r.OldImage, err = UnmarshalAttributeValueMap(aux.OldImage); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalAttributeValueMap decodes a JSON object of tagged DynamoDB
// attribute values into types.AttributeValue implementations.
func UnmarshalAttributeValueMap(data []byte) (map[string]types.AttributeValue, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]types.AttributeValue, len(raw))
	for name, value := range raw {
		av, err := unmarshalAttributeValue(value)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", name)
		}
		out[name] = av
	}
	return out, nil
}

func unmarshalAttributeValue(data json.RawMessage) (types.AttributeValue, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, errors.Newf("expected a single type tag, got %d", len(tagged))
	}

	for tag, value := range tagged {
		switch tag {
		case "S":
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberS{Value: s}, nil
		case "N":
			var n string
			if err := json.Unmarshal(value, &n); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberN{Value: n}, nil
		case "BOOL":
			var b bool
			if err := json.Unmarshal(value, &b); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberBOOL{Value: b}, nil
		case "NULL":
			return &types.AttributeValueMemberNULL{Value: true}, nil
		case "B":
			var b []byte
			if err := json.Unmarshal(value, &b); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberB{Value: b}, nil
		case "SS":
			var ss []string
			if err := json.Unmarshal(value, &ss); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberSS{Value: ss}, nil
		case "NS":
			var ns []string
			if err := json.Unmarshal(value, &ns); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberNS{Value: ns}, nil
		case "BS":
			var bs [][]byte
			if err := json.Unmarshal(value, &bs); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberBS{Value: bs}, nil
		case "M":
			m, err := UnmarshalAttributeValueMap(value)
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberM{Value: m}, nil
		case "L":
			var items []json.RawMessage
			if err := json.Unmarshal(value, &items); err != nil {
				return nil, err
			}
			list := make([]types.AttributeValue, 0, len(items))
			for _, item := range items {
				av, err := unmarshalAttributeValue(item)
				if err != nil {
					return nil, err
				}
				list = append(list, av)
			}
			return &types.AttributeValueMemberL{Value: list}, nil
		default:
			return nil, errors.Newf("unsupported attribute type %q", tag)
		}
	}
	return nil, errors.New("empty attribute value")
}

// OperationType represents the type of DynamoDB operation
type OperationType string

const (
	OperationTypeInsert OperationType = "INSERT"
	OperationTypeModify OperationType = "MODIFY"
	OperationTypeRemove OperationType = "REMOVE"
)

// UnmarshalItem converts a DynamoDB image (NewImage or Keys) into an Item.
func UnmarshalItem(image map[string]types.AttributeValue) (Item, error) {
	var item Item
	err := attributevalue.UnmarshalMap(image, &item)
	if err != nil {
		return Item{}, err
	}
	return item, nil
}
