// Package elastic provides a lazy-loading Elasticsearch client with
// configurable secret management. It implements the scoutx.Client contract
// over the engine's REST API.
package elastic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/letmevibethatforyou/scoutx"
)

// Secrets holds the Elasticsearch connection credentials.
type Secrets struct {
	// Endpoint is the base URL of the Elasticsearch cluster.
	Endpoint string `json:"endpoint"`
	// Username enables HTTP basic auth when non-empty.
	Username string `json:"username"`
	// Password is the basic auth password.
	Password string `json:"password"`
	// SkipTLSVerify disables TLS certificate verification (dev only).
	SkipTLSVerify bool `json:"skip_tls_verify"`
}

// FetchSecrets is a function type that retrieves Elasticsearch credentials.
// It allows for different secret retrieval strategies (static, environment
// variables, AWS Secrets Manager).
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static
// credentials. This is useful for testing or when credentials are known at
// compile time.
func StaticSecrets(endpoint, username, password string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			Endpoint: endpoint,
			Username: username,
			Password: password,
		}, nil
	}
}

func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		endpoint := os.Getenv("ELASTICSEARCH_URL")
		if endpoint == "" {
			return Secrets{}, fmt.Errorf("ELASTICSEARCH_URL environment variable is not set")
		}

		return Secrets{
			Endpoint: endpoint,
			Username: os.Getenv("ELASTICSEARCH_USERNAME"),
			Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
		}, nil
	}
}

// conn is an initialized connection to the cluster.
type conn struct {
	baseURL string
	http    *http.Client
}

type basicAuthTransport struct {
	base     http.RoundTripper
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	auth := t.username + ":" + t.password
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	return t.base.RoundTrip(req)
}

// Client speaks the Elasticsearch REST protocol: bulk mutations, search
// queries and index deletion. The connection is established lazily on first
// use.
type Client struct {
	getConn func() (*conn, error)
	tracer  trace.Tracer
}

var _ scoutx.Client = (*Client)(nil)

func NewClient(fetchSecrets FetchSecrets) *Client {
	getConn := sync.OnceValues(func() (*conn, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch secrets: %w", err)
		}

		if secrets.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is empty")
		}

		var transport http.RoundTripper = http.DefaultTransport
		if secrets.SkipTLSVerify {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			transport = t
		}
		if secrets.Username != "" {
			transport = &basicAuthTransport{
				base:     transport,
				username: secrets.Username,
				password: secrets.Password,
			}
		}

		return &conn{
			baseURL: strings.TrimSuffix(secrets.Endpoint, "/"),
			http:    &http.Client{Transport: transport},
		}, nil
	})

	tracer := otel.Tracer("scoutx-elastic")

	return &Client{
		getConn: getConn,
		tracer:  tracer,
	}
}

// Bulk submits the directives as one NDJSON request to the _bulk endpoint.
func (c *Client) Bulk(ctx context.Context, ops []scoutx.BulkOp) (*scoutx.BulkResponse, error) {
	ctx, span := c.tracer.Start(ctx, "elastic.bulk",
		trace.WithAttributes(
			attribute.Int("elastic.op_count", len(ops)),
		),
	)
	defer span.End()

	body, err := encodeBulk(ops)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode bulk body")
		return nil, err
	}

	var result scoutx.BulkResponse
	if err := c.do(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", body, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk request failed")
		return nil, scoutx.WrapEngineError(err)
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("bulk of %d directives acknowledged", len(ops)))
	return &result, nil
}

// Search executes the query body against the given index.
func (c *Client) Search(ctx context.Context, index string, req *scoutx.SearchRequest) (*scoutx.SearchResponse, error) {
	ctx, span := c.tracer.Start(ctx, "elastic.search",
		trace.WithAttributes(
			attribute.String("elastic.index_name", index),
		),
	)
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode search body")
		return nil, err
	}

	var result scoutx.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/"+index+"/_search", "application/json", body, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("search against index %s failed", index))
		return nil, scoutx.WrapEngineError(err)
	}

	span.SetStatus(codes.Ok, "search executed successfully")
	return &result, nil
}

// DeleteIndex removes the entire index.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	ctx, span := c.tracer.Start(ctx, "elastic.delete_index",
		trace.WithAttributes(
			attribute.String("elastic.index_name", index),
		),
	)
	defer span.End()

	if err := c.do(ctx, http.MethodDelete, "/"+index, "", nil, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to delete index %s", index))
		return scoutx.WrapEngineError(err)
	}

	span.SetStatus(codes.Ok, "index deleted successfully")
	return nil
}

// do performs one HTTP exchange with the cluster and decodes the response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	cn, err := c.getConn()
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, cn.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := cn.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.Newf("elasticsearch error: %s - %s", resp.Status, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// encodeBulk serializes the directives to NDJSON, one directive per line.
func encodeBulk(ops []scoutx.BulkOp) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		if err := enc.Encode(op); err != nil {
			return nil, errors.Wrap(err, "encode bulk directive")
		}
	}
	return buf.Bytes(), nil
}
