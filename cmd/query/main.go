package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/scoutx"
	"github.com/letmevibethatforyou/scoutx/elastic"
)

const (
	defaultPerPage = 20
	defaultTimeout = 5 * time.Second
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "query",
		Usage: "Execute search queries against an Elasticsearch index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "index",
				Aliases:  []string{"i"},
				Usage:    "Elasticsearch index name",
				EnvVars:  []string{"ELASTICSEARCH_INDEX"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "elastic-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Elasticsearch credentials",
				EnvVars: []string{"ELASTICSEARCH_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query term to search for; positional arg is a fallback",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results to return",
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "1-indexed page number; when set, paginates instead of a plain search",
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "Page size used with --page",
				Value: defaultPerPage,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for the search request",
				Value: defaultTimeout,
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Equality filter in field=value format; repeatable",
			},
			&cli.StringSliceFlag{
				Name:  "sort",
				Usage: "Sort clause in field:asc or field:desc format; repeatable, order preserved",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	term := strings.TrimSpace(c.String("query"))
	if term == "" && c.NArg() > 0 {
		term = strings.TrimSpace(c.Args().First())
	}

	indexName := strings.TrimSpace(c.String("index"))

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	opts := []scoutx.QueryOption{scoutx.WithIndex(indexName)}

	if limit := c.Int("limit"); limit > 0 {
		opts = append(opts, scoutx.WithLimit(limit))
	}

	filterOptions, err := buildFilterOptions(c.StringSlice("filter"))
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	opts = append(opts, filterOptions...)

	sortOptions, err := buildSortOptions(c.StringSlice("sort"))
	if err != nil {
		return fmt.Errorf("invalid sort: %w", err)
	}
	opts = append(opts, sortOptions...)

	secretArn := strings.TrimSpace(c.String("elastic-secret-arn"))

	var fetchSecrets elastic.FetchSecrets
	if secretArn != "" {
		slog.InfoContext(ctx, "using AWS Secrets Manager for Elasticsearch credentials", "secret_arn", secretArn)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		secretsClient := secretsmanager.NewFromConfig(cfg)
		fetchSecrets = elastic.AWSSecretsFromARN(ctx, secretsClient, secretArn)
	} else {
		fetchSecrets = elastic.EnvSecrets()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	engine := scoutx.NewEngine(elastic.NewClient(fetchSecrets))
	q := scoutx.NewQuery(term, opts...)

	slog.InfoContext(ctx, "executing query",
		"index", indexName,
		"query", term,
		"filter_count", len(filterOptions),
		"sort_count", len(sortOptions),
		"timeout", timeout,
	)

	if page := c.Int("page"); page > 0 {
		perPage := c.Int("per-page")
		if perPage <= 0 {
			slog.WarnContext(ctx, "per-page must be positive; falling back to default", "per_page", perPage, "default", defaultPerPage)
			perPage = defaultPerPage
		}

		p, err := engine.Paginate(ctx, q, perPage, page)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printPage(engine, p)
	}

	res, err := engine.Search(ctx, q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printResults(engine, res)
}

func buildFilterOptions(raw []string) ([]scoutx.QueryOption, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	options := make([]scoutx.QueryOption, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("filter cannot be empty")
		}

		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("filter must be in field=value format: %q", item)
		}

		field := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if field == "" || value == "" {
			return nil, fmt.Errorf("filter field and value must be non-empty: %q", item)
		}

		options = append(options, scoutx.Where(field, value))
	}

	return options, nil
}

func buildSortOptions(raw []string) ([]scoutx.QueryOption, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	options := make([]scoutx.QueryOption, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("sort cannot be empty")
		}

		field := item
		desc := false
		if parts := strings.SplitN(item, ":", 2); len(parts) == 2 {
			field = strings.TrimSpace(parts[0])
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "asc":
			case "desc":
				desc = true
			default:
				return nil, fmt.Errorf("sort direction must be asc or desc: %q", item)
			}
		}
		if field == "" {
			return nil, fmt.Errorf("sort field must be non-empty: %q", item)
		}

		options = append(options, scoutx.OrderBy(field, desc))
	}

	return options, nil
}

type hitPayload struct {
	ID     string         `json:"id"`
	Score  *float64       `json:"score,omitempty"`
	Source map[string]any `json:"source,omitempty"`
}

func printResults(engine *scoutx.Engine, res *scoutx.SearchResponse) error {
	payload := struct {
		Total int64        `json:"total"`
		Took  int64        `json:"took_ms"`
		IDs   []string     `json:"ids"`
		Hits  []hitPayload `json:"hits"`
	}{
		Total: engine.TotalCount(res),
		Took:  res.Took,
		IDs:   engine.MapIDs(res),
		Hits:  hitPayloads(res),
	}

	return printJSON(payload)
}

func printPage(engine *scoutx.Engine, p *scoutx.Page) error {
	payload := struct {
		Total       int64        `json:"total"`
		PerPage     int          `json:"per_page"`
		CurrentPage int          `json:"current_page"`
		LastPage    int          `json:"last_page"`
		IDs         []string     `json:"ids"`
		Hits        []hitPayload `json:"hits"`
	}{
		Total:       p.Total,
		PerPage:     p.PerPage,
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
		IDs:         engine.MapIDs(p.Results),
		Hits:        hitPayloads(p.Results),
	}

	return printJSON(payload)
}

func hitPayloads(res *scoutx.SearchResponse) []hitPayload {
	hits := make([]hitPayload, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		hits = append(hits, hitPayload{ID: h.ID, Score: h.Score, Source: h.Source})
	}
	return hits
}

func printJSON(payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	fmt.Println(string(data))
	return nil
}
