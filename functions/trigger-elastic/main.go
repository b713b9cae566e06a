package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/scoutx"
	"github.com/letmevibethatforyou/scoutx/elastic"
	"github.com/letmevibethatforyou/scoutx/internal/ddb"
)

type Handler struct {
	tableName string
	engine    *scoutx.Engine
}

func NewHandler(tableName string, fetchSecrets elastic.FetchSecrets) *Handler {
	client := elastic.NewClient(fetchSecrets)

	return &Handler{
		tableName: tableName,
		engine:    scoutx.NewEngine(client),
	}
}

func (h *Handler) HandleStreamEvent(ctx context.Context, e ddb.StreamEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Error processing record", "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record ddb.StreamEventRecord) error {
	switch ddb.OperationType(record.EventName) {
	case ddb.OperationTypeInsert, ddb.OperationTypeModify:
		if record.Change.NewImage == nil {
			slog.WarnContext(ctx, "No new image for insert/modify operation, skipping record")
			return nil
		}

		item, err := ddb.UnmarshalItem(record.Change.NewImage)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal record, skipping", "error", err)
			return nil
		}

		// Validate required fields
		if item.ID == "" {
			slog.WarnContext(ctx, "Missing ID (pk) in record, skipping record")
			return nil
		}
		if item.IndexName == "" {
			slog.WarnContext(ctx, "Missing IndexName (sk) in record, skipping record")
			return nil
		}
		if item.Object == nil {
			slog.WarnContext(ctx, "Missing Object in record, skipping record", "id", item.ID, "index", item.IndexName)
			return nil
		}

		slog.InfoContext(ctx, "Upserting document", "id", item.ID, "index", item.IndexName)
		return h.engine.Update(ctx, []scoutx.Document{item})

	case ddb.OperationTypeRemove:
		// For delete operations, we only need the keys
		item, err := ddb.UnmarshalItem(record.Change.Keys)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "error", err)
			return nil
		}

		if item.ID == "" || item.IndexName == "" {
			slog.WarnContext(ctx, "Missing ID or IndexName in delete record, skipping record")
			return nil
		}

		slog.InfoContext(ctx, "Deleting document", "id", item.ID, "index", item.IndexName)
		return h.engine.Delete(ctx, []scoutx.Document{item})

	default:
		slog.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return nil
	}
}

func main() {
	app := &cli.App{
		Name:  "dynamodb-elastic-sync",
		Usage: "Sync DynamoDB stream events to Elasticsearch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB table name to sync from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over endpoint flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "elastic-endpoint",
				Usage:   "Elasticsearch endpoint URL",
				EnvVars: []string{"ELASTICSEARCH_URL"},
			},
			&cli.StringFlag{
				Name:    "elastic-username",
				Usage:   "Elasticsearch basic auth username",
				EnvVars: []string{"ELASTICSEARCH_USERNAME"},
			},
			&cli.StringFlag{
				Name:    "elastic-password",
				Usage:   "Elasticsearch basic auth password",
				EnvVars: []string{"ELASTICSEARCH_PASSWORD"},
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
	tableName := c.String("table-name")
	env := c.String("env")
	endpoint := c.String("elastic-endpoint")

	slog.InfoContext(ctx, "Starting DynamoDB to Elasticsearch sync", "table", tableName, "environment", env)

	var fetchSecrets elastic.FetchSecrets

	// Prioritize environment-based AWS Secrets Manager if env is provided
	if env != "" {
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return err
		}

		client := secretsmanager.NewFromConfig(cfg)
		fetchSecrets = elastic.AWSSecrets(ctx, client, env)
	} else if endpoint != "" {
		slog.InfoContext(ctx, "Using static credentials from flags")
		fetchSecrets = elastic.StaticSecrets(endpoint, c.String("elastic-username"), c.String("elastic-password"))
	} else {
		slog.InfoContext(ctx, "Using environment variables for credentials")
		fetchSecrets = elastic.EnvSecrets()
	}

	handler := NewHandler(tableName, fetchSecrets)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		slog.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleStreamEvent)
	} else {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}
