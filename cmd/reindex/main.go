package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/scoutx"
	"github.com/letmevibethatforyou/scoutx/elastic"
	"github.com/letmevibethatforyou/scoutx/internal/ddb"
)

const defaultBatchSize = 500

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "reindex",
		Usage: "Rebuild an Elasticsearch index from the DynamoDB table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name to read from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "index",
				Aliases:  []string{"i"},
				Usage:    "Index name to rebuild (matches the table's sort key)",
				EnvVars:  []string{"ELASTICSEARCH_INDEX"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "elastic-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Elasticsearch credentials",
				EnvVars: []string{"ELASTICSEARCH_SECRET_ARN"},
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Documents per bulk request",
				Value: defaultBatchSize,
			},
			&cli.BoolFlag{
				Name:  "flush",
				Usage: "Delete the index before reindexing (destructive)",
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
	indexName := c.String("index")

	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		slog.WarnContext(ctx, "batch-size must be positive; falling back to default", "batch_size", batchSize, "default", defaultBatchSize)
		batchSize = defaultBatchSize
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	var fetchSecrets elastic.FetchSecrets
	if secretArn := strings.TrimSpace(c.String("elastic-secret-arn")); secretArn != "" {
		slog.InfoContext(ctx, "using AWS Secrets Manager for Elasticsearch credentials", "secret_arn", secretArn)
		fetchSecrets = elastic.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(cfg), secretArn)
	} else {
		fetchSecrets = elastic.EnvSecrets()
	}

	engine := scoutx.NewEngine(elastic.NewClient(fetchSecrets))

	if c.Bool("flush") {
		slog.InfoContext(ctx, "flushing index before reindex", "index", indexName)
		if err := engine.Flush(ctx, ddb.Item{IndexName: indexName}); err != nil {
			return fmt.Errorf("failed to flush index %s: %w", indexName, err)
		}
	}

	dynamoClient := dynamodb.NewFromConfig(cfg)
	paginator := dynamodb.NewScanPaginator(dynamoClient, &dynamodb.ScanInput{
		TableName:                 aws.String(tableName),
		FilterExpression:          aws.String("sk = :index"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":index": &types.AttributeValueMemberS{Value: indexName},
		},
	})

	var batch []scoutx.Document
	indexed := 0

	flushBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := engine.Update(ctx, batch); err != nil {
			return fmt.Errorf("bulk update failed after %d documents: %w", indexed, err)
		}
		indexed += len(batch)
		slog.InfoContext(ctx, "indexed batch", "batch_size", len(batch), "total_indexed", indexed)
		batch = batch[:0]
		return nil
	}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan table %s: %w", tableName, err)
		}

		var items []ddb.Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return fmt.Errorf("failed to unmarshal scanned items: %w", err)
		}

		for _, item := range items {
			if item.ID == "" || item.Object == nil {
				slog.WarnContext(ctx, "skipping malformed item", "id", item.ID)
				continue
			}
			batch = append(batch, item)
			if len(batch) >= batchSize {
				if err := flushBatch(); err != nil {
					return err
				}
			}
		}
	}

	if err := flushBatch(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "reindex complete", "index", indexName, "documents", indexed)
	return nil
}
