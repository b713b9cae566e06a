package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

type Product struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
	Status   string  `json:"status"`
}

type TableRecord struct {
	PK     string  `dynamodbav:"pk"`
	SK     string  `dynamodbav:"sk"`
	Object Product `dynamodbav:"object"`
}

var (
	categories = map[string][]string{
		"electronics": {"Headphones", "Laptop", "Monitor", "Keyboard", "Webcam", "Speaker", "Router"},
		"kitchen":     {"Blender", "Toaster", "Kettle", "Coffee Maker", "Air Fryer", "Mixer"},
		"outdoors":    {"Tent", "Backpack", "Sleeping Bag", "Camp Stove", "Lantern", "Hammock"},
		"office":      {"Desk", "Chair", "Lamp", "Organizer", "Whiteboard", "Shredder"},
		"fitness":     {"Dumbbells", "Yoga Mat", "Kettlebell", "Resistance Bands", "Jump Rope"},
	}

	brands = []string{
		"Northwind", "Acme", "Globex", "Initech", "Umbra", "Vertex", "Solstice", "Meridian",
	}

	statuses = []string{"active", "active", "active", "discontinued"}
)

func generateRandomProduct() Product {
	categoryKeys := make([]string, 0, len(categories))
	for category := range categories {
		categoryKeys = append(categoryKeys, category)
	}

	selectedCategory := categoryKeys[rand.IntN(len(categoryKeys))]
	names := categories[selectedCategory]
	selectedName := names[rand.IntN(len(names))]
	selectedBrand := brands[rand.IntN(len(brands))]
	price := float64(rand.IntN(49000)+1000) / 100 // 10.00-499.99
	selectedStatus := statuses[rand.IntN(len(statuses))]

	return Product{
		Name:     selectedBrand + " " + selectedName,
		Category: selectedCategory,
		Brand:    selectedBrand,
		Price:    price,
		Status:   selectedStatus,
	}
}

func insertProduct(ctx context.Context, client *dynamodb.Client, tableName, indexName string, product Product) error {
	id := ksuid.New().String()

	record := TableRecord{
		PK:     id,
		SK:     indexName,
		Object: product,
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal product record: %w", err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully inserted product",
		"id", id,
		"name", product.Name,
		"category", product.Category,
		"price", product.Price,
		"status", product.Status,
	)

	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	env := c.String("env")
	tableName := c.String("table-name")
	indexName := c.String("index")
	count := c.Int("count")

	slog.InfoContext(ctx, "Starting product generator",
		"environment", env,
		"table", tableName,
		"index", indexName,
		"count", count,
	)

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg)

	for i := 0; i < count; i++ {
		product := generateRandomProduct()
		if err := insertProduct(ctx, client, tableName, indexName, product); err != nil {
			return fmt.Errorf("failed to insert product %d: %w", i+1, err)
		}
	}

	slog.InfoContext(ctx, "Successfully generated and inserted all products", "count", count)
	return nil
}

func main() {
	// Configure JSON logging for AWS environments
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "generator",
		Usage: "Generate random product data and insert into DynamoDB",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Aliases:  []string{"e"},
				Usage:    "Environment name",
				EnvVars:  []string{"ENVIRONMENT"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Search index name stored in the sort key",
				Value:   "products",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of products to generate",
				Value:   1,
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
