package di

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/application/services"
	"stocktracker-backend/infrastructure/cache"
	"stocktracker-backend/infrastructure/config"
	"stocktracker-backend/infrastructure/messaging/eventbridge"
	sqsqueue "stocktracker-backend/infrastructure/messaging/sqs"
	"stocktracker-backend/infrastructure/persistence/stockstore"
	"stocktracker-backend/infrastructure/persistence/tablestore"
	"stocktracker-backend/interfaces/http/rest"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideSQSClient creates an SQS client
func ProvideSQSClient(awsCfg aws.Config) *awssqs.Client {
	return awssqs.NewFromConfig(awsCfg)
}

// ProvidePriceRepository creates the snapshot repository on its table
func ProvidePriceRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.PriceRepository {
	return stockstore.NewPriceRepository(
		tablestore.NewDynamoStore(client, cfg.PriceTable, logger),
		logger,
	)
}

// ProvideKpiRepository creates the figure repository on its table
func ProvideKpiRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.KpiRepository {
	return stockstore.NewKpiRepository(
		tablestore.NewDynamoStore(client, cfg.KpiTable, logger),
		logger,
	)
}

// ProvideSymbolRepository creates the tracked symbol repository on its table
func ProvideSymbolRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SymbolRepository {
	return stockstore.NewSymbolRepository(
		tablestore.NewDynamoStore(client, cfg.SymbolTable, logger),
		logger,
	)
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideKpiQueue creates the calculation queue dispatcher
func ProvideKpiQueue(client *awssqs.Client, cfg *config.Config, logger *zap.Logger) ports.KpiQueue {
	return sqsqueue.NewKpiQueue(client, cfg.KpiQueueURL, logger)
}

// ProvideCleanupQueue creates the cleanup queue dispatcher
func ProvideCleanupQueue(client *awssqs.Client, cfg *config.Config, logger *zap.Logger) ports.CleanupQueue {
	return sqsqueue.NewCleanupQueue(client, cfg.CleanupQueueURL, logger)
}

// ProvideQueryCache creates the query cache. Without a Redis address the
// cache runs disabled and every read goes to the store.
func ProvideQueryCache(cfg *config.Config, logger *zap.Logger) *cache.QueryCache {
	var backing ports.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		backing = cache.NewRedisCache(client)
	}
	return cache.NewQueryCache(backing, cfg.CacheTTL, logger)
}

// ProvideKpiService creates the KPI service
func ProvideKpiService(
	prices ports.PriceRepository,
	kpis ports.KpiRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.KpiService {
	return services.NewKpiService(prices, kpis, publisher, logger)
}

// ProvidePriceService creates the price service
func ProvidePriceService(
	prices ports.PriceRepository,
	kpiQueue ports.KpiQueue,
	logger *zap.Logger,
) *services.PriceService {
	return services.NewPriceService(prices, kpiQueue, logger)
}

// ProvideTrackerService creates the tracker service
func ProvideTrackerService(
	symbols ports.SymbolRepository,
	kpiQueue ports.KpiQueue,
	publisher ports.EventPublisher,
	queries *cache.QueryCache,
	logger *zap.Logger,
) *services.TrackerService {
	return services.NewTrackerService(symbols, kpiQueue, publisher, queries, logger)
}

// ProvideRouter creates the configured HTTP handler
func ProvideRouter(
	tracker *services.TrackerService,
	prices *services.PriceService,
	kpis *services.KpiService,
	cleanup ports.CleanupQueue,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(tracker, prices, kpis, cleanup, logger).Setup()
}
