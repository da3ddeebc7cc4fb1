package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"stocktracker-backend/infrastructure/config"
	"stocktracker-backend/infrastructure/di"
	"stocktracker-backend/infrastructure/messaging/sqs"
)

// container holds the dependency injection container
var container *di.Container

// init runs during cold start
func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// Handler consumes the cleanup queue. Each record schedules one retention
// sweep; a sweep that did not finish is redelivered.
func Handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var response events.SQSEventResponse

	for _, record := range event.Records {
		var msg sqs.CleanupMessage
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
			container.Logger.Error("dropping malformed cleanup message",
				zap.String("messageId", record.MessageId),
				zap.Error(err))
			continue
		}

		complete, err := container.Kpis.PurgeOlderThan(ctx, msg.CleanupLimitDate)
		if err != nil || !complete {
			container.Logger.Error("cleanup sweep incomplete",
				zap.String("messageId", record.MessageId),
				zap.String("cleanupLimitDate", msg.CleanupLimitDate),
				zap.Bool("complete", complete),
				zap.Error(err))
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}

		container.Logger.Info("cleanup sweep finished",
			zap.String("cleanupLimitDate", msg.CleanupLimitDate))
	}

	return response, nil
}

func main() {
	lambda.Start(Handler)
}
