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

// Handler consumes the calculation queue. Each record carries one symbol
// and day; failed records are reported back so SQS redelivers only them.
func Handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var response events.SQSEventResponse

	for _, record := range event.Records {
		var msg sqs.KpiCalculationMessage
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
			// A malformed body never becomes valid, so drop it instead
			// of redelivering forever.
			container.Logger.Error("dropping malformed calculation message",
				zap.String("messageId", record.MessageId),
				zap.Error(err))
			continue
		}

		report, err := container.Kpis.CalculateKpis(ctx, msg.Symbol, msg.Date)
		if err != nil {
			container.Logger.Error("KPI calculation failed",
				zap.String("messageId", record.MessageId),
				zap.String("symbol", msg.Symbol),
				zap.String("date", msg.Date),
				zap.Strings("compensated", report.Compensated),
				zap.Error(err))
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}

		container.Logger.Info("KPI calculation processed",
			zap.String("symbol", msg.Symbol),
			zap.String("date", msg.Date),
			zap.Int("applied", len(report.Applied)))
	}

	return response, nil
}

func main() {
	lambda.Start(Handler)
}
