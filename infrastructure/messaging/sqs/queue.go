// Package sqs dispatches deferred work to the calculation and cleanup
// queues consumed by the worker Lambdas.
package sqs

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"stocktracker-backend/pkg/errors"
)

// Client is the slice of the SQS API the queues use.
type Client interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// KpiCalculationMessage is the body of a calculation queue entry.
type KpiCalculationMessage struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
}

// CleanupMessage is the body of a cleanup queue entry.
type CleanupMessage struct {
	CleanupLimitDate string `json:"cleanupLimitDate"`
}

// KpiQueue enqueues per-day figure calculations.
type KpiQueue struct {
	client   Client
	queueURL string
	logger   *zap.Logger
}

// NewKpiQueue creates a dispatcher for the calculation queue.
func NewKpiQueue(client Client, queueURL string, logger *zap.Logger) *KpiQueue {
	return &KpiQueue{client: client, queueURL: queueURL, logger: logger}
}

// EnqueueCalculation schedules the figures of one symbol and day.
func (q *KpiQueue) EnqueueCalculation(ctx context.Context, symbol, date string) error {
	if err := send(ctx, q.client, q.queueURL, KpiCalculationMessage{Symbol: symbol, Date: date}); err != nil {
		return err
	}
	q.logger.Debug("enqueued KPI calculation",
		zap.String("symbol", symbol),
		zap.String("date", date))
	return nil
}

// CleanupQueue enqueues retention sweeps.
type CleanupQueue struct {
	client   Client
	queueURL string
	logger   *zap.Logger
}

// NewCleanupQueue creates a dispatcher for the cleanup queue.
func NewCleanupQueue(client Client, queueURL string, logger *zap.Logger) *CleanupQueue {
	return &CleanupQueue{client: client, queueURL: queueURL, logger: logger}
}

// EnqueueCleanup schedules a purge of rows older than the limit date.
func (q *CleanupQueue) EnqueueCleanup(ctx context.Context, cleanupLimitDate string) error {
	if err := send(ctx, q.client, q.queueURL, CleanupMessage{CleanupLimitDate: cleanupLimitDate}); err != nil {
		return err
	}
	q.logger.Debug("enqueued cleanup", zap.String("cleanupLimitDate", cleanupLimitDate))
	return nil
}

func send(ctx context.Context, client Client, queueURL string, body interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal queue message")
	}

	_, err = client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(encoded)),
	})
	if err != nil {
		return errors.NewStoreUnavailableError("SendMessage", err).WithDetails(map[string]interface{}{
			"queueUrl": queueURL,
		})
	}
	return nil
}
