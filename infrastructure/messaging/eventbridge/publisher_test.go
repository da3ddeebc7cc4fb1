package eventbridge

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"stocktracker-backend/domain/events"
)

type fakeClient struct {
	inputs []*awseventbridge.PutEventsInput
	output *awseventbridge.PutEventsOutput
	err    error
}

func (c *fakeClient) PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	c.inputs = append(c.inputs, params)
	if c.err != nil {
		return nil, c.err
	}
	if c.output != nil {
		return c.output, nil
	}
	entries := make([]types.PutEventsResultEntry, len(params.Entries))
	return &awseventbridge.PutEventsOutput{Entries: entries}, nil
}

// unmarshalable cannot be encoded as JSON, so the publisher drops it
// before the PutEvents call.
type unmarshalable struct {
	events.BaseEvent
	Broken chan int `json:"broken"`
}

func newTestEvent(symbol string) events.SymbolSaved {
	return events.NewSymbolSaved(symbol, symbol, true, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))
}

func TestPublishBatch_SendsEntries(t *testing.T) {
	client := &fakeClient{}
	publisher := NewPublisher(client, "test-bus", zap.NewNop())

	err := publisher.PublishBatch(context.Background(), []events.DomainEvent{
		newTestEvent("AAPL"),
		newTestEvent("MSFT"),
	})
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	entries := client.inputs[0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, "test-bus", aws.ToString(entries[0].EventBusName))
	assert.Equal(t, EventSource, aws.ToString(entries[0].Source))
	assert.Equal(t, "symbol.saved", aws.ToString(entries[0].DetailType))
}

func TestPublishBatch_ChunksAtTenEntries(t *testing.T) {
	client := &fakeClient{}
	publisher := NewPublisher(client, "test-bus", zap.NewNop())

	batch := make([]events.DomainEvent, 12)
	for i := range batch {
		batch[i] = newTestEvent("AAPL")
	}
	require.NoError(t, publisher.PublishBatch(context.Background(), batch))

	require.Len(t, client.inputs, 2)
	assert.Len(t, client.inputs[0].Entries, 10)
	assert.Len(t, client.inputs[1].Entries, 2)
}

func TestPublishBatch_FailedEntryLogsMatchingEvent(t *testing.T) {
	// The first event never reaches the wire, so the second result
	// entry must be attributed to the third event, not the second.
	client := &fakeClient{
		output: &awseventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{},
				{
					ErrorCode:    aws.String("ThrottlingException"),
					ErrorMessage: aws.String("rate exceeded"),
				},
			},
		},
	}
	core, logs := observer.New(zap.ErrorLevel)
	publisher := NewPublisher(client, "test-bus", zap.New(core))

	err := publisher.PublishBatch(context.Background(), []events.DomainEvent{
		unmarshalable{BaseEvent: events.BaseEvent{AggregateID: "AAPL", EventType: "symbol.saved"}},
		newTestEvent("MSFT"),
		events.NewKpisPersisted("NOK", "2024-03-11", 6, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)),
	})
	require.Error(t, err)

	require.Len(t, client.inputs, 1)
	assert.Len(t, client.inputs[0].Entries, 2)

	failed := logs.FilterMessage("Failed to publish event").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "kpis.persisted", failed[0].ContextMap()["eventType"])
}
