package tablestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stocktracker-backend/pkg/errors"
)

const (
	attrPartitionKey = "PK"
	attrRowKey       = "SK"
	attrETag         = "ETag"
	attrModifiedAt   = "ModifiedAt"

	// DynamoDB caps BatchWriteItem at 25 items per request.
	batchWriteLimit = 25

	modifiedAtLayout = time.RFC3339Nano
)

// DynamoStore implements Store on a single DynamoDB table using the
// PK/SK composite-key layout.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDynamoStore creates a store bound to one DynamoDB table.
func NewDynamoStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Get retrieves a single row by its composite key.
func (s *DynamoStore) Get(ctx context.Context, partition, row string) (Row, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       buildKey(partition, row),
	})
	if err != nil {
		return Row{}, translateError("Get", err)
	}
	if out.Item == nil {
		return Row{}, errors.NewNotFoundError("row", partition, row)
	}
	return parseItem(out.Item)
}

// Exists reports whether a row is present without fetching its attributes.
func (s *DynamoStore) Exists(ctx context.Context, partition, row string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  buildKey(partition, row),
		ProjectionExpression: aws.String(attrPartitionKey),
	})
	if err != nil {
		return false, translateError("Exists", err)
	}
	return out.Item != nil, nil
}

// Create stores a new row, failing when the key is already taken.
func (s *DynamoStore) Create(ctx context.Context, row Row) error {
	item, err := buildItem(row)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalFailure(err) {
			return errors.NewAlreadyExistsError("row", row.PartitionKey, row.RowKey)
		}
		return translateError("Create", err)
	}
	return nil
}

// Replace overwrites an existing row wholesale, failing when it is absent.
// The version token is regenerated, not checked: callers of this store do
// not rely on optimistic concurrency.
func (s *DynamoStore) Replace(ctx context.Context, row Row) error {
	item, err := buildItem(row)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK) AND attribute_exists(SK)"),
	})
	if err != nil {
		if isConditionalFailure(err) {
			return errors.NewNotFoundError("row", row.PartitionKey, row.RowKey)
		}
		return translateError("Replace", err)
	}
	return nil
}

// Delete removes a row, failing when it is absent.
func (s *DynamoStore) Delete(ctx context.Context, partition, row string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 buildKey(partition, row),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalFailure(err) {
			return errors.NewNotFoundError("row", partition, row)
		}
		return translateError("Delete", err)
	}
	return nil
}

// CreateBatch applies each create independently and in order. Rows created
// before a failure stay in place; the caller compensates.
func (s *DynamoStore) CreateBatch(ctx context.Context, rows []Row) error {
	for _, row := range rows {
		if err := s.Create(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceBatch applies each replace independently and in order.
func (s *DynamoStore) ReplaceBatch(ctx context.Context, rows []Row) error {
	for _, row := range rows {
		if err := s.Replace(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBatch removes rows in chunks of 25. Deleting an absent row is a
// no-op here, unlike single Delete.
func (s *DynamoStore) DeleteBatch(ctx context.Context, rows []Row) error {
	for start := 0; start < len(rows); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.deleteChunk(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) deleteChunk(ctx context.Context, rows []Row) error {
	requests := make([]types.WriteRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: buildKey(row.PartitionKey, row.RowKey),
			},
		})
	}

	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			s.tableName: requests,
		},
	})
	if err != nil {
		return translateError("DeleteBatch", err)
	}

	if unprocessed := out.UnprocessedItems[s.tableName]; len(unprocessed) > 0 {
		s.logger.Warn("BatchWriteItem left unprocessed deletes",
			zap.String("table", s.tableName),
			zap.Int("count", len(unprocessed)))
		return errors.NewStoreUnavailableError("DeleteBatch", nil).WithDetails(map[string]interface{}{
			"unprocessed": len(unprocessed),
		})
	}
	return nil
}

// ScanPartition pages through every row of one partition.
func (s *DynamoStore) ScanPartition(ctx context.Context, partition string) *RowPager {
	return newRowPager(ctx, func(ctx context.Context, token string) ([]Row, string, error) {
		keyCond := expression.Key(attrPartitionKey).Equal(expression.Value(partition))
		expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
		if err != nil {
			return nil, "", errors.Wrap(err, "build partition query")
		}

		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}
		if startKey, err := decodeContinuationToken(token); err != nil {
			return nil, "", err
		} else if startKey != nil {
			input.ExclusiveStartKey = startKey
		}

		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, "", translateError("ScanPartition", err)
		}

		rows, err := parseItems(out.Items)
		if err != nil {
			return nil, "", err
		}
		next, err := encodeContinuationToken(out.LastEvaluatedKey)
		if err != nil {
			return nil, "", err
		}
		return rows, next, nil
	})
}

// ScanPartitionsWithPrefix collects the distinct partition keys matching
// prefix. The store cannot compare keys case-insensitively, so the scan
// projects only partition keys and filters client-side.
func (s *DynamoStore) ScanPartitionsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var (
		partitions []string
		seen       = make(map[string]struct{})
		startKey   map[string]types.AttributeValue
	)

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(s.tableName),
			ProjectionExpression: aws.String(attrPartitionKey),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return nil, translateError("ScanPartitionsWithPrefix", err)
		}

		for _, item := range out.Items {
			pk := stringAttr(item, attrPartitionKey)
			if pk == "" {
				continue
			}
			if prefix != "" && !hasPrefixFold(pk, prefix) {
				continue
			}
			folded := strings.ToLower(pk)
			if _, ok := seen[folded]; ok {
				continue
			}
			seen[folded] = struct{}{}
			partitions = append(partitions, pk)
		}

		if out.LastEvaluatedKey == nil {
			return partitions, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ScanOlderThan pages through rows last modified at or before cutoff,
// across all partitions.
func (s *DynamoStore) ScanOlderThan(ctx context.Context, cutoff time.Time) *RowPager {
	return newRowPager(ctx, func(ctx context.Context, token string) ([]Row, string, error) {
		filter := expression.Name(attrModifiedAt).
			LessThanEqual(expression.Value(cutoff.UTC().Format(modifiedAtLayout)))
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, "", errors.Wrap(err, "build older-than filter")
		}

		input := &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}
		if startKey, err := decodeContinuationToken(token); err != nil {
			return nil, "", err
		} else if startKey != nil {
			input.ExclusiveStartKey = startKey
		}

		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, "", translateError("ScanOlderThan", err)
		}

		rows, err := parseItems(out.Items)
		if err != nil {
			return nil, "", err
		}
		next, err := encodeContinuationToken(out.LastEvaluatedKey)
		if err != nil {
			return nil, "", err
		}
		return rows, next, nil
	})
}

// item building and parsing

func buildKey(partition, row string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartitionKey: &types.AttributeValueMemberS{Value: partition},
		attrRowKey:       &types.AttributeValueMemberS{Value: row},
	}
}

func buildItem(row Row) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(row.Attributes)
	if err != nil {
		return nil, errors.Wrap(err, "marshal row attributes")
	}

	item[attrPartitionKey] = &types.AttributeValueMemberS{Value: row.PartitionKey}
	item[attrRowKey] = &types.AttributeValueMemberS{Value: row.RowKey}
	item[attrETag] = &types.AttributeValueMemberS{Value: uuid.NewString()}
	item[attrModifiedAt] = &types.AttributeValueMemberS{
		Value: time.Now().UTC().Format(modifiedAtLayout),
	}
	return item, nil
}

func parseItem(item map[string]types.AttributeValue) (Row, error) {
	row := Row{
		PartitionKey: stringAttr(item, attrPartitionKey),
		RowKey:       stringAttr(item, attrRowKey),
		ETag:         stringAttr(item, attrETag),
	}

	if ts := stringAttr(item, attrModifiedAt); ts != "" {
		parsed, err := time.Parse(modifiedAtLayout, ts)
		if err != nil {
			return Row{}, errors.Wrapf(err, "parse ModifiedAt for (%s, %s)", row.PartitionKey, row.RowKey)
		}
		row.ModifiedAt = parsed
	}

	attrs := make(map[string]types.AttributeValue, len(item))
	for name, value := range item {
		switch name {
		case attrPartitionKey, attrRowKey, attrETag, attrModifiedAt:
		default:
			attrs[name] = value
		}
	}

	row.Attributes = make(map[string]interface{}, len(attrs))
	if err := attributevalue.UnmarshalMap(attrs, &row.Attributes); err != nil {
		return Row{}, errors.Wrapf(err, "unmarshal attributes for (%s, %s)", row.PartitionKey, row.RowKey)
	}
	return row, nil
}

func parseItems(items []map[string]types.AttributeValue) ([]Row, error) {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row, err := parseItem(item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// continuation tokens

type continuationKey struct {
	Partition string `json:"p"`
	Row       string `json:"r"`
}

func encodeContinuationToken(lastKey map[string]types.AttributeValue) (string, error) {
	if lastKey == nil {
		return "", nil
	}
	raw, err := json.Marshal(continuationKey{
		Partition: stringAttr(lastKey, attrPartitionKey),
		Row:       stringAttr(lastKey, attrRowKey),
	})
	if err != nil {
		return "", errors.Wrap(err, "encode continuation token")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeContinuationToken(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewValidationError("malformed continuation token").WithCause(err)
	}
	var key continuationKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, errors.NewValidationError("malformed continuation token").WithCause(err)
	}
	return buildKey(key.Partition, key.Row), nil
}

// error translation

func isConditionalFailure(err error) bool {
	var conditional *types.ConditionalCheckFailedException
	return stderrors.As(err, &conditional)
}

// translateError maps store-native failures into the error taxonomy.
// Cancellation passes through untouched; everything else that is not
// already classified collapses into STORE_UNAVAILABLE.
func translateError(operation string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if appErr := errors.GetAppError(err); appErr != nil {
		return err
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return errors.NewStoreUnavailableError(operation, err).WithDetails(map[string]interface{}{
			"code": apiErr.ErrorCode(),
		})
	}
	return errors.NewStoreUnavailableError(operation, err)
}
