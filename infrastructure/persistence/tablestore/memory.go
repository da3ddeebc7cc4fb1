package tablestore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stocktracker-backend/pkg/errors"
)

// MemoryStore is an in-memory Store used for local development and tests.
// It mirrors the DynamoStore error contract exactly.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]map[string]Row // partition -> row key -> row

	// pageSize bounds how many rows a pager returns per page. Zero means
	// everything in one page.
	pageSize int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]map[string]Row)}
}

// WithPageSize makes pagers return at most n rows per page, to exercise
// continuation handling in tests.
func (s *MemoryStore) WithPageSize(n int) *MemoryStore {
	s.pageSize = n
	return s
}

func (s *MemoryStore) Get(ctx context.Context, partition, row string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.rows[partition][row]
	if !ok {
		return Row{}, errors.NewNotFoundError("row", partition, row)
	}
	return cloneRow(stored), nil
}

func (s *MemoryStore) Exists(ctx context.Context, partition, row string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rows[partition][row]
	return ok, nil
}

func (s *MemoryStore) Create(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[row.PartitionKey][row.RowKey]; ok {
		return errors.NewAlreadyExistsError("row", row.PartitionKey, row.RowKey)
	}
	s.put(row)
	return nil
}

func (s *MemoryStore) Replace(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[row.PartitionKey][row.RowKey]; !ok {
		return errors.NewNotFoundError("row", row.PartitionKey, row.RowKey)
	}
	s.put(row)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, partition, row string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[partition][row]; !ok {
		return errors.NewNotFoundError("row", partition, row)
	}
	delete(s.rows[partition], row)
	if len(s.rows[partition]) == 0 {
		delete(s.rows, partition)
	}
	return nil
}

func (s *MemoryStore) CreateBatch(ctx context.Context, rows []Row) error {
	for _, row := range rows {
		if err := s.Create(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) ReplaceBatch(ctx context.Context, rows []Row) error {
	for _, row := range rows {
		if err := s.Replace(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) DeleteBatch(ctx context.Context, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Batch deletes are idempotent, matching BatchWriteItem.
	for _, row := range rows {
		delete(s.rows[row.PartitionKey], row.RowKey)
		if len(s.rows[row.PartitionKey]) == 0 {
			delete(s.rows, row.PartitionKey)
		}
	}
	return nil
}

func (s *MemoryStore) ScanPartition(ctx context.Context, partition string) *RowPager {
	s.mu.RLock()
	var rows []Row
	for _, row := range s.rows[partition] {
		rows = append(rows, cloneRow(row))
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].RowKey < rows[j].RowKey })
	return s.pagerOver(ctx, rows)
}

func (s *MemoryStore) ScanPartitionsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var partitions []string
	for pk := range s.rows {
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
	sort.Strings(partitions)
	return partitions, nil
}

func (s *MemoryStore) ScanOlderThan(ctx context.Context, cutoff time.Time) *RowPager {
	s.mu.RLock()
	var rows []Row
	for _, partition := range s.rows {
		for _, row := range partition {
			if !row.ModifiedAt.After(cutoff) {
				rows = append(rows, cloneRow(row))
			}
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PartitionKey != rows[j].PartitionKey {
			return rows[i].PartitionKey < rows[j].PartitionKey
		}
		return rows[i].RowKey < rows[j].RowKey
	})
	return s.pagerOver(ctx, rows)
}

// SetModifiedAt backdates a row's modification time so tests can exercise
// retention cutoffs.
func (s *MemoryStore) SetModifiedAt(partition, row string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[partition][row]
	if !ok {
		return
	}
	stored.ModifiedAt = at
	s.rows[partition][row] = stored
}

// Len reports the total row count across all partitions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, partition := range s.rows {
		total += len(partition)
	}
	return total
}

func (s *MemoryStore) put(row Row) {
	stored := cloneRow(row)
	stored.ETag = uuid.NewString()
	stored.ModifiedAt = time.Now().UTC()

	if s.rows[stored.PartitionKey] == nil {
		s.rows[stored.PartitionKey] = make(map[string]Row)
	}
	s.rows[stored.PartitionKey][stored.RowKey] = stored
}

// pagerOver serves a pre-collected snapshot in pageSize chunks, using the
// numeric offset as the continuation token.
func (s *MemoryStore) pagerOver(ctx context.Context, rows []Row) *RowPager {
	size := s.pageSize
	if size <= 0 {
		size = len(rows)
	}
	return newRowPager(ctx, func(ctx context.Context, token string) ([]Row, string, error) {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		offset := 0
		if token != "" {
			parsed, err := strconv.Atoi(token)
			if err != nil {
				return nil, "", errors.NewValidationError("malformed continuation token").WithCause(err)
			}
			offset = parsed
		}
		if offset >= len(rows) {
			return nil, "", nil
		}
		end := offset + size
		if size == 0 || end > len(rows) {
			end = len(rows)
		}
		next := ""
		if end < len(rows) {
			next = strconv.Itoa(end)
		}
		return rows[offset:end], next, nil
	})
}

func cloneRow(row Row) Row {
	clone := row
	clone.Attributes = make(map[string]interface{}, len(row.Attributes))
	for name, value := range row.Attributes {
		clone.Attributes[name] = value
	}
	return clone
}
