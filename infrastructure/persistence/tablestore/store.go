// Package tablestore provides the minimal durable operations on rows keyed
// by a (partition key, row key) pair. It carries no business semantics;
// entity mapping lives a layer up in the repository package.
package tablestore

import (
	"context"
	"time"
)

// Row is the persisted shape of a single item. Attributes holds the
// entity-specific fields; the repository layer owns their meaning.
type Row struct {
	PartitionKey string
	RowKey       string

	// ETag is an opaque version token regenerated on every write.
	ETag string

	// ModifiedAt is the last-write timestamp, maintained by the store.
	ModifiedAt time.Time

	Attributes map[string]interface{}
}

// Key returns the composite identity of the row.
func (r Row) Key() (partition, row string) {
	return r.PartitionKey, r.RowKey
}

// Store is the contract for a two-level keyed store. Implementations apply
// each operation single-shot; retries are layered externally.
//
// Error contract: absent keys surface as NOT_FOUND, key collisions on Create
// as ALREADY_EXISTS, and any transport or unmapped failure as
// STORE_UNAVAILABLE (see pkg/errors).
type Store interface {
	Get(ctx context.Context, partition, row string) (Row, error)
	Exists(ctx context.Context, partition, row string) (bool, error)

	Create(ctx context.Context, row Row) error
	Replace(ctx context.Context, row Row) error
	Delete(ctx context.Context, partition, row string) error

	// Batch operations apply each row independently. They report success
	// only when every row succeeded; rows applied before a failure are not
	// rolled back and must be compensated by the caller.
	CreateBatch(ctx context.Context, rows []Row) error
	ReplaceBatch(ctx context.Context, rows []Row) error
	DeleteBatch(ctx context.Context, rows []Row) error

	// ScanPartition pages through every row of one partition.
	ScanPartition(ctx context.Context, partition string) *RowPager

	// ScanPartitionsWithPrefix streams the distinct partition keys whose
	// name starts with prefix, compared case-insensitively. An empty
	// prefix matches every partition.
	ScanPartitionsWithPrefix(ctx context.Context, prefix string) ([]string, error)

	// ScanOlderThan pages through rows, in any partition, whose ModifiedAt
	// is at or before cutoff (inclusive).
	ScanOlderThan(ctx context.Context, cutoff time.Time) *RowPager
}

// pageFunc fetches one page of rows starting at the given continuation
// token, returning the page and the token for the next one ("" when done).
type pageFunc func(ctx context.Context, token string) ([]Row, string, error)

// RowPager is a restartable, continuation-token driven cursor over rows.
// Each NextPage call performs at most one store round trip.
type RowPager struct {
	ctx   context.Context
	fetch pageFunc
	token string
	done  bool
	err   error
}

func newRowPager(ctx context.Context, fetch pageFunc) *RowPager {
	return &RowPager{ctx: ctx, fetch: fetch}
}

// HasMorePages reports whether another NextPage call may yield rows.
func (p *RowPager) HasMorePages() bool {
	return !p.done && p.err == nil
}

// NextPage fetches the next page of rows. It returns nil once the scan is
// exhausted.
func (p *RowPager) NextPage() ([]Row, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.done {
		return nil, nil
	}

	rows, next, err := p.fetch(p.ctx, p.token)
	if err != nil {
		p.err = err
		return nil, err
	}

	p.token = next
	if next == "" {
		p.done = true
	}
	return rows, nil
}

// All drains the pager and returns every remaining row.
func (p *RowPager) All() ([]Row, error) {
	var rows []Row
	for p.HasMorePages() {
		page, err := p.NextPage()
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
	}
	return rows, nil
}
