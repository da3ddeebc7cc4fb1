// Package repository provides a typed entity layer over the partitioned
// table store. A Repository binds an entity type to a table through a
// Codec (entity <-> row) and a KeyResolver (lookup key -> composite key).
package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stocktracker-backend/infrastructure/persistence/tablestore"
	"stocktracker-backend/pkg/errors"
)

// KeyResolver maps a typed lookup key onto the store's composite key.
type KeyResolver[K any] interface {
	ResolvePartition(key K) string
	ResolveRow(key K) string
}

// Codec converts between entities and store rows. ToRow must fill the
// row's partition and row keys from the entity itself.
type Codec[E any] interface {
	ToRow(entity E) (tablestore.Row, error)
	FromRow(row tablestore.Row) (E, error)
}

// Repository is the generic CRUD surface shared by all entity stores.
type Repository[E any, K any] struct {
	store  tablestore.Store
	keys   KeyResolver[K]
	codec  Codec[E]
	logger *zap.Logger
}

// New creates a repository over the given store.
func New[E any, K any](store tablestore.Store, keys KeyResolver[K], codec Codec[E], logger *zap.Logger) *Repository[E, K] {
	return &Repository[E, K]{
		store:  store,
		keys:   keys,
		codec:  codec,
		logger: logger,
	}
}

// Store exposes the underlying table store for specialized queries.
func (r *Repository[E, K]) Store() tablestore.Store {
	return r.store
}

// Create persists a new entity, failing when its key is already taken.
func (r *Repository[E, K]) Create(ctx context.Context, entity E) error {
	row, err := r.codec.ToRow(entity)
	if err != nil {
		return err
	}
	return r.store.Create(ctx, row)
}

// Update replaces an existing entity wholesale.
func (r *Repository[E, K]) Update(ctx context.Context, entity E) error {
	row, err := r.codec.ToRow(entity)
	if err != nil {
		return err
	}
	return r.store.Replace(ctx, row)
}

// Delete removes the row backing the given entity.
func (r *Repository[E, K]) Delete(ctx context.Context, entity E) error {
	row, err := r.codec.ToRow(entity)
	if err != nil {
		return err
	}
	return r.store.Delete(ctx, row.PartitionKey, row.RowKey)
}

// DeleteByKey removes the row addressed by the lookup key.
func (r *Repository[E, K]) DeleteByKey(ctx context.Context, key K) error {
	return r.store.Delete(ctx, r.keys.ResolvePartition(key), r.keys.ResolveRow(key))
}

// DeleteAll removes every row of a partition in batches. It reports true
// when the partition is empty afterwards; a paging or batch failure
// partway through returns false with the error.
func (r *Repository[E, K]) DeleteAll(ctx context.Context, partition string) (bool, error) {
	pager := r.store.ScanPartition(ctx, partition)
	for pager.HasMorePages() {
		page, err := pager.NextPage()
		if err != nil {
			return false, err
		}
		if len(page) == 0 {
			continue
		}
		if err := r.store.DeleteBatch(ctx, page); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Exists reports whether the entity addressed by key is stored.
func (r *Repository[E, K]) Exists(ctx context.Context, key K) (bool, error) {
	return r.store.Exists(ctx, r.keys.ResolvePartition(key), r.keys.ResolveRow(key))
}

// GetByKey fetches and decodes the entity addressed by key.
func (r *Repository[E, K]) GetByKey(ctx context.Context, key K) (E, error) {
	return r.GetByPartitionAndRow(ctx, r.keys.ResolvePartition(key), r.keys.ResolveRow(key))
}

// GetByPartitionAndRow fetches an entity by its raw composite key.
func (r *Repository[E, K]) GetByPartitionAndRow(ctx context.Context, partition, row string) (E, error) {
	var zero E
	stored, err := r.store.Get(ctx, partition, row)
	if err != nil {
		return zero, err
	}
	entity, err := r.codec.FromRow(stored)
	if err != nil {
		return zero, errors.Wrapf(err, "decode row (%s, %s)", partition, row)
	}
	return entity, nil
}

// GetAllPartitions returns the distinct partition keys starting with
// pattern, compared case-insensitively. An empty pattern lists every
// partition of the table.
func (r *Repository[E, K]) GetAllPartitions(ctx context.Context, pattern string) ([]string, error) {
	return r.store.ScanPartitionsWithPrefix(ctx, pattern)
}

// GetRowKeysInPartition lists the row keys of one partition.
func (r *Repository[E, K]) GetRowKeysInPartition(ctx context.Context, partition string) ([]string, error) {
	rows, err := r.store.ScanPartition(ctx, partition).All()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.RowKey)
	}
	return keys, nil
}

// GetAllInPartition fetches and decodes every entity of one partition.
func (r *Repository[E, K]) GetAllInPartition(ctx context.Context, partition string) ([]E, error) {
	rows, err := r.store.ScanPartition(ctx, partition).All()
	if err != nil {
		return nil, err
	}
	return r.decodeRows(rows)
}

// GetModifiedBefore fetches every entity whose row was last modified at
// or before the cutoff, across all partitions.
func (r *Repository[E, K]) GetModifiedBefore(ctx context.Context, cutoff time.Time) ([]E, error) {
	rows, err := r.store.ScanOlderThan(ctx, cutoff).All()
	if err != nil {
		return nil, err
	}
	return r.decodeRows(rows)
}

func (r *Repository[E, K]) decodeRows(rows []tablestore.Row) ([]E, error) {
	entities := make([]E, 0, len(rows))
	for _, row := range rows {
		entity, err := r.codec.FromRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "decode row (%s, %s)", row.PartitionKey, row.RowKey)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
