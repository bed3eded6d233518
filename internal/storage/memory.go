package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps records in process memory. It is safe for
// concurrent use and loses everything on restart.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  uint
	records map[uint]Record
	now     func() time.Time
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[uint]Record),
		now:     time.Now,
	}
}

// Save assigns an id and timestamps, then stores a copy of record.
func (r *MemoryRepository) Save(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	record.ID = r.nextID
	record.CreatedAt = now
	record.UpdatedAt = now
	r.records[record.ID] = clone(*record)
	return nil
}

// Find returns the record with the given id.
func (r *MemoryRepository) Find(ctx context.Context, id uint) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := clone(record)
	return &found, nil
}

// List returns one page of records, newest first.
func (r *MemoryRepository) List(ctx context.Context, page, perPage int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	page, perPage = normalizePaging(page, perPage)

	r.mu.RLock()
	all := make([]Record, 0, len(r.records))
	for _, record := range r.records {
		all = append(all, clone(record))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return newPage(all[start:end], page, perPage, total), nil
}

// UpdateMetadata changes the labels on an existing record.
func (r *MemoryRepository) UpdateMetadata(ctx context.Context, id uint, meta Metadata) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !meta.Empty() {
		meta.Apply(&record)
		record.UpdatedAt = r.now()
		r.records[id] = record
	}
	updated := clone(record)
	return &updated, nil
}

// Delete removes the record with the given id.
func (r *MemoryRepository) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

// Close is a no-op.
func (r *MemoryRepository) Close() error {
	return nil
}

func clone(record Record) Record {
	if record.CustomerName != nil {
		name := *record.CustomerName
		record.CustomerName = &name
	}
	return record
}
