package metadata

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. It backs memory:// URLs and
// tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Init(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Insert(ctx context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.ID == r.ID {
			return fmt.Errorf("duplicate id %s", r.ID)
		}
		if existing.Live() && r.Live() && existing.Key == r.Key && existing.Type == r.Type {
			return fmt.Errorf("%s (%s): %w", r.Key, r.Type, ErrConflict)
		}
	}
	m.records = append(m.records, r)
	return nil
}

func (m *MemoryStore) FindLive(ctx context.Context, key, typ string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.Live() && r.Key == key && r.Type == typ {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%s (%s): %w", key, typ, ErrNotFound)
}

func (m *MemoryStore) Update(ctx context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.records {
		if existing.ID == r.ID && existing.Live() {
			m.records[i] = r
			return nil
		}
	}
	return fmt.Errorf("id %s: %w", r.ID, ErrNotFound)
}

func (m *MemoryStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.records {
		if existing.ID == id && existing.Live() {
			m.records[i].DeletedAt = &at
			return nil
		}
	}
	return fmt.Errorf("id %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) Purge(ctx context.Context, key, typ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.records)
	m.records = slices.DeleteFunc(m.records, func(r Record) bool {
		return r.Key == key && r.Type == typ
	})
	return int64(before - len(m.records)), nil
}

func (m *MemoryStore) List(ctx context.Context, opts ListOptions) ([]Record, int, error) {
	m.mu.RLock()
	var matched []Record
	for _, r := range m.records {
		if matches(r, opts) {
			matched = append(matched, r)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Record) int {
		c := 0
		if opts.SortBy == "" {
			c = -a.CreatedAt.Compare(b.CreatedAt)
			if c == 0 {
				c = -cmp.Compare(a.ID, b.ID)
			}
			return c
		}
		c = compareField(a, b, opts.SortBy)
		if opts.Desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})

	total := len(matched)
	if opts.NonPaginated {
		return matched, total, nil
	}
	start := min(opts.Offset(), total)
	end := min(start+opts.Limit(), total)
	return matched[start:end], total, nil
}

func (m *MemoryStore) Types(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var types []string
	for _, r := range m.records {
		if !slices.Contains(types, r.Type) {
			types = append(types, r.Type)
		}
	}
	slices.Sort(types)
	return types, nil
}

func matches(r Record, opts ListOptions) bool {
	switch opts.Status {
	case StatusDeleted:
		if r.Live() {
			return false
		}
	case StatusAll:
	default:
		if !r.Live() {
			return false
		}
	}
	if opts.Type != "" && r.Type != opts.Type {
		return false
	}
	if opts.KeyContains != "" && !containsFold(r.Key, opts.KeyContains) {
		return false
	}
	if opts.Search != "" &&
		!containsFold(r.Key, opts.Search) &&
		!containsFold(r.Title, opts.Search) &&
		!containsFold(r.Description, opts.Search) &&
		!containsFold(r.Keywords, opts.Search) {
		return false
	}
	if !opts.From.IsZero() && r.CreatedAt.Before(opts.From) {
		return false
	}
	if !opts.To.IsZero() && !r.CreatedAt.Before(opts.To) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func compareField(a, b Record, field string) int {
	switch field {
	case "key":
		return cmp.Compare(a.Key, b.Key)
	case "type":
		return cmp.Compare(a.Type, b.Type)
	case "title":
		return cmp.Compare(a.Title, b.Title)
	case "version":
		return cmp.Compare(a.Version, b.Version)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

var _ Store = (*MemoryStore)(nil)
