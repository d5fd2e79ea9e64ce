// Package metadata manages page metadata records: the title, description
// and keywords published for one key and type. Records are versioned and
// soft-deleted; persistence is delegated to a Store.
package metadata

import (
	"context"
	"math"
	"time"
)

// Record is one metadata entry. Key and Type identify it among live
// records; ID is unique across all records, deleted ones included.
type Record struct {
	ID          string     `json:"id" yaml:"id,omitempty"`
	Key         string     `json:"key" yaml:"key"`
	Type        string     `json:"type" yaml:"type"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Keywords    string     `json:"keywords" yaml:"keywords"`
	Version     float64    `json:"version" yaml:"version,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updatedAt,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" yaml:"deletedAt,omitempty"`
}

// Live reports whether the record has not been soft-deleted.
func (r Record) Live() bool { return r.DeletedAt == nil }

// InitialVersion is the version of a freshly created record.
const InitialVersion = 1.0

// NextVersion is v plus one tenth, rounded to one decimal.
func NextVersion(v float64) float64 {
	return math.Round((v+0.1)*10) / 10
}

// Input holds the writable fields of a new record.
type Input struct {
	Key         string `json:"key" yaml:"key"`
	Type        string `json:"type" yaml:"type"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Keywords    string `json:"keywords" yaml:"keywords"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Keywords    *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Keywords == nil
}

func (p Patch) apply(r Record) Record {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Keywords != nil {
		r.Keywords = *p.Keywords
	}
	return r
}

// Status selects records by deletion state.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
	StatusAll     Status = "all"
)

// ListOptions describes one List call. Page is 1-based and Count is the
// page size; both are ignored when NonPaginated is set. From and To bound
// the creation time: From inclusive, To exclusive; zero means open.
type ListOptions struct {
	Page         int
	Count        int
	NonPaginated bool

	// SortBy is a sort column (see SortColumns); empty means newest first.
	SortBy string
	Desc   bool

	Search      string
	From        time.Time
	To          time.Time
	Type        string
	KeyContains string
	Status      Status
}

// DefaultCount is the page size used when ListOptions.Count is not positive.
const DefaultCount = 10

// Offset is the number of rows skipped before the page. It saturates at
// math.MaxInt instead of overflowing for huge page numbers.
func (o ListOptions) Offset() int {
	if o.NonPaginated {
		return 0
	}
	skipped, limit := max(o.Page, 1)-1, o.Limit()
	if skipped > math.MaxInt/limit {
		return math.MaxInt
	}
	return skipped * limit
}

// Limit is the page size, or 0 when unpaginated.
func (o ListOptions) Limit() int {
	if o.NonPaginated {
		return 0
	}
	if o.Count <= 0 {
		return DefaultCount
	}
	return o.Count
}

// SortColumns maps sortable table columns to database columns.
var SortColumns = map[string]string{
	"key":       "key",
	"type":      "type",
	"title":     "title",
	"version":   "version",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// Store persists records. Find and FindLive return ErrNotFound when no
// record matches; Insert returns ErrConflict when a live record with the
// same key and type exists.
type Store interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, r Record) error
	FindLive(ctx context.Context, key, typ string) (Record, error)
	Update(ctx context.Context, r Record) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	// Purge removes every record with key and type, deleted or not, and
	// returns how many were removed.
	Purge(ctx context.Context, key, typ string) (int64, error)
	List(ctx context.Context, opts ListOptions) ([]Record, int, error)
	Types(ctx context.Context) ([]string, error)
	Close() error
}
