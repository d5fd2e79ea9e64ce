package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/imgajeed76/metatable/internal/datatable"
	"github.com/imgajeed76/metatable/internal/util"
)

// Service implements the metadata operations on top of a Store.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a service backed by store. A nil logger discards.
func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// timestamps keep microsecond precision, the finest both stores hold
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create validates in and stores it as a new record at version 1.0.
func (s *Service) Create(ctx context.Context, in Input) (Record, error) {
	log := s.log.With(zap.String("op", "create"), zap.String("key", in.Key), zap.String("type", in.Type))
	log.Info("creating metadata")

	if err := Validate(in); err != nil {
		return Record{}, err
	}

	switch _, err := s.store.FindLive(ctx, in.Key, in.Type); {
	case err == nil:
		return Record{}, fmt.Errorf("%s (%s): %w", in.Key, in.Type, ErrConflict)
	case !errors.Is(err, ErrNotFound):
		return Record{}, err
	}

	now := s.timestamp()
	rec := Record{
		ID:          util.NewID(now),
		Key:         in.Key,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Keywords:    in.Keywords,
		Version:     InitialVersion,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		log.Error("create failed", zap.Error(err))
		return Record{}, err
	}
	log.Debug("created metadata", zap.String("id", rec.ID))
	return rec, nil
}

// Get returns the live record for key and type.
func (s *Service) Get(ctx context.Context, key, typ string) (Record, error) {
	return s.store.FindLive(ctx, key, typ)
}

// Update applies p to the live record for key and type. When a field
// changes, the version goes up by 0.1 and the changes are returned;
// a patch that changes nothing leaves the record untouched.
func (s *Service) Update(ctx context.Context, key, typ string, p Patch) (Record, []FieldChange, error) {
	log := s.log.With(zap.String("op", "update"), zap.String("key", key), zap.String("type", typ))
	log.Info("updating metadata")

	current, err := s.store.FindLive(ctx, key, typ)
	if err != nil {
		return Record{}, nil, err
	}

	next := p.apply(current)
	if err := Validate(next.input()); err != nil {
		return Record{}, nil, err
	}

	changes := Changes(current, next)
	if len(changes) == 0 {
		log.Debug("nothing to update", zap.String("id", current.ID))
		return current, nil, nil
	}

	next.Version = NextVersion(current.Version)
	next.UpdatedAt = s.timestamp()
	if err := s.store.Update(ctx, next); err != nil {
		log.Error("update failed", zap.Error(err))
		return Record{}, nil, err
	}
	log.Debug("updated metadata", zap.String("id", next.ID), zap.Float64("version", next.Version))
	return next, changes, nil
}

// Delete soft-deletes the live record for key and type.
func (s *Service) Delete(ctx context.Context, key, typ string) error {
	log := s.log.With(zap.String("op", "delete"), zap.String("key", key), zap.String("type", typ))
	log.Info("deleting metadata")

	rec, err := s.store.FindLive(ctx, key, typ)
	if err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, rec.ID, s.timestamp()); err != nil {
		log.Error("delete failed", zap.Error(err))
		return err
	}
	return nil
}

// ForceDelete removes every record for key and type, soft-deleted ones
// included.
func (s *Service) ForceDelete(ctx context.Context, key, typ string) error {
	log := s.log.With(zap.String("op", "force-delete"), zap.String("key", key), zap.String("type", typ))
	log.Info("force deleting metadata")

	n, err := s.store.Purge(ctx, key, typ)
	if err != nil {
		log.Error("force delete failed", zap.Error(err))
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s (%s): %w", key, typ, ErrNotFound)
	}
	log.Debug("purged metadata", zap.Int64("rows", n))
	return nil
}

// List returns one page of records and the number of matching records.
func (s *Service) List(ctx context.Context, opts ListOptions) (datatable.Page[Record], error) {
	if opts.Status == "" {
		opts.Status = StatusActive
	}
	if opts.SortBy != "" {
		if _, ok := SortColumns[opts.SortBy]; !ok {
			opts.SortBy, opts.Desc = "", false
		}
	}
	rows, total, err := s.store.List(ctx, opts)
	if err != nil {
		return datatable.Page[Record]{}, err
	}
	return datatable.Page[Record]{Rows: rows, TotalCount: total}, nil
}

// Types returns the distinct types of all records, deleted ones included,
// sorted. Deleted-only types stay selectable in the type filter.
func (s *Service) Types(ctx context.Context) ([]string, error) {
	return s.store.Types(ctx)
}

// Fetch serves a data table query.
func (s *Service) Fetch(ctx context.Context, q datatable.Query) (datatable.Page[Record], error) {
	opts, err := ListOptionsFor(q)
	if err != nil {
		return datatable.Page[Record]{}, err
	}
	return s.List(ctx, opts)
}

var _ datatable.DataSource[Record] = (*Service)(nil)

// ImportFailure is a record that could not be imported.
type ImportFailure struct {
	Index int
	Key   string
	Type  string
	Err   error
}

// ImportResult summarizes an import.
type ImportResult struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    []ImportFailure
}

// Import reads a YAML document of records and creates or updates each one.
// Records that fail are collected in the result and do not stop the
// import. progress, when non-nil, is called after every record.
func (s *Service) Import(ctx context.Context, r io.Reader, progress func(done, total int)) (ImportResult, error) {
	inputs, err := DecodeYAML(r)
	if err != nil {
		return ImportResult{}, err
	}
	s.log.Info("importing metadata", zap.Int("records", len(inputs)))

	var res ImportResult
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.importOne(ctx, in, &res); err != nil {
			res.Failed = append(res.Failed, ImportFailure{Index: i, Key: in.Key, Type: in.Type, Err: err})
		}
		if progress != nil {
			progress(i+1, len(inputs))
		}
	}
	s.log.Info("import finished",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

func (s *Service) importOne(ctx context.Context, in Input, res *ImportResult) error {
	if err := Validate(in); err != nil {
		return err
	}
	_, err := s.store.FindLive(ctx, in.Key, in.Type)
	if errors.Is(err, ErrNotFound) {
		if _, err := s.Create(ctx, in); err != nil {
			return err
		}
		res.Created++
		return nil
	}
	if err != nil {
		return err
	}

	_, changes, err := s.Update(ctx, in.Key, in.Type, Patch{
		Title:       &in.Title,
		Description: &in.Description,
		Keywords:    &in.Keywords,
	})
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		res.Unchanged++
	} else {
		res.Updated++
	}
	return nil
}

// Export writes every record with the given status as YAML.
func (s *Service) Export(ctx context.Context, w io.Writer, status Status) (int, error) {
	page, err := s.List(ctx, ListOptions{NonPaginated: true, Status: status, SortBy: "key"})
	if err != nil {
		return 0, err
	}
	s.log.Info("exporting metadata", zap.Int("records", len(page.Rows)), zap.String("status", string(status)))
	return len(page.Rows), EncodeYAML(w, page.Rows)
}
