package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imgajeed76/metatable/internal/datatable"
	"github.com/imgajeed76/metatable/internal/db"
	"github.com/imgajeed76/metatable/internal/db/sqlite"
	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/util"
)

// commandTimeout bounds every non-interactive command.
const commandTimeout = 60 * time.Second

// OpenStore opens the metadata store named by the database URL:
// postgres:// and postgresql:// use PostgreSQL, sqlite:// a SQLite file
// (sqlite://:memory: for a throwaway one) and memory:// an in-process store.
func OpenStore(ctx context.Context, url string) (metadata.Store, error) {
	if url == "" {
		return nil, util.NoDatabaseError()
	}

	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return nil, unsupportedURL(url)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		conn, err := db.Connect(ctx, url)
		if err != nil {
			return nil, util.DatabaseConnectionError(url, err)
		}
		return db.NewMetadataStore(conn), nil

	case "sqlite":
		store, err := sqlite.Open(rest)
		if err != nil {
			return nil, util.DatabaseConnectionError(url, err)
		}
		return store, nil

	case "memory":
		return metadata.NewMemoryStore(), nil
	}
	return nil, unsupportedURL(url)
}

func unsupportedURL(url string) error {
	return util.NewError("Unsupported database URL").
		WithContext(util.RedactURL(url)).
		WithMessage("Expected postgres://, sqlite:// or memory://").
		WithSuggestions("metatable config database.url sqlite://metadata.db").
		Wrap(util.ErrUnsupportedURL)
}

// openService connects to the configured store. Caller must call the
// returned close function.
func openService(ctx context.Context) (*metadata.Service, func(), error) {
	store, err := OpenStore(ctx, current.dbURL)
	if err != nil {
		return nil, nil, err
	}
	current.log.Debug("store opened", zap.String("url", util.RedactURL(current.dbURL)))

	closeFn := func() {
		if err := store.Close(); err != nil {
			current.log.Warn("closing store", zap.Error(err))
		}
	}
	return metadata.NewService(store, current.log), closeFn, nil
}

// explain turns service errors into the structured errors shown to users.
func explain(err error, key, typ string) error {
	if err == nil {
		return nil
	}

	var mtErr *util.MetatableError
	var validation *metadata.ValidationError
	switch {
	case errors.As(err, &mtErr):
		return err
	case errors.Is(err, util.ErrSchemaMissing):
		return util.SchemaMissingError(err)
	case errors.As(err, &validation):
		return util.ValidationFailedError(validation.Messages(), err)
	case errors.Is(err, metadata.ErrNotFound):
		return util.RecordNotFoundError(key, typ, err)
	case errors.Is(err, metadata.ErrConflict):
		return util.ConflictError(key, typ, err)
	}
	return err
}

// newMetadataTable builds the metadata table, offering the stored types in
// the type filter and restoring the state from a --view location.
func newMetadataTable(ctx context.Context, svc *metadata.Service, view string) (*datatable.Table[metadata.Record], error) {
	types, err := svc.Types(ctx)
	if err != nil {
		return nil, explain(err, "", "")
	}

	tbl := datatable.NewTable(metadata.Columns(), current.cfg.TableOptions(metadata.Filters(types)))
	if view != "" {
		values, err := datatable.ParseLocation(view)
		if err != nil {
			return nil, util.InvalidLocationError(view, err)
		}
		tbl.Store().Initialize(values, 0)
	}
	return tbl, nil
}

// recordArgs validates the KEY TYPE positional arguments.
func recordArgs(example string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		switch {
		case len(args) == 0:
			return util.MissingArgumentError("key", example)
		case len(args) == 1:
			return util.MissingArgumentError("type", example)
		case len(args) > 2:
			return util.TooManyArgumentsError(2, len(args))
		}
		return nil
	}
}

func recordName(key, typ string) string {
	return fmt.Sprintf("%s (%s)", key, typ)
}

// confirm asks a yes/no question on in; anything but y/yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
