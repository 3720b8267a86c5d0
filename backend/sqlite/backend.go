package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// SQLiteBackend serves Database and ObjectStore from one SQLite database.
// Objects live in the extio_objects table next to the caller's own tables.
type SQLiteBackend struct {
	extio.UnimplementedBackend

	mu   sync.RWMutex
	db   *sql.DB
	path string

	options *Options
}

// NewSQLiteBackend creates a backend for the database at path. The path can
// be ":memory:" for a private in-memory database.
func NewSQLiteBackend(path string, opts ...Option) *SQLiteBackend {
	options := newDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &SQLiteBackend{
		path:    path,
		options: options,
	}
}

// Returns the identifier name defined for this backend
func (*SQLiteBackend) Name() string {
	return "sqlite"
}

// dsn appends the per-connection pragmas to the database path.
func (sb *SQLiteBackend) dsn() string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", sb.options.BusyTimeout.Milliseconds()),
	}
	if sb.options.ReadOnly {
		pragmas = append(pragmas, "_pragma=query_only(1)")
	}

	separator := "?"
	if strings.Contains(sb.path, "?") {
		separator = "&"
	}
	return sb.path + separator + strings.Join(pragmas, "&")
}

// Open connects to the database and creates the object table.
func (sb *SQLiteBackend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", sb.dsn())
	if err != nil {
		return err
	}
	if sb.path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	if !sb.options.ReadOnly {
		if sb.path != ":memory:" {
			if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
				db.Close()
				return err
			}
		}
		if err := initSchema(ctx, db); err != nil {
			db.Close()
			return err
		}
	}

	sb.db = db
	sb.options.Logger.Debug("opened sqlite database '%s'", sb.path)
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS extio_objects (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		data BLOB NOT NULL,
		modified INTEGER NOT NULL,
		PRIMARY KEY (bucket, key)
	);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func (sb *SQLiteBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.db == nil {
		return nil
	}

	err := sb.db.Close()
	sb.db = nil
	return err
}

func (sb *SQLiteBackend) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{
		Groups: []extio.CapabilityGroup{
			extio.GroupObjectStore,
			extio.GroupDatabase,
		},
		Settings: extio.Settings{
			ReadOnly:      sb.options.ReadOnly,
			MaxObjectSize: sb.options.MaxObjectSize,
		},
	}
}

func (sb *SQLiteBackend) ObjectStore() extio.ObjectStoreCapability {
	return &sqliteObjectStore{sb: sb}
}

func (sb *SQLiteBackend) Database() extio.DatabaseCapability {
	return &sqliteDatabase{sb: sb}
}

// conn returns the open database, or Unavailable before Open.
func (sb *SQLiteBackend) conn(op string) (*sql.DB, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if sb.db == nil {
		return nil, errors.Unavailable(op, "database is not open")
	}
	return sb.db, nil
}
