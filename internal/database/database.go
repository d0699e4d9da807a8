package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/jengzang/geolife-backend-go/internal/config"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// sqlitePragmas are applied to every pooled sqlite connection
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate"

// DefaultBusyTimeoutMS is used when the config leaves the sqlite busy timeout unset
const DefaultBusyTimeoutMS = 10000

// DB is a connection pool plus the dialect it speaks
type DB struct {
	*sql.DB
	Driver string

	// held for the lifetime of a sqlite write transaction
	writeMu sync.Mutex
}

// Open connects to the configured store and verifies the connection
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	dsn := cfg.GetDSN()
	switch cfg.Driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn, cfg.BusyTimeoutMS)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB, Driver: cfg.Driver}
	log.Info("database connected",
		zap.String("driver", cfg.Driver),
		zap.String("server_version", db.serverVersion(ctx)))

	return db, nil
}

// New wraps an existing pool, mostly for tests
func New(sqlDB *sql.DB, driver string) *DB {
	return &DB{DB: sqlDB, Driver: driver}
}

func sqliteDSN(path string, busyTimeoutMS int) string {
	if busyTimeoutMS <= 0 {
		busyTimeoutMS = DefaultBusyTimeoutMS
	}
	pragmas := fmt.Sprintf("_pragma=busy_timeout(%d)&%s", busyTimeoutMS, sqlitePragmas)
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

func (db *DB) serverVersion(ctx context.Context) string {
	query := "SELECT sqlite_version()"
	if db.Driver == DriverPostgres {
		query = "SHOW server_version"
	}

	var version string
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "unknown"
	}
	return version
}

// Rebind rewrites ? placeholders into the dialect of the driver
func (db *DB) Rebind(query string) string {
	if db.Driver != DriverPostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Transaction executes a function within a database transaction.
// On sqlite, transactions of the same DB run one at a time.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	if db.Driver == DriverSQLite {
		db.writeMu.Lock()
		defer db.writeMu.Unlock()
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
