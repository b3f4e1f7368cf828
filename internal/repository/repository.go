package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAmountTooLarge = errors.New("amount exceeds storage range")
)

type Repository struct {
	db     *sqlx.DB
	driver string
	sq     squirrel.StatementBuilderType
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Atomic runs fn in one database transaction. Any error from fn, including a
// stale snapshot detected by a versioned store, rolls everything back.
func (r *Repository) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	err = fn(&Tx{tx: tx, sq: r.sq})
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

// Tx exposes record operations bound to one transaction.
type Tx struct {
	tx *sqlx.Tx
	sq squirrel.StatementBuilderType
}

type Config struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

func New(cfg Config) (*Repository, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPgx
	}

	var dsn string
	switch driver {
	case DriverPgx, DriverPostgres:
		dsn = cfg.GetDatabaseURL()
	case DriverSQLite:
		dsn = cfg.Path
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return Open(driver, dsn)
}

// Open connects with an explicit driver name and data source.
func Open(driver, dsn string) (*Repository, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection turns lock
		// contention into ordinary queueing.
		db.SetMaxOpenConns(1)
	}

	err = db.Ping()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Named("repository").Info("Connected to database successfully", zap.String("driver", driver))

	return &Repository{
		db:     db,
		driver: driver,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(placeholderFor(driver)),
	}, nil
}

func placeholderFor(driver string) squirrel.PlaceholderFormat {
	if driver == DriverSQLite {
		return squirrel.Question
	}
	return squirrel.Dollar
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

// Storage columns are signed 64-bit; amounts and counters above that are
// refused rather than wrapped.
func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, ErrAmountTooLarge
	}
	return int64(v), nil
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
