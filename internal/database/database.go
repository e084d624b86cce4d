// Package database opens the bun connection pools behind the activity journal.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/config"
)

const pingTimeout = 5 * time.Second

// ErrEmptyDSN is returned when the journal is enabled without a writer DSN.
var ErrEmptyDSN = errors.New("empty DSN")

// Connections bundles writer and reader bun instances for the activity
// journal. Both are nil when the journal is disabled.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Enabled reports whether a journal database is configured.
func (c *Connections) Enabled() bool {
	return c != nil && c.Writer != nil
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// driver pairs a bun dialect with the database/sql opener for it. The
// sqlite driver is not linked by default; binaries that select it must
// register a "sqlite3" database/sql driver.
type driver struct {
	dialect func() schema.Dialect
	open    func(dsn string) (*sql.DB, error)
}

var drivers = map[string]driver{
	"postgres": {
		dialect: func() schema.Dialect { return pgdialect.New() },
		open: func(dsn string) (*sql.DB, error) {
			return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
		},
	},
	"mysql": {
		dialect: func() schema.Dialect { return mysqldialect.New() },
		open:    func(dsn string) (*sql.DB, error) { return sql.Open("mysql", dsn) },
	},
	"sqlite": {
		dialect: func() schema.Dialect { return sqlitedialect.New() },
		open:    func(dsn string) (*sql.DB, error) { return sql.Open("sqlite3", dsn) },
	},
}

// New opens the journal pools. A blank reader DSN shares the writer pool.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	if !cfg.Database.Enabled {
		logger.Info("activity journal database disabled")
		return &Connections{}, nil
	}

	d, err := lookupDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	writer, err := openPool(d, cfg.Database.WriterDSN, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader := writer
	if dsn := readerDSN(cfg.Database); dsn != cfg.Database.WriterDSN {
		if reader, err = openPool(d, dsn, cfg.Database); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("open reader: %w", err)
		}
	}

	conns := &Connections{Writer: writer, Reader: reader}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ping(ctx, writer); err != nil {
				return fmt.Errorf("ping writer: %w", err)
			}
			if reader != writer {
				if err := ping(ctx, reader); err != nil {
					return fmt.Errorf("ping reader: %w", err)
				}
			}
			logger.Info("activity journal connected",
				zap.String("driver", cfg.Database.Driver),
				zap.Bool("separate_reader", reader != writer),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			return conns.Close()
		},
	})

	return conns, nil
}

// Close releases both pools.
func (c *Connections) Close() error {
	if !c.Enabled() {
		return nil
	}
	var closeErr error
	if err := c.Writer.Close(); err != nil {
		closeErr = fmt.Errorf("close writer: %w", err)
	}
	if c.Reader != nil && c.Reader != c.Writer {
		if err := c.Reader.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close reader: %w", err))
		}
	}
	return closeErr
}

func lookupDriver(name string) (driver, error) {
	d, ok := drivers[name]
	if !ok {
		return driver{}, fmt.Errorf("unsupported database driver: %s", name)
	}
	return d, nil
}

func readerDSN(cfg config.Database) string {
	if cfg.ReaderDSN == "" {
		return cfg.WriterDSN
	}
	return cfg.ReaderDSN
}

func openPool(d driver, dsn string, cfg config.Database) (*bun.DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	sqlDB, err := d.open(dsn)
	if err != nil {
		return nil, err
	}
	applyPoolSettings(sqlDB, cfg)
	return bun.NewDB(sqlDB, d.dialect()), nil
}

func applyPoolSettings(db *sql.DB, cfg config.Database) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}

func ping(ctx context.Context, db *bun.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(pingCtx)
}
