package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Driver       string        `envconfig:"DRIVER" default:"memory" validate:"oneof=postgres sqlite memory"`
	DSN          string        `envconfig:"DSN" default:"file:erp.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"`
	MaxOpenConns int           `split_words:"true" default:"10" validate:"gte=1"`
	ConnTimeout  time.Duration `split_words:"true" default:"5s"`
	AutoMigrate  bool          `split_words:"true" default:"true"`
	Seed         bool          `split_words:"true" default:"false"`
}

// Open connects to the configured relational database. The memory driver
// has no database and returns an error here.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	var db *bun.DB
	switch cfg.Driver {
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(cfg.DSN),
			pgdriver.WithTimeout(cfg.ConnTimeout),
		))
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("driver %q has no database connection", cfg.Driver)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// NewStore returns the store for the configured driver plus a close func.
// Migrations and seeding run here when enabled.
func NewStore(ctx context.Context, cfg Config) (storex.Store, func() error, error) {
	if cfg.Driver == DriverMemory {
		st := storex.NewMemoryStore()
		if err := st.Seed(ctx, storex.DemoFixture()); err != nil {
			return nil, nil, err
		}
		log.Info().Str("driver", cfg.Driver).Msg("memory store seeded with demo data")
		return st, func() error { return nil }, nil
	}

	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := storex.Migrate(ctx, db.DB, cfg.Driver); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}

	st := storex.NewBunStore(db)
	if cfg.Seed {
		if err := st.Seed(ctx, storex.DemoFixture()); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Str("driver", cfg.Driver).Msg("database seeded with demo data")
	}
	return st, db.Close, nil
}
