// Package storage bootstraps the device-local SQLite database and vends
// the repository set bound to it.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cenkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/cenkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cenkeeper/internal/client/repositories/observations"
	"github.com/dmitrijs2005/cenkeeper/internal/client/repositories/ownkeys"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Observations observations.Repository
	OwnKeys      ownkeys.Repository
	Metadata     metadata.Repository
	DB           *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	repos := &Repositories{
		Observations: observations.NewSQLiteRepository(db),
		OwnKeys:      ownkeys.NewSQLiteRepository(db),
		Metadata:     metadata.NewSQLiteRepository(db),
		DB:           db,
	}
	return repos, nil
}
