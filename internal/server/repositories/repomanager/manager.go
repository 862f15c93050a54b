package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cenkeeper/internal/dbx"
	"github.com/dmitrijs2005/cenkeeper/internal/server/repositories/devices"
	"github.com/dmitrijs2005/cenkeeper/internal/server/repositories/keys"
	"github.com/dmitrijs2005/cenkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/cenkeeper/internal/server/repositories/reports"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Devices(db dbx.DBTX) devices.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Reports(db dbx.DBTX) reports.Repository
	Keys(db dbx.DBTX) keys.Repository
}
