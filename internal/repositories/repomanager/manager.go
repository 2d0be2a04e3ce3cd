// Package repomanager vends repositories bound to a DBTX and owns the
// schema lifecycle: goose migrations and the role/permission seed.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/migrations"
	"github.com/epicevents/crm/internal/repositories/clients"
	"github.com/epicevents/crm/internal/repositories/contracts"
	"github.com/epicevents/crm/internal/repositories/events"
	"github.com/epicevents/crm/internal/repositories/roles"
	"github.com/epicevents/crm/internal/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Seed(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Clients(db dbx.DBTX) clients.Repository
	Contracts(db dbx.DBTX) contracts.Repository
	Events(db dbx.DBTX) events.Repository
}

// SQLRepositoryManager serves both PostgreSQL and SQLite; only the
// migration set differs between dialects.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
	logger  logging.Logger
}

func NewSQLRepositoryManager(dialect dbx.Dialect, logger logging.Logger) (*SQLRepositoryManager, error) {
	switch dialect {
	case dbx.Postgres, dbx.SQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &SQLRepositoryManager{dialect: dialect, logger: logger}, nil
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Roles(db dbx.DBTX) roles.Repository {
	return roles.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Clients(db dbx.DBTX) clients.Repository {
	return clients.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Contracts(db dbx.DBTX) contracts.Repository {
	return contracts.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Events(db dbx.DBTX) events.Repository {
	return events.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// gooseDialect maps a dialect to goose's name for it and the embedded
// migration directory.
func gooseDialect(d dbx.Dialect) (name, dir string) {
	if d == dbx.SQLite {
		return "sqlite3", "sqlite"
	}
	return "pgx", "postgres"
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	name, dir := gooseDialect(m.dialect)

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(&gooseLogger{ctx: ctx, logger: m.logger})
	if err := goose.SetDialect(name); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return err
	}
	return nil
}

// Seed installs the default roles, the permission catalogue and the grants
// between them. Running it again changes nothing.
func (m *SQLRepositoryManager) Seed(ctx context.Context, db *sql.DB) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.Roles(tx)

		permIDs := make(map[string]int64, len(auth.AllPermissions))
		for _, name := range auth.AllPermissions {
			id, err := repo.EnsurePermission(ctx, name)
			if err != nil {
				return fmt.Errorf("seed permission %s: %w", name, err)
			}
			permIDs[name] = id
		}

		for _, role := range auth.RoleNames() {
			roleID, err := repo.EnsureRole(ctx, role)
			if err != nil {
				return fmt.Errorf("seed role %s: %w", role, err)
			}
			for _, perm := range auth.DefaultRoles[role] {
				if err := repo.Grant(ctx, roleID, permIDs[perm]); err != nil {
					return fmt.Errorf("grant %s to %s: %w", perm, role, err)
				}
			}
			m.logger.Debug(ctx, "seeded role", "role", role, "permissions", len(auth.DefaultRoles[role]))
		}
		return nil
	})
}

// gooseLogger routes goose output to the application logger.
type gooseLogger struct {
	ctx    context.Context
	logger logging.Logger
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(l.ctx, fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(l.ctx, fmt.Sprintf(format, v...))
}
