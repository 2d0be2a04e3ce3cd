package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/repositories/clients"
	"github.com/epicevents/crm/internal/repositories/contracts"
	"github.com/epicevents/crm/internal/repositories/events"
	"github.com/epicevents/crm/internal/repositories/roles"
	"github.com/epicevents/crm/internal/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, d dbx.Dialect) *SQLRepositoryManager {
	t.Helper()
	m, err := NewSQLRepositoryManager(d, logging.Nop())
	require.NoError(t, err)
	return m
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, dialect, err := dbx.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	require.Equal(t, dbx.SQLite, dialect)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewSQLRepositoryManager(t *testing.T) {
	_, err := NewSQLRepositoryManager("oracle", logging.Nop())
	assert.Error(t, err)

	m := newManager(t, dbx.Postgres)
	var _ RepositoryManager = m
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := newManager(t, dbx.Postgres)

	var _ users.Repository = m.Users(db)
	var _ roles.Repository = m.Roles(db)
	var _ clients.Repository = m.Clients(db)
	var _ contracts.Repository = m.Contracts(db)
	var _ events.Repository = m.Events(db)
	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.Events(db))
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var dirs []string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		dirs = append(dirs, dir)
		return nil
	}

	require.NoError(t, newManager(t, dbx.Postgres).RunMigrations(context.Background(), db))
	require.NoError(t, newManager(t, dbx.SQLite).RunMigrations(context.Background(), db))
	assert.Equal(t, []string{"postgres", "sqlite"}, dirs)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err = newManager(t, dbx.Postgres).RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "boom")
}

func TestMigrateAndSeed_SQLite(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	m := newManager(t, dbx.SQLite)

	require.NoError(t, m.RunMigrations(ctx, db))
	require.NoError(t, m.Seed(ctx, db))
	// idempotent
	require.NoError(t, m.RunMigrations(ctx, db))
	require.NoError(t, m.Seed(ctx, db))

	got, err := m.Roles(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(auth.DefaultRoles))
	for _, role := range got {
		assert.ElementsMatch(t, auth.DefaultRoles[role.Name], role.Permissions, role.Name)
	}

	var grants int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM role_permissions`).Scan(&grants))
	want := 0
	for _, perms := range auth.DefaultRoles {
		want += len(perms)
	}
	assert.Equal(t, want, grants)
}

func TestUserLookup(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	m := newManager(t, dbx.SQLite)
	require.NoError(t, m.RunMigrations(ctx, db))
	require.NoError(t, m.Seed(ctx, db))

	role, err := m.Roles(db).GetByName(ctx, auth.RoleCommercial)
	require.NoError(t, err)
	created, err := m.Users(db).Create(ctx, &models.User{
		FullName:     "Carla Commercial",
		Email:        "carla@epic.test",
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	lookup := NewUserLookup(db, m)
	var _ auth.UserLookup = lookup

	u, err := lookup.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "carla@epic.test", u.Email)
	assert.Equal(t, auth.RoleCommercial, u.RoleName())
	assert.True(t, auth.HasPermission(u, auth.CreateClient))
	assert.False(t, auth.HasPermission(u, auth.UpdateClient))

	_, err = lookup.GetUserByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
