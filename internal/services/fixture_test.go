package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/models"
	"github.com/epicevents/crm/internal/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var testParams = auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

const testPassword = "Secret123"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fixture is a migrated and seeded in-memory database with one user per
// role plus a second commercial and support user.
type fixture struct {
	db    *sql.DB
	repos *repomanager.SQLRepositoryManager
	store *auth.MemoryTokenStore
	codec *auth.TokenCodec
	clock *fakeClock
	svc   *Services

	admin, manager, sales, sales2, support, support2 *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := dbx.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos, err := repomanager.NewSQLRepositoryManager(dialect, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, repos.RunMigrations(ctx, db))
	require.NoError(t, repos.Seed(ctx, db))

	f := &fixture{
		db:    db,
		repos: repos,
		store: auth.NewMemoryTokenStore(),
		clock: &fakeClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
	}
	f.codec, err = auth.NewTokenCodec([]byte("test-secret"), auth.WithClock(f.clock.Now))
	require.NoError(t, err)

	hasher := auth.NewHasher(testParams)
	guard := auth.NewGuard(f.store, f.codec, repomanager.NewUserLookup(db, repos), logging.Nop())
	f.svc = New(Deps{
		DB:       db,
		Repos:    repos,
		Guard:    guard,
		Hasher:   hasher,
		Codec:    f.codec,
		Store:    f.store,
		TokenTTL: 30 * time.Minute,
		Logger:   logging.Nop(),
		Clock:    f.clock.Now,
	})

	f.admin = f.addUser(t, hasher, "Ada Admin", "ada@epic.test", auth.RoleAdmin)
	f.manager = f.addUser(t, hasher, "Max Manager", "max@epic.test", auth.RoleManagement)
	f.sales = f.addUser(t, hasher, "Carla Commercial", "carla@epic.test", auth.RoleCommercial)
	f.sales2 = f.addUser(t, hasher, "Colin Commercial", "colin@epic.test", auth.RoleCommercial)
	f.support = f.addUser(t, hasher, "Sam Support", "sam@epic.test", auth.RoleSupport)
	f.support2 = f.addUser(t, hasher, "Sue Support", "sue@epic.test", auth.RoleSupport)
	return f
}

func (f *fixture) addUser(t *testing.T, hasher *auth.Hasher, name, email, role string) *models.User {
	t.Helper()
	ctx := context.Background()
	r, err := f.repos.Roles(f.db).GetByName(ctx, role)
	require.NoError(t, err)
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	u, err := f.repos.Users(f.db).Create(ctx, &models.User{
		FullName: name, Email: email, PasswordHash: hash, Role: r, CreatedAt: f.clock.Now(),
	})
	require.NoError(t, err)
	return u
}

// loginAs puts a valid token for u in the store without going through
// credential checks.
func (f *fixture) loginAs(t *testing.T, u *models.User) {
	t.Helper()
	tok, err := f.codec.Issue(u.ID, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.Save(tok))
}

func (f *fixture) logout(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Clear())
}

// newClient creates a client owned by owner.
func (f *fixture) newClient(t *testing.T, owner *models.User, email string) *models.Client {
	t.Helper()
	f.loginAs(t, owner)
	c, err := f.svc.Clients.Create(context.Background(), ClientInput{
		FullName: "Kevin Casey", Email: email, Phone: "+678 123 456 78", CompanyName: "Cool Startup LLC",
	})
	require.NoError(t, err)
	return c
}

// newContract creates a contract for client as the manager.
func (f *fixture) newContract(t *testing.T, client *models.Client, total float64, status string) *models.Contract {
	t.Helper()
	f.loginAs(t, f.manager)
	c, err := f.svc.Contracts.Create(context.Background(), client.ID, total, status)
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }
