package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[int64]*models.User
	err   error
	calls int
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type failingStore struct{ MemoryTokenStore }

func (*failingStore) Load() (string, bool, error) { return "", false, errors.New("disk on fire") }

type guardFixture struct {
	clock *fakeClock
	codec *TokenCodec
	store *MemoryTokenStore
	users *fakeUsers
	guard *Guard
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	f := &guardFixture{
		clock: &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		store: NewMemoryTokenStore(),
		users: &fakeUsers{users: map[int64]*models.User{
			1: userWithRole(1, RoleAdmin),
			2: userWithRole(2, RoleCommercial),
			3: userWithRole(3, RoleSupport),
		}},
	}
	f.codec = newTestCodec(t, f.clock)
	f.guard = NewGuard(f.store, f.codec, f.users, logging.Nop())
	return f
}

func (f *guardFixture) loginAs(t *testing.T, id int64) {
	t.Helper()
	tok, err := f.codec.Issue(id, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.Save(tok))
}

// handler records whether it ran
func recordingHandler(ran *bool) Handler[string] {
	return func(ctx context.Context, actor *models.User) (string, error) {
		*ran = true
		fromCtx, ok := ActorFrom(ctx)
		if !ok || fromCtx != actor {
			return "", errors.New("actor missing from context")
		}
		return actor.Email, nil
	}
}

func TestGuard_NoTokenRequiresAuthentication(t *testing.T) {
	f := newGuardFixture(t)
	ran := false

	_, err := Run(context.Background(), f.guard, Require(ReadClient), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrAuthenticationRequired)
	assert.False(t, ran)
	assert.Zero(t, f.users.calls)
}

func TestGuard_ExpiredTokenCollapsesToAuthenticationRequired(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 1)
	f.clock.Advance(31 * time.Minute)
	ran := false

	_, err := Run(context.Background(), f.guard, Require(ReadClient), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrAuthenticationRequired)
	assert.False(t, errors.Is(err, common.ErrPermissionDenied))
	assert.False(t, ran)
}

func TestGuard_InvalidTokenCollapsesToAuthenticationRequired(t *testing.T) {
	f := newGuardFixture(t)
	require.NoError(t, f.store.Save("garbage"))
	ran := false

	_, err := Run(context.Background(), f.guard, Require(ReadClient), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrAuthenticationRequired)
	assert.False(t, ran)
}

func TestGuard_UnknownSubject(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 404)
	ran := false

	_, err := Run(context.Background(), f.guard, Require(ReadClient), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrAuthenticationRequired)
	assert.False(t, ran)
}

func TestGuard_LookupFailureIsStorageError(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 1)
	f.users.err = errors.New("connection reset")
	ran := false

	_, err := Run(context.Background(), f.guard, Require(ReadClient), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrStorage)
	assert.False(t, ran)
}

func TestGuard_TokenStoreFailureIsStorageError(t *testing.T) {
	f := newGuardFixture(t)
	g := NewGuard(&failingStore{}, f.codec, f.users, logging.Nop())

	_, err := g.Authenticate(context.Background())
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestGuard_PermissionGranted(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 3)
	ran := false

	got, err := Run(context.Background(), f.guard, Require(ReadContract), recordingHandler(&ran))

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, "u@epic.test", got)
}

func TestGuard_PermissionDeniedWithoutOwnership(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 3)
	ran := false

	_, err := Run(context.Background(), f.guard, Require(UpdateContract), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.False(t, ran)
}

func TestGuard_OwnershipAdmitsAssignedContact(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 2)
	client := &models.Client{ID: 5, SalesContactID: ptr(2)}
	ran := false

	_, err := Run(context.Background(), f.guard, RequireOrOwner(UpdateClient, Subjects{Client: client}), recordingHandler(&ran))

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestGuard_OwnershipRejectsOthers(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 3)
	contract := &models.Contract{ID: "c-1", SalesContactID: ptr(2)}
	ran := false

	_, err := Run(context.Background(), f.guard, RequireOrOwner(UpdateContract, Subjects{Contract: contract}), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.False(t, ran)
}

func TestGuard_OwnershipWithoutSubjectsDenies(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 3)
	ran := false

	_, err := Run(context.Background(), f.guard, RequireOrOwner(UpdateEvent, Subjects{}), recordingHandler(&ran))

	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.False(t, ran)
}

func TestGuard_AuthenticatedOnlyRule(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 3)

	u, err := f.guard.Check(context.Background(), Rule{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
}

func TestProtect_ReturnsHandlerResultUnchanged(t *testing.T) {
	f := newGuardFixture(t)
	f.loginAs(t, 1)
	boom := errors.New("handler failed")

	op := Protect(f.guard, Require(DeleteClient), func(ctx context.Context, actor *models.User) (int, error) {
		return 17, boom
	})
	got, err := op(context.Background())

	assert.Equal(t, 17, got)
	assert.Same(t, boom, err)
}

func TestActorFrom_Empty(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)
}

func TestGuard_AuthorizeAfterLoadingSubjects(t *testing.T) {
	f := newGuardFixture(t)
	support := f.users.users[3]
	event := &models.Event{ID: 1, SupportContactID: ptr(3)}

	assert.NoError(t, f.guard.Authorize(context.Background(), support, RequireOrOwner(UpdateEvent, Subjects{Event: event})))

	event.SupportContactID = ptr(9)
	err := f.guard.Authorize(context.Background(), support, RequireOrOwner(UpdateEvent, Subjects{Event: event}))
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	err = f.guard.Authorize(context.Background(), nil, Rule{})
	assert.ErrorIs(t, err, common.ErrAuthenticationRequired)
	assert.Zero(t, f.users.calls, "Authorize never resolves users")
}
