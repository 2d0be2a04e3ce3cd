package clients

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/epicevents/crm/internal/common"
	"github.com/epicevents/crm/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientColumns = []string{"id", "full_name", "email", "phone", "company_name", "creation_date", "last_update_date", "sales_contact_id"}

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewSQLRepository(db), mock
}

func ptr(v int64) *int64 { return &v }

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	q := `(?s)^INSERT\s+INTO\s+clients\s*\(full_name,\s*email,\s*phone,\s*company_name,\s*creation_date,\s*last_update_date,\s*sales_contact_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+id$`
	mock.ExpectQuery(q).
		WithArgs("Kevin Casey", "kevin@startup.io", "+678 123 456 78", "Cool Startup LLC", now, now, int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	c := &models.Client{
		FullName: "Kevin Casey", Email: "kevin@startup.io", Phone: "+678 123 456 78",
		CompanyName: "Cool Startup LLC", CreationDate: now, LastUpdateDate: now, SalesContactID: ptr(2),
	}
	got, err := repo.Create(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
}

func TestCreate_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^INSERT\s+INTO\s+clients`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(`^INSERT\s+INTO\s+clients`).
		WillReturnError(errors.New("disk full"))

	_, err := repo.Create(context.Background(), &models.Client{Email: "dup@x.io"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = repo.Create(context.Background(), &models.Client{Email: "new@x.io"})
	assert.ErrorContains(t, err, "db error: disk full")
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*sales_contact_id\s+FROM\s+clients\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(clientColumns).
			AddRow(int64(1), "Kevin Casey", "kevin@startup.io", "123", "Cool Startup", created, updated, nil))
	mock.ExpectQuery(`(?s)FROM\s+clients\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	want := &models.Client{
		ID: 1, FullName: "Kevin Casey", Email: "kevin@startup.io", Phone: "123",
		CompanyName: "Cool Startup", CreationDate: created, LastUpdateDate: updated,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("client mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.GetByID(context.Background(), 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE\s+LOWER\(email\)\s*=\s*LOWER\(\$1\)$`).
		WithArgs("Kevin@Startup.io").
		WillReturnRows(sqlmock.NewRows(clientColumns).
			AddRow(int64(1), "Kevin", "kevin@startup.io", "", "", time.Now(), time.Now(), int64(3)))

	got, err := repo.GetByEmail(context.Background(), "Kevin@Startup.io")
	require.NoError(t, err)
	require.NotNil(t, got.SalesContactID)
	assert.Equal(t, int64(3), *got.SalesContactID)
}

func TestList(t *testing.T) {
	tests := []struct {
		name  string
		f     Filter
		query string
		args  []driver.Value
	}{
		{name: "all", query: `(?s)FROM\s+clients\s+ORDER\s+BY\s+id$`},
		{name: "by contact", f: Filter{SalesContactID: ptr(2)}, query: `(?s)WHERE\s+sales_contact_id\s*=\s*\$1\s+ORDER\s+BY\s+id$`, args: []driver.Value{int64(2)}},
		{name: "unassigned", f: Filter{Unassigned: true}, query: `(?s)WHERE\s+sales_contact_id\s+IS\s+NULL\s+ORDER\s+BY\s+id$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			e := mock.ExpectQuery(tt.query)
			if tt.args != nil {
				e.WithArgs(tt.args...)
			} else {
				e.WithoutArgs()
			}
			e.WillReturnRows(sqlmock.NewRows(clientColumns).
				AddRow(int64(1), "A", "a@x.io", "", "", time.Now(), time.Now(), int64(2)))

			got, err := repo.List(context.Background(), tt.f)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestList_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^SELECT`).WillReturnError(errors.New("gone"))

	_, err := repo.List(context.Background(), Filter{})
	assert.ErrorContains(t, err, "db error: gone")
}

func TestUpdate(t *testing.T) {
	q := `(?s)^UPDATE\s+clients\s+SET\s+full_name\s*=\s*\$1,\s*email\s*=\s*\$2,\s*phone\s*=\s*\$3,\s*company_name\s*=\s*\$4,\s*last_update_date\s*=\s*\$5,\s*sales_contact_id\s*=\s*\$6\s+WHERE\s+id\s*=\s*\$7$`
	now := time.Now()
	c := &models.Client{ID: 9, FullName: "K", Email: "k@x.io", Phone: "1", CompanyName: "C", LastUpdateDate: now, SalesContactID: ptr(5)}

	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(q).
		WithArgs("K", "k@x.io", "1", "C", now, int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Update(context.Background(), c))
	assert.ErrorIs(t, repo.Update(context.Background(), c), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^DELETE\s+FROM\s+clients\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), 4))
}
