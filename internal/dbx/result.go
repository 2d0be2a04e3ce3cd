package dbx

import (
	"database/sql"
	"fmt"

	"github.com/epicevents/crm/internal/common"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ExpectOne turns an update or delete that touched no row into
// common.ErrorNotFound.
func ExpectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
