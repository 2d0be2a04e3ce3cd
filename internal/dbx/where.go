package dbx

import (
	"fmt"
	"strings"
)

// Where collects AND-ed conditions with numbered placeholders.
//
//	var w dbx.Where
//	w.Add("client_id = %s", id)
//	w.Raw("remaining_amount > 0")
//	rows, err := db.QueryContext(ctx, base+w.SQL()+" ORDER BY id", w.Args()...)
type Where struct {
	conds []string
	args  []any
	// Offset is the number of placeholders already used by the query.
	Offset int
}

// Add appends cond, whose single %s verb is replaced by the next $N.
func (w *Where) Add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", w.Offset+len(w.args))))
}

// Raw appends a condition without arguments.
func (w *Where) Raw(cond string) {
	w.conds = append(w.conds, cond)
}

// SQL returns " WHERE ..." or "" when no condition was added.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []any {
	return w.args
}
