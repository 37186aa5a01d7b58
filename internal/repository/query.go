package repository

import (
	"fmt"
	"strings"
	"time"
)

// pgWhere arma cláusulas WHERE con placeholders posicionales de Postgres.
type pgWhere struct {
	conds []string
	args  []interface{}
}

func (w *pgWhere) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *pgWhere) timeRange(column string, from, to *time.Time) {
	if from != nil {
		w.add(column+" >= $%d", *from)
	}
	if to != nil {
		w.add(column+" <= $%d", *to)
	}
}

func (w *pgWhere) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// limit agrega LIMIT como último argumento cuando n > 0.
func (w *pgWhere) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return fmt.Sprintf("LIMIT $%d", len(w.args))
}
