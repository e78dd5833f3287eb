package repositories

import (
	"time"

	"github.com/juniorxam/vacina/internal/database"
)

// nullableDate renders an optional date column; nil stays NULL.
func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return database.FormatDate(*t)
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(row database.Row, col string) *int64 {
	if row[col] == nil {
		return nil
	}
	v := row.Int64(col)
	return &v
}
