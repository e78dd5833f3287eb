package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowGetters(t *testing.T) {
	row := Row{
		"name":    "ANA",
		"raw":     []byte("bytes"),
		"count":   int64(7),
		"ratio":   0.5,
		"active":  int64(1),
		"at":      "2024-03-10 12:30:00",
		"on":      "2024-03-10",
		"parsed":  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		"missing": nil,
	}

	assert.Equal(t, "ANA", row.String("name"))
	assert.Equal(t, "bytes", row.String("raw"))
	assert.Equal(t, "", row.String("missing"))
	assert.Equal(t, "7", row.String("count"))
	assert.Equal(t, int64(7), row.Int64("count"))
	assert.Equal(t, 7, row.Int("count"))
	assert.Equal(t, 0.5, row.Float64("ratio"))
	assert.True(t, row.Bool("active"))
	assert.False(t, row.Bool("missing"))
	assert.Equal(t, time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC), row.Time("at"))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), row.Time("on"))
	assert.Equal(t, "2024-03-10 09:00:00", row.String("parsed"))
	assert.Nil(t, row.TimePtr("missing"))
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := &Table{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{int64(1), []byte("x")}},
	}

	cp := orig.Clone()
	cp.Columns[0] = "z"
	cp.Rows[0][0] = int64(2)
	cp.Rows[0][1].([]byte)[0] = 'y'

	assert.Equal(t, "a", orig.Columns[0])
	assert.Equal(t, int64(1), orig.Rows[0][0])
	assert.Equal(t, []byte("x"), orig.Rows[0][1])
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := time.Date(2024, 3, 10, 21, 15, 0, 0, loc)

	assert.Equal(t, "2024-03-11 00:15:00", FormatTime(ts))
	assert.Equal(t, "2024-03-10", FormatDate(ts))
}
