package normalize

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/OmprakashShyamalan/querybench/internal/models"
)

func opts() Options {
	return Options{DecimalPrecision: 4, StripStrings: true, CaseInsensitiveColumns: true}
}

func TestValue_Null(t *testing.T) {
	assert.Equal(t, models.KindNull, Value(opts(), nil).Kind)
	assert.Equal(t, models.KindNull, Value(opts(), sql.NullString{}).Kind)
}

func TestValue_DecimalRounding(t *testing.T) {
	v := Value(opts(), 1.00005)
	assert.Equal(t, models.KindNumber, v.Kind)
	assert.InDelta(t, 1.0001, v.Num, 1e-9)
}

func TestValue_TimestampZeroesSubSecond(t *testing.T) {
	ts := time.Date(2026, 7, 29, 10, 30, 0, 123456000, time.UTC)
	v := Value(opts(), ts)
	assert.Equal(t, models.KindTimestamp, v.Kind)
	assert.Zero(t, v.Time.Nanosecond())
}

func TestValue_StripStrings(t *testing.T) {
	v := Value(opts(), "  hello  ")
	assert.Equal(t, "hello", v.Text)

	noStrip := Value(Options{}, "  hello  ")
	assert.Equal(t, "  hello  ", noStrip.Text)
}

func TestValue_Idempotent(t *testing.T) {
	first := Value(opts(), 1.00005)
	// Re-normalizing the already-normalized float must be a no-op.
	second := Value(opts(), first.Num)
	assert.True(t, first.Equal(second))
}

func TestColumns_CaseFold(t *testing.T) {
	cols := Columns(opts(), []string{"Id", "NAME"})
	assert.Equal(t, []string{"id", "name"}, cols)

	cols = Columns(Options{CaseInsensitiveColumns: false}, []string{"Id", "NAME"})
	assert.Equal(t, []string{"Id", "NAME"}, cols)
}
