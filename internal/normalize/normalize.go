// Package normalize implements the pure per-cell normalization of
// spec.md §4.7: decimals round to a configured precision, timestamps
// drop sub-second precision, and strings are optionally trimmed.
// Column-name case-folding (applied once per result set, not per row)
// also lives here since it shares the same configuration knobs.
//
// Grounded on the teacher's convertDatabaseValue (server/server.go),
// retargeted from burrowctl's JSON-friendly interface{} grab bag to
// spec.md §3's NormalizedValue sum type, and from MySQL's []byte/
// DatabaseTypeName() convention to generic database/sql values.
package normalize

import (
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/OmprakashShyamalan/querybench/internal/models"
)

// Options carries the configuration knobs normalization needs, decoupled
// from the full Config so this package has no dependency on config.
type Options struct {
	DecimalPrecision       int
	StripStrings           bool
	CaseInsensitiveColumns bool
}

// Columns case-folds a result set's column names once, per spec.md §4.7.
func Columns(opt Options, cols []string) []string {
	if !opt.CaseInsensitiveColumns {
		out := make([]string, len(cols))
		copy(out, cols)
		return out
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToLower(c)
	}
	return out
}

// Value normalizes a single scanned database value into a
// models.NormalizedValue. It is idempotent: re-normalizing an already
// normalized value (expressed back through this function's own input
// types) yields the same result.
func Value(opt Options, v any) models.NormalizedValue {
	switch t := v.(type) {
	case nil:
		return models.NormalizedValue{Kind: models.KindNull}
	case sql.NullString:
		if !t.Valid {
			return models.NormalizedValue{Kind: models.KindNull}
		}
		return textValue(opt, t.String)
	case sql.NullFloat64:
		if !t.Valid {
			return models.NormalizedValue{Kind: models.KindNull}
		}
		return numberValue(opt, t.Float64)
	case sql.NullInt64:
		if !t.Valid {
			return models.NormalizedValue{Kind: models.KindNull}
		}
		return models.NormalizedValue{Kind: models.KindInteger, Int: t.Int64}
	case sql.NullBool:
		if !t.Valid {
			return models.NormalizedValue{Kind: models.KindNull}
		}
		return models.NormalizedValue{Kind: models.KindBool, Bool: t.Bool}
	case sql.NullTime:
		if !t.Valid {
			return models.NormalizedValue{Kind: models.KindNull}
		}
		return timestampValue(t.Time)
	case time.Time:
		return timestampValue(t)
	case bool:
		return models.NormalizedValue{Kind: models.KindBool, Bool: t}
	case int64:
		return models.NormalizedValue{Kind: models.KindInteger, Int: t}
	case int:
		return models.NormalizedValue{Kind: models.KindInteger, Int: int64(t)}
	case float32:
		return numberValue(opt, float64(t))
	case float64:
		return numberValue(opt, t)
	case string:
		return textValue(opt, t)
	case []byte:
		return models.NormalizedValue{Kind: models.KindBytes, Bytes: append([]byte(nil), t...)}
	default:
		return models.NormalizedValue{Kind: models.KindText, Text: ""}
	}
}

func textValue(opt Options, s string) models.NormalizedValue {
	if opt.StripStrings {
		s = strings.TrimSpace(s)
	}
	return models.NormalizedValue{Kind: models.KindText, Text: s}
}

func numberValue(opt Options, f float64) models.NormalizedValue {
	precision := opt.DecimalPrecision
	if precision < 0 {
		precision = 0
	}
	mult := math.Pow(10, float64(precision))
	rounded := math.Round(f*mult) / mult
	return models.NormalizedValue{Kind: models.KindNumber, Num: rounded}
}

func timestampValue(t time.Time) models.NormalizedValue {
	zeroed := t.Truncate(time.Second)
	return models.NormalizedValue{Kind: models.KindTimestamp, Time: zeroed}
}
