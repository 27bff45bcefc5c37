package rewriter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewrite(t *testing.T) {
	cases := []struct {
		name  string
		query string
		n     int
		want  string
	}{
		{
			name:  "plain select",
			query: "SELECT id, name FROM t ORDER BY id",
			n:     100,
			want:  "SELECT TOP (100) id, name FROM t ORDER BY id",
		},
		{
			name:  "distinct preserved",
			query: "SELECT DISTINCT id FROM t ORDER BY id",
			n:     50,
			want:  "SELECT DISTINCT TOP (50) id FROM t ORDER BY id",
		},
		{
			name:  "leading CTE preserved",
			query: "WITH x AS (SELECT 1 AS v) SELECT v FROM x ORDER BY v",
			n:     10,
			want:  "WITH x AS (SELECT 1 AS v) SELECT TOP (10) v FROM x ORDER BY v",
		},
		{
			name:  "trailing semicolon and whitespace stripped",
			query: "SELECT id FROM t ORDER BY id;   ",
			n:     100,
			want:  "SELECT TOP (100) id FROM t ORDER BY id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Rewrite(tc.query, tc.n))
		})
	}
}

func TestRewrite_Idempotent(t *testing.T) {
	once := Rewrite("SELECT id FROM t ORDER BY id", 100)
	twice := Rewrite(once, 100)
	assert.Contains(t, twice, "TOP (100)")
}
