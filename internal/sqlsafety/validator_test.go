package sqlsafety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_RuleOrder(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		isSolution bool
		wantOk     bool
		wantReason string
	}{
		{
			name:   "happy path",
			query:  "SELECT id, name FROM t ORDER BY id",
			wantOk: true,
		},
		{
			name:   "WITH clause accepted",
			query:  "WITH x AS (SELECT 1) SELECT * FROM x ORDER BY 1",
			wantOk: true,
		},
		{
			name:       "must start with SELECT or WITH",
			query:      "UPDATE t SET x = 1",
			wantReason: "Query must start with SELECT or WITH.",
		},
		{
			name:       "trailing semicolon is fine",
			query:      "SELECT id FROM t ORDER BY id;  ",
			wantOk:     true,
		},
		{
			name:       "internal semicolon blocks multi-statement",
			query:      "SELECT * FROM t; DROP TABLE t ORDER BY id",
			wantReason: "Multi-statement queries are disallowed.",
		},
		{
			name:       "double-dash comment blocked",
			query:      "SELECT id FROM t ORDER BY id -- sneaky",
			wantReason: "Comments are not allowed in submitted SQL.",
		},
		{
			name:       "block comment blocked",
			query:      "SELECT id FROM t /* x */ ORDER BY id",
			wantReason: "Comments are not allowed in submitted SQL.",
		},
		{
			name:       "banned token DROP",
			query:      "SELECT id FROM t WHERE 1=1 ORDER BY id; DROP",
			wantReason: "Multi-statement queries are disallowed.",
		},
		{
			name:       "banned token alone",
			query:      "SELECT id FROM t WHERE EXEC(1) ORDER BY id",
			wantReason: "Query contains a disallowed keyword: EXEC.",
		},
		{
			name:       "missing ORDER BY participant",
			query:      "SELECT id FROM t",
			wantReason: "ORDER BY is required for a deterministic result.",
		},
		{
			name:       "missing ORDER BY solution",
			query:      "SELECT id FROM t",
			isSolution: true,
			wantReason: "Solution query must include an ORDER BY clause.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.query, tc.isSolution)
			if tc.wantOk {
				assert.True(t, got.Ok)
				assert.Empty(t, got.Reason)
				return
			}
			assert.False(t, got.Ok)
			assert.Equal(t, tc.wantReason, got.Reason)
		})
	}
}
