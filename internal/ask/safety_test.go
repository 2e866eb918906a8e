package ask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafe(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{"simple select", "SELECT * FROM providers", true},
		{"lowercase with whitespace", "  select drg_cd from providers limit 5", true},
		{"trailing semicolon", "SELECT 1;", true},
		{"several trailing semicolons", "SELECT 1;;", true},
		{"stacked drop", "SELECT * FROM providers; DROP TABLE providers;", false},
		{"stacked delete lowercase", "select 1;delete from providers", false},
		{"stacked select", "SELECT 1; SELECT 2", false},
		{"comment", "SELECT * FROM providers -- WHERE 1=0", false},
		{"extended procedure", "SELECT xp_cmdshell('dir')", false},
		{"system procedure", "SELECT * FROM sp_who", false},
		{"update", "UPDATE providers SET drg_cd = 1", false},
		{"with clause", "WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"empty", "", false},
		{"semicolon inside", "SELECT ';' FROM providers", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSafe(tc.sql))
		})
	}
}
