package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "placeholders kept",
			query: "SELECT id FROM budgets WHERE user_id = $1 AND id = $12",
			want:  "SELECT id FROM budgets WHERE user_id = $1 AND id = $12",
		},
		{
			name:  "string literal replaced",
			query: "SELECT 1 FROM users WHERE email = 'a@b.c' AND name = 'O''Brien'",
			want:  "SELECT ? FROM users WHERE email = '?' AND name = '?'",
		},
		{
			name:  "numbers replaced but identifiers kept",
			query: "SELECT col1 FROM t2 WHERE amount > 10.50 LIMIT 5",
			want:  "SELECT col1 FROM t2 WHERE amount > ? LIMIT ?",
		},
		{
			name:  "whitespace collapsed",
			query: "\n\t\tSELECT id\n\t\tFROM accounts\n",
			want:  "SELECT id FROM accounts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeQuery(tt.query); got != tt.want {
				t.Errorf("sanitizeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeQuery_Truncates(t *testing.T) {
	got := sanitizeQuery("SELECT " + strings.Repeat("x", 400))
	if len(got) != 256+len("...") || !strings.HasSuffix(got, "...") {
		t.Errorf("sanitizeQuery() length = %d", len(got))
	}
}

func TestExtractSQLVerb(t *testing.T) {
	tests := map[string]string{
		"select 1":                "SELECT",
		"\n  INSERT INTO budgets": "INSERT",
		"UPDATE\taccounts SET":    "UPDATE",
		"":                        "",
	}
	for q, want := range tests {
		if got := extractSQLVerb(q); got != want {
			t.Errorf("extractSQLVerb(%q) = %q, want %q", q, got, want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "budgets_user_id_category_key"}
	fk := &pq.Error{Code: "23503"}

	if !isUniqueViolation(fmt.Errorf("insert: %w", dup)) {
		t.Error("wrapped 23505 should be a unique violation")
	}
	if isUniqueViolation(fk) {
		t.Error("23503 is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain error is not a unique violation")
	}
}
