package warehouse

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	sqldocs "retailsynth/docs/schema/sql"
)

// DDL returns the embedded warehouse schema for dialect.
func DDL(d Dialect) (string, error) {
	switch d {
	case DialectSQLite:
		return sqldocs.SQLite, nil
	case DialectPostgres:
		return sqldocs.Postgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, d)
	}
}

// SplitStatements splits a semicolon-terminated DDL script into executable statements.
// It drops blank lines and single-line comments that start with "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}

// applyDDL runs every statement of the dialect's schema.
func applyDDL(ctx context.Context, exec func(ctx context.Context, stmt string) error, d Dialect) error {
	ddl, err := DDL(d)
	if err != nil {
		return err
	}
	for _, stmt := range SplitStatements(ddl) {
		if err := exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders into the dialect's syntax.
func rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
