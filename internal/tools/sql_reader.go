package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxRows caps result sets forwarded to the verifier.
const DefaultMaxRows = 100

// PostgresReader executes read-only queries against a Postgres database so
// the verifier can check answers against real data.
type PostgresReader struct {
	pool    *pgxpool.Pool
	maxRows int
}

// ReaderOption configures a PostgresReader.
type ReaderOption func(*PostgresReader)

// WithMaxRows caps the number of rows returned per query.
func WithMaxRows(n int) ReaderOption {
	return func(r *PostgresReader) {
		r.maxRows = n
	}
}

// NewPostgresReader creates a reader on top of an existing connection pool.
// The caller owns the pool's lifecycle.
func NewPostgresReader(pool *pgxpool.Pool, options ...ReaderOption) *PostgresReader {
	r := &PostgresReader{
		pool:    pool,
		maxRows: DefaultMaxRows,
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Query runs a read-only SQL query.
// It expects an argument named "query" containing the SQL string.
func (r *PostgresReader) Query(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, ok := input["query"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid or missing query argument (expected string at key 'query')")
	}

	if reason := validateReadOnly(query); reason != "" {
		return map[string]interface{}{
			"success": false,
			"error":   reason,
		}, nil
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		}, nil
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	results := make([]map[string]interface{}, 0)
	truncated := false
	for rows.Next() {
		if len(results) >= r.maxRows {
			truncated = true
			break
		}

		values, err := rows.Values()
		if err != nil {
			return map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			}, nil
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		}, nil
	}

	return map[string]interface{}{
		"success":   true,
		"results":   results,
		"columns":   columns,
		"row_count": len(results),
		"truncated": truncated,
		"output":    fmt.Sprintf("%d row(s)", len(results)),
	}, nil
}

// validateReadOnly returns a non-empty reason unless the query is a plain
// SELECT (or a CTE resolving to one).
func validateReadOnly(query string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(query))
	if strings.HasPrefix(trimmed, "SELECT") || strings.HasPrefix(trimmed, "WITH") {
		return ""
	}
	return "only SELECT queries are allowed"
}
