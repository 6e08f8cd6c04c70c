// Package explorer runs ad-hoc read-only SQL against the dataset database.
package explorer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxRows caps result sets when no explicit limit is configured.
const DefaultMaxRows = 500

// ErrNotReadOnly rejects statements other than SELECT or WITH queries.
type ErrNotReadOnly struct {
	Statement string
}

func (e ErrNotReadOnly) Error() string {
	return fmt.Sprintf("only SELECT queries are allowed, got %q", e.Statement)
}

// Result holds a bounded query result.
type Result struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}

// Service executes explorer queries with a read-only guard and a row cap.
type Service struct {
	db      *sql.DB
	maxRows int
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMaxRows overrides the result row cap.
func WithMaxRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates an explorer over the shared dataset database.
func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:      db,
		maxRows: DefaultMaxRows,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Query validates the statement, runs it, and returns up to maxRows rows.
// Truncated is set when more rows were available than the cap allows.
func (s *Service) Query(ctx context.Context, statement string) (*Result, error) {
	cleaned, err := validate(statement)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	result := &Result{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		if len(result.Rows) >= s.maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(result.Rows)+1, err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result: %w", err)
	}

	result.RowCount = len(result.Rows)

	s.logger.Debug("explorer query",
		zap.Int("rows", result.RowCount),
		zap.Bool("truncated", result.Truncated),
	)

	return result, nil
}

// validate enforces a single SELECT or WITH statement. A trailing semicolon
// is tolerated and stripped.
func validate(statement string) (string, error) {
	cleaned := strings.TrimSpace(statement)
	cleaned = strings.TrimSuffix(cleaned, ";")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", ErrNotReadOnly{Statement: statement}
	}
	if strings.ContainsRune(cleaned, ';') {
		return "", fmt.Errorf("multiple statements are not allowed")
	}

	first := strings.ToLower(strings.Fields(cleaned)[0])
	if first != "select" && first != "with" {
		return "", ErrNotReadOnly{Statement: firstWords(cleaned, 3)}
	}

	return cleaned, nil
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}

	return strings.Join(fields, " ")
}
