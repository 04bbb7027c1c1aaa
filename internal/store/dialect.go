package store

import "fmt"

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// PrimaryKeyDDL returns the column definition for the integer
	// autoincrement primary key.
	PrimaryKeyDDL() string

	// ReturningClause returns " RETURNING <col>" where the database
	// hands back generated ids on INSERT, or "" where the id comes
	// from LastInsertId.
	ReturningClause(col string) string

	// MapError inspects a driver error and returns a well-known
	// sentinel error if applicable.
	MapError(err error) error
}

// ParamBuilder accumulates query parameters and generates
// dialect-specific placeholders.
type ParamBuilder interface {
	// Add appends a value and returns the placeholder string.
	Add(v any) string

	// Params returns all accumulated parameter values.
	Params() []any
}

// NewDialect creates a Dialect for the given driver name.
func NewDialect(driver string) Dialect {
	switch driver {
	case "postgres":
		return &PostgresDialect{}
	default:
		return &SQLiteDialect{}
	}
}

// --- PostgreSQL ParamBuilder ---

type pgParamBuilder struct {
	params []any
	n      int
}

func (p *pgParamBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("$%d", p.n)
}

func (p *pgParamBuilder) Params() []any { return p.params }

// --- SQLite ParamBuilder ---

type sqliteParamBuilder struct {
	params []any
	n      int
}

func (p *sqliteParamBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("?%d", p.n)
}

func (p *sqliteParamBuilder) Params() []any { return p.params }
