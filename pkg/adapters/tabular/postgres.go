package tabular

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// identifierPattern restricts table names to plain SQL identifiers; the
// table name is interpolated into the query and must never carry quoting
// or punctuation.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresRecordStore serves structured-record lookups from a Postgres
// database.
type PostgresRecordStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresRecordStore wraps an existing pool.
func NewPostgresRecordStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresRecordStore {
	return &PostgresRecordStore{
		pool:   pool,
		logger: logger.Named("record-store"),
	}
}

// LoadTable reads every row of the named table into schema-flexible rows.
func (s *PostgresRecordStore) LoadTable(ctx context.Context, name string) ([]models.Row, error) {
	if !identifierPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT * FROM %q`, name))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var out []models.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", name, err)
		}
		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = toValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}

	s.logger.Debug("Loaded table",
		zap.String("table", name),
		zap.Int("rows", len(out)))
	return out, nil
}

// Close releases the underlying pool.
func (s *PostgresRecordStore) Close() {
	s.pool.Close()
}

// toValue maps a driver value into the cell union.
func toValue(v any) models.Value {
	switch x := v.(type) {
	case nil:
		return models.NullValue
	case string:
		return models.StringValue(x)
	case bool:
		return models.BoolValue(x)
	case int64:
		return models.NumberValue(float64(x))
	case int32:
		return models.NumberValue(float64(x))
	case int16:
		return models.NumberValue(float64(x))
	case float64:
		return models.NumberValue(x)
	case float32:
		return models.NumberValue(float64(x))
	case []byte:
		return models.StringValue(string(x))
	default:
		return models.StringValue(fmt.Sprint(x))
	}
}

var _ RecordStore = (*PostgresRecordStore)(nil)
