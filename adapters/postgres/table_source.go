package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"featprep/adapters/datareadiness/coercer"
	"featprep/domain/table"
	"featprep/internal"
	"featprep/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// tableSource loads a raw table from a SQL query. The query must order its
// rows temporally; row order is taken as returned.
type tableSource struct {
	db       *sqlx.DB
	query    string
	args     []interface{}
	coercion coercer.CoercionConfig
	log      *internal.Logger
}

// Open connects to PostgreSQL using a lib/pq connection string
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewTableSource creates a TableSource running query with args
func NewTableSource(db *sqlx.DB, coercion coercer.CoercionConfig, logger *internal.Logger, query string, args ...interface{}) ports.TableSource {
	return &tableSource{
		db:       db,
		query:    query,
		args:     args,
		coercion: coercion,
		log:      internal.OrDefault(logger, "postgres"),
	}
}

// Load runs the query and coerces the result set into a typed table
func (s *tableSource) Load(ctx context.Context) (*table.Table, error) {
	rows, err := s.db.QueryxContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw table: %w", err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var raw []map[string]string
	for rows.Next() {
		cells, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(raw), err)
		}
		raw = append(raw, rowToStrings(headers, cells))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	s.log.Info("query returned %d rows, %d columns", len(raw), len(headers))

	tbl, issues, err := coercer.NewTypeCoercer(s.coercion).BuildTable(headers, raw)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		s.log.Warn("%d cells did not match their column type and were read as missing", len(issues))
	}
	return tbl, nil
}

// rowToStrings renders driver values as raw cells; NULL becomes empty
func rowToStrings(headers []string, cells []interface{}) map[string]string {
	out := make(map[string]string, len(headers))
	for i, h := range headers {
		if i >= len(cells) {
			break
		}
		switch v := cells[i].(type) {
		case nil:
			out[h] = ""
		case []byte:
			out[h] = string(v)
		case string:
			out[h] = v
		case int64:
			out[h] = strconv.FormatInt(v, 10)
		case float64:
			out[h] = strconv.FormatFloat(v, 'g', -1, 64)
		case bool:
			out[h] = strconv.FormatBool(v)
		case time.Time:
			out[h] = v.Format(time.RFC3339Nano)
		default:
			out[h] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
