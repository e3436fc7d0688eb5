package implementation

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/pkg/store"
)

type TabularRepositoryImpl struct {
	db *gorm.DB
}

func NewTabularRepository(db *gorm.DB) contract.TabularRepository {
	return &TabularRepositoryImpl{db: db}
}

// ExecuteReadOnly runs a single SELECT statement. The statement-type guard
// here is the engine's own defense; the pipeline performs its stricter
// keyword check before the statement ever reaches this method.
func (r *TabularRepositoryImpl) ExecuteReadOnly(ctx context.Context, sql string, rowCap int) (*store.SQLResult, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return nil, fmt.Errorf("tabular engine accepts SELECT statements only")
	}
	if rowCap <= 0 {
		rowCap = 10000
	}

	rows, err := r.db.WithContext(ctx).Raw(trimmed).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &store.SQLResult{
		Statement: trimmed,
		Columns:   columns,
	}

	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if result.RowCount >= rowCap {
			result.Truncated = true
			break
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = stringify(v)
		}
		result.Rows = append(result.Rows, record)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
