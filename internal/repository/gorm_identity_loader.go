package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormIdentityLoader reads identity rows from a table owned by the identity
// service. Only the configured columns are selected so credentials stored on
// the same table never leak into relation listings.
type GormIdentityLoader struct {
	db      *gorm.DB
	table   string
	columns []string
}

// NewGormIdentityLoader creates a loader for table. An empty column list
// selects every column.
func NewGormIdentityLoader(db *gorm.DB, table string, columns []string) *GormIdentityLoader {
	return &GormIdentityLoader{db: db, table: table, columns: columns}
}

// Load returns the identity rows for ids keyed by id. Unknown ids are absent.
func (l *GormIdentityLoader) Load(ctx context.Context, ids []string) (map[string]map[string]any, error) {
	records := make(map[string]map[string]any, len(ids))
	if len(ids) == 0 || l.table == "" {
		return records, nil
	}

	q := l.db.WithContext(ctx).Table(l.table).Where("id IN ?", ids)
	if len(l.columns) > 0 {
		q = q.Select(withID(l.columns))
	}

	var rows []map[string]any
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load identities from %s: %w", l.table, err)
	}

	for _, row := range rows {
		// mysql hands back text columns as bytes.
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		records[fmt.Sprint(row["id"])] = row
	}
	return records, nil
}

func withID(columns []string) []string {
	for _, c := range columns {
		if c == "id" {
			return columns
		}
	}
	return append([]string{"id"}, columns...)
}

var _ IdentityLoader = (*GormIdentityLoader)(nil)
