package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/worktime-api/internal/models"
)

// AddIndexes adds the indexes used by the month-scoped listings.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		name    string
		columns []string
	}{
		{"idx_tasks_department_created_at", []string{"department", "created_at"}},
		{"idx_tasks_completed_at", []string{"completed_at"}},
		// effective dedup key of forwarded copies
		{"idx_tasks_forward_key", []string{"department", "assigned_by", "created_at"}},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", zap.String("index", idx.name), zap.Strings("columns", idx.columns))
	}

	return nil
}
