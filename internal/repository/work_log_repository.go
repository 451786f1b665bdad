package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/worktime-api/internal/database"
	"github.com/yukikurage/worktime-api/internal/models"
)

// GormWorkLogRepository is a GORM implementation of WorkLogRepository
type GormWorkLogRepository struct {
	db *gorm.DB
}

// NewWorkLogRepository creates a new WorkLogRepository
func NewWorkLogRepository(db *gorm.DB) WorkLogRepository {
	return &GormWorkLogRepository{db: db}
}

var workLogKey = []clause.Column{{Name: "user_id"}, {Name: "date"}}

// Find returns the entry for a user and day
func (r *GormWorkLogRepository) Find(ctx context.Context, userID uint64, date models.Date) (*models.WorkLog, error) {
	var entry models.WorkLog
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).Take(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Replace overwrites the stored value and returns the value it replaced (0 when none)
func (r *GormWorkLogRepository) Replace(ctx context.Context, userID uint64, date models.Date, seconds int64, enteredBy uint64) (int64, error) {
	var previous int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.WorkLog
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND date = ?", userID, date).
			Take(&existing).Error
		switch {
		case err == nil:
			previous = existing.SecondsWorked
		case errors.Is(err, gorm.ErrRecordNotFound):
			previous = 0
		default:
			return err
		}

		entry := models.WorkLog{
			UserID:        userID,
			Date:          date,
			SecondsWorked: seconds,
			EnteredBy:     enteredBy,
		}
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   workLogKey,
				DoUpdates: clause.AssignmentColumns([]string{"hours_worked", "entered_by"}),
			}).
			Create(&entry).Error
	})
	if err != nil {
		return 0, translate(err)
	}

	return previous, nil
}

// Accumulate adds seconds to the stored value, creating the entry when missing
func (r *GormWorkLogRepository) Accumulate(ctx context.Context, userID uint64, date models.Date, seconds int64, enteredBy uint64) (*models.WorkLog, error) {
	var stored models.WorkLog

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.WorkLog{
			UserID:        userID,
			Date:          date,
			SecondsWorked: seconds,
			EnteredBy:     enteredBy,
		}
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns: workLogKey,
				DoUpdates: clause.Assignments(map[string]any{
					"hours_worked": gorm.Expr("work_logs.hours_worked + ?", seconds),
					"entered_by":   enteredBy,
				}),
			}).
			Create(&entry).Error
		if err != nil {
			return err
		}

		return tx.Where("user_id = ? AND date = ?", userID, date).Take(&stored).Error
	})
	if err != nil {
		return nil, translate(err)
	}

	return &stored, nil
}

// Insert creates the entry only when none exists
func (r *GormWorkLogRepository) Insert(ctx context.Context, entry *models.WorkLog) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error)
}

// ListForMonth returns report rows for a month ordered by department, username and date
func (r *GormWorkLogRepository) ListForMonth(ctx context.Context, filter WorkLogFilter) ([]WorkLogRow, error) {
	query := r.db.WithContext(ctx).
		Table("work_logs").
		Select("users.department AS department, users.username AS username, work_logs.date AS date, work_logs.hours_worked AS seconds_worked").
		Joins("JOIN users ON users.id = work_logs.user_id").
		Scopes(database.InMonth("work_logs.date", filter.MonthPrefix))

	switch {
	case filter.Username != "":
		query = query.Where("users.username = ?", filter.Username)
	case filter.Department != "":
		query = query.Where("users.department = ?", filter.Department)
	}

	var rows []WorkLogRow
	if err := query.Order("users.department ASC, users.username ASC, work_logs.date ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
