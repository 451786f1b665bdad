package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/worktime-api/internal/database"
	"github.com/yukikurage/worktime-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// Claim assigns a free task of the given department to userID
func (r *GormTaskRepository) Claim(ctx context.Context, taskID, userID uint64, department string, at models.Timestamp) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND taken_by IS NULL AND department = ?", taskID, department).
		Updates(map[string]any{
			"taken_by": userID,
			"taken_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotApplied
	}
	return nil
}

// Complete stamps completed_at on a task claimed by userID
func (r *GormTaskRepository) Complete(ctx context.Context, taskID, userID uint64, at models.Timestamp) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND taken_by = ?", taskID, userID).
		Update("completed_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL counts unchanged rows as unaffected, so re-check the match.
		matched, err := r.matches(ctx, "id = ? AND taken_by = ?", taskID, userID)
		if err != nil {
			return err
		}
		if !matched {
			return ErrNotApplied
		}
	}
	return nil
}

// Adjust sets the point value and the review comment in place
func (r *GormTaskRepository) Adjust(ctx context.Context, taskID uint64, points int, comment string) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]any{
			"points":         points,
			"adjust_comment": comment,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		matched, err := r.matches(ctx, "id = ?", taskID)
		if err != nil {
			return err
		}
		if !matched {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (r *GormTaskRepository) matches(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Task{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Forward copies a task into another department as a fresh free task.
// The source row stays locked until the duplicate check and the insert commit.
func (r *GormTaskRepository) Forward(ctx context.Context, taskID uint64, department string, points int) (*models.Task, error) {
	var forwarded *models.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source models.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&source, taskID).Error; err != nil {
			return err
		}

		var duplicates int64
		err := tx.Model(&models.Task{}).
			Where("department = ? AND title = ? AND description = ? AND assigned_by = ? AND created_at = ?",
				department, source.Title, source.Description, source.AssignedBy, source.CreatedAt).
			Count(&duplicates).Error
		if err != nil {
			return err
		}
		if duplicates > 0 {
			return nil
		}

		task := &models.Task{
			Title:       source.Title,
			Description: source.Description,
			Points:      points,
			Department:  department,
			AssignedBy:  source.AssignedBy,
			CreatedAt:   source.CreatedAt,
		}
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		forwarded = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return forwarded, nil
}

// List retrieves tasks visible under the filter, newest first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("tasks.department = ?", filter.Department).
		Scopes(database.InMonth("tasks.created_at", filter.MonthPrefix))

	if filter.FreeOrTakenBy != nil {
		query = query.Where("(tasks.taken_by IS NULL OR tasks.taken_by = ?)", *filter.FreeOrTakenBy)
	}
	if filter.FreeOnly {
		query = query.Where("tasks.taken_by IS NULL")
	}
	if filter.TakenBy != nil {
		query = query.Where("tasks.taken_by = ?", *filter.TakenBy)
	}
	if filter.ReviewedOnly {
		query = query.Where("tasks.adjust_comment IS NOT NULL")
	}

	var tasks []models.Task
	err := query.
		Preload("Creator").
		Preload("Taker").
		Order("tasks.created_at DESC, tasks.id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListCompletedBy lists tasks of a department completed by userID in a month, newest first
func (r *GormTaskRepository) ListCompletedBy(ctx context.Context, department string, userID uint64, monthPrefix string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("department = ? AND taken_by = ? AND completed_at IS NOT NULL", department, userID).
		Scopes(database.InMonth("completed_at", monthPrefix)).
		Order("completed_at DESC, id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// SumReviewedPoints sums points of reviewed tasks userID completed in a month
func (r *GormTaskRepository) SumReviewedPoints(ctx context.Context, userID uint64, monthPrefix string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Select("COALESCE(SUM(points), 0)").
		Where("taken_by = ? AND completed_at IS NOT NULL AND adjust_comment IS NOT NULL", userID).
		Scopes(database.InMonth("completed_at", monthPrefix)).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Departments lists the distinct departments tasks belong to
func (r *GormTaskRepository) Departments(ctx context.Context) ([]string, error) {
	var departments []string
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Distinct("department").
		Order("department ASC").
		Pluck("department", &departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}
