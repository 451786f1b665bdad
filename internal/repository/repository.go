package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/utils"
)

var (
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("repository: duplicate record")
	// ErrNotApplied is returned when a conditional update matched no row.
	ErrNotApplied = errors.New("repository: conditional update not applied")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByToken finds a user by their device access token
	FindByToken(ctx context.Context, token string) (*models.User, error)

	// TokenExists reports whether any user already holds the token
	TokenExists(ctx context.Context, token string) (bool, error)

	// List retrieves users with an optional department filter and pagination
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	// UsernamesByDepartment lists usernames of a department in alphabetical order
	UsernamesByDepartment(ctx context.Context, department string) ([]string, error)

	// Departments lists the distinct departments users belong to
	Departments(ctx context.Context) ([]string, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Department string
	Pagination utils.PaginationParams
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// Claim assigns a free task of the given department to userID.
	// Returns ErrNotApplied when the task is no longer free or belongs elsewhere.
	Claim(ctx context.Context, taskID, userID uint64, department string, at models.Timestamp) error

	// Complete stamps completed_at on a task claimed by userID.
	// Returns ErrNotApplied when the task is not claimed by userID.
	Complete(ctx context.Context, taskID, userID uint64, at models.Timestamp) error

	// Adjust sets the point value and the review comment in place
	Adjust(ctx context.Context, taskID uint64, points int, comment string) error

	// Forward copies a task into another department as a fresh free task.
	// It returns nil without error when an identical copy already exists there.
	Forward(ctx context.Context, taskID uint64, department string, points int) (*models.Task, error)

	// List retrieves tasks visible under the filter, newest first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// ListCompletedBy lists tasks of a department completed by userID in a month, newest first
	ListCompletedBy(ctx context.Context, department string, userID uint64, monthPrefix string) ([]models.Task, error)

	// SumReviewedPoints sums points of reviewed tasks userID completed in a month
	SumReviewedPoints(ctx context.Context, userID uint64, monthPrefix string) (int, error)

	// Departments lists the distinct departments tasks belong to
	Departments(ctx context.Context) ([]string, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Department  string
	MonthPrefix string
	// FreeOrTakenBy keeps free tasks plus tasks claimed by this user
	FreeOrTakenBy *uint64
	FreeOnly      bool
	TakenBy       *uint64
	ReviewedOnly  bool
}

// WorkLogRepository defines the interface for work-log data access
type WorkLogRepository interface {
	// Find returns the entry for a user and day
	Find(ctx context.Context, userID uint64, date models.Date) (*models.WorkLog, error)

	// Replace overwrites the stored value and returns the value it replaced (0 when none)
	Replace(ctx context.Context, userID uint64, date models.Date, seconds int64, enteredBy uint64) (int64, error)

	// Accumulate adds seconds to the stored value, creating the entry when missing
	Accumulate(ctx context.Context, userID uint64, date models.Date, seconds int64, enteredBy uint64) (*models.WorkLog, error)

	// Insert creates the entry only when none exists.
	// Returns ErrDuplicate when the day has already been recorded.
	Insert(ctx context.Context, entry *models.WorkLog) error

	// ListForMonth returns report rows for a month ordered by department, username and date
	ListForMonth(ctx context.Context, filter WorkLogFilter) ([]WorkLogRow, error)
}

// WorkLogFilter narrows the monthly report; Username takes precedence over Department
type WorkLogFilter struct {
	MonthPrefix string
	Department  string
	Username    string
}

// WorkLogRow is one work-log entry joined with its owner
type WorkLogRow struct {
	Department    string
	Username      string
	Date          models.Date
	SecondsWorked int64
}
