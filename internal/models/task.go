package models

import "gorm.io/gorm"

// TaskState is derived from the nullable lifecycle columns; it is never stored.
type TaskState string

const (
	TaskStateFree      TaskState = "free"
	TaskStateTaken     TaskState = "taken"
	TaskStateCompleted TaskState = "completed"
	TaskStateReviewed  TaskState = "reviewed"
)

type Task struct {
	ID          uint64 `gorm:"primarykey" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Points      int    `gorm:"not null;default:0" json:"points"`
	Department  string `gorm:"type:varchar(255);not null" json:"department"`
	AssignedBy  uint64 `gorm:"not null;index" json:"assigned_by"`
	// CreatedAt is set explicitly by the lifecycle engine and copied verbatim
	// onto forwarded tasks, so gorm must not overwrite it.
	CreatedAt     Timestamp  `gorm:"type:varchar(19);not null;autoCreateTime:false" json:"created_at"`
	TakenBy       *uint64    `gorm:"index" json:"taken_by"`
	TakenAt       *Timestamp `gorm:"type:varchar(19)" json:"taken_at"`
	CompletedAt   *Timestamp `gorm:"type:varchar(19)" json:"completed_at"`
	AdjustComment *string    `gorm:"type:text" json:"adjust_comment"`

	// Relations
	Creator User  `gorm:"foreignKey:AssignedBy" json:"-"`
	Taker   *User `gorm:"foreignKey:TakenBy" json:"-"`
}

// AfterFind normalises NULL lifecycle columns back to nil pointers.
func (t *Task) AfterFind(_ *gorm.DB) error {
	if t.TakenAt != nil && t.TakenAt.IsZero() {
		t.TakenAt = nil
	}
	if t.CompletedAt != nil && t.CompletedAt.IsZero() {
		t.CompletedAt = nil
	}
	return nil
}

// IsFree reports whether nobody has claimed the task.
func (t *Task) IsFree() bool {
	return t.TakenBy == nil
}

// IsReviewed reports whether an admin has set an adjustment comment.
// An empty comment still counts.
func (t *Task) IsReviewed() bool {
	return t.AdjustComment != nil
}

// State derives the lifecycle state from the nullable columns.
func (t *Task) State() TaskState {
	switch {
	case t.TakenBy == nil:
		return TaskStateFree
	case t.CompletedAt == nil:
		return TaskStateTaken
	case t.AdjustComment == nil:
		return TaskStateCompleted
	default:
		return TaskStateReviewed
	}
}
