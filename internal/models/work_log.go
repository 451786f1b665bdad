package models

// WorkLog is one user's recorded work for one calendar day.
// SecondsWorked is a raw counter; the automated and manual paths write seconds.
type WorkLog struct {
	ID            uint64 `gorm:"primarykey" json:"id"`
	UserID        uint64 `gorm:"not null;uniqueIndex:idx_work_log_unique,priority:1" json:"user_id"`
	Date          Date   `gorm:"type:varchar(10);not null;uniqueIndex:idx_work_log_unique,priority:2" json:"date"`
	SecondsWorked int64  `gorm:"column:hours_worked;not null" json:"seconds_worked"`
	EnteredBy     uint64 `gorm:"not null" json:"entered_by"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
