package dto

import (
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/services"
)

// WorkLogDTO represents a stored work-log entry
type WorkLogDTO struct {
	UserID        uint64      `json:"user_id"`
	Date          models.Date `json:"date"`
	SecondsWorked int64       `json:"seconds_worked"`
	EnteredBy     uint64      `json:"entered_by"`
}

// ActivityReportResponse acknowledges an automated report
type ActivityReportResponse struct {
	Status        string `json:"status"`
	ManualSuspect bool   `json:"manual_suspect"`
}

// TimeReportResponse is a month of work logs grouped by department and user
type TimeReportResponse struct {
	Year        int                 `json:"year"`
	Month       int                 `json:"month"`
	Department  string              `json:"department,omitempty"`
	Username    string              `json:"username,omitempty"`
	Departments []DepartmentTimeDTO `json:"departments"`
}

type DepartmentTimeDTO struct {
	Department string        `json:"department"`
	Users      []UserTimeDTO `json:"users"`
}

type UserTimeDTO struct {
	Username     string       `json:"username"`
	Days         []DayTimeDTO `json:"days"`
	TotalSeconds int64        `json:"total_seconds"`
}

type DayTimeDTO struct {
	Date    models.Date `json:"date"`
	Seconds int64       `json:"seconds"`
}

// ToWorkLogDTO converts a WorkLog model to WorkLogDTO
func ToWorkLogDTO(entry models.WorkLog) WorkLogDTO {
	return WorkLogDTO{
		UserID:        entry.UserID,
		Date:          entry.Date,
		SecondsWorked: entry.SecondsWorked,
		EnteredBy:     entry.EnteredBy,
	}
}

// ToTimeReportResponse converts the grouped time report
func ToTimeReportResponse(report *services.TimeReport) TimeReportResponse {
	resp := TimeReportResponse{
		Year:        report.Year,
		Month:       report.Month,
		Department:  report.Department,
		Username:    report.Username,
		Departments: make([]DepartmentTimeDTO, len(report.Departments)),
	}
	for i, dept := range report.Departments {
		users := make([]UserTimeDTO, len(dept.Users))
		for j, user := range dept.Users {
			days := make([]DayTimeDTO, len(user.Days))
			for k, day := range user.Days {
				days[k] = DayTimeDTO{Date: day.Date, Seconds: day.Seconds}
			}
			users[j] = UserTimeDTO{Username: user.Username, Days: days, TotalSeconds: user.TotalSeconds}
		}
		resp.Departments[i] = DepartmentTimeDTO{Department: dept.Department, Users: users}
	}
	return resp
}
