package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/repository"
)

var ErrExportFailed = errors.New("failed to generate spreadsheet")

// PluralizePoints returns the Russian noun form for a number of points.
func PluralizePoints(n int) string {
	switch {
	case n == 1:
		return "балл"
	case n >= 2 && n <= 4:
		return "балла"
	default:
		return "баллов"
	}
}

// ReportService builds read-only monthly reports over work logs and tasks
type ReportService struct {
	workLogRepo repository.WorkLogRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	workLogRepo repository.WorkLogRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		workLogRepo: workLogRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// MonthlyPoints sums the points of reviewed tasks the user completed in the month.
func (s *ReportService) MonthlyPoints(ctx context.Context, userID uint64, year, month int) (int, error) {
	y, m, err := resolvePeriod(s.now(), year, month)
	if err != nil {
		return 0, err
	}

	total, err := s.taskRepo.SumReviewedPoints(ctx, userID, models.MonthPrefix(y, m))
	if err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return total, nil
}

// TimeReportInput filters the monthly time report; Username takes precedence over Department
type TimeReportInput struct {
	Year       int
	Month      int
	Department string
	Username   string
}

// TimeReport groups a month of work logs by department and user
type TimeReport struct {
	Year        int
	Month       int
	Department  string
	Username    string
	Departments []DepartmentTime
}

// DepartmentTime is the part of a time report for one department
type DepartmentTime struct {
	Department string
	Users      []UserTime
}

// UserTime is one user's days within a time report
type UserTime struct {
	Username     string
	Days         []DayTime
	TotalSeconds int64
}

// DayTime is a single work-log value
type DayTime struct {
	Date    models.Date
	Seconds int64
}

// TimeReport returns the month's work logs grouped department → user → day
func (s *ReportService) TimeReport(ctx context.Context, actor Actor, input TimeReportInput) (*TimeReport, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	year, month, err := resolvePeriod(s.now(), input.Year, input.Month)
	if err != nil {
		return nil, err
	}

	rows, err := s.workLogRepo.ListForMonth(ctx, repository.WorkLogFilter{
		MonthPrefix: models.MonthPrefix(year, month),
		Department:  input.Department,
		Username:    input.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load work logs: %w", err)
	}

	report := &TimeReport{
		Year:        year,
		Month:       int(month),
		Department:  input.Department,
		Username:    input.Username,
		Departments: []DepartmentTime{},
	}

	// rows arrive ordered by department, username, date
	for _, row := range rows {
		if n := len(report.Departments); n == 0 || report.Departments[n-1].Department != row.Department {
			report.Departments = append(report.Departments, DepartmentTime{Department: row.Department})
		}
		dept := &report.Departments[len(report.Departments)-1]

		if n := len(dept.Users); n == 0 || dept.Users[n-1].Username != row.Username {
			dept.Users = append(dept.Users, UserTime{Username: row.Username})
		}
		user := &dept.Users[len(dept.Users)-1]

		user.Days = append(user.Days, DayTime{Date: row.Date, Seconds: row.SecondsWorked})
		user.TotalSeconds += row.SecondsWorked
	}

	return report, nil
}

// ExportTimeReport renders the time report as an XLSX workbook
func (s *ReportService) ExportTimeReport(ctx context.Context, actor Actor, input TimeReportInput) (*bytes.Buffer, string, error) {
	report, err := s.TimeReport(ctx, actor, input)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Табель"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("Failed to create sheet", zap.Error(err))
		return nil, "", ErrExportFailed
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "C", 14)
	f.SetColWidth(sheetName, "D", "E", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Табель за %s", models.MonthPrefix(report.Year, time.Month(report.Month))))
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	for i, header := range []string{"Отдел", "Сотрудник", "Дата", "Секунды", "Часы"} {
		f.SetCellValue(sheetName, cellName(i, row), header)
	}
	f.SetCellStyle(sheetName, cellName(0, row), cellName(4, row), headerStyle)

	row = 3
	for _, dept := range report.Departments {
		for _, user := range dept.Users {
			for _, day := range user.Days {
				f.SetCellValue(sheetName, cellName(0, row), dept.Department)
				f.SetCellValue(sheetName, cellName(1, row), user.Username)
				f.SetCellValue(sheetName, cellName(2, row), day.Date.String())
				f.SetCellValue(sheetName, cellName(3, row), day.Seconds)
				f.SetCellValue(sheetName, cellName(4, row), secondsToHours(day.Seconds))
				row++
			}
			f.SetCellValue(sheetName, cellName(0, row), dept.Department)
			f.SetCellValue(sheetName, cellName(1, row), user.Username)
			f.SetCellValue(sheetName, cellName(2, row), "Итого")
			f.SetCellValue(sheetName, cellName(3, row), user.TotalSeconds)
			f.SetCellValue(sheetName, cellName(4, row), secondsToHours(user.TotalSeconds))
			f.SetCellStyle(sheetName, cellName(0, row), cellName(4, row), totalStyle)
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("Failed to write spreadsheet", zap.Error(err))
		return nil, "", ErrExportFailed
	}

	filename := fmt.Sprintf("time_report_%s.xlsx", models.MonthPrefix(report.Year, time.Month(report.Month)))
	return buf, filename, nil
}

// CompletedTasksInput selects whose completed tasks an admin reviews
type CompletedTasksInput struct {
	Department string
	Username   string
	Year       int
	Month      int
}

// CompletedTasksReport lists one user's completed tasks for review
type CompletedTasksReport struct {
	Department  string
	Departments []string
	Username    string
	Usernames   []string
	Year        int
	Month       int
	Tasks       []models.Task
	TotalPoints int
	PointsLabel string
}

// CompletedTasks lists the tasks a department member completed in a month.
// The total only counts reviewed tasks.
func (s *ReportService) CompletedTasks(ctx context.Context, actor Actor, input CompletedTasksInput) (*CompletedTasksReport, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	year, month, err := resolvePeriod(s.now(), input.Year, input.Month)
	if err != nil {
		return nil, err
	}

	report := &CompletedTasksReport{
		Year:  year,
		Month: int(month),
		Tasks: []models.Task{},
	}

	if actor.IsSuperadmin() {
		departments, err := s.Departments(ctx)
		if err != nil {
			return nil, err
		}
		report.Departments = departments
		report.Department = pickOrFirst(departments, input.Department)
	} else {
		report.Department = actor.Department
		report.Departments = []string{actor.Department}
	}

	usernames, err := s.userRepo.UsernamesByDepartment(ctx, report.Department)
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}
	report.Usernames = usernames
	report.Username = pickOrFirst(usernames, input.Username)

	if report.Username == "" {
		report.PointsLabel = PluralizePoints(0)
		return report, nil
	}

	user, err := s.userRepo.FindByUsername(ctx, report.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	tasks, err := s.taskRepo.ListCompletedBy(ctx, report.Department, user.ID, models.MonthPrefix(year, month))
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	report.Tasks = tasks

	for _, task := range tasks {
		if task.IsReviewed() {
			report.TotalPoints += task.Points
		}
	}
	report.PointsLabel = PluralizePoints(report.TotalPoints)

	return report, nil
}

// Departments returns the sorted union of user and task departments, historical values included
func (s *ReportService) Departments(ctx context.Context) ([]string, error) {
	userDepartments, err := s.userRepo.Departments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list user departments: %w", err)
	}
	taskDepartments, err := s.taskRepo.Departments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list task departments: %w", err)
	}

	departments := append(slices.Clone(userDepartments), taskDepartments...)
	slices.Sort(departments)
	return slices.Compact(departments), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

func secondsToHours(seconds int64) float64 {
	return float64(seconds*100/3600) / 100
}
