package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/worktime-api/internal/config"
	"github.com/yukikurage/worktime-api/internal/constants"
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/notifier"
	"github.com/yukikurage/worktime-api/internal/repository"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrInvalidAssignee        = errors.New("assignee is not a user of the target department")
	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidPoints          = errors.New("points must not be negative")
	ErrInvalidStatus          = errors.New("unknown task status filter")
	ErrInvalidPeriod          = errors.New("invalid year or month")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService runs the task lifecycle: create, claim, complete, adjust and forward
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	notifier  notifier.Notifier
	aiService *AIService
	org       config.OrgConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	n notifier.Notifier,
	aiService *AIService,
	org config.OrgConfig,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		notifier:  n,
		aiService: aiService,
		org:       org,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Points      int
	Department  string
	AssigneeID  *uint64
}

// CreateTask creates a task for a department, optionally already taken by an assignee
func (s *TaskService) CreateTask(ctx context.Context, actor Actor, input CreateTaskInput) (*models.Task, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Points < 0 {
		return nil, ErrInvalidPoints
	}

	department, err := s.resolveCreateDepartment(actor, input.Department)
	if err != nil {
		return nil, err
	}

	now := models.NewTimestamp(s.now())
	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Points:      input.Points,
		Department:  department,
		AssignedBy:  actor.ID,
		CreatedAt:   now,
	}

	if input.AssigneeID != nil {
		assignee, err := s.userRepo.FindByID(ctx, *input.AssigneeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidAssignee
			}
			return nil, fmt.Errorf("failed to find assignee: %w", err)
		}
		if assignee.Role != models.RoleUser || assignee.Department != department {
			return nil, ErrInvalidAssignee
		}
		task.TakenBy = &assignee.ID
		task.TakenAt = &now
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created",
		zap.Uint64("task_id", task.ID),
		zap.String("department", department),
		zap.Uint64("assigned_by", actor.ID),
		zap.Bool("preassigned", task.TakenBy != nil),
	)

	s.notifier.NotifyDepartment(ctx, department, notifier.NewTaskMessage(department, task.Title, task.Description))

	return task, nil
}

// resolveCreateDepartment applies the department rules for task creation:
// admins create for their own department, the superadmin for any enumerated one
func (s *TaskService) resolveCreateDepartment(actor Actor, requested string) (string, error) {
	if actor.IsSuperadmin() {
		if !s.org.IsDepartment(requested) {
			return "", ErrInvalidDepartment
		}
		return requested, nil
	}

	if requested != "" && requested != actor.Department {
		return "", ErrInvalidDepartment
	}
	if !s.org.IsDepartment(actor.Department) {
		return "", ErrInvalidDepartment
	}
	return actor.Department, nil
}

// ClaimTask assigns a free task of the actor's department to the actor
func (s *TaskService) ClaimTask(ctx context.Context, actor Actor, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID, "Creator")
	if err != nil {
		return nil, err
	}

	if task.Department != actor.Department || !task.IsFree() {
		return nil, ErrForbidden
	}

	now := models.NewTimestamp(s.now())
	if err := s.taskRepo.Claim(ctx, task.ID, actor.ID, actor.Department, now); err != nil {
		if errors.Is(err, repository.ErrNotApplied) {
			// lost the race against another claimant
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	task.TakenBy = &actor.ID
	task.TakenAt = &now

	s.logger.Info("Task claimed", zap.Uint64("task_id", task.ID), zap.Uint64("user_id", actor.ID))

	notifier.NotifyCrossDepartment(ctx, s.notifier, task.Creator.Department, task.Department, task.Title)

	return task, nil
}

// CompleteTask marks a task completed by its claimant
func (s *TaskService) CompleteTask(ctx context.Context, actor Actor, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.TakenBy == nil || *task.TakenBy != actor.ID {
		return nil, ErrForbidden
	}

	now := models.NewTimestamp(s.now())
	if err := s.taskRepo.Complete(ctx, task.ID, actor.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotApplied) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	task.CompletedAt = &now

	s.logger.Info("Task completed", zap.Uint64("task_id", task.ID), zap.Uint64("user_id", actor.ID))

	s.notifier.NotifyGeneral(ctx, notifier.TaskCompletedMessage(actor.Username, actor.Department, task.Title))

	return task, nil
}

// AdjustPointsInput represents an admin review of a task
type AdjustPointsInput struct {
	TaskID            uint64
	NewPoints         int
	Reason            string
	ForwardDepartment string
}

// AdjustPointsResult describes what AdjustPoints did
type AdjustPointsResult struct {
	Task *models.Task
	// Forwarded is the new copy, nil when the task was adjusted in place
	// or an identical copy already existed in the target department
	Forwarded *models.Task
	// AlreadyForwarded is set when forwarding was a no-op
	AlreadyForwarded bool
}

// AdjustPoints either forwards a copy of the task to another department or
// sets its points and review comment in place. Any lifecycle stage may be adjusted.
func (s *TaskService) AdjustPoints(ctx context.Context, actor Actor, input AdjustPointsInput) (*AdjustPointsResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if input.NewPoints < 0 {
		return nil, ErrInvalidPoints
	}

	task, err := s.findTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	forwardTo := strings.TrimSpace(input.ForwardDepartment)
	if forwardTo != "" && forwardTo != task.Department {
		if !s.org.IsDepartment(forwardTo) {
			return nil, ErrInvalidDepartment
		}
		return s.forward(ctx, actor, task, forwardTo, input.NewPoints)
	}

	comment := strings.TrimSpace(input.Reason)
	if err := s.taskRepo.Adjust(ctx, task.ID, input.NewPoints, comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to adjust task: %w", err)
	}
	task.Points = input.NewPoints
	task.AdjustComment = &comment

	s.logger.Info("Task points adjusted",
		zap.Uint64("task_id", task.ID),
		zap.Int("points", input.NewPoints),
		zap.Uint64("reviewed_by", actor.ID),
	)

	return &AdjustPointsResult{Task: task}, nil
}

func (s *TaskService) forward(ctx context.Context, actor Actor, task *models.Task, department string, points int) (*AdjustPointsResult, error) {
	forwarded, err := s.taskRepo.Forward(ctx, task.ID, department, points)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to forward task: %w", err)
	}

	if forwarded == nil {
		s.logger.Debug("Task already forwarded, skipping",
			zap.Uint64("task_id", task.ID),
			zap.String("department", department),
		)
		return &AdjustPointsResult{Task: task, AlreadyForwarded: true}, nil
	}

	s.logger.Info("Task forwarded",
		zap.Uint64("task_id", task.ID),
		zap.Uint64("forwarded_task_id", forwarded.ID),
		zap.String("from", task.Department),
		zap.String("to", department),
		zap.Uint64("forwarded_by", actor.ID),
	)

	notifier.NotifyCrossDepartment(ctx, s.notifier, task.Department, department, task.Title)

	return &AdjustPointsResult{Task: task, Forwarded: forwarded}, nil
}

// Task status filters accepted by ListTasks
const (
	StatusFilterFree     = "free"
	StatusFilterTaken    = "taken"
	StatusFilterReviewed = "reviewed"
)

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Department string
	Year       int
	Month      int
	Status     string
}

// TaskList is a month of a department's tasks as seen by the actor
type TaskList struct {
	Department  string
	Departments []string
	Year        int
	Month       int
	Status      string
	Tasks       []models.Task
	TotalPoints int
	PointsLabel string
}

// ListTasks returns the tasks of a department created in a month.
// Plain users see free tasks and their own claims; "taken" and "reviewed"
// are always limited to the actor's own claims.
func (s *TaskService) ListTasks(ctx context.Context, actor Actor, input ListTasksInput) (*TaskList, error) {
	year, month, err := resolvePeriod(s.now(), input.Year, input.Month)
	if err != nil {
		return nil, err
	}

	list := &TaskList{
		Year:   year,
		Month:  int(month),
		Status: input.Status,
	}

	if actor.IsSuperadmin() {
		departments, err := s.userRepo.Departments(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list departments: %w", err)
		}
		list.Departments = departments
		list.Department = pickOrFirst(departments, input.Department)
	} else {
		list.Department = actor.Department
		list.Departments = []string{actor.Department}
	}

	prefix := models.MonthPrefix(year, month)
	filter := repository.TaskFilter{
		Department:  list.Department,
		MonthPrefix: prefix,
	}

	switch input.Status {
	case "":
		if !actor.IsAdmin() {
			filter.FreeOrTakenBy = &actor.ID
		}
	case StatusFilterFree:
		filter.FreeOnly = true
	case StatusFilterTaken:
		filter.TakenBy = &actor.ID
	case StatusFilterReviewed:
		filter.TakenBy = &actor.ID
		filter.ReviewedOnly = true
	default:
		return nil, ErrInvalidStatus
	}

	if list.Department == "" {
		list.Tasks = []models.Task{}
		list.PointsLabel = PluralizePoints(0)
		return list, nil
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	list.Tasks = tasks

	for _, task := range tasks {
		if task.IsReviewed() && task.CompletedAt != nil && task.CompletedAt.InMonth(prefix) {
			list.TotalPoints += task.Points
		}
	}
	list.PointsLabel = PluralizePoints(list.TotalPoints)

	return list, nil
}

// DraftTasks suggests tasks from free text for the creation form
func (s *TaskService) DraftTasks(ctx context.Context, actor Actor, department, text string) ([]DraftTask, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	if !actor.IsSuperadmin() || department == "" {
		department = actor.Department
	}

	drafts, err := s.aiService.DraftTasksFromText(ctx, department, text)
	if err != nil {
		return nil, fmt.Errorf("failed to draft tasks: %w", err)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	valid := make([]DraftTask, 0, len(drafts))
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			continue
		}
		if draft.Points < 0 {
			draft.Points = 0
		}
		valid = append(valid, draft)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// resolvePeriod defaults a missing year or month to the current one
func resolvePeriod(now time.Time, year, month int) (int, time.Month, error) {
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return 0, 0, ErrInvalidPeriod
	}
	return year, time.Month(month), nil
}

// pickOrFirst returns want when it is one of options, otherwise the first option
func pickOrFirst(options []string, want string) string {
	for _, o := range options {
		if o == want {
			return want
		}
	}
	if len(options) == 0 {
		return ""
	}
	return options[0]
}
