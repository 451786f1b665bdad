package dto

import (
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/services"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID              uint64            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Points          int               `json:"points"`
	Department      string            `json:"department"`
	State           models.TaskState  `json:"state"`
	AssignedBy      uint64            `json:"assigned_by"`
	CreatorUsername string            `json:"creator_username,omitempty"`
	CreatedAt       models.Timestamp  `json:"created_at"`
	TakenBy         *uint64           `json:"taken_by"`
	TakenByUsername string            `json:"taken_by_username,omitempty"`
	TakenAt         *models.Timestamp `json:"taken_at"`
	CompletedAt     *models.Timestamp `json:"completed_at"`
	AdjustComment   *string           `json:"adjust_comment"`
	Reviewed        bool              `json:"reviewed"`
}

// TaskListResponse is a month of a department's tasks
type TaskListResponse struct {
	Department  string    `json:"department"`
	Departments []string  `json:"departments"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Status      string    `json:"status,omitempty"`
	Tasks       []TaskDTO `json:"tasks"`
	TotalPoints int       `json:"total_points"`
	PointsLabel string    `json:"points_label"`
}

// AdjustPointsResponse reports an in-place review or a forward
type AdjustPointsResponse struct {
	Task             TaskDTO  `json:"task"`
	Forwarded        *TaskDTO `json:"forwarded,omitempty"`
	AlreadyForwarded bool     `json:"already_forwarded"`
}

// CompletedTasksResponse lists one user's completed tasks for review
type CompletedTasksResponse struct {
	Department  string    `json:"department"`
	Departments []string  `json:"departments"`
	Username    string    `json:"username"`
	Usernames   []string  `json:"usernames"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Tasks       []TaskDTO `json:"tasks"`
	TotalPoints int       `json:"total_points"`
	PointsLabel string    `json:"points_label"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Points:        task.Points,
		Department:    task.Department,
		State:         task.State(),
		AssignedBy:    task.AssignedBy,
		CreatedAt:     task.CreatedAt,
		TakenBy:       task.TakenBy,
		TakenAt:       task.TakenAt,
		CompletedAt:   task.CompletedAt,
		AdjustComment: task.AdjustComment,
		Reviewed:      task.IsReviewed(),
	}

	// Include usernames if preloaded
	if task.Creator.ID != 0 {
		dto.CreatorUsername = task.Creator.Username
	}
	if task.Taker != nil {
		dto.TakenByUsername = task.Taker.Username
	}

	return dto
}

func toTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskListResponse converts a task listing
func ToTaskListResponse(list *services.TaskList) TaskListResponse {
	return TaskListResponse{
		Department:  list.Department,
		Departments: list.Departments,
		Year:        list.Year,
		Month:       list.Month,
		Status:      list.Status,
		Tasks:       toTaskDTOs(list.Tasks),
		TotalPoints: list.TotalPoints,
		PointsLabel: list.PointsLabel,
	}
}

// ToAdjustPointsResponse converts the outcome of a review
func ToAdjustPointsResponse(result *services.AdjustPointsResult) AdjustPointsResponse {
	resp := AdjustPointsResponse{
		Task:             ToTaskDTO(*result.Task),
		AlreadyForwarded: result.AlreadyForwarded,
	}
	if result.Forwarded != nil {
		forwarded := ToTaskDTO(*result.Forwarded)
		resp.Forwarded = &forwarded
	}
	return resp
}

// ToCompletedTasksResponse converts the completed-tasks review page
func ToCompletedTasksResponse(report *services.CompletedTasksReport) CompletedTasksResponse {
	return CompletedTasksResponse{
		Department:  report.Department,
		Departments: report.Departments,
		Username:    report.Username,
		Usernames:   report.Usernames,
		Year:        report.Year,
		Month:       report.Month,
		Tasks:       toTaskDTOs(report.Tasks),
		TotalPoints: report.TotalPoints,
		PointsLabel: report.PointsLabel,
	}
}
