package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/worktime-api/internal/dto"
	apierrors "github.com/yukikurage/worktime-api/internal/errors"
	"github.com/yukikurage/worktime-api/internal/middleware"
	"github.com/yukikurage/worktime-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns a month of tasks of a department as visible to the current user
// Supports department, year, month and status query filters
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	year, month, ok := queryPeriod(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid year or month")
		return
	}

	list, err := h.taskService.ListTasks(c.Request.Context(), actor, services.ListTasksInput{
		Department: c.Query("department"),
		Year:       year,
		Month:      month,
		Status:     c.Query("status"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(list))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		Points      int     `json:"points"`
		Department  string  `json:"department"`
		AssigneeID  *uint64 `json:"assignee_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Department:  req.Department,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// DraftTasks suggests tasks from free text using AI; nothing is stored
func (h *TaskHandler) DraftTasks(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type DraftTasksRequest struct {
		Text       string `json:"text" binding:"required"`
		Department string `json:"department"`
	}

	var req DraftTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.DraftTasks(c.Request.Context(), actor, req.Department, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}

// ClaimTask takes a free task of the user's department
func (h *TaskHandler) ClaimTask(c *gin.Context) {
	actor, taskID, ok := actorAndTaskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.ClaimTask(c.Request.Context(), actor, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CompleteTask marks a task the user has claimed as completed
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	actor, taskID, ok := actorAndTaskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.CompleteTask(c.Request.Context(), actor, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// AdjustPoints reviews a task in place or forwards a copy to another department
func (h *TaskHandler) AdjustPoints(c *gin.Context) {
	actor, taskID, ok := actorAndTaskID(c)
	if !ok {
		return
	}

	type AdjustPointsRequest struct {
		NewPoints         *int   `json:"new_points" binding:"required"`
		Reason            string `json:"reason"`
		ForwardDepartment string `json:"forward_department"`
	}

	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.taskService.AdjustPoints(c.Request.Context(), actor, services.AdjustPointsInput{
		TaskID:            taskID,
		NewPoints:         *req.NewPoints,
		Reason:            req.Reason,
		ForwardDepartment: req.ForwardDepartment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.Forwarded != nil {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToAdjustPointsResponse(result))
}

func actorAndTaskID(c *gin.Context) (services.Actor, uint64, bool) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Actor{}, 0, false
	}

	taskID, exists := middleware.GetTaskID(c)
	if !exists {
		apierrors.BadRequest(c, "Invalid task ID")
		return services.Actor{}, 0, false
	}

	return actor, taskID, true
}
