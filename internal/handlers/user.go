package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/worktime-api/internal/dto"
	apierrors "github.com/yukikurage/worktime-api/internal/errors"
	"github.com/yukikurage/worktime-api/internal/middleware"
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/services"
	"github.com/yukikurage/worktime-api/internal/utils"
)

// UserHandler serves account management for administrators.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// Register creates an account and returns its device token once.
func (h *UserHandler) Register(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type RegisterRequest struct {
		Username   string      `json:"username" binding:"required,max=255"`
		Password   string      `json:"password" binding:"required"`
		Department string      `json:"department" binding:"required"`
		Role       models.Role `json:"role"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), actor, services.RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		Department: req.Department,
		Role:       req.Role,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRegisteredUserDTO(*user))
}

// ListUsers returns a page of accounts; admins only see their department.
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.authService.ListUsers(c.Request.Context(), actor, services.ListUsersInput{
		Department: c.Query("department"),
		Pagination: params,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params, total))
}

// UsernamesByDepartment returns the usernames of one department, for report filters.
func (h *UserHandler) UsernamesByDepartment(c *gin.Context) {
	department := c.Query("department")
	if department == "" {
		apierrors.BadRequest(c, "department is required")
		return
	}

	usernames, err := h.authService.UsernamesByDepartment(c.Request.Context(), department)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"usernames": usernames,
	})
}

// Departments returns the distinct departments of existing accounts.
func (h *UserHandler) Departments(c *gin.Context) {
	departments, err := h.authService.Departments(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"departments": departments,
	})
}
