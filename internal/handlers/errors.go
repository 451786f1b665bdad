package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/worktime-api/internal/constants"
	apierrors "github.com/yukikurage/worktime-api/internal/errors"
	"github.com/yukikurage/worktime-api/internal/services"
)

// respondServiceError maps service sentinel errors onto the API error envelope
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.UserNotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidDepartment):
		apierrors.InvalidDepartment(c, err.Error())
	case errors.Is(err, services.ErrInvalidAssignee):
		apierrors.InvalidAssignee(c, err.Error())
	case errors.Is(err, services.ErrAlreadySubmitted):
		apierrors.AlreadySubmitted(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrWorkLogConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidPoints),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPeriod),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidDuration):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, err.Error()))
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

// queryPeriod reads optional year and month query parameters; zero means "current"
func queryPeriod(c *gin.Context) (int, int, bool) {
	year, ok := queryInt(c, "year")
	if !ok {
		return 0, 0, false
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return 0, 0, false
	}
	return year, month, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
