package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/worktime-api/internal/constants"
)

// PaginationParams is a normalized page request
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse is the pagination block of list responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPaginationParams clamps page to at least 1 and limit into [MinPageSize, MaxPageSize];
// a non-positive limit selects the default page size.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < constants.MinPageSize:
		limit = constants.DefaultPageSize
	case limit > constants.MaxPageSize:
		limit = constants.MaxPageSize
	}
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// GetPaginationParams reads the page and limit query parameters; malformed values fall back to defaults
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return NewPaginationParams(page, limit)
}

// NewPaginationResponse describes the page params out of total rows
func NewPaginationResponse(params PaginationParams, total int64) PaginationResponse {
	var pages int64
	if params.Limit > 0 {
		pages = (total + int64(params.Limit) - 1) / int64(params.Limit)
	}
	return PaginationResponse{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
		Pages: pages,
	}
}
