package constants

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyActor     = "actor"
	ContextKeyTaskID    = "task_id"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "worktime_session"
	HeaderRequestID     = "X-Request-ID"
)

// Account limits
const (
	MinPasswordLength = 6
	AccessTokenLength = 6
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Work log reconciliation
const (
	DefaultSuspicionThresholdSeconds = 400
)

// AI drafting
const (
	MaxAIGeneratedTasks = 20
)
