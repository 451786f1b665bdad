package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/worktime-api/internal/audit"
	"github.com/yukikurage/worktime-api/internal/config"
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/repository"
)

var (
	ErrAlreadySubmitted = errors.New("work log already submitted for this date")
	ErrWorkLogConflict  = errors.New("work log was written concurrently, retry")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrInvalidDuration  = errors.New("worked time must not be negative")
)

// WorkLogService reconciles work-log writes from the tracking agent,
// direct submissions and admin corrections. Each path has its own merge rule.
type WorkLogService struct {
	workLogRepo repository.WorkLogRepository
	userRepo    repository.UserRepository
	audit       audit.Recorder
	threshold   int64
	logger      *zap.Logger
	now         func() time.Time
}

// NewWorkLogService creates a new WorkLogService
func NewWorkLogService(
	workLogRepo repository.WorkLogRepository,
	userRepo repository.UserRepository,
	recorder audit.Recorder,
	org config.OrgConfig,
	logger *zap.Logger,
) *WorkLogService {
	return &WorkLogService{
		workLogRepo: workLogRepo,
		userRepo:    userRepo,
		audit:       recorder,
		threshold:   int64(org.SuspicionThresholdSeconds),
		logger:      logger,
		now:         time.Now,
	}
}

// ReportInput is a token-authenticated report for one day
type ReportInput struct {
	Token   string
	Date    string
	Seconds int64
}

// ReportResult is the outcome of an automated report
type ReportResult struct {
	UserID   uint64
	Username string
	Date     models.Date
	Previous int64
	Seconds  int64
	// ManualSuspect is set when the new value deviates from the stored one by more than the threshold
	ManualSuspect bool
}

// AutomatedReport replaces the stored value for the day and flags large deviations.
// Every accepted report is written to the audit log.
func (s *WorkLogService) AutomatedReport(ctx context.Context, input ReportInput) (*ReportResult, error) {
	date, err := parseDay(input.Date)
	if err != nil {
		return nil, err
	}
	if input.Seconds < 0 {
		return nil, ErrInvalidDuration
	}

	user, err := s.userByToken(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	previous, err := s.workLogRepo.Replace(ctx, user.ID, date, input.Seconds, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrWorkLogConflict
		}
		return nil, fmt.Errorf("failed to store work log: %w", err)
	}

	result := &ReportResult{
		UserID:        user.ID,
		Username:      user.Username,
		Date:          date,
		Previous:      previous,
		Seconds:       input.Seconds,
		ManualSuspect: absInt64(previous-input.Seconds) > s.threshold,
	}

	s.audit.Record(audit.Entry{
		At:       models.NewTimestamp(s.now()),
		Username: user.Username,
		Date:     date,
		Seconds:  input.Seconds,
		Suspect:  result.ManualSuspect,
	})

	if result.ManualSuspect {
		s.logger.Warn("Automated report deviates from stored value",
			zap.String("username", user.Username),
			zap.String("date", date.String()),
			zap.Int64("previous", previous),
			zap.Int64("seconds", input.Seconds),
		)
	}

	return result, nil
}

// ManualEntryInput is an admin correction for a user's day
type ManualEntryInput struct {
	UserID  uint64
	Date    string
	Seconds int64
}

// ManualEntry adds seconds to the target user's day. Repeating it accumulates.
func (s *WorkLogService) ManualEntry(ctx context.Context, actor Actor, input ManualEntryInput) (*models.WorkLog, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	date, err := parseDay(input.Date)
	if err != nil {
		return nil, err
	}
	if input.Seconds < 0 {
		return nil, ErrInvalidDuration
	}

	target, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if actor.IsSuperadmin() {
				return nil, ErrUserNotFound
			}
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !actor.IsSuperadmin() && target.Department != actor.Department {
		return nil, ErrForbidden
	}

	entry, err := s.workLogRepo.Accumulate(ctx, target.ID, date, input.Seconds, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrWorkLogConflict
		}
		return nil, fmt.Errorf("failed to store work log: %w", err)
	}

	s.logger.Info("Manual work log entry",
		zap.Uint64("user_id", target.ID),
		zap.String("date", date.String()),
		zap.Int64("added", input.Seconds),
		zap.Int64("total", entry.SecondsWorked),
		zap.Uint64("entered_by", actor.ID),
	)

	return entry, nil
}

// DirectSubmission records the day only when nothing has been recorded yet.
func (s *WorkLogService) DirectSubmission(ctx context.Context, input ReportInput) (*models.WorkLog, error) {
	date, err := parseDay(input.Date)
	if err != nil {
		return nil, err
	}
	if input.Seconds < 0 {
		return nil, ErrInvalidDuration
	}

	user, err := s.userByToken(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	if _, err := s.workLogRepo.Find(ctx, user.ID, date); err == nil {
		return nil, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check work log: %w", err)
	}

	entry := &models.WorkLog{
		UserID:        user.ID,
		Date:          date,
		SecondsWorked: input.Seconds,
		EnteredBy:     user.ID,
	}
	if err := s.workLogRepo.Insert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to store work log: %w", err)
	}

	return entry, nil
}

func (s *WorkLogService) userByToken(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.userRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func parseDay(s string) (models.Date, error) {
	date, err := models.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return models.Date{}, ErrInvalidDate
	}
	return date, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
