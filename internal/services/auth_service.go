package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/worktime-api/internal/config"
	"github.com/yukikurage/worktime-api/internal/constants"
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/repository"
	"github.com/yukikurage/worktime-api/internal/utils"
)

var (
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("access denied")
	ErrInvalidDepartment    = errors.New("invalid department")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

const maxTokenAttempts = 10

// AuthService handles authentication and account management.
type AuthService struct {
	userRepo repository.UserRepository
	org      config.OrgConfig
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, org config.OrgConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		org:      org,
		logger:   logger,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// RegisterInput represents the account an admin wants to create.
type RegisterInput struct {
	Username   string
	Password   string
	Department string
	Role       models.Role
}

// Register creates an account with a freshly generated device token.
// Only the superadmin may create admins; any other requested role becomes user.
func (s *AuthService) Register(ctx context.Context, actor Actor, input RegisterInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if !s.org.IsDepartment(input.Department) {
		return nil, ErrInvalidDepartment
	}

	role := models.RoleUser
	if actor.IsSuperadmin() && input.Role == models.RoleAdmin {
		role = models.RoleAdmin
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	token, err := s.generateUniqueToken(ctx)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Token:        token,
		Department:   input.Department,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Uint64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("department", user.Department),
		zap.String("role", string(user.Role)),
		zap.Uint64("registered_by", actor.ID),
	)

	return user, nil
}

// BootstrapSuperadmin creates the superadmin account in the administrative
// department unless a user with that username already exists.
func (s *AuthService) BootstrapSuperadmin(ctx context.Context, username, password, token string) (*models.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, ErrUsernameRequired
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to check username: %w", err)
	}

	if len(password) < constants.MinPasswordLength {
		return nil, false, ErrPasswordTooShort
	}
	if token == "" {
		if token, err = s.generateUniqueToken(ctx); err != nil {
			return nil, false, err
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Token:        token,
		Department:   s.org.AdminDepartment,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleSuperadmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create superadmin: %w", err)
	}

	s.logger.Info("Superadmin created", zap.String("username", username))
	return user, true, nil
}

// ListUsersInput filters the user listing.
type ListUsersInput struct {
	Department string
	Pagination utils.PaginationParams
}

// ListUsers lists accounts; admins are limited to their own department.
func (s *AuthService) ListUsers(ctx context.Context, actor Actor, input ListUsersInput) ([]models.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, ErrForbidden
	}

	department := input.Department
	if !actor.IsSuperadmin() {
		department = actor.Department
	}

	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Department: department,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UsernamesByDepartment lists the usernames of a department alphabetically.
func (s *AuthService) UsernamesByDepartment(ctx context.Context, department string) ([]string, error) {
	usernames, err := s.userRepo.UsernamesByDepartment(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}
	return usernames, nil
}

// Departments lists the distinct departments of existing accounts, including historical ones.
func (s *AuthService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.userRepo.Departments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (s *AuthService) generateUniqueToken(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := utils.GenerateAccessToken(constants.AccessTokenLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}

		exists, err := s.userRepo.TokenExists(ctx, token)
		if err != nil {
			return "", fmt.Errorf("failed to check token: %w", err)
		}
		if !exists {
			return token, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique token after %d attempts", maxTokenAttempts)
}
