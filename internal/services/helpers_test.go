package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/worktime-api/internal/audit"
	"github.com/yukikurage/worktime-api/internal/config"
	"github.com/yukikurage/worktime-api/internal/database"
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/repository"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.Local)

type sentMessage struct {
	department string
	text       string
}

type recordingNotifier struct {
	mu         sync.Mutex
	department []sentMessage
	general    []string
}

func (n *recordingNotifier) NotifyDepartment(_ context.Context, department, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.department = append(n.department, sentMessage{department: department, text: text})
}

func (n *recordingNotifier) NotifyGeneral(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.general = append(n.general, text)
}

func (n *recordingNotifier) departmentMessages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.department...)
}

func (n *recordingNotifier) generalMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.general...)
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAudit) Record(entry audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func testOrg() config.OrgConfig {
	return config.OrgConfig{
		Departments:               []string{"Монтажеры", "Корреспонденты", "Газета", "Операторы"},
		AdminDepartment:           "Администрация",
		SuspicionThresholdSeconds: 400,
	}
}

// serviceSuite wires the repositories against an in-memory database
type serviceSuite struct {
	suite.Suite
	db          *gorm.DB
	ctx         context.Context
	log         *zap.Logger
	org         config.OrgConfig
	userRepo    repository.UserRepository
	taskRepo    repository.TaskRepository
	workLogRepo repository.WorkLogRepository
	notifier    *recordingNotifier
	audit       *recordingAudit
}

func (s *serviceSuite) SetupTest() {
	var err error

	s.db, err = gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	s.Require().NoError(err)

	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(s.db.AutoMigrate(database.Models()...))

	s.ctx = context.Background()
	s.log = zap.NewNop()
	s.org = testOrg()
	s.userRepo = repository.NewUserRepository(s.db)
	s.taskRepo = repository.NewTaskRepository(s.db)
	s.workLogRepo = repository.NewWorkLogRepository(s.db)
	s.notifier = &recordingNotifier{}
	s.audit = &recordingAudit{}
}

func (s *serviceSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *serviceSuite) createUser(username, department string, role models.Role) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	s.Require().NoError(err)

	user := &models.User{
		Username:     username,
		Token:        strings.ToUpper(username) + "T",
		Department:   department,
		PasswordHash: string(hash),
		Role:         role,
	}
	s.Require().NoError(s.userRepo.Create(s.ctx, user))
	return user
}

func (s *serviceSuite) actor(user *models.User) Actor {
	return ActorFromUser(user)
}

// assertLifecycleInvariants checks taken_at iff taken_by and completed_at only when taken
func (s *serviceSuite) assertLifecycleInvariants() {
	var tasks []models.Task
	s.Require().NoError(s.db.Find(&tasks).Error)
	for _, task := range tasks {
		s.Equal(task.TakenBy != nil, task.TakenAt != nil, "task %d: taken_at must be set iff taken_by is", task.ID)
		if task.CompletedAt != nil {
			s.NotNil(task.TakenBy, "task %d: completed without a claimant", task.ID)
		}
	}
}
