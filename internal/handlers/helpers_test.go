package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/worktime-api/internal/audit"
	"github.com/yukikurage/worktime-api/internal/config"
	"github.com/yukikurage/worktime-api/internal/constants"
	"github.com/yukikurage/worktime-api/internal/database"
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/notifier"
	"github.com/yukikurage/worktime-api/internal/repository"
	"github.com/yukikurage/worktime-api/internal/services"
)

const testPassword = "password123"

// handlerSuite serves the full router against an in-memory database
type handlerSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	auditDir string
}

func (s *handlerSuite) SetupTest() {
	var err error

	s.db, err = gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	s.Require().NoError(err)

	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	log := zap.NewNop()
	s.Require().NoError(database.Migrate(s.db, log))

	org := config.OrgConfig{
		Departments:               []string{"Монтажеры", "Корреспонденты", "Газета", "Операторы"},
		AdminDepartment:           "Администрация",
		SuspicionThresholdSeconds: 400,
	}

	s.userRepo = repository.NewUserRepository(s.db)
	s.taskRepo = repository.NewTaskRepository(s.db)
	workLogRepo := repository.NewWorkLogRepository(s.db)
	s.auditDir = s.T().TempDir()

	svc := Services{
		Auth:    services.NewAuthService(s.userRepo, org, log),
		Task:    services.NewTaskService(s.taskRepo, s.userRepo, notifier.Nop{}, nil, org, log),
		WorkLog: services.NewWorkLogService(workLogRepo, s.userRepo, audit.NewDailyLog(s.auditDir, log), org, log),
		Report:  services.NewReportService(workLogRepo, s.taskRepo, s.userRepo, log),
	}

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-session-secret"))))
	RegisterRoutes(s.router, svc)
}

func (s *handlerSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *handlerSuite) createUser(username, department string, role models.Role) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	s.Require().NoError(err)

	user := &models.User{
		Username:     username,
		Token:        strings.ToUpper(username) + "T",
		Department:   department,
		PasswordHash: string(hash),
		Role:         role,
	}
	s.Require().NoError(s.userRepo.Create(context.Background(), user))
	return user
}

// login returns the session cookies of a freshly logged-in user
func (s *handlerSuite) login(username string) []*http.Cookie {
	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": testPassword,
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)
	return cookies
}

func (s *handlerSuite) do(method, url string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		req = httptest.NewRequest(method, url, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *handlerSuite) decode(w *httptest.ResponseRecorder, target any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func (s *handlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	s.decode(w, &body)
	return body.Code
}
