package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/yukikurage/worktime-api/internal/models"
)

type TaskServiceTestSuite struct {
	serviceSuite
	service *TaskService

	superadmin *models.User
	admin      *models.User
	alice      *models.User
	bob        *models.User
	operator   *models.User
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()

	s.service = NewTaskService(s.taskRepo, s.userRepo, s.notifier, nil, s.org, s.log)
	s.service.now = func() time.Time { return fixedNow }

	s.superadmin = s.createUser("root", "Администрация", models.RoleSuperadmin)
	s.admin = s.createUser("editor", "Газета", models.RoleAdmin)
	s.alice = s.createUser("alice", "Газета", models.RoleUser)
	s.bob = s.createUser("bob", "Газета", models.RoleUser)
	s.operator = s.createUser("oleg", "Операторы", models.RoleUser)
}

func (s *TaskServiceTestSuite) createTask(actor *models.User, department string) *models.Task {
	task, err := s.service.CreateTask(s.ctx, s.actor(actor), CreateTaskInput{
		Title:       "Cover the council meeting",
		Description: "Two photos and a short note",
		Points:      5,
		Department:  department,
	})
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceTestSuite) TestCreateTaskNotifiesDepartment() {
	task := s.createTask(s.admin, "Газета")

	s.Equal("Газета", task.Department)
	s.Equal(s.admin.ID, task.AssignedBy)
	s.Equal("2024-03-15 12:00:00", task.CreatedAt.String())
	s.True(task.IsFree())
	s.Nil(task.TakenAt)

	messages := s.notifier.departmentMessages()
	s.Require().Len(messages, 1)
	s.Equal("Газета", messages[0].department)
	s.Equal("Новая задача для отдела *Газета*:\nCover the council meeting\nTwo photos and a short note", messages[0].text)
	s.assertLifecycleInvariants()
}

func (s *TaskServiceTestSuite) TestCreateTaskDepartmentRules() {
	_, err := s.service.CreateTask(s.ctx, s.actor(s.admin), CreateTaskInput{Title: "x", Department: "Операторы"})
	s.ErrorIs(err, ErrInvalidDepartment)

	task, err := s.service.CreateTask(s.ctx, s.actor(s.admin), CreateTaskInput{Title: "x"})
	s.Require().NoError(err)
	s.Equal("Газета", task.Department)

	_, err = s.service.CreateTask(s.ctx, s.actor(s.superadmin), CreateTaskInput{Title: "x", Department: "Бухгалтерия"})
	s.ErrorIs(err, ErrInvalidDepartment)

	_, err = s.service.CreateTask(s.ctx, s.actor(s.superadmin), CreateTaskInput{Title: "x", Department: "Администрация"})
	s.ErrorIs(err, ErrInvalidDepartment)

	task, err = s.service.CreateTask(s.ctx, s.actor(s.superadmin), CreateTaskInput{Title: "x", Department: "Операторы"})
	s.Require().NoError(err)
	s.Equal("Операторы", task.Department)

	_, err = s.service.CreateTask(s.ctx, s.actor(s.alice), CreateTaskInput{Title: "x", Department: "Газета"})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.CreateTask(s.ctx, s.actor(s.admin), CreateTaskInput{Title: "   "})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.service.CreateTask(s.ctx, s.actor(s.admin), CreateTaskInput{Title: "x", Points: -1})
	s.ErrorIs(err, ErrInvalidPoints)
}

func (s *TaskServiceTestSuite) TestCreateTaskWithAssignee() {
	task, err := s.service.CreateTask(s.ctx, s.actor(s.admin), CreateTaskInput{
		Title:      "Preassigned",
		Points:     3,
		AssigneeID: &s.alice.ID,
	})
	s.Require().NoError(err)
	s.Require().NotNil(task.TakenBy)
	s.Equal(s.alice.ID, *task.TakenBy)
	s.Require().NotNil(task.TakenAt)
	s.Equal(task.CreatedAt.String(), task.TakenAt.String())
	s.Equal(models.TaskStateTaken, task.State())
	s.assertLifecycleInvariants()
}

func (s *TaskServiceTestSuite) TestCreateTaskInvalidAssignee() {
	missing := uint64(9999)
	for name, assignee := range map[string]*uint64{
		"other department": &s.operator.ID,
		"admin role":       &s.admin.ID,
		"missing user":     &missing,
	} {
		_, err := s.service.CreateTask(s.ctx, s.actor(s.admin), CreateTaskInput{
			Title:      "Preassigned",
			AssigneeID: assignee,
		})
		s.ErrorIs(err, ErrInvalidAssignee, name)
	}

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Count(&count).Error)
	s.Zero(count)
	s.Empty(s.notifier.departmentMessages())
}

func (s *TaskServiceTestSuite) TestClaimTask() {
	task := s.createTask(s.admin, "Газета")

	claimed, err := s.service.ClaimTask(s.ctx, s.actor(s.alice), task.ID)
	s.Require().NoError(err)
	s.Require().NotNil(claimed.TakenBy)
	s.Equal(s.alice.ID, *claimed.TakenBy)
	s.Equal("2024-03-15 12:00:00", claimed.TakenAt.String())

	_, err = s.service.ClaimTask(s.ctx, s.actor(s.bob), task.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.ClaimTask(s.ctx, s.actor(s.alice), task.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.ClaimTask(s.ctx, s.actor(s.alice), 9999)
	s.ErrorIs(err, ErrTaskNotFound)

	// same department as the creator: only the creation message was sent
	s.Len(s.notifier.departmentMessages(), 1)
	s.assertLifecycleInvariants()
}

func (s *TaskServiceTestSuite) TestClaimTaskOtherDepartmentForbidden() {
	task := s.createTask(s.admin, "Газета")

	_, err := s.service.ClaimTask(s.ctx, s.actor(s.operator), task.ID)
	s.ErrorIs(err, ErrForbidden)

	stored, err := s.taskRepo.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.True(stored.IsFree())
}

func (s *TaskServiceTestSuite) TestClaimTaskNotifiesCrossDepartment() {
	task := s.createTask(s.superadmin, "Операторы")

	_, err := s.service.ClaimTask(s.ctx, s.actor(s.operator), task.ID)
	s.Require().NoError(err)

	messages := s.notifier.departmentMessages()
	s.Require().Len(messages, 2)
	s.Equal("Операторы", messages[1].department)
	s.Equal("*Отдел получил задачу от другого отдела*\nОтдел-инициатор: *Администрация*\nЗадача: *Cover the council meeting*", messages[1].text)
}

func (s *TaskServiceTestSuite) TestConcurrentClaimsSucceedExactlyOnce() {
	task := s.createTask(s.admin, "Газета")

	claimants := []*models.User{s.alice, s.bob}
	for i := 0; i < 6; i++ {
		claimants = append(claimants, s.createUser("reporter"+string(rune('a'+i)), "Газета", models.RoleUser))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		forbidden int
	)
	for _, user := range claimants {
		wg.Add(1)
		go func(actor Actor) {
			defer wg.Done()
			_, err := s.service.ClaimTask(s.ctx, actor, task.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case err == ErrForbidden:
				forbidden++
			}
		}(s.actor(user))
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(len(claimants)-1, forbidden)

	stored, err := s.taskRepo.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.NotNil(stored.TakenBy)
	s.assertLifecycleInvariants()
}

func (s *TaskServiceTestSuite) TestCompleteTask() {
	task := s.createTask(s.admin, "Газета")

	_, err := s.service.CompleteTask(s.ctx, s.actor(s.alice), task.ID)
	s.ErrorIs(err, ErrForbidden, "a free task cannot be completed")

	_, err = s.service.ClaimTask(s.ctx, s.actor(s.alice), task.ID)
	s.Require().NoError(err)

	_, err = s.service.CompleteTask(s.ctx, s.actor(s.bob), task.ID)
	s.ErrorIs(err, ErrForbidden)

	completed, err := s.service.CompleteTask(s.ctx, s.actor(s.alice), task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStateCompleted, completed.State())

	_, err = s.service.CompleteTask(s.ctx, s.actor(s.alice), 9999)
	s.ErrorIs(err, ErrTaskNotFound)

	general := s.notifier.generalMessages()
	s.Require().Len(general, 1)
	s.Equal("*Задача выполнена*\nПользователь: *alice*\nОтдел: *Газета*\nЗадача: *Cover the council meeting*\n", general[0])
	s.assertLifecycleInvariants()
}

func (s *TaskServiceTestSuite) TestAdjustPointsInPlace() {
	task := s.createTask(s.admin, "Газета")

	result, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), AdjustPointsInput{
		TaskID:    task.ID,
		NewPoints: 8,
		Reason:    "  extra photos  ",
	})
	s.Require().NoError(err)
	s.Nil(result.Forwarded)
	s.Equal(8, result.Task.Points)

	stored, err := s.taskRepo.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(8, stored.Points)
	s.Require().NotNil(stored.AdjustComment)
	s.Equal("extra photos", *stored.AdjustComment)
	s.True(stored.IsFree(), "adjusting does not depend on the lifecycle stage")
}

func (s *TaskServiceTestSuite) TestAdjustPointsEmptyReasonMarksReviewed() {
	task := s.createTask(s.admin, "Газета")

	_, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), AdjustPointsInput{TaskID: task.ID, NewPoints: 2})
	s.Require().NoError(err)

	stored, err := s.taskRepo.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.AdjustComment)
	s.Equal("", *stored.AdjustComment)
	s.True(stored.IsReviewed())
}

func (s *TaskServiceTestSuite) TestAdjustPointsForwardIsIdempotent() {
	task := s.createTask(s.admin, "Газета")
	_, err := s.service.ClaimTask(s.ctx, s.actor(s.alice), task.ID)
	s.Require().NoError(err)
	_, err = s.service.CompleteTask(s.ctx, s.actor(s.alice), task.ID)
	s.Require().NoError(err)

	input := AdjustPointsInput{TaskID: task.ID, NewPoints: 4, Reason: "ignored", ForwardDepartment: "Операторы"}

	first, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), input)
	s.Require().NoError(err)
	s.Require().NotNil(first.Forwarded)
	s.Equal("Операторы", first.Forwarded.Department)
	s.Equal(4, first.Forwarded.Points)
	s.Equal(task.CreatedAt.String(), first.Forwarded.CreatedAt.String())
	s.True(first.Forwarded.IsFree())
	s.Nil(first.Forwarded.CompletedAt)
	s.Nil(first.Forwarded.AdjustComment)

	second, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), input)
	s.Require().NoError(err)
	s.Nil(second.Forwarded)
	s.True(second.AlreadyForwarded)

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Count(&count).Error)
	s.Equal(int64(2), count)

	original, err := s.taskRepo.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(5, original.Points)
	s.Nil(original.AdjustComment)
	s.Equal(models.TaskStateCompleted, original.State())

	messages := s.notifier.departmentMessages()
	s.Require().Len(messages, 2)
	s.Equal("Операторы", messages[1].department)
	s.assertLifecycleInvariants()
}

func (s *TaskServiceTestSuite) TestConcurrentForwardsCreateOneCopy() {
	task := s.createTask(s.admin, "Газета")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), AdjustPointsInput{
				TaskID: task.ID, NewPoints: 1, ForwardDepartment: "Монтажеры",
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Where("department = ?", "Монтажеры").Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *TaskServiceTestSuite) TestAdjustPointsForwardToSameDepartmentAdjustsInPlace() {
	task := s.createTask(s.admin, "Газета")

	result, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), AdjustPointsInput{
		TaskID: task.ID, NewPoints: 9, ForwardDepartment: "Газета",
	})
	s.Require().NoError(err)
	s.Nil(result.Forwarded)
	s.True(result.Task.IsReviewed())
}

func (s *TaskServiceTestSuite) TestAdjustPointsErrors() {
	task := s.createTask(s.admin, "Газета")

	_, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), AdjustPointsInput{TaskID: 9999, NewPoints: 1})
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.service.AdjustPoints(s.ctx, s.actor(s.alice), AdjustPointsInput{TaskID: task.ID, NewPoints: 1})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.AdjustPoints(s.ctx, s.actor(s.admin), AdjustPointsInput{TaskID: task.ID, NewPoints: 1, ForwardDepartment: "Бухгалтерия"})
	s.ErrorIs(err, ErrInvalidDepartment)
}

func (s *TaskServiceTestSuite) TestListTasksVisibility() {
	free := s.createTask(s.admin, "Газета")
	mine := s.createTask(s.admin, "Газета")
	theirs := s.createTask(s.admin, "Газета")

	_, err := s.service.ClaimTask(s.ctx, s.actor(s.alice), mine.ID)
	s.Require().NoError(err)
	_, err = s.service.ClaimTask(s.ctx, s.actor(s.bob), theirs.ID)
	s.Require().NoError(err)

	ids := func(list *TaskList) []uint64 {
		out := make([]uint64, 0, len(list.Tasks))
		for _, t := range list.Tasks {
			out = append(out, t.ID)
		}
		return out
	}

	list, err := s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{})
	s.Require().NoError(err)
	s.Equal("Газета", list.Department)
	s.Equal(2024, list.Year)
	s.Equal(3, list.Month)
	s.ElementsMatch([]uint64{free.ID, mine.ID}, ids(list))
	s.NotContains(ids(list), theirs.ID)

	list, err = s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{Status: StatusFilterFree})
	s.Require().NoError(err)
	s.Equal([]uint64{free.ID}, ids(list))

	list, err = s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{Status: StatusFilterTaken})
	s.Require().NoError(err)
	s.Equal([]uint64{mine.ID}, ids(list))

	list, err = s.service.ListTasks(s.ctx, s.actor(s.admin), ListTasksInput{})
	s.Require().NoError(err)
	s.ElementsMatch([]uint64{free.ID, mine.ID, theirs.ID}, ids(list))

	list, err = s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{Department: "Операторы"})
	s.Require().NoError(err)
	s.Equal("Газета", list.Department, "plain users always see their own department")

	list, err = s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{Year: 2024, Month: 2})
	s.Require().NoError(err)
	s.Empty(list.Tasks)

	_, err = s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{Status: "everything"})
	s.ErrorIs(err, ErrInvalidStatus)

	_, err = s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{Month: 13})
	s.ErrorIs(err, ErrInvalidPeriod)
}

func (s *TaskServiceTestSuite) TestListTasksSuperadminDepartment() {
	s.createTask(s.superadmin, "Операторы")

	list, err := s.service.ListTasks(s.ctx, s.actor(s.superadmin), ListTasksInput{})
	s.Require().NoError(err)
	s.Equal([]string{"Администрация", "Газета", "Операторы"}, list.Departments)
	s.Equal("Администрация", list.Department)
	s.Empty(list.Tasks)

	list, err = s.service.ListTasks(s.ctx, s.actor(s.superadmin), ListTasksInput{Department: "Операторы"})
	s.Require().NoError(err)
	s.Len(list.Tasks, 1)
}

func (s *TaskServiceTestSuite) TestListTasksTotalPointsCountsReviewedOnly() {
	reviewed := s.createTask(s.admin, "Газета")
	unreviewed := s.createTask(s.admin, "Газета")

	for _, task := range []*models.Task{reviewed, unreviewed} {
		_, err := s.service.ClaimTask(s.ctx, s.actor(s.alice), task.ID)
		s.Require().NoError(err)
		_, err = s.service.CompleteTask(s.ctx, s.actor(s.alice), task.ID)
		s.Require().NoError(err)
	}
	_, err := s.service.AdjustPoints(s.ctx, s.actor(s.admin), AdjustPointsInput{TaskID: reviewed.ID, NewPoints: 3})
	s.Require().NoError(err)

	list, err := s.service.ListTasks(s.ctx, s.actor(s.alice), ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(3, list.TotalPoints)
	s.Equal("балла", list.PointsLabel)
}

func (s *TaskServiceTestSuite) TestDraftTasksWithoutAI() {
	_, err := s.service.DraftTasks(s.ctx, s.actor(s.admin), "", "text")
	s.ErrorIs(err, ErrAIServiceNotConfigured)

	_, err = s.service.DraftTasks(s.ctx, s.actor(s.alice), "", "text")
	s.ErrorIs(err, ErrForbidden)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
