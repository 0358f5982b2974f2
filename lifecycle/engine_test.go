package lifecycle

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ysrbharadwaj/Loomio-sub001/models"
)

type fixture struct {
	engine    *Engine
	db        *gorm.DB
	community models.Community
	admin     models.User
	alice     models.User
	bob       models.User
	carol     models.User
}

func setupEngine(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Community{},
		&models.Membership{},
		&models.Tag{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.Subtask{},
		&models.Contribution{},
		&models.Notification{},
	))

	f := &fixture{engine: NewEngine(db, nil), db: db}
	f.admin = createUser(t, db, "Admin", "admin@example.com")
	f.alice = createUser(t, db, "Alice", "alice@example.com")
	f.bob = createUser(t, db, "Bob", "bob@example.com")
	f.carol = createUser(t, db, "Carol", "carol@example.com")

	f.community = models.Community{Name: "Garden Club", InviteCode: "GARDEN42", CreatedBy: f.admin.ID}
	require.NoError(t, db.Create(&f.community).Error)
	addMember(t, db, f.community.ID, f.admin.ID, models.RoleAdmin)
	addMember(t, db, f.community.ID, f.alice.ID, models.RoleMember)
	addMember(t, db, f.community.ID, f.bob.ID, models.RoleMember)
	addMember(t, db, f.community.ID, f.carol.ID, models.RoleMember)
	return f
}

func createUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: email, Password: "x", Status: "Active"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func addMember(t *testing.T, db *gorm.DB, communityID, userID uint, role string) {
	t.Helper()
	m := models.Membership{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
		Status:      "Active",
		JoinedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&m).Error)
}

func (f *fixture) adminActor() Actor { return Actor{UserID: f.admin.ID} }

func (f *fixture) createTask(t *testing.T, taskType string, max int) *models.Task {
	t.Helper()
	task, err := f.engine.CreateTask(f.community.ID, TaskInput{
		Title:        "Water the seedlings",
		TaskType:     taskType,
		MaxAssignees: max,
	}, f.adminActor())
	require.NoError(t, err)
	return task
}

func (f *fixture) contributionCount(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Contribution{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func (f *fixture) reloadUser(t *testing.T, id uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, id).Error)
	return u
}

func (f *fixture) reloadTask(t *testing.T, id uint) models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, f.db.First(&task, id).Error)
	return task
}

func TestCreateTask(t *testing.T) {
	f := setupEngine(t)

	task, err := f.engine.CreateTask(f.community.ID, TaskInput{
		Title:        "  Prune the roses  ",
		TaskType:     TaskTypeIndividual,
		MaxAssignees: 5,
		Tags:         []string{"outdoor", "weekly"},
	}, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, "Prune the roses", task.Title)
	assert.Equal(t, string(TaskNotStarted), task.Status)
	assert.Equal(t, 1, task.MaxAssignees, "individual tasks get exactly one slot")
	assert.Equal(t, "medium", task.Priority)

	var tagCount int64
	require.NoError(t, f.db.Table("task_tags").Where("task_id = ?", task.ID).Count(&tagCount).Error)
	assert.EqualValues(t, 2, tagCount)

	// plain members cannot create tasks
	_, err = f.engine.CreateTask(f.community.ID, TaskInput{Title: "Nope"}, Actor{UserID: f.alice.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	// nonexistent community
	_, err = f.engine.CreateTask(9999, TaskInput{Title: "Nope"}, f.adminActor())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.CreateTask(f.community.ID, TaskInput{Title: "Bad", Priority: "whenever"}, f.adminActor())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssignUsersCapacity(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	// three users into two slots is refused outright, even with duplicates
	_, err := f.engine.AssignUsers(task.ID, []uint{f.alice.ID, f.bob.ID, f.carol.ID}, f.adminActor())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	created, err := f.engine.AssignUsers(task.ID, []uint{f.alice.ID}, f.adminActor())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, string(AssignmentAssigned), created[0].Status)
	assert.Equal(t, string(TaskInProgress), f.reloadTask(t, task.ID).Status)

	// re-assigning the same user is skipped, not an error
	created, err = f.engine.AssignUsers(task.ID, []uint{f.alice.ID}, f.adminActor())
	require.NoError(t, err)
	assert.Empty(t, created)

	created, err = f.engine.AssignUsers(task.ID, []uint{f.bob.ID}, f.adminActor())
	require.NoError(t, err)
	require.Len(t, created, 1)

	_, err = f.engine.AssignUsers(task.ID, []uint{f.carol.ID}, f.adminActor())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// only community admins may bulk-assign
	_, err = f.engine.AssignUsers(task.ID, []uint{f.carol.ID}, Actor{UserID: f.alice.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSelfAssign(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeIndividual, 1)

	a, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, string(AssignmentAccepted), a.Status)
	assert.NotNil(t, a.AcceptedAt)
	assert.Equal(t, string(TaskInProgress), f.reloadTask(t, task.ID).Status)

	// individual tasks: first taker wins
	_, err = f.engine.SelfAssign(task.ID, f.bob.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	outsider := createUser(t, f.db, "Eve", "eve@example.com")
	_, err = f.engine.SelfAssign(task.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSelfAssignDuplicate(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 3)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)

	_, err = f.engine.SelfAssign(task.ID, f.alice.ID)
	assert.ErrorIs(t, err, ErrDuplicateAssignment)
}

func TestAcceptAndStart(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)
	_, err := f.engine.AssignUsers(task.ID, []uint{f.alice.ID}, f.adminActor())
	require.NoError(t, err)

	a, err := f.engine.Accept(task.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, string(AssignmentAccepted), a.Status)
	assert.NotNil(t, a.AcceptedAt)

	a, err = f.engine.Start(task.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, string(AssignmentInProgress), a.Status)

	// accept is only legal from "assigned"
	_, err = f.engine.Accept(task.ID, f.alice.ID)
	assert.ErrorIs(t, err, ErrConflict)

	// no assignment row at all
	_, err = f.engine.Start(task.ID, f.bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitFromAssigned(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeIndividual, 1)
	_, err := f.engine.AssignUsers(task.ID, []uint{f.alice.ID}, f.adminActor())
	require.NoError(t, err)

	// a bulk-assigned member may submit without accepting first
	a, err := f.engine.Submit(task.ID, f.alice.ID, "https://example.com/work", "done")
	require.NoError(t, err)
	assert.Equal(t, string(AssignmentSubmitted), a.Status)
	assert.NotNil(t, a.SubmittedAt)
	require.NotNil(t, a.SubmissionLink)
	assert.Equal(t, "https://example.com/work", *a.SubmissionLink)
	assert.Equal(t, string(TaskSubmitted), f.reloadTask(t, task.ID).Status)

	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	assert.ErrorIs(t, err, ErrForbidden, "resubmission is refused")

	_, err = f.engine.Submit(task.ID, f.bob.ID, "", "")
	assert.ErrorIs(t, err, ErrForbidden, "non-assignees cannot submit")
}

func TestSubmitAfterDeadline(t *testing.T) {
	f := setupEngine(t)
	yesterday := time.Now().Add(-24 * time.Hour)
	task, err := f.engine.CreateTask(f.community.ID, TaskInput{
		Title:    "Late entry",
		TaskType: TaskTypeIndividual,
		Deadline: &yesterday,
	}, f.adminActor())
	require.NoError(t, err)

	_, err = f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)

	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	assert.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestReviewApproveAwardsOnce(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeIndividual, 1)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.alice.ID, "https://example.com/work", "")
	require.NoError(t, err)

	// only the community admin may review
	_, err = f.engine.Review(task.ID, "approve", "", Actor{UserID: f.bob.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	reviewed, err := f.engine.Review(task.ID, "approve", "nice work", f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, string(TaskCompleted), reviewed.Status)
	assert.NotNil(t, reviewed.CompletionDate)

	alice := f.reloadUser(t, f.alice.ID)
	assert.EqualValues(t, CompletionAward, alice.Points)
	assert.Equal(t, 1, alice.CurrentStreak)
	assert.NotNil(t, alice.LastActivityAt)
	assert.EqualValues(t, 1, f.contributionCount(t, f.alice.ID))

	// a second review finds the task no longer submitted
	_, err = f.engine.Review(task.ID, "approve", "", f.adminActor())
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 1, f.contributionCount(t, f.alice.ID), "points are awarded exactly once")
}

func TestReviewReject(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeIndividual, 1)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	require.NoError(t, err)

	_, err = f.engine.Review(task.ID, "maybe", "", f.adminActor())
	assert.ErrorIs(t, err, ErrInvalidInput)

	reviewed, err := f.engine.Review(task.ID, "reject", "missing photos", f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, string(TaskRejected), reviewed.Status)

	alice := f.reloadUser(t, f.alice.ID)
	assert.Zero(t, alice.Points)
	assert.Zero(t, f.contributionCount(t, f.alice.ID))
}

func TestGroupReviewIndividual(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.engine.SelfAssign(task.ID, f.bob.ID)
	require.NoError(t, err)

	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, string(TaskInProgress), f.reloadTask(t, task.ID).Status,
		"group task waits for every member before advancing")

	a, err := f.engine.ReviewIndividual(task.ID, f.alice.ID, "approve", "", f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, string(AssignmentCompleted), a.Status)
	assert.EqualValues(t, 1, f.contributionCount(t, f.alice.ID))

	// one approval completes the task even though Bob's assignment is open
	approved := f.reloadTask(t, task.ID)
	assert.Equal(t, string(TaskCompleted), approved.Status)
	assert.NotNil(t, approved.CompletionDate)

	var bobRow models.TaskAssignment
	require.NoError(t, f.db.Where("task_id = ? AND user_id = ?", task.ID, f.bob.ID).First(&bobRow).Error)
	assert.Equal(t, string(AssignmentAccepted), bobRow.Status)

	// Bob can still finish and be settled on his own
	_, err = f.engine.Submit(task.ID, f.bob.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, string(TaskCompleted), f.reloadTask(t, task.ID).Status,
		"a late submission does not reopen a completed task")
	a, err = f.engine.ReviewIndividual(task.ID, f.bob.ID, "reject", "incomplete", f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, string(AssignmentRejected), a.Status)
	assert.Zero(t, f.contributionCount(t, f.bob.ID))

	final := f.reloadTask(t, task.ID)
	assert.Equal(t, string(TaskCompleted), final.Status, "a rejection never undoes a completion")
	assert.NotNil(t, final.CompletionDate)
}

func TestGroupRejectionsOnlyCompleteWhenAllSettled(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.engine.SelfAssign(task.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.bob.ID, "", "")
	require.NoError(t, err)

	_, err = f.engine.ReviewIndividual(task.ID, f.alice.ID, "reject", "", f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, string(TaskSubmitted), f.reloadTask(t, task.ID).Status,
		"task stays open while an assignment is unreviewed")

	_, err = f.engine.ReviewIndividual(task.ID, f.bob.ID, "reject", "", f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, string(TaskRejected), f.reloadTask(t, task.ID).Status,
		"all rejected and none approved: task is rejected")
}

func TestReviewSkipsAlreadyReviewed(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.engine.SelfAssign(task.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.bob.ID, "", "")
	require.NoError(t, err)

	_, err = f.engine.ReviewIndividual(task.ID, f.alice.ID, "reject", "", f.adminActor())
	require.NoError(t, err)

	// task-level approval settles the rest without touching Alice again
	reviewed, err := f.engine.Review(task.ID, "approve", "", f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, string(TaskCompleted), reviewed.Status)

	assert.Zero(t, f.contributionCount(t, f.alice.ID), "a settled rejection is not overturned")
	assert.EqualValues(t, 1, f.contributionCount(t, f.bob.ID))
	assert.EqualValues(t, CompletionAward, f.reloadUser(t, f.bob.ID).Points)

	var aliceRow models.TaskAssignment
	require.NoError(t, f.db.Where("task_id = ? AND user_id = ?", task.ID, f.alice.ID).First(&aliceRow).Error)
	assert.Equal(t, string(AssignmentRejected), aliceRow.Status)
}

func TestRevoke(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)

	// another member cannot revoke someone else's assignment
	err = f.engine.Revoke(task.ID, f.alice.ID, Actor{UserID: f.bob.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	// members may drop their own
	err = f.engine.Revoke(task.ID, f.alice.ID, Actor{UserID: f.alice.ID})
	require.NoError(t, err)
	assert.Equal(t, string(TaskNotStarted), f.reloadTask(t, task.ID).Status,
		"last revocation reopens the task")

	// and the slot is immediately reusable
	_, err = f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
}

func TestRevokeAfterSubmission(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeIndividual, 1)

	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	require.NoError(t, err)

	err = f.engine.Revoke(task.ID, f.alice.ID, f.adminActor())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateTaskMaxAssigneesFloor(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 3)

	_, err := f.engine.AssignUsers(task.ID, []uint{f.alice.ID, f.bob.ID}, f.adminActor())
	require.NoError(t, err)

	one := 1
	_, err = f.engine.UpdateTask(task.ID, TaskUpdate{MaxAssignees: &one}, f.adminActor())
	assert.ErrorIs(t, err, ErrConflict, "cannot shrink below current assignees")

	two := 2
	updated, err := f.engine.UpdateTask(task.ID, TaskUpdate{MaxAssignees: &two}, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxAssignees)
}

func TestDeleteTaskCascades(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	_, err := f.engine.AssignUsers(task.ID, []uint{f.alice.ID}, f.adminActor())
	require.NoError(t, err)
	_, err = f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Step one"}, f.adminActor())
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteTask(task.ID, f.adminActor()))

	var assignments, subtasks int64
	require.NoError(t, f.db.Model(&models.TaskAssignment{}).Where("task_id = ?", task.ID).Count(&assignments).Error)
	require.NoError(t, f.db.Model(&models.Subtask{}).Where("task_id = ?", task.ID).Count(&subtasks).Error)
	assert.Zero(t, assignments)
	assert.Zero(t, subtasks)

	err = f.engine.DeleteTask(task.ID, f.adminActor())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationTargetErrorsAreLogged(t *testing.T) {
	f := setupEngine(t)
	core, logs := observer.New(zap.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	require.NoError(t, f.db.Exec("DROP TABLE memberships").Error)

	assert.Empty(t, adminIDs(f.db, f.community.ID))
	assert.Empty(t, memberIDs(f.db, f.community.ID, f.admin.ID))
	assert.Equal(t, 2, logs.Len(), "failed target lookups are logged, not swallowed")
}

func TestStreakAccumulation(t *testing.T) {
	f := setupEngine(t)

	// seed yesterday's activity, then approve a task today
	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", f.alice.ID).
		Updates(map[string]interface{}{"current_streak": 2, "last_activity_at": yesterday}).Error)

	task := f.createTask(t, TaskTypeIndividual, 1)
	_, err := f.engine.SelfAssign(task.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.engine.Submit(task.ID, f.alice.ID, "", "")
	require.NoError(t, err)
	_, err = f.engine.Review(task.ID, "approve", "", f.adminActor())
	require.NoError(t, err)

	alice := f.reloadUser(t, f.alice.ID)
	assert.Equal(t, 3, alice.CurrentStreak, "consecutive-day completion extends the streak")
}
