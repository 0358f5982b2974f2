package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ysrbharadwaj/Loomio-sub001/events"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
)

// CompletionAward is the fixed number of points granted per approved
// assignment. Not configurable per task.
const CompletionAward = 10

// Actor identifies who is performing an operation. Platform admins bypass
// community role checks.
type Actor struct {
	UserID   uint
	Platform bool
}

// Engine enforces the task/assignment lifecycle. Every multi-row transition
// runs inside a single transaction; events are published only after commit.
type Engine struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewEngine(db *gorm.DB, bus *events.Bus) *Engine {
	return &Engine{db: db, bus: bus}
}

type TaskInput struct {
	Title        string
	Description  string
	Priority     string
	TaskType     string
	MaxAssignees int
	Deadline     *time.Time
	Tags         []string
}

// CreateTask creates a task in the community on behalf of a community admin.
// Individual tasks are forced to a single assignee slot.
func (e *Engine) CreateTask(communityID uint, in TaskInput, actor Actor) (*models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.TaskType == "" {
		in.TaskType = TaskTypeIndividual
	}
	if in.TaskType != TaskTypeIndividual && in.TaskType != TaskTypeGroup {
		return nil, fmt.Errorf("%w: unknown task type %q", ErrInvalidInput, in.TaskType)
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	if !validPriority(in.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, in.Priority)
	}
	if in.MaxAssignees < 1 {
		in.MaxAssignees = 1
	}
	if in.TaskType == TaskTypeIndividual {
		in.MaxAssignees = 1
	}

	var task models.Task
	var evs []events.Event
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var community models.Community
		if err := tx.First(&community, communityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: community %d", ErrNotFound, communityID)
			}
			return err
		}
		if err := requireCommunityAdmin(tx, communityID, actor); err != nil {
			return err
		}

		task = models.Task{
			Title:        strings.TrimSpace(in.Title),
			Description:  in.Description,
			Status:       string(TaskNotStarted),
			Priority:     in.Priority,
			TaskType:     in.TaskType,
			MaxAssignees: in.MaxAssignees,
			Deadline:     in.Deadline,
			CommunityID:  communityID,
			AssignedBy:   actor.UserID,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		if err := attachTags(tx, &task, in.Tags); err != nil {
			return err
		}

		targets := memberIDs(tx, communityID, actor.UserID)
		evs = append(evs, events.Event{
			Type:          events.TaskCreated,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActorName:     actorName(tx, actor),
			CommunityName: community.Name,
			TargetUserIDs: targets,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(evs)
	return &task, nil
}

type TaskUpdate struct {
	Title        *string
	Description  *string
	Priority     *string
	Deadline     *time.Time
	MaxAssignees *int
	Tags         []string
}

// UpdateTask edits mutable task fields. max_assignees can never drop below
// the number of assignments already attached.
func (e *Engine) UpdateTask(taskID uint, up TaskUpdate, actor Actor) (*models.Task, error) {
	var task *models.Task
	var evs []events.Event
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
			return err
		}

		if up.Title != nil {
			if strings.TrimSpace(*up.Title) == "" {
				return fmt.Errorf("%w: title is required", ErrInvalidInput)
			}
			task.Title = strings.TrimSpace(*up.Title)
		}
		if up.Description != nil {
			task.Description = *up.Description
		}
		if up.Priority != nil {
			if !validPriority(*up.Priority) {
				return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *up.Priority)
			}
			task.Priority = *up.Priority
		}
		if up.Deadline != nil {
			task.Deadline = up.Deadline
		}
		if up.MaxAssignees != nil {
			n := *up.MaxAssignees
			if task.TaskType == TaskTypeIndividual {
				n = 1
			}
			if n < 1 {
				return fmt.Errorf("%w: max_assignees must be at least 1", ErrInvalidInput)
			}
			var current int64
			if err := tx.Model(&models.TaskAssignment{}).Where("task_id = ?", task.ID).Count(&current).Error; err != nil {
				return err
			}
			if int64(n) < current {
				return fmt.Errorf("%w: %d assignees already attached", ErrConflict, current)
			}
			task.MaxAssignees = n
		}
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if up.Tags != nil {
			if err := tx.Model(task).Association("Tags").Clear(); err != nil {
				return err
			}
			if err := attachTags(tx, task, up.Tags); err != nil {
				return err
			}
		}

		evs = append(evs, events.Event{
			Type:          events.TaskUpdated,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActorName:     actorName(tx, actor),
			CommunityName: communityName(tx, task.CommunityID),
			TargetUserIDs: assigneeIDs(tx, task.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(evs)
	return task, nil
}

// DeleteTask removes a task with its assignments and subtasks.
func (e *Engine) DeleteTask(taskID uint, actor Actor) error {
	var evs []events.Event
	err := e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
			return err
		}

		targets := assigneeIDs(tx, task.ID)
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Subtask{}).Error; err != nil {
			return err
		}
		if err := tx.Model(task).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(task).Error; err != nil {
			return err
		}

		evs = append(evs, events.Event{
			Type:          events.TaskDeleted,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActorName:     actorName(tx, actor),
			CommunityName: communityName(tx, task.CommunityID),
			TargetUserIDs: targets,
		})
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(evs)
	return nil
}

func (e *Engine) publish(evs []events.Event) {
	if e.bus == nil {
		return
	}
	for _, ev := range evs {
		e.bus.Publish(ev)
	}
}

func getTask(tx *gorm.DB, id uint) (*models.Task, error) {
	var t models.Task
	if err := tx.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &t, nil
}

// requireCommunityAdmin checks that the actor administers the community.
func requireCommunityAdmin(tx *gorm.DB, communityID uint, actor Actor) error {
	if actor.Platform {
		return nil
	}
	var m models.Membership
	err := tx.Where("community_id = ? AND user_id = ? AND status = ?", communityID, actor.UserID, "Active").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: not a member of community %d", ErrForbidden, communityID)
		}
		return err
	}
	if m.Role != models.RoleAdmin {
		return fmt.Errorf("%w: community admin role required", ErrForbidden)
	}
	return nil
}

// requireActiveMember checks that the user actively belongs to the community.
func requireActiveMember(tx *gorm.DB, communityID, userID uint) error {
	var m models.Membership
	err := tx.Where("community_id = ? AND user_id = ? AND status = ?", communityID, userID, "Active").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: not an active member of community %d", ErrForbidden, communityID)
		}
		return err
	}
	return nil
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}

func actorName(tx *gorm.DB, actor Actor) string {
	if actor.Platform {
		var a models.Admin
		if err := tx.First(&a, actor.UserID).Error; err == nil {
			return a.Name
		}
		return "Platform admin"
	}
	var u models.User
	if err := tx.First(&u, actor.UserID).Error; err == nil {
		return u.Name
	}
	return "Someone"
}

func communityName(tx *gorm.DB, id uint) string {
	var c models.Community
	if err := tx.First(&c, id).Error; err == nil {
		return c.Name
	}
	return ""
}

// adminIDs returns the active community admins, used as notification targets
// for member-driven transitions. Target lookups are best-effort: a failed
// query is logged and yields no targets rather than failing the transition.
func adminIDs(tx *gorm.DB, communityID uint) []uint {
	var ids []uint
	if err := tx.Model(&models.Membership{}).
		Where("community_id = ? AND role = ? AND status = ?", communityID, models.RoleAdmin, "Active").
		Pluck("user_id", &ids).Error; err != nil {
		zap.L().Error("failed to load admin notification targets",
			zap.Uint("community_id", communityID), zap.Error(err))
	}
	return ids
}

func memberIDs(tx *gorm.DB, communityID uint, except uint) []uint {
	var ids []uint
	if err := tx.Model(&models.Membership{}).
		Where("community_id = ? AND status = ? AND user_id <> ?", communityID, "Active", except).
		Pluck("user_id", &ids).Error; err != nil {
		zap.L().Error("failed to load member notification targets",
			zap.Uint("community_id", communityID), zap.Error(err))
	}
	return ids
}

func assigneeIDs(tx *gorm.DB, taskID uint) []uint {
	var ids []uint
	if err := tx.Model(&models.TaskAssignment{}).Where("task_id = ?", taskID).
		Pluck("user_id", &ids).Error; err != nil {
		zap.L().Error("failed to load assignee notification targets",
			zap.Uint("task_id", taskID), zap.Error(err))
	}
	return ids
}

func attachTags(tx *gorm.DB, task *models.Task, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var tag models.Tag
		if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			tag = models.Tag{Name: name}
			if err := tx.Create(&tag).Error; err != nil && !isDuplicateErr(err) {
				return err
			}
		}
		if err := tx.Model(task).Association("Tags").Append(&tag); err != nil {
			return err
		}
	}
	return nil
}
