package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ysrbharadwaj/Loomio-sub001/events"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
)

// AssignUsers attaches assignment rows for the given users, community-admin
// only. Duplicate (task,user) pairs are skipped, not fatal; capacity is
// checked against the raw request size before inserting.
func (e *Engine) AssignUsers(taskID uint, userIDs []uint, actor Actor) ([]models.TaskAssignment, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: no users given", ErrInvalidInput)
	}
	var created []models.TaskAssignment
	var evs []events.Event
	err := e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
			return err
		}
		if !assignable(task.TaskType, TaskStatus(task.Status)) {
			return fmt.Errorf("%w: task is %s", ErrConflict, task.Status)
		}

		var current int64
		if err := tx.Model(&models.TaskAssignment{}).Where("task_id = ?", task.ID).Count(&current).Error; err != nil {
			return err
		}
		if current+int64(len(userIDs)) > int64(task.MaxAssignees) {
			return fmt.Errorf("%w: %d of %d slots taken", ErrCapacityExceeded, current, task.MaxAssignees)
		}

		now := time.Now()
		for _, uid := range userIDs {
			a := models.TaskAssignment{
				TaskID:     task.ID,
				UserID:     uid,
				Status:     string(AssignmentAssigned),
				AssignedAt: now,
			}
			if err := tx.Create(&a).Error; err != nil {
				if isDuplicateErr(err) {
					// already assigned, skip
					continue
				}
				return err
			}
			created = append(created, a)
		}

		if len(created) > 0 && TaskStatus(task.Status) == TaskNotStarted {
			if err := tx.Model(task).Update("status", string(TaskInProgress)).Error; err != nil {
				return err
			}
		}

		if len(created) > 0 {
			targets := make([]uint, 0, len(created))
			for _, a := range created {
				targets = append(targets, a.UserID)
			}
			evs = append(evs, events.Event{
				Type:          events.TaskAssigned,
				TaskID:        task.ID,
				TaskTitle:     task.Title,
				ActorName:     actorName(tx, actor),
				CommunityName: communityName(tx, task.CommunityID),
				TargetUserIDs: targets,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(evs)
	return created, nil
}

// SelfAssign lets an active community member pick up an open task. The new
// assignment starts at "accepted"; a not-started task moves to in_progress.
func (e *Engine) SelfAssign(taskID, userID uint) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	var evs []events.Event
	err := e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireActiveMember(tx, task.CommunityID, userID); err != nil {
			return err
		}
		if !assignable(task.TaskType, TaskStatus(task.Status)) {
			return fmt.Errorf("%w: task is %s", ErrConflict, task.Status)
		}

		var current int64
		if err := tx.Model(&models.TaskAssignment{}).Where("task_id = ?", task.ID).Count(&current).Error; err != nil {
			return err
		}
		if task.TaskType == TaskTypeIndividual && current > 0 {
			return fmt.Errorf("%w: task already taken", ErrCapacityExceeded)
		}
		if task.TaskType == TaskTypeGroup && current >= int64(task.MaxAssignees) {
			return fmt.Errorf("%w: all %d slots taken", ErrCapacityExceeded, task.MaxAssignees)
		}

		var existing models.TaskAssignment
		if err := tx.Where("task_id = ? AND user_id = ?", task.ID, userID).First(&existing).Error; err == nil {
			return ErrDuplicateAssignment
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		assignment = models.TaskAssignment{
			TaskID:     task.ID,
			UserID:     userID,
			Status:     string(AssignmentAccepted),
			AssignedAt: now,
			AcceptedAt: &now,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			if isDuplicateErr(err) {
				// lost the insert race, report without retrying
				return ErrDuplicateAssignment
			}
			return err
		}

		if TaskStatus(task.Status) == TaskNotStarted {
			if err := tx.Model(task).Update("status", string(TaskInProgress)).Error; err != nil {
				return err
			}
		}

		evs = append(evs, events.Event{
			Type:          events.TaskSelfAssigned,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActorName:     actorName(tx, Actor{UserID: userID}),
			CommunityName: communityName(tx, task.CommunityID),
			TargetUserIDs: adminIDs(tx, task.CommunityID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(evs)
	return &assignment, nil
}

// Accept moves a bulk-assigned row from "assigned" to "accepted".
func (e *Engine) Accept(taskID, userID uint) (*models.TaskAssignment, error) {
	return e.advance(taskID, userID, EventAccept)
}

// Start marks an assignment as actively worked on.
func (e *Engine) Start(taskID, userID uint) (*models.TaskAssignment, error) {
	return e.advance(taskID, userID, EventStart)
}

func (e *Engine) advance(taskID, userID uint, ev AssignmentEvent) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ? AND user_id = ?", taskID, userID).First(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no assignment for this task", ErrNotFound)
			}
			return err
		}
		next, err := NextAssignment(AssignmentStatus(assignment.Status), ev)
		if err != nil {
			return err
		}
		now := time.Now()
		assignment.Status = string(next)
		if ev == EventAccept {
			assignment.AcceptedAt = &now
		}
		return tx.Save(&assignment).Error
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Submit records the member's work. After the deadline the submission is
// refused. When every assignment has settled or submitted (always true for
// individual tasks), the task itself advances to "submitted".
func (e *Engine) Submit(taskID, userID uint, link, notes string) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	var evs []events.Event
	err := e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := tx.Where("task_id = ? AND user_id = ?", task.ID, userID).First(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: you are not assigned to this task", ErrForbidden)
			}
			return err
		}
		next, err := NextAssignment(AssignmentStatus(assignment.Status), EventSubmit)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				return fmt.Errorf("%w: assignment is %s", ErrForbidden, assignment.Status)
			}
			return err
		}
		now := time.Now()
		if task.Deadline != nil && now.After(*task.Deadline) {
			return fmt.Errorf("%w: deadline was %s", ErrDeadlinePassed, task.Deadline.Format(time.RFC3339))
		}

		assignment.Status = string(next)
		assignment.SubmittedAt = &now
		if link != "" {
			assignment.SubmissionLink = &link
		}
		if notes != "" {
			assignment.SubmissionNotes = &notes
		}
		if err := tx.Save(&assignment).Error; err != nil {
			return err
		}

		allSettled := true
		if task.TaskType == TaskTypeGroup {
			var rows []models.TaskAssignment
			if err := tx.Where("task_id = ?", task.ID).Find(&rows).Error; err != nil {
				return err
			}
			for _, a := range rows {
				if !settledOrSubmitted(AssignmentStatus(a.Status)) {
					allSettled = false
					break
				}
			}
		}
		// a late submission never pulls an already-settled task back
		if st := TaskStatus(task.Status); allSettled && st != TaskCompleted && st != TaskRejected {
			if err := tx.Model(task).Update("status", string(TaskSubmitted)).Error; err != nil {
				return err
			}
		}

		evs = append(evs, events.Event{
			Type:          events.TaskSubmitted,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActorName:     actorName(tx, Actor{UserID: userID}),
			CommunityName: communityName(tx, task.CommunityID),
			TargetUserIDs: adminIDs(tx, task.CommunityID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(evs)
	return &assignment, nil
}

// Review settles every assignment on the task at once. Approval completes the
// task and awards points to each assignee exactly once; rejection awards
// nothing. Assignments already reviewed individually are left untouched.
func (e *Engine) Review(taskID uint, action, notes string, actor Actor) (*models.Task, error) {
	if action != "approve" && action != "reject" {
		return nil, fmt.Errorf("%w: unknown review action %q", ErrInvalidInput, action)
	}
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
		if TaskStatus(task.Status) != TaskSubmitted {
			return fmt.Errorf("%w: task is %s, not submitted", ErrConflict, task.Status)
		}

		var rows []models.TaskAssignment
		if err := tx.Where("task_id = ?", task.ID).Find(&rows).Error; err != nil {
			return err
		}

		now := time.Now()
		approved := action == "approve"
		for i := range rows {
			a := &rows[i]
			if terminal(AssignmentStatus(a.Status)) {
				continue
			}
			if approved {
				a.Status = string(AssignmentCompleted)
				a.CompletedAt = &now
			} else {
				a.Status = string(AssignmentRejected)
			}
			a.ReviewedAt = &now
			a.ReviewedBy = &actor.UserID
			if notes != "" {
				a.ReviewNotes = &notes
			}
			if err := tx.Save(a).Error; err != nil {
				return err
			}
			if approved {
				if err := awardCompletion(tx, a.UserID, task.ID, now); err != nil {
					return err
				}
			}
		}

		task.ReviewedBy = &actor.UserID
		if notes != "" {
			task.ReviewNotes = &notes
		}
		if approved {
			task.Status = string(TaskCompleted)
			task.CompletionDate = &now
		} else {
			task.Status = string(TaskRejected)
		}
		if err := tx.Save(task).Error; err != nil {
			return err
		}

		evType := events.TaskApproved
		msg := ""
		if !approved {
			evType = events.TaskRejected
			msg = notes
		}
		evs = append(evs, events.Event{
			Type:          evType,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActorName:     actorName(tx, actor),
			CommunityName: communityName(tx, task.CommunityID),
			TargetUserIDs: assigneeIDs(tx, task.ID),
			Message:       msg,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(evs)
	return task, nil
}

// ReviewIndividual settles a single assignee's submission on a group task.
// One approval completes the whole task immediately, even while other
// assignments are still open; the task is rejected only once every assignment
// is terminal with none approved.
func (e *Engine) ReviewIndividual(taskID, targetUserID uint, action, notes string, actor Actor) (*models.TaskAssignment, error) {
	if action != "approve" && action != "reject" {
		return nil, fmt.Errorf("%w: unknown review action %q", ErrInvalidInput, action)
	}
	var assignment models.TaskAssignment
	var evs []events.Event
	err := e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
			return err
		}
		if err := tx.Where("task_id = ? AND user_id = ?", task.ID, targetUserID).First(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no assignment for user %d", ErrNotFound, targetUserID)
			}
			return err
		}

		ev := EventApprove
		if action == "reject" {
			ev = EventReject
		}
		next, err := NextAssignment(AssignmentStatus(assignment.Status), ev)
		if err != nil {
			return err
		}

		now := time.Now()
		assignment.Status = string(next)
		assignment.ReviewedAt = &now
		assignment.ReviewedBy = &actor.UserID
		if notes != "" {
			assignment.ReviewNotes = &notes
		}
		if next == AssignmentCompleted {
			assignment.CompletedAt = &now
		}
		if err := tx.Save(&assignment).Error; err != nil {
			return err
		}
		if next == AssignmentCompleted {
			if err := awardCompletion(tx, assignment.UserID, task.ID, now); err != nil {
				return err
			}
		}

		if next == AssignmentCompleted {
			task.ReviewedBy = &actor.UserID
			task.Status = string(TaskCompleted)
			task.CompletionDate = &now
			if err := tx.Save(task).Error; err != nil {
				return err
			}
		} else {
			var rows []models.TaskAssignment
			if err := tx.Where("task_id = ?", task.ID).Find(&rows).Error; err != nil {
				return err
			}
			allTerminal := true
			anyCompleted := false
			for _, a := range rows {
				st := AssignmentStatus(a.Status)
				if !terminal(st) {
					allTerminal = false
				}
				if st == AssignmentCompleted {
					anyCompleted = true
				}
			}
			if allTerminal {
				task.ReviewedBy = &actor.UserID
				if anyCompleted {
					task.Status = string(TaskCompleted)
					if task.CompletionDate == nil {
						task.CompletionDate = &now
					}
				} else {
					task.Status = string(TaskRejected)
				}
				if err := tx.Save(task).Error; err != nil {
					return err
				}
			}
		}

		evType := events.TaskApproved
		msg := ""
		if next == AssignmentRejected {
			evType = events.TaskRejected
			msg = notes
		}
		evs = append(evs, events.Event{
			Type:          evType,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
			ActorName:     actorName(tx, actor),
			CommunityName: communityName(tx, task.CommunityID),
			TargetUserIDs: []uint{targetUserID},
			Message:       msg,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(evs)
	return &assignment, nil
}

// Revoke removes an assignment before submission. Community admins can revoke
// anyone; members can drop their own. When the last assignment goes, the task
// returns to not_started.
func (e *Engine) Revoke(taskID, targetUserID uint, actor Actor) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if !actor.Platform && actor.UserID != targetUserID {
			if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
				return err
			}
		}

		var assignment models.TaskAssignment
		if err := tx.Where("task_id = ? AND user_id = ?", task.ID, targetUserID).First(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no assignment for user %d", ErrNotFound, targetUserID)
			}
			return err
		}
		st := AssignmentStatus(assignment.Status)
		if st == AssignmentSubmitted || st == AssignmentCompleted {
			return fmt.Errorf("%w: cannot revoke after submission", ErrConflict)
		}
		if err := tx.Delete(&assignment).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.TaskAssignment{}).Where("task_id = ?", task.ID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Model(task).Update("status", string(TaskNotStarted)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// awardCompletion appends one immutable contribution row and bumps the cached
// point total and activity streak on the user, all inside the caller's
// transaction so the ledger and the cache move together.
func awardCompletion(tx *gorm.DB, userID, taskID uint, now time.Time) error {
	contribution := models.Contribution{
		UserID: userID,
		TaskID: &taskID,
		Points: CompletionAward,
		Type:   "task_completion",
	}
	if err := tx.Create(&contribution).Error; err != nil {
		return err
	}
	var u models.User
	if err := tx.First(&u, userID).Error; err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"points":           gorm.Expr("points + ?", CompletionAward),
		"current_streak":   nextStreak(u.LastActivityAt, u.CurrentStreak, now),
		"last_activity_at": now,
	}).Error
}

func nextStreak(last *time.Time, current int, now time.Time) int {
	if last == nil {
		return 1
	}
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	today := day(now)
	lastDay := day(last.Local())
	switch {
	case lastDay.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}
