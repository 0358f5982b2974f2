package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ysrbharadwaj/Loomio-sub001/models"
)

type SubtaskInput struct {
	Title      string
	Position   *int
	AssignedTo *uint
}

// CreateSubtask appends a subtask. Without an explicit position it lands
// after the current maximum.
func (e *Engine) CreateSubtask(taskID uint, in SubtaskInput, actor Actor) (*models.Subtask, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	var sub models.Subtask
	err := e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
			return err
		}

		position := 0
		if in.Position != nil {
			position = *in.Position
		} else {
			var maxPos *int
			if err := tx.Model(&models.Subtask{}).Where("task_id = ?", task.ID).
				Select("MAX(position)").Scan(&maxPos).Error; err != nil {
				return err
			}
			if maxPos != nil {
				position = *maxPos + 1
			}
		}

		sub = models.Subtask{
			TaskID:     task.ID,
			Title:      strings.TrimSpace(in.Title),
			Status:     "not_started",
			Position:   position,
			AssignedTo: in.AssignedTo,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		return recountSubtasks(tx, task.ID)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubtaskStatus moves a subtask between statuses. Completion stamps are
// written only on the edge into "completed" and cleared on the edge out; the
// parent counters are recomputed in the same transaction.
func (e *Engine) UpdateSubtaskStatus(subtaskID uint, status string, actor Actor) (*models.Subtask, error) {
	if !validSubtaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown subtask status %q", ErrInvalidInput, status)
	}
	var sub models.Subtask
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, subtaskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: subtask %d", ErrNotFound, subtaskID)
			}
			return err
		}
		task, err := getTask(tx, sub.TaskID)
		if err != nil {
			return err
		}
		if !actor.Platform {
			if err := requireActiveMember(tx, task.CommunityID, actor.UserID); err != nil {
				return err
			}
		}
		if sub.Status == status {
			// no-op update, leave stamps and counters alone
			return nil
		}

		now := time.Now()
		if status == "completed" {
			sub.CompletedAt = &now
			sub.CompletedBy = &actor.UserID
		} else if sub.Status == "completed" {
			sub.CompletedAt = nil
			sub.CompletedBy = nil
		}
		sub.Status = status
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}
		return recountSubtasks(tx, sub.TaskID)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubtask removes a subtask and refreshes the parent counters.
func (e *Engine) DeleteSubtask(subtaskID uint, actor Actor) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Subtask
		if err := tx.First(&sub, subtaskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: subtask %d", ErrNotFound, subtaskID)
			}
			return err
		}
		task, err := getTask(tx, sub.TaskID)
		if err != nil {
			return err
		}
		if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
			return err
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return err
		}
		return recountSubtasks(tx, sub.TaskID)
	})
}

// ReorderSubtasks assigns position = index for the given ordering. This is a
// total reindex; ids not belonging to the task are refused.
func (e *Engine) ReorderSubtasks(taskID uint, orderedIDs []uint, actor Actor) error {
	if len(orderedIDs) == 0 {
		return fmt.Errorf("%w: no subtask ids given", ErrInvalidInput)
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireCommunityAdmin(tx, task.CommunityID, actor); err != nil {
			return err
		}

		var ids []uint
		if err := tx.Model(&models.Subtask{}).Where("task_id = ?", task.ID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		known := make(map[uint]bool, len(ids))
		for _, id := range ids {
			known[id] = true
		}
		for _, id := range orderedIDs {
			if !known[id] {
				return fmt.Errorf("%w: subtask %d does not belong to task %d", ErrInvalidInput, id, task.ID)
			}
		}

		for idx, id := range orderedIDs {
			if err := tx.Model(&models.Subtask{}).Where("id = ?", id).
				Update("position", idx).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// recountSubtasks rewrites the denormalized counters from the live rows so
// they can never drift from the truth.
func recountSubtasks(tx *gorm.DB, taskID uint) error {
	var total, completed int64
	if err := tx.Model(&models.Subtask{}).Where("task_id = ?", taskID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Subtask{}).Where("task_id = ? AND status = ?", taskID, "completed").
		Count(&completed).Error; err != nil {
		return err
	}
	return tx.Model(&models.Task{}).Where("id = ?", taskID).Updates(map[string]interface{}{
		"subtask_count":           total,
		"completed_subtask_count": completed,
	}).Error
}
