package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ysrbharadwaj/Loomio-sub001/models"
)

// Event types emitted by the task lifecycle engine.
const (
	TaskCreated      = "task_created"
	TaskAssigned     = "task_assigned"
	TaskSelfAssigned = "task_self_assigned"
	TaskSubmitted    = "task_submitted"
	TaskApproved     = "task_approved"
	TaskRejected     = "task_rejected"
	TaskUpdated      = "task_updated"
	TaskDeleted      = "task_deleted"
)

type Event struct {
	ID            uuid.UUID
	Type          string
	TaskID        uint
	TaskTitle     string
	ActorName     string
	CommunityName string
	TargetUserIDs []uint
	Message       string
	OccurredAt    time.Time
}

// Bus decouples state transitions from notification delivery. Transitions
// publish after commit; delivery is best-effort and never fails the caller.
type Bus struct {
	db   *gorm.DB
	ch   chan Event
	done chan struct{}
}

// Default is the shared bus, set up in main.
var Default *Bus

func NewBus(db *gorm.DB, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	b := &Bus{
		db:   db,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

// Publish enqueues an event without blocking. When the buffer is full the
// event is dropped and logged; a lost notification must not stall a request.
func (b *Bus) Publish(ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	select {
	case b.ch <- ev:
	default:
		zap.L().Warn("event bus full, dropping event",
			zap.String("event_id", ev.ID.String()),
			zap.String("type", ev.Type),
			zap.Uint("task_id", ev.TaskID))
	}
}

// Close stops the worker after draining buffered events.
func (b *Bus) Close() {
	close(b.ch)
	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)
	for ev := range b.ch {
		b.deliver(ev)
	}
}

func (b *Bus) deliver(ev Event) {
	title, body := render(ev)
	for _, uid := range ev.TargetUserIDs {
		taskID := ev.TaskID
		n := models.Notification{
			UserID: uid,
			Type:   ev.Type,
			Title:  title,
			Body:   body,
			TaskID: &taskID,
		}
		if err := b.db.Create(&n).Error; err != nil {
			zap.L().Error("failed to persist notification",
				zap.String("event_id", ev.ID.String()),
				zap.String("type", ev.Type),
				zap.Uint("user_id", uid),
				zap.Error(err))
		}
	}
}

func render(ev Event) (title, body string) {
	switch ev.Type {
	case TaskCreated:
		title = "New task in " + ev.CommunityName
		body = fmt.Sprintf("%s created the task %q.", ev.ActorName, ev.TaskTitle)
	case TaskAssigned:
		title = "You have been assigned a task"
		body = fmt.Sprintf("%s assigned you %q in %s.", ev.ActorName, ev.TaskTitle, ev.CommunityName)
	case TaskSelfAssigned:
		title = "Task picked up"
		body = fmt.Sprintf("%s picked up %q in %s.", ev.ActorName, ev.TaskTitle, ev.CommunityName)
	case TaskSubmitted:
		title = "Submission ready for review"
		body = fmt.Sprintf("%s submitted work for %q in %s.", ev.ActorName, ev.TaskTitle, ev.CommunityName)
	case TaskApproved:
		title = "Submission approved"
		body = fmt.Sprintf("%s approved your work on %q.", ev.ActorName, ev.TaskTitle)
	case TaskRejected:
		title = "Submission rejected"
		body = fmt.Sprintf("%s rejected the submission for %q.", ev.ActorName, ev.TaskTitle)
	case TaskUpdated:
		title = "Task updated"
		body = fmt.Sprintf("%s updated %q in %s.", ev.ActorName, ev.TaskTitle, ev.CommunityName)
	case TaskDeleted:
		title = "Task deleted"
		body = fmt.Sprintf("%s deleted %q from %s.", ev.ActorName, ev.TaskTitle, ev.CommunityName)
	default:
		// the message already is the whole body here
		return "Activity in " + ev.CommunityName, ev.Message
	}
	if ev.Message != "" {
		body = body + " " + ev.Message
	}
	return title, body
}
