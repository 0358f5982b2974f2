package lifecycle

import "fmt"

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskSubmitted  TaskStatus = "submitted"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
	TaskRejected   TaskStatus = "rejected"
)

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentAccepted   AssignmentStatus = "accepted"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentSubmitted  AssignmentStatus = "submitted"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentRejected   AssignmentStatus = "rejected"
)

// AssignmentEvent drives the per-assignment state machine.
type AssignmentEvent string

const (
	EventAccept  AssignmentEvent = "accept"
	EventStart   AssignmentEvent = "start"
	EventSubmit  AssignmentEvent = "submit"
	EventApprove AssignmentEvent = "approve"
	EventReject  AssignmentEvent = "reject"
)

const (
	TaskTypeIndividual = "individual"
	TaskTypeGroup      = "group"
)

// NextAssignment is the single transition function for assignment state.
// Illegal transitions come back as ErrConflict; callers never mutate status
// directly. An assignment may submit straight from "assigned" because bulk
// assignment has no accept step.
func NextAssignment(cur AssignmentStatus, ev AssignmentEvent) (AssignmentStatus, error) {
	switch ev {
	case EventAccept:
		if cur == AssignmentAssigned {
			return AssignmentAccepted, nil
		}
	case EventStart:
		if cur == AssignmentAssigned || cur == AssignmentAccepted {
			return AssignmentInProgress, nil
		}
	case EventSubmit:
		if cur == AssignmentAssigned || cur == AssignmentAccepted || cur == AssignmentInProgress {
			return AssignmentSubmitted, nil
		}
	case EventApprove:
		if cur == AssignmentSubmitted {
			return AssignmentCompleted, nil
		}
	case EventReject:
		if cur == AssignmentSubmitted {
			return AssignmentRejected, nil
		}
	default:
		return cur, fmt.Errorf("%w: unknown assignment event %q", ErrInvalidInput, ev)
	}
	return cur, fmt.Errorf("%w: cannot %s an assignment in status %q", ErrConflict, ev, cur)
}

// assignable reports whether new assignments may attach to a task in the
// given status. Group tasks stay open through "submitted" so stragglers can
// still be added while early submissions await review.
func assignable(taskType string, st TaskStatus) bool {
	switch st {
	case TaskNotStarted, TaskInProgress:
		return true
	case TaskSubmitted:
		return taskType == TaskTypeGroup
	default:
		return false
	}
}

// settledOrSubmitted reports whether an assignment no longer blocks the task
// from advancing to task-level "submitted".
func settledOrSubmitted(st AssignmentStatus) bool {
	return st == AssignmentSubmitted || st == AssignmentCompleted || st == AssignmentRejected
}

// terminal reports whether an assignment has reached a final reviewed state.
func terminal(st AssignmentStatus) bool {
	return st == AssignmentCompleted || st == AssignmentRejected
}

func validPriority(p string) bool {
	switch p {
	case "low", "medium", "high", "urgent":
		return true
	}
	return false
}

func validSubtaskStatus(s string) bool {
	switch s {
	case "not_started", "in_progress", "completed", "cancelled":
		return true
	}
	return false
}
