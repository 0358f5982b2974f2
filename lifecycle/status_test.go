package lifecycle

import (
	"errors"
	"testing"
	"time"
)

func TestNextAssignment(t *testing.T) {
	cases := []struct {
		name    string
		cur     AssignmentStatus
		ev      AssignmentEvent
		want    AssignmentStatus
		wantErr error
	}{
		{"accept from assigned", AssignmentAssigned, EventAccept, AssignmentAccepted, nil},
		{"accept twice", AssignmentAccepted, EventAccept, "", ErrConflict},
		{"start from assigned", AssignmentAssigned, EventStart, AssignmentInProgress, nil},
		{"start from accepted", AssignmentAccepted, EventStart, AssignmentInProgress, nil},
		{"start after submit", AssignmentSubmitted, EventStart, "", ErrConflict},
		{"submit from assigned", AssignmentAssigned, EventSubmit, AssignmentSubmitted, nil},
		{"submit from accepted", AssignmentAccepted, EventSubmit, AssignmentSubmitted, nil},
		{"submit from in_progress", AssignmentInProgress, EventSubmit, AssignmentSubmitted, nil},
		{"submit twice", AssignmentSubmitted, EventSubmit, "", ErrConflict},
		{"submit after completion", AssignmentCompleted, EventSubmit, "", ErrConflict},
		{"approve submitted", AssignmentSubmitted, EventApprove, AssignmentCompleted, nil},
		{"approve unsubmitted", AssignmentInProgress, EventApprove, "", ErrConflict},
		{"reject submitted", AssignmentSubmitted, EventReject, AssignmentRejected, nil},
		{"reject completed", AssignmentCompleted, EventReject, "", ErrConflict},
		{"unknown event", AssignmentAssigned, AssignmentEvent("poke"), "", ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextAssignment(tc.cur, tc.ev)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestAssignable(t *testing.T) {
	if !assignable(TaskTypeIndividual, TaskNotStarted) {
		t.Fatal("not_started must accept assignments")
	}
	if !assignable(TaskTypeGroup, TaskInProgress) {
		t.Fatal("in_progress must accept assignments")
	}
	if assignable(TaskTypeIndividual, TaskSubmitted) {
		t.Fatal("submitted individual task must not accept assignments")
	}
	if !assignable(TaskTypeGroup, TaskSubmitted) {
		t.Fatal("submitted group task stays open for stragglers")
	}
	if assignable(TaskTypeGroup, TaskCompleted) {
		t.Fatal("completed task must not accept assignments")
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.Local)

	if got := nextStreak(nil, 0, now); got != 1 {
		t.Fatalf("first activity should start streak at 1, got %d", got)
	}

	yesterday := now.AddDate(0, 0, -1)
	if got := nextStreak(&yesterday, 3, now); got != 4 {
		t.Fatalf("consecutive day should increment streak, got %d", got)
	}

	sameDay := now.Add(-2 * time.Hour)
	if got := nextStreak(&sameDay, 3, now); got != 3 {
		t.Fatalf("same-day activity should keep streak, got %d", got)
	}

	lastWeek := now.AddDate(0, 0, -6)
	if got := nextStreak(&lastWeek, 9, now); got != 1 {
		t.Fatalf("gap should reset streak to 1, got %d", got)
	}
}
