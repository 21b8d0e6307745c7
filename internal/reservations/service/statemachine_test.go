package service

import (
	"context"
	"testing"

	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"
)

func TestStateMachine_AllowedEdges(t *testing.T) {
	machine := NewStateMachine(newMemReservations(), newMemHistory())

	cases := []struct {
		from, to string
		allowed  bool
	}{
		{model.StatusPending, model.StatusConfirmed, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusPending, model.StatusRejected, true},
		{model.StatusConfirmed, model.StatusCheckedIn, true},
		{model.StatusConfirmed, model.StatusCancelled, true},
		{model.StatusCheckedIn, model.StatusCompleted, true},
		{model.StatusCheckedIn, model.StatusCancelled, true},
		{model.StatusPending, model.StatusCheckedIn, false},
		{model.StatusPending, model.StatusCompleted, false},
		{model.StatusConfirmed, model.StatusRejected, false},
		{model.StatusCompleted, model.StatusCancelled, false},
		{model.StatusCancelled, model.StatusConfirmed, false},
		{model.StatusRejected, model.StatusPending, false},
	}

	for _, tc := range cases {
		if got := machine.CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestStateMachine_IllegalEdgeReturnsStateTransition(t *testing.T) {
	reservations := newMemReservations()
	machine := NewStateMachine(reservations, newMemHistory())

	reservation := &model.Reservation{ID: 1, UserID: 7, Status: model.StatusCompleted}
	reservations.put(reservation)

	err := machine.Transition(context.Background(), reservation, model.StatusCancelled, 7, "", nil)
	if !apperrors.IsCode(err, apperrors.CodeStateTransition) {
		t.Fatalf("expected STATE_TRANSITION error, got %v", err)
	}
}

func TestStateMachine_RejectedIsSystemOnly(t *testing.T) {
	reservations := newMemReservations()
	machine := NewStateMachine(reservations, newMemHistory())

	reservation := &model.Reservation{ID: 1, UserID: 7, Status: model.StatusPending}
	reservations.put(reservation)

	err := machine.Transition(context.Background(), reservation, model.StatusRejected, 7, "", nil)
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN for guest rejecting, got %v", err)
	}

	err = machine.Transition(context.Background(), reservation, model.StatusRejected, SystemActor, "expired", nil)
	if err != nil {
		t.Fatalf("system actor should reject: %v", err)
	}
	if reservation.Status != model.StatusRejected {
		t.Errorf("status = %s, want REJECTED", reservation.Status)
	}
}

func TestStateMachine_CancelledByGuestOrSystem(t *testing.T) {
	cases := []struct {
		name    string
		actor   int64
		wantErr bool
	}{
		{"guest", 7, false},
		{"system", SystemActor, false},
		{"stranger", 99, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reservations := newMemReservations()
			machine := NewStateMachine(reservations, newMemHistory())

			reservation := &model.Reservation{ID: 1, UserID: 7, Status: model.StatusConfirmed}
			reservations.put(reservation)

			err := machine.Transition(context.Background(), reservation, model.StatusCancelled, tc.actor, "", nil)
			if tc.wantErr {
				if !apperrors.IsCode(err, apperrors.CodeForbidden) {
					t.Fatalf("expected FORBIDDEN, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestStateMachine_ConfirmedIsSystemOnly(t *testing.T) {
	reservations := newMemReservations()
	machine := NewStateMachine(reservations, newMemHistory())

	reservation := &model.Reservation{ID: 1, UserID: 7, Status: model.StatusPending}
	reservations.put(reservation)

	err := machine.Transition(context.Background(), reservation, model.StatusConfirmed, 7, "", nil)
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN for guest confirming, got %v", err)
	}
}

func TestStateMachine_LostRaceReturnsStateTransition(t *testing.T) {
	reservations := newMemReservations()
	machine := NewStateMachine(reservations, newMemHistory())

	reservation := &model.Reservation{ID: 1, UserID: 7, Status: model.StatusPending}
	stored := &model.Reservation{ID: 1, UserID: 7, Status: model.StatusCancelled}
	reservations.put(stored)

	err := machine.Transition(context.Background(), reservation, model.StatusConfirmed, SystemActor, "", nil)
	if !apperrors.IsCode(err, apperrors.CodeStateTransition) {
		t.Fatalf("expected STATE_TRANSITION after losing the race, got %v", err)
	}
	if stored.Status != model.StatusCancelled {
		t.Errorf("stored status changed to %s", stored.Status)
	}
}

func TestStateMachine_AppendsHistoryRow(t *testing.T) {
	reservations := newMemReservations()
	history := newMemHistory()
	machine := NewStateMachine(reservations, history)

	reservation := &model.Reservation{ID: 42, UserID: 7, Status: model.StatusPending}
	reservations.put(reservation)

	err := machine.Transition(context.Background(), reservation, model.StatusConfirmed, SystemActor, "payment confirmed", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := history.rows[42]
	if len(rows) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(rows))
	}
	row := rows[0]
	if row.OldStatus != model.StatusPending || row.NewStatus != model.StatusConfirmed {
		t.Errorf("history row %s -> %s", row.OldStatus, row.NewStatus)
	}
	if row.ChangedBy != SystemActor {
		t.Errorf("changed_by = %d, want system actor", row.ChangedBy)
	}
	if row.Reason != "payment confirmed" {
		t.Errorf("reason = %q", row.Reason)
	}
}
