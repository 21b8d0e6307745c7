package service

import (
	"context"

	reservationerrors "reserva/internal/reservations/errors"
	"reserva/internal/reservations/repository"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

// SystemActor marks transitions initiated by the service itself, such
// as settlement confirmation or stale reservation expiry.
const SystemActor int64 = 0

// transitions maps each status to the statuses reachable from it.
// Terminal statuses have no outgoing edges.
var transitions = map[string][]string{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled, model.StatusRejected},
	model.StatusConfirmed: {model.StatusCheckedIn, model.StatusCancelled},
	model.StatusCheckedIn: {model.StatusCompleted, model.StatusCancelled},
}

// StateMachine applies reservation status changes. Every transition is
// a conditional update on the current status, so two racing writers
// cannot both succeed, and every applied transition appends a history
// row in the same context.
type StateMachine struct {
	reservations repository.ReservationRepository
	history      repository.HistoryRepository
}

func NewStateMachine(reservations repository.ReservationRepository, history repository.HistoryRepository) *StateMachine {
	return &StateMachine{
		reservations: reservations,
		history:      history,
	}
}

func (m *StateMachine) CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// authorize enforces who may request a transition. Ownership checks
// that need the property service are the caller's responsibility.
func (m *StateMachine) authorize(reservation *model.Reservation, target string, actorUserID int64) error {
	switch target {
	case model.StatusRejected:
		if actorUserID != SystemActor {
			return apperrors.Forbidden(reservationerrors.ErrNotGuest.Error())
		}
	case model.StatusCancelled:
		if actorUserID != SystemActor && actorUserID != reservation.UserID {
			return apperrors.Forbidden(reservationerrors.ErrNotGuest.Error())
		}
	case model.StatusConfirmed:
		if actorUserID != SystemActor {
			return apperrors.Forbidden("reservations are confirmed by settlement only")
		}
	}
	return nil
}

// Transition moves the reservation to target on behalf of the actor,
// setting any extra fields in the same update. Call with a transaction
// SessionContext when the transition must commit with other writes.
func (m *StateMachine) Transition(ctx context.Context, reservation *model.Reservation, target string, actorUserID int64, reason string, extra bson.M) error {
	if !m.CanTransition(reservation.Status, target) {
		return apperrors.StateTransition(reservation.Status, target)
	}

	if err := m.authorize(reservation, target, actorUserID); err != nil {
		return err
	}

	matched, err := m.reservations.UpdateStatusIf(ctx, reservation.ID, reservation.Status, target, extra)
	if err != nil {
		return apperrors.Internal("failed to apply status change", err)
	}
	if !matched {
		// Lost the race against a concurrent transition.
		return apperrors.StateTransition(reservation.Status, target)
	}

	err = m.history.Append(ctx, &model.ReservationStatusHistory{
		ReservationID: reservation.ID,
		OldStatus:     reservation.Status,
		NewStatus:     target,
		ChangedBy:     actorUserID,
		Reason:        reason,
	})
	if err != nil {
		return apperrors.Internal("failed to record status history", err)
	}

	reservation.Status = target
	return nil
}
