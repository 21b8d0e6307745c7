package service

import (
	"context"
	"errors"
	"time"

	availabilityservice "reserva/internal/availability/service"
	"reserva/internal/events"
	ledgerservice "reserva/internal/ledger/service"
	reservationerrors "reserva/internal/reservations/errors"
	"reserva/internal/reservations/repository"
	"reserva/internal/saga"
	"reserva/internal/settlement"
	"reserva/pkg/client"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const expireBatchSize = 100

// Orchestrator drives the reservation lifecycle end to end: booking
// with availability and payment, settlement confirmation, check-in,
// check-out with escrow release, and cancellation with refund.
type Orchestrator interface {
	CreateBooking(ctx context.Context, userID int64, req *model.ReservationRequest) (*model.Reservation, error)
	ConfirmReservation(ctx context.Context, reservationID int64, txHash string, blockNumber *int64, gasFeeEth *float64) (*model.Reservation, error)
	CheckIn(ctx context.Context, reservationID, actorUserID int64) (*model.Reservation, error)
	CheckOut(ctx context.Context, reservationID, actorUserID int64) (*model.Reservation, error)
	Cancel(ctx context.Context, reservationID, actorUserID int64, reason string) (*model.Reservation, error)
	GetReservation(ctx context.Context, reservationID int64) (*model.Reservation, error)
	ListReservations(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListUserReservations(ctx context.Context, userID int64, limit int, offset int64) ([]*model.Reservation, error)
	History(ctx context.Context, reservationID int64) ([]*model.ReservationStatusHistory, error)
	LedgerEntries(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error)
	ExpireStalePending(ctx context.Context) (int, error)
}

type orchestrator struct {
	cfg          *config.Config
	reservations repository.ReservationRepository
	history      repository.HistoryRepository
	states       *StateMachine
	guard        availabilityservice.Guard
	ledger       ledgerservice.Ledger
	settlement   settlement.Client
	outbox       events.OutboxRepository
	properties   client.PropertyClient
	engine       *saga.Engine
}

func NewOrchestrator(
	cfg *config.Config,
	reservations repository.ReservationRepository,
	history repository.HistoryRepository,
	guard availabilityservice.Guard,
	ledger ledgerservice.Ledger,
	settlementClient settlement.Client,
	outbox events.OutboxRepository,
	properties client.PropertyClient,
) Orchestrator {
	return &orchestrator{
		cfg:          cfg,
		reservations: reservations,
		history:      history,
		states:       NewStateMachine(reservations, history),
		guard:        guard,
		ledger:       ledger,
		settlement:   settlementClient,
		outbox:       outbox,
		properties:   properties,
		engine:       saga.NewEngine(cfg.Log),
	}
}

// CreateBooking reserves the dates, then persists the reservation, its
// payment entry and the booking.created event in one transaction. If
// persistence fails the reserved dates are released by compensation.
func (o *orchestrator) CreateBooking(ctx context.Context, userID int64, req *model.ReservationRequest) (*model.Reservation, error) {
	exists, err := o.properties.PropertyExists(ctx, req.PropertyID)
	if err != nil {
		return nil, apperrors.Upstream("property service", err)
	}
	if !exists {
		return nil, apperrors.NotFound("property")
	}

	checkIn := model.ToUTCDate(req.CheckInDate)
	checkOut := model.ToUTCDate(req.CheckOutDate)

	duplicate, err := o.reservations.ExistsOverlappingForUser(ctx, userID, req.PropertyID, checkIn, checkOut, !o.cfg.AllowSameDayTurnover)
	if err != nil {
		return nil, apperrors.Internal("failed to check existing reservations", err)
	}
	if duplicate {
		return nil, apperrors.Conflict(reservationerrors.ErrDuplicateBooking.Error())
	}

	reservationID, err := o.reservations.NextID(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to allocate reservation id", err)
	}

	reservation := &model.Reservation{
		ID:           reservationID,
		PropertyID:   req.PropertyID,
		UserID:       userID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Status:       model.StatusPending,
		AmountEth:    req.AmountEth,
	}

	var payment *model.LedgerEntry

	flow := saga.Flow{
		Name: "create-booking",
		Steps: []saga.Step{
			{
				Name: "reserve-dates",
				Run: func(ctx context.Context, _ *saga.State) error {
					return o.guard.Reserve(ctx, reservationID, req.PropertyID, checkIn, checkOut)
				},
				Compensate: func(ctx context.Context, _ *saga.State) error {
					return o.guard.Release(ctx, reservationID)
				},
			},
			{
				Name: "persist-booking",
				Run: func(ctx context.Context, _ *saga.State) error {
					return o.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
						if err := o.reservations.Create(sessCtx, reservation); err != nil {
							return err
						}

						err := o.history.Append(sessCtx, &model.ReservationStatusHistory{
							ReservationID: reservationID,
							OldStatus:     "",
							NewStatus:     model.StatusPending,
							ChangedBy:     userID,
							Reason:        "reservation created",
						})
						if err != nil {
							return err
						}

						payment, err = o.ledger.RecordPending(sessCtx, &model.LedgerEntry{
							ReservationID:      reservationID,
							PayerWalletAddress: req.GuestWalletAddress,
							PayeeWalletAddress: o.cfg.PlatformWalletAddress,
							AmountEth:          req.AmountEth,
							PaymentType:        model.PaymentTypeBookingPayment,
						})
						if err != nil {
							return err
						}

						return events.Stage(sessCtx, o.outbox, events.TopicBookingCreated, o.eventFor(reservation))
					})
				},
			},
		},
	}

	if err := o.engine.Execute(ctx, flow, saga.NewState()); err != nil {
		if appErr, ok := apperrors.FromError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to create booking", err)
	}

	o.cfg.Log.Info("Reservation created",
		"reservation_id", reservationID,
		"property_id", req.PropertyID,
		"user_id", userID,
		"check_in", checkIn.Format(time.DateOnly),
		"check_out", checkOut.Format(time.DateOnly),
	)

	if o.cfg.SettlementAutoSubmit {
		go o.submitSettlement(context.WithoutCancel(ctx), reservation, payment, req.GuestWalletAddress)
	}

	return reservation, nil
}

// submitSettlement pushes the booking payment on chain and confirms the
// reservation. On failure the payment entry is marked failed and the
// reservation stays PENDING for the expirer to reclaim.
func (o *orchestrator) submitSettlement(ctx context.Context, reservation *model.Reservation, payment *model.LedgerEntry, guestWallet string) {
	result, err := o.settlement.CreateOnChainBooking(ctx, &settlement.BookingRequest{
		ReservationID:      reservation.ID,
		PayerWalletAddress: guestWallet,
		PayeeWalletAddress: o.cfg.PlatformWalletAddress,
		AmountEth:          reservation.AmountEth,
	})
	if err != nil {
		o.cfg.Log.Error("Settlement submission failed",
			"reservation_id", reservation.ID,
			"error", err,
		)
		if markErr := o.ledger.MarkFailed(ctx, payment.ID); markErr != nil {
			o.cfg.Log.Error("Failed to mark payment entry failed",
				"reservation_id", reservation.ID,
				"entry_id", payment.ID,
				"error", markErr,
			)
		}
		return
	}

	_, err = o.ConfirmReservation(ctx, reservation.ID, result.TransactionHash, &result.BlockNumber, &result.GasUsed)
	if err != nil {
		o.cfg.Log.Error("Failed to confirm reservation after settlement",
			"reservation_id", reservation.ID,
			"tx_hash", result.TransactionHash,
			"error", err,
		)
	}
}

// ConfirmReservation records the settlement hash on the booking payment
// and moves the reservation to CONFIRMED. Confirming again with the
// same hash is a no-op.
func (o *orchestrator) ConfirmReservation(ctx context.Context, reservationID int64, txHash string, blockNumber *int64, gasFeeEth *float64) (*model.Reservation, error) {
	if txHash == "" {
		return nil, apperrors.InvalidInput("transaction hash is required")
	}

	reservation, err := o.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if reservation.Status == model.StatusConfirmed && reservation.BlockchainTxHash == txHash {
		return reservation, nil
	}

	payment, err := o.bookingPayment(ctx, reservationID, txHash)
	if err != nil {
		return nil, err
	}

	if payment.PaymentStatus != model.PaymentStatusConfirmed {
		if _, err := o.ledger.Confirm(ctx, payment.ID, txHash, blockNumber, gasFeeEth); err != nil {
			return nil, err
		}
	}

	err = o.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := o.states.Transition(sessCtx, reservation, model.StatusConfirmed, SystemActor,
			"payment confirmed", bson.M{"blockchain_tx_hash": txHash})
		if err != nil {
			return err
		}

		reservation.BlockchainTxHash = txHash
		return events.Stage(sessCtx, o.outbox, events.TopicBookingConfirmed, o.eventFor(reservation))
	})
	if err != nil {
		if appErr, ok := apperrors.FromError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to confirm reservation", err)
	}

	o.cfg.Log.Info("Reservation confirmed",
		"reservation_id", reservationID,
		"tx_hash", txHash,
	)

	return reservation, nil
}

// CheckIn moves a confirmed reservation to CHECKED_IN. Only the guest
// who holds the reservation may check in, and not before the arrival
// date.
func (o *orchestrator) CheckIn(ctx context.Context, reservationID, actorUserID int64) (*model.Reservation, error) {
	reservation, err := o.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if err := requireGuest(reservation, actorUserID); err != nil {
		return nil, err
	}
	if time.Now().UTC().Before(reservation.CheckInDate) {
		return nil, apperrors.Conflict("check-in cannot be performed before the arrival date")
	}

	err = o.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := o.states.Transition(sessCtx, reservation, model.StatusCheckedIn, actorUserID, "guest checked in", nil)
		if err != nil {
			return err
		}
		return events.Stage(sessCtx, o.outbox, events.TopicCheckinCompleted, o.eventFor(reservation))
	})
	if err != nil {
		if appErr, ok := apperrors.FromError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to check in", err)
	}

	return reservation, nil
}

// CheckOut completes the stay and then releases escrow to the owner.
// The escrow release is best effort: a settlement failure leaves the
// reservation COMPLETED with a failed ledger entry to reconcile.
func (o *orchestrator) CheckOut(ctx context.Context, reservationID, actorUserID int64) (*model.Reservation, error) {
	reservation, err := o.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if err := requireGuest(reservation, actorUserID); err != nil {
		return nil, err
	}
	if time.Now().UTC().Before(reservation.CheckOutDate) {
		return nil, apperrors.Conflict("check-out cannot be performed before the departure date")
	}

	err = o.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := o.states.Transition(sessCtx, reservation, model.StatusCompleted, actorUserID, "guest checked out", nil)
		if err != nil {
			return err
		}
		return events.Stage(sessCtx, o.outbox, events.TopicCheckoutCompleted, o.eventFor(reservation))
	})
	if err != nil {
		if appErr, ok := apperrors.FromError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to check out", err)
	}

	o.releaseEscrow(ctx, reservation)

	return reservation, nil
}

func (o *orchestrator) releaseEscrow(ctx context.Context, reservation *model.Reservation) {
	if reservation.EscrowReleased {
		o.cfg.Log.Warn("Escrow already released, skipping",
			"reservation_id", reservation.ID,
		)
		return
	}

	payment, err := o.ledger.ConfirmedEntry(ctx, reservation.ID, model.PaymentTypeBookingPayment)
	if err != nil {
		o.cfg.Log.Error("Failed to load booking payment for escrow release",
			"reservation_id", reservation.ID,
			"error", err,
		)
		return
	}
	if payment == nil {
		o.cfg.Log.Warn("No confirmed booking payment, skipping escrow release",
			"reservation_id", reservation.ID,
		)
		return
	}

	ownerWallet, err := o.properties.OwnerWallet(ctx, reservation.PropertyID)
	if err != nil {
		o.cfg.Log.Error("Failed to resolve owner wallet for escrow release",
			"reservation_id", reservation.ID,
			"property_id", reservation.PropertyID,
			"error", err,
		)
		return
	}

	entry, err := o.ledger.RecordPending(ctx, &model.LedgerEntry{
		ReservationID:      reservation.ID,
		PayerWalletAddress: o.cfg.PlatformWalletAddress,
		PayeeWalletAddress: ownerWallet,
		AmountEth:          payment.AmountEth,
		PaymentType:        model.PaymentTypeEscrowRelease,
	})
	if err != nil {
		o.cfg.Log.Error("Failed to record escrow release entry",
			"reservation_id", reservation.ID,
			"error", err,
		)
		return
	}

	result, err := o.settlement.ReleaseEscrow(ctx, &settlement.EscrowReleaseRequest{
		ReservationID:      reservation.ID,
		PayeeWalletAddress: ownerWallet,
		AmountEth:          payment.AmountEth,
	})
	if err != nil {
		o.cfg.Log.Error("Escrow release failed, manual reconciliation required",
			"reservation_id", reservation.ID,
			"entry_id", entry.ID,
			"error", err,
		)
		if markErr := o.ledger.MarkFailed(ctx, entry.ID); markErr != nil {
			o.cfg.Log.Error("Failed to mark escrow entry failed",
				"entry_id", entry.ID,
				"error", markErr,
			)
		}
		return
	}

	if _, err := o.ledger.Confirm(ctx, entry.ID, result.TransactionHash, &result.BlockNumber, &result.GasUsed); err != nil {
		o.cfg.Log.Error("Failed to confirm escrow release entry",
			"entry_id", entry.ID,
			"tx_hash", result.TransactionHash,
			"error", err,
		)
		return
	}

	if err := o.reservations.SetEscrowReleased(ctx, reservation.ID, result.TransactionHash); err != nil {
		o.cfg.Log.Error("Failed to flag escrow release on reservation",
			"reservation_id", reservation.ID,
			"error", err,
		)
		return
	}

	reservation.EscrowReleased = true
	reservation.EscrowReleaseTxHash = result.TransactionHash

	o.cfg.Log.Info("Escrow released",
		"reservation_id", reservation.ID,
		"tx_hash", result.TransactionHash,
		"amount_eth", payment.AmountEth,
	)
}

// Cancel moves the reservation to CANCELLED, releases its dates and,
// when the payment was confirmed before check-in, records a full
// refund. After check-in no refund is due.
func (o *orchestrator) Cancel(ctx context.Context, reservationID, actorUserID int64, reason string) (*model.Reservation, error) {
	reservation, err := o.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	priorStatus := reservation.Status
	now := time.Now().UTC().Truncate(time.Millisecond)

	err = o.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := o.states.Transition(sessCtx, reservation, model.StatusCancelled, actorUserID, reason, bson.M{
			"cancellation_reason": reason,
			"cancelled_at":        now,
		})
		if err != nil {
			return err
		}

		if err := o.guard.Release(sessCtx, reservationID); err != nil {
			return err
		}

		reservation.CancellationReason = reason
		reservation.CancelledAt = &now
		return events.Stage(sessCtx, o.outbox, events.TopicBookingCancelled, o.eventFor(reservation))
	})
	if err != nil {
		if appErr, ok := apperrors.FromError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to cancel reservation", err)
	}

	o.cfg.Log.Info("Reservation cancelled",
		"reservation_id", reservationID,
		"prior_status", priorStatus,
		"actor", actorUserID,
		"reason", reason,
	)

	if priorStatus == model.StatusPending || priorStatus == model.StatusConfirmed {
		o.refund(ctx, reservation)
	}

	return reservation, nil
}

// refund issues a full refund of the confirmed booking payment. A
// payment that never confirmed needs no refund and is marked failed.
func (o *orchestrator) refund(ctx context.Context, reservation *model.Reservation) {
	payment, err := o.ledger.ConfirmedEntry(ctx, reservation.ID, model.PaymentTypeBookingPayment)
	if err != nil {
		o.cfg.Log.Error("Failed to load booking payment for refund",
			"reservation_id", reservation.ID,
			"error", err,
		)
		return
	}
	if payment == nil {
		o.failPendingPayment(ctx, reservation.ID)
		return
	}

	entry, err := o.ledger.RecordRefund(ctx, payment, payment.AmountEth)
	if err != nil {
		o.cfg.Log.Error("Failed to record refund entry",
			"reservation_id", reservation.ID,
			"error", err,
		)
		return
	}

	result, err := o.settlement.InitiateRefund(ctx, &settlement.RefundRequest{
		ReservationID:      reservation.ID,
		PayeeWalletAddress: payment.PayerWalletAddress,
		AmountEth:          payment.AmountEth,
	})
	if err != nil {
		o.cfg.Log.Error("Refund settlement failed, manual reconciliation required",
			"reservation_id", reservation.ID,
			"entry_id", entry.ID,
			"error", err,
		)
		if markErr := o.ledger.MarkFailed(ctx, entry.ID); markErr != nil {
			o.cfg.Log.Error("Failed to mark refund entry failed",
				"entry_id", entry.ID,
				"error", markErr,
			)
		}
		return
	}

	if _, err := o.ledger.Confirm(ctx, entry.ID, result.TransactionHash, &result.BlockNumber, &result.GasUsed); err != nil {
		o.cfg.Log.Error("Failed to confirm refund entry",
			"entry_id", entry.ID,
			"tx_hash", result.TransactionHash,
			"error", err,
		)
		return
	}

	o.cfg.Log.Info("Refund issued",
		"reservation_id", reservation.ID,
		"amount_eth", payment.AmountEth,
		"tx_hash", result.TransactionHash,
	)
}

func (o *orchestrator) failPendingPayment(ctx context.Context, reservationID int64) {
	entries, err := o.ledger.EntriesForReservation(ctx, reservationID)
	if err != nil {
		o.cfg.Log.Error("Failed to list ledger entries",
			"reservation_id", reservationID,
			"error", err,
		)
		return
	}

	for _, entry := range entries {
		if entry.PaymentType != model.PaymentTypeBookingPayment {
			continue
		}
		if entry.PaymentStatus != model.PaymentStatusPending && entry.PaymentStatus != model.PaymentStatusProcessing {
			continue
		}
		if err := o.ledger.MarkFailed(ctx, entry.ID); err != nil {
			o.cfg.Log.Error("Failed to mark payment entry failed",
				"entry_id", entry.ID,
				"error", err,
			)
		}
	}
}

func (o *orchestrator) GetReservation(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	return o.loadReservation(ctx, reservationID)
}

func (o *orchestrator) ListReservations(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	reservations, err := o.reservations.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list reservations", err)
	}

	total, err := o.reservations.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to count reservations", err)
	}

	return reservations, total, nil
}

func (o *orchestrator) ListUserReservations(ctx context.Context, userID int64, limit int, offset int64) ([]*model.Reservation, error) {
	reservations, err := o.reservations.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("failed to list user reservations", err)
	}
	return reservations, nil
}

func (o *orchestrator) History(ctx context.Context, reservationID int64) ([]*model.ReservationStatusHistory, error) {
	if _, err := o.loadReservation(ctx, reservationID); err != nil {
		return nil, err
	}

	rows, err := o.history.FindByReservation(ctx, reservationID)
	if err != nil {
		return nil, apperrors.Internal("failed to load status history", err)
	}
	return rows, nil
}

func (o *orchestrator) LedgerEntries(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error) {
	if _, err := o.loadReservation(ctx, reservationID); err != nil {
		return nil, err
	}
	return o.ledger.EntriesForReservation(ctx, reservationID)
}

// ExpireStalePending rejects PENDING reservations older than the
// configured TTL, releasing their dates. Returns how many expired.
func (o *orchestrator) ExpireStalePending(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-o.cfg.PendingReservationTTL)

	stale, err := o.reservations.FindStalePending(ctx, cutoff, expireBatchSize)
	if err != nil {
		return 0, apperrors.Internal("failed to find stale reservations", err)
	}

	expired := 0
	for _, reservation := range stale {
		reservation := reservation

		err := o.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			err := o.states.Transition(sessCtx, reservation, model.StatusRejected, SystemActor, "reservation expired", nil)
			if err != nil {
				return err
			}

			if err := o.guard.Release(sessCtx, reservation.ID); err != nil {
				return err
			}

			reservation.CancellationReason = "reservation expired"
			return events.Stage(sessCtx, o.outbox, events.TopicBookingCancelled, o.eventFor(reservation))
		})
		if err != nil {
			o.cfg.Log.Error("Failed to expire stale reservation",
				"reservation_id", reservation.ID,
				"error", err,
			)
			continue
		}

		o.failPendingPayment(ctx, reservation.ID)
		expired++

		o.cfg.Log.Info("Stale reservation expired",
			"reservation_id", reservation.ID,
			"created_at", reservation.CreatedAt,
		)
	}

	return expired, nil
}

func (o *orchestrator) loadReservation(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	reservation, err := o.reservations.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationerrors.ErrNotFound) {
			return nil, apperrors.NotFound("reservation")
		}
		return nil, apperrors.Internal("failed to load reservation", err)
	}
	return reservation, nil
}

func requireGuest(reservation *model.Reservation, actorUserID int64) error {
	if actorUserID == SystemActor || actorUserID == reservation.UserID {
		return nil
	}
	return apperrors.Forbidden(reservationerrors.ErrNotGuest.Error())
}

// bookingPayment finds the booking payment entry the settlement result
// belongs to. An entry already confirmed with the same hash is returned
// as-is so a redelivered confirmation can finish the status transition
// it crashed before.
func (o *orchestrator) bookingPayment(ctx context.Context, reservationID int64, txHash string) (*model.LedgerEntry, error) {
	entries, err := o.ledger.EntriesForReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.PaymentType != model.PaymentTypeBookingPayment {
			continue
		}
		switch entry.PaymentStatus {
		case model.PaymentStatusPending, model.PaymentStatusProcessing:
			return entry, nil
		case model.PaymentStatusConfirmed:
			if entry.TransactionHash == txHash {
				return entry, nil
			}
		}
	}

	return nil, apperrors.Conflict(reservationerrors.ErrPaymentMissing.Error())
}

func (o *orchestrator) eventFor(reservation *model.Reservation) *events.BookingEvent {
	return &events.BookingEvent{
		ReservationID:      reservation.ID,
		PropertyID:         reservation.PropertyID,
		UserID:             reservation.UserID,
		CheckInDate:        reservation.CheckInDate,
		CheckOutDate:       reservation.CheckOutDate,
		AmountEth:          reservation.AmountEth,
		Status:             reservation.Status,
		BlockchainTxHash:   reservation.BlockchainTxHash,
		CancellationReason: reservation.CancellationReason,
	}
}
