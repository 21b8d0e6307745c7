package service

import (
	"context"
	"time"

	availabilityerrors "reserva/internal/availability/errors"
	"reserva/internal/availability/repository"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Guard owns the availability calendar of every property. Reserve is the
// only way booked dates come into existence and is safe under races.
type Guard interface {
	CheckOverlap(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) (bool, error)
	Reserve(ctx context.Context, reservationID, propertyID int64, dateStart, dateEnd time.Time) error
	Release(ctx context.Context, reservationID int64) error
	BlockDates(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) (*model.AvailabilityBlock, error)
	UnblockDates(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) error
	ListBlocks(ctx context.Context, propertyID int64) ([]*model.AvailabilityBlock, error)
}

type guard struct {
	blocks repository.BlockRepository
	locks  repository.PropertyLockRepository
	cfg    *config.Config
}

func NewGuard(blocks repository.BlockRepository, locks repository.PropertyLockRepository, cfg *config.Config) Guard {
	return &guard{
		blocks: blocks,
		locks:  locks,
		cfg:    cfg,
	}
}

// inclusive endpoints conflict unless same-day turnover is allowed
func (g *guard) inclusive() bool {
	return !g.cfg.AllowSameDayTurnover
}

func normalizeRange(dateStart, dateEnd time.Time) (time.Time, time.Time, error) {
	start := model.ToUTCDate(dateStart)
	end := model.ToUTCDate(dateEnd)
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput(availabilityerrors.ErrInvalidDateRange.Error())
	}
	return start, end, nil
}

func (g *guard) CheckOverlap(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) (bool, error) {
	start, end, err := normalizeRange(dateStart, dateEnd)
	if err != nil {
		return false, err
	}

	overlapping, err := g.blocks.FindOverlapping(ctx, propertyID, start, end, g.inclusive())
	if err != nil {
		return false, apperrors.Internal("failed to check availability", err)
	}

	return len(overlapping) > 0, nil
}

// Reserve atomically claims the dates for a reservation. An advisory
// lock serializes racing writers on the property; the overlap check and
// block insert run in one transaction under that lock.
func (g *guard) Reserve(ctx context.Context, reservationID, propertyID int64, dateStart, dateEnd time.Time) error {
	start, end, err := normalizeRange(dateStart, dateEnd)
	if err != nil {
		return err
	}

	lock, err := g.locks.Acquire(ctx, propertyID)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict(availabilityerrors.ErrPropertyLocked.Error())
		}
		return apperrors.Internal("failed to acquire property lock", err)
	}
	defer func() {
		_ = g.locks.Release(context.WithoutCancel(ctx), lock.ID)
	}()

	err = g.blocks.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := g.blocks.FindOverlapping(sessCtx, propertyID, start, end, g.inclusive())
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return apperrors.Conflict(availabilityerrors.ErrDatesUnavailable.Error())
		}

		return g.blocks.Create(sessCtx, &model.AvailabilityBlock{
			PropertyID:    propertyID,
			DateStart:     start,
			DateEnd:       end,
			Reason:        model.BlockReasonBooked,
			ReservationID: reservationID,
		})
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("failed to reserve dates", err)
	}

	return nil
}

// Release retires the reservation's blocks. Releasing an already
// released reservation is a no-op.
func (g *guard) Release(ctx context.Context, reservationID int64) error {
	if _, err := g.blocks.RetireByReservation(ctx, reservationID); err != nil {
		return apperrors.Internal("failed to release reserved dates", err)
	}
	return nil
}

// BlockDates creates an owner block over the range, rejecting overlap
// with any existing block the same way a booking would.
func (g *guard) BlockDates(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) (*model.AvailabilityBlock, error) {
	start, end, err := normalizeRange(dateStart, dateEnd)
	if err != nil {
		return nil, err
	}

	lock, err := g.locks.Acquire(ctx, propertyID)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict(availabilityerrors.ErrPropertyLocked.Error())
		}
		return nil, apperrors.Internal("failed to acquire property lock", err)
	}
	defer func() {
		_ = g.locks.Release(context.WithoutCancel(ctx), lock.ID)
	}()

	block := &model.AvailabilityBlock{
		PropertyID: propertyID,
		DateStart:  start,
		DateEnd:    end,
		Reason:     model.BlockReasonOwnerBlock,
	}

	err = g.blocks.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := g.blocks.FindOverlapping(sessCtx, propertyID, start, end, g.inclusive())
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return apperrors.Conflict(availabilityerrors.ErrDatesUnavailable.Error())
		}

		return g.blocks.Create(sessCtx, block)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("failed to block dates", err)
	}

	return block, nil
}

// UnblockDates reopens the range inside owner blocks. A block partially
// covered by the range is retired and replaced by its remainders on
// either side. Booked blocks are never touched.
func (g *guard) UnblockDates(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) error {
	start, end, err := normalizeRange(dateStart, dateEnd)
	if err != nil {
		return err
	}

	err = g.blocks.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := g.blocks.FindOverlapping(sessCtx, propertyID, start, end, true)
		if err != nil {
			return err
		}

		for _, block := range overlapping {
			if block.Reason != model.BlockReasonOwnerBlock {
				continue
			}

			if err := g.blocks.Retire(sessCtx, block.ID); err != nil {
				return err
			}

			if block.DateStart.Before(start) {
				left := &model.AvailabilityBlock{
					PropertyID: propertyID,
					DateStart:  block.DateStart,
					DateEnd:    start.AddDate(0, 0, -1),
					Reason:     model.BlockReasonOwnerBlock,
				}
				if err := g.blocks.Create(sessCtx, left); err != nil {
					return err
				}
			}

			if block.DateEnd.After(end) {
				right := &model.AvailabilityBlock{
					PropertyID: propertyID,
					DateStart:  end.AddDate(0, 0, 1),
					DateEnd:    block.DateEnd,
					Reason:     model.BlockReasonOwnerBlock,
				}
				if err := g.blocks.Create(sessCtx, right); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("failed to unblock dates", err)
	}

	return nil
}

func (g *guard) ListBlocks(ctx context.Context, propertyID int64) ([]*model.AvailabilityBlock, error) {
	blocks, err := g.blocks.FindActiveByProperty(ctx, propertyID)
	if err != nil {
		return nil, apperrors.Internal("failed to list availability blocks", err)
	}
	return blocks, nil
}
