package service

import (
	"context"
	"errors"
	"strconv"

	ledgererrors "reserva/internal/ledger/errors"
	"reserva/internal/ledger/repository"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/model"
)

// Ledger is the append-only payment record of the orchestrator. Entries
// are only ever added or moved through PENDING, PROCESSING, CONFIRMED,
// FAILED; amounts never change after insert.
type Ledger interface {
	RecordPending(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, error)
	Confirm(ctx context.Context, entryID int64, txHash string, blockNumber *int64, gasFeeEth *float64) (*model.LedgerEntry, error)
	MarkFailed(ctx context.Context, entryID int64) error
	RecordRefund(ctx context.Context, original *model.LedgerEntry, amountEth float64) (*model.LedgerEntry, error)
	EntriesForReservation(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error)
	ConfirmedEntry(ctx context.Context, reservationID int64, paymentType string) (*model.LedgerEntry, error)
}

type ledgerService struct {
	repo repository.LedgerRepository
	cfg  *config.Config
}

func NewLedger(repo repository.LedgerRepository, cfg *config.Config) Ledger {
	return &ledgerService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *ledgerService) RecordPending(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, error) {
	if entry.ReservationID <= 0 {
		return nil, apperrors.InvalidInput("ledger entry requires a reservation")
	}
	if entry.AmountEth < 0 {
		return nil, apperrors.InvalidInput("ledger entry amount cannot be negative")
	}

	entry.PaymentStatus = model.PaymentStatusPending
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, apperrors.Internal("failed to record ledger entry", err)
	}

	s.cfg.Log.Info("Ledger entry recorded",
		"entry_id", entry.ID,
		"reservation_id", entry.ReservationID,
		"payment_type", entry.PaymentType,
		"amount_eth", entry.AmountEth,
	)

	return entry, nil
}

// Confirm stamps an entry with its settlement hash. Confirming the same
// entry twice with the same hash is a no-op; a hash already held by a
// different reservation's entry is a conflict.
func (s *ledgerService) Confirm(ctx context.Context, entryID int64, txHash string, blockNumber *int64, gasFeeEth *float64) (*model.LedgerEntry, error) {
	if txHash == "" {
		return nil, apperrors.InvalidInput("transaction hash is required")
	}

	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, ledgererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("ledger entry", strconv.FormatInt(entryID, 10))
		}
		return nil, apperrors.Internal("failed to load ledger entry", err)
	}

	if entry.PaymentStatus == model.PaymentStatusConfirmed {
		if entry.TransactionHash == txHash {
			return entry, nil
		}
		return nil, apperrors.Conflict(ledgererrors.ErrAlreadyFinal.Error())
	}

	existing, err := s.repo.FindByTransactionHash(ctx, txHash)
	if err != nil && !errors.Is(err, ledgererrors.ErrNotFound) {
		return nil, apperrors.Internal("failed to check transaction hash", err)
	}
	if existing != nil && existing.ID != entryID {
		return nil, apperrors.Conflict(ledgererrors.ErrHashReused.Error())
	}

	if err := s.repo.Confirm(ctx, entryID, txHash, blockNumber, gasFeeEth); err != nil {
		if errors.Is(err, ledgererrors.ErrHashReused) {
			return nil, apperrors.Conflict(ledgererrors.ErrHashReused.Error())
		}
		return nil, apperrors.Internal("failed to confirm ledger entry", err)
	}

	return s.repo.FindByID(ctx, entryID)
}

func (s *ledgerService) MarkFailed(ctx context.Context, entryID int64) error {
	if err := s.repo.UpdateStatus(ctx, entryID, model.PaymentStatusFailed); err != nil {
		if errors.Is(err, ledgererrors.ErrNotFound) {
			return apperrors.NotFoundWithID("ledger entry", strconv.FormatInt(entryID, 10))
		}
		return apperrors.Internal("failed to mark ledger entry failed", err)
	}
	return nil
}

// RecordRefund appends a REFUND entry moving funds back along the
// original payment's path, wallets reversed.
func (s *ledgerService) RecordRefund(ctx context.Context, original *model.LedgerEntry, amountEth float64) (*model.LedgerEntry, error) {
	if amountEth < 0 {
		return nil, apperrors.InvalidInput("refund amount cannot be negative")
	}
	if amountEth > original.AmountEth {
		return nil, apperrors.InvalidInput("refund cannot exceed the original payment")
	}

	return s.RecordPending(ctx, &model.LedgerEntry{
		ReservationID:      original.ReservationID,
		PayerWalletAddress: original.PayeeWalletAddress,
		PayeeWalletAddress: original.PayerWalletAddress,
		AmountEth:          amountEth,
		PaymentType:        model.PaymentTypeRefund,
	})
}

func (s *ledgerService) EntriesForReservation(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error) {
	entries, err := s.repo.FindByReservation(ctx, reservationID)
	if err != nil {
		return nil, apperrors.Internal("failed to list ledger entries", err)
	}
	return entries, nil
}

// ConfirmedEntry returns the confirmed entry of the given type, or nil
// when none exists.
func (s *ledgerService) ConfirmedEntry(ctx context.Context, reservationID int64, paymentType string) (*model.LedgerEntry, error) {
	entries, err := s.repo.FindByReservationAndType(ctx, reservationID, paymentType)
	if err != nil {
		return nil, apperrors.Internal("failed to load ledger entries", err)
	}

	for _, entry := range entries {
		if entry.PaymentStatus == model.PaymentStatusConfirmed {
			return entry, nil
		}
	}
	return nil, nil
}
