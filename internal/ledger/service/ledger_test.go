package service

import (
	"context"
	"testing"
	"time"

	ledgererrors "reserva/internal/ledger/errors"
	mongotx "reserva/pkg/db/mongo"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/logger"
	"reserva/pkg/model"
)

// ────────────────────────────────────────────────
// Mock repository for testing
// ────────────────────────────────────────────────

type mockLedgerRepository struct {
	entries map[int64]*model.LedgerEntry
	nextID  int64
	byHash  map[string]int64
}

func newMockLedgerRepository() *mockLedgerRepository {
	return &mockLedgerRepository{
		entries: make(map[int64]*model.LedgerEntry),
		byHash:  make(map[string]int64),
	}
}

func (m *mockLedgerRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	if entry.ID == 0 {
		m.nextID++
		entry.ID = m.nextID
	}
	entry.CreatedAt = time.Now().UTC()
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *mockLedgerRepository) FindByID(ctx context.Context, id int64) (*model.LedgerEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, ledgererrors.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (m *mockLedgerRepository) FindByTransactionHash(ctx context.Context, hash string) (*model.LedgerEntry, error) {
	id, ok := m.byHash[hash]
	if !ok {
		return nil, ledgererrors.ErrNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *mockLedgerRepository) FindByReservation(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error) {
	var out []*model.LedgerEntry
	for _, entry := range m.entries {
		if entry.ReservationID == reservationID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockLedgerRepository) FindByReservationAndType(ctx context.Context, reservationID int64, paymentType string) ([]*model.LedgerEntry, error) {
	var out []*model.LedgerEntry
	for _, entry := range m.entries {
		if entry.ReservationID == reservationID && entry.PaymentType == paymentType {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockLedgerRepository) Confirm(ctx context.Context, id int64, hash string, blockNumber *int64, gasFeeEth *float64) error {
	entry, ok := m.entries[id]
	if !ok {
		return ledgererrors.ErrNotFound
	}
	if holder, taken := m.byHash[hash]; taken && holder != id {
		return ledgererrors.ErrHashReused
	}
	now := time.Now().UTC()
	entry.PaymentStatus = model.PaymentStatusConfirmed
	entry.TransactionHash = hash
	entry.BlockNumber = blockNumber
	entry.GasFeeEth = gasFeeEth
	entry.ConfirmedAt = &now
	m.byHash[hash] = id
	return nil
}

func (m *mockLedgerRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	entry, ok := m.entries[id]
	if !ok {
		return ledgererrors.ErrNotFound
	}
	entry.PaymentStatus = status
	return nil
}

func (m *mockLedgerRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func pendingPayment(t *testing.T, ledger Ledger, reservationID int64) *model.LedgerEntry {
	t.Helper()
	entry, err := ledger.RecordPending(context.Background(), &model.LedgerEntry{
		ReservationID:      reservationID,
		PayerWalletAddress: "0xguest",
		PayeeWalletAddress: "0xescrow",
		AmountEth:          2.5,
		PaymentType:        model.PaymentTypeBookingPayment,
	})
	if err != nil {
		t.Fatalf("failed to record pending entry: %v", err)
	}
	return entry
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestConfirm_StampsHashAndMetadata(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	entry := pendingPayment(t, ledger, 1)

	block := int64(120)
	gas := 0.002
	confirmed, err := ledger.Confirm(context.Background(), entry.ID, "0xabc", &block, &gas)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if confirmed.PaymentStatus != model.PaymentStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", confirmed.PaymentStatus)
	}
	if confirmed.TransactionHash != "0xabc" {
		t.Errorf("expected hash 0xabc, got %s", confirmed.TransactionHash)
	}
	if confirmed.ConfirmedAt == nil {
		t.Error("expected confirmed_at to be set")
	}
}

func TestConfirm_IdempotentOnIdenticalHash(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	entry := pendingPayment(t, ledger, 1)

	if _, err := ledger.Confirm(context.Background(), entry.ID, "0xabc", nil, nil); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}

	again, err := ledger.Confirm(context.Background(), entry.ID, "0xabc", nil, nil)
	if err != nil {
		t.Fatalf("repeated confirm with identical hash must be a no-op, got %v", err)
	}
	if again.TransactionHash != "0xabc" {
		t.Errorf("expected hash preserved, got %s", again.TransactionHash)
	}
}

func TestConfirm_ConflictOnHashReuse(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	first := pendingPayment(t, ledger, 1)
	second := pendingPayment(t, ledger, 2)

	if _, err := ledger.Confirm(context.Background(), first.ID, "0xabc", nil, nil); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}

	_, err := ledger.Confirm(context.Background(), second.ID, "0xabc", nil, nil)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT on hash reuse, got %v", err)
	}
}

func TestConfirm_ConflictOnDifferentHashForFinalEntry(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	entry := pendingPayment(t, ledger, 1)

	if _, err := ledger.Confirm(context.Background(), entry.ID, "0xabc", nil, nil); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}

	_, err := ledger.Confirm(context.Background(), entry.ID, "0xdef", nil, nil)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT on conflicting hash, got %v", err)
	}
}

func TestMarkFailed(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	entry := pendingPayment(t, ledger, 1)

	if err := ledger.MarkFailed(context.Background(), entry.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), entry.ID)
	if stored.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("expected FAILED, got %s", stored.PaymentStatus)
	}
}

func TestRecordRefund_ReversesWallets(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	original := pendingPayment(t, ledger, 1)

	refund, err := ledger.RecordRefund(context.Background(), original, original.AmountEth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if refund.PaymentType != model.PaymentTypeRefund {
		t.Errorf("expected REFUND type, got %s", refund.PaymentType)
	}
	if refund.PayerWalletAddress != original.PayeeWalletAddress ||
		refund.PayeeWalletAddress != original.PayerWalletAddress {
		t.Error("refund must reverse the original wallets")
	}
	if refund.ID == original.ID {
		t.Error("refund must be a new append-only entry")
	}
}

func TestRecordRefund_RejectsExcessAmount(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	original := pendingPayment(t, ledger, 1)

	_, err := ledger.RecordRefund(context.Background(), original, original.AmountEth+1)
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestConfirmedEntry_SkipsNonConfirmed(t *testing.T) {
	repo := newMockLedgerRepository()
	ledger := NewLedger(repo, testConfig())

	pendingPayment(t, ledger, 1)

	entry, err := ledger.ConfirmedEntry(context.Background(), 1, model.PaymentTypeBookingPayment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Error("expected nil while payment still pending")
	}
}
