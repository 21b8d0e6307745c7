package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	availabilityservice "reserva/internal/availability/service"
	"reserva/internal/events"
	ledgerservice "reserva/internal/ledger/service"
	reservationerrors "reserva/internal/reservations/errors"
	"reserva/internal/reservations/repository"
	"reserva/internal/settlement"
	"reserva/pkg/client"
	"reserva/pkg/config"
	mongotx "reserva/pkg/db/mongo"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/logger"
	"reserva/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

// ────────────────────────────────────────────────
// In-memory collaborators
// ────────────────────────────────────────────────

type memReservations struct {
	nextID    int64
	store     map[int64]*model.Reservation
	createErr error
	overlap   bool
}

func newMemReservations() *memReservations {
	return &memReservations{store: make(map[int64]*model.Reservation)}
}

func (m *memReservations) put(r *model.Reservation) {
	clone := *r
	m.store[r.ID] = &clone
}

func (m *memReservations) NextID(ctx context.Context) (int64, error) {
	m.nextID++
	return m.nextID, nil
}

func (m *memReservations) Create(ctx context.Context, r *model.Reservation) error {
	if m.createErr != nil {
		return m.createErr
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	clone := *r
	m.store[r.ID] = &clone
	return nil
}

func (m *memReservations) FindByID(ctx context.Context, id int64) (*model.Reservation, error) {
	doc, ok := m.store[id]
	if !ok {
		return nil, reservationerrors.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (m *memReservations) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, doc := range m.store {
		clone := *doc
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memReservations) FindByUser(ctx context.Context, userID int64, limit int, offset int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, doc := range m.store {
		if doc.UserID == userID {
			clone := *doc
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memReservations) Count(ctx context.Context) (int64, error) {
	return int64(len(m.store)), nil
}

func (m *memReservations) UpdateStatusIf(ctx context.Context, id int64, from, to string, extra bson.M) (bool, error) {
	doc, ok := m.store[id]
	if !ok || doc.Status != from {
		return false, nil
	}
	doc.Status = to
	if v, ok := extra["blockchain_tx_hash"].(string); ok {
		doc.BlockchainTxHash = v
	}
	if v, ok := extra["cancellation_reason"].(string); ok {
		doc.CancellationReason = v
	}
	if v, ok := extra["cancelled_at"].(time.Time); ok {
		doc.CancelledAt = &v
	}
	return true, nil
}

func (m *memReservations) SetBlockchainTxHash(ctx context.Context, id int64, hash string) error {
	if doc, ok := m.store[id]; ok {
		doc.BlockchainTxHash = hash
	}
	return nil
}

func (m *memReservations) SetEscrowReleased(ctx context.Context, id int64, txHash string) error {
	if doc, ok := m.store[id]; ok {
		doc.EscrowReleased = true
		doc.EscrowReleaseTxHash = txHash
	}
	return nil
}

func (m *memReservations) ExistsOverlappingForUser(ctx context.Context, userID, propertyID int64, dateStart, dateEnd time.Time, inclusive bool) (bool, error) {
	return m.overlap, nil
}

func (m *memReservations) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, doc := range m.store {
		if doc.Status == model.StatusPending && doc.CreatedAt.Before(olderThan) {
			clone := *doc
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memReservations) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type memHistory struct {
	rows map[int64][]*model.ReservationStatusHistory
}

func newMemHistory() *memHistory {
	return &memHistory{rows: make(map[int64][]*model.ReservationStatusHistory)}
}

func (m *memHistory) Append(ctx context.Context, row *model.ReservationStatusHistory) error {
	clone := *row
	m.rows[row.ReservationID] = append(m.rows[row.ReservationID], &clone)
	return nil
}

func (m *memHistory) FindByReservation(ctx context.Context, reservationID int64) ([]*model.ReservationStatusHistory, error) {
	return m.rows[reservationID], nil
}

type memGuard struct {
	reserved   []int64
	released   []int64
	reserveErr error
}

func (g *memGuard) CheckOverlap(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) (bool, error) {
	return false, nil
}

func (g *memGuard) Reserve(ctx context.Context, reservationID, propertyID int64, dateStart, dateEnd time.Time) error {
	if g.reserveErr != nil {
		return g.reserveErr
	}
	g.reserved = append(g.reserved, reservationID)
	return nil
}

func (g *memGuard) Release(ctx context.Context, reservationID int64) error {
	g.released = append(g.released, reservationID)
	return nil
}

func (g *memGuard) BlockDates(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) (*model.AvailabilityBlock, error) {
	return nil, nil
}

func (g *memGuard) UnblockDates(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) error {
	return nil
}

func (g *memGuard) ListBlocks(ctx context.Context, propertyID int64) ([]*model.AvailabilityBlock, error) {
	return nil, nil
}

type memLedger struct {
	nextID  int64
	entries map[int64]*model.LedgerEntry
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[int64]*model.LedgerEntry)}
}

func (m *memLedger) RecordPending(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, error) {
	m.nextID++
	entry.ID = m.nextID
	entry.PaymentStatus = model.PaymentStatusPending
	clone := *entry
	m.entries[entry.ID] = &clone
	return entry, nil
}

func (m *memLedger) Confirm(ctx context.Context, entryID int64, txHash string, blockNumber *int64, gasFeeEth *float64) (*model.LedgerEntry, error) {
	entry, ok := m.entries[entryID]
	if !ok {
		return nil, apperrors.NotFound("ledger entry")
	}
	if entry.PaymentStatus == model.PaymentStatusConfirmed && entry.TransactionHash == txHash {
		return entry, nil
	}
	entry.PaymentStatus = model.PaymentStatusConfirmed
	entry.TransactionHash = txHash
	entry.BlockNumber = blockNumber
	entry.GasFeeEth = gasFeeEth
	return entry, nil
}

func (m *memLedger) MarkFailed(ctx context.Context, entryID int64) error {
	if entry, ok := m.entries[entryID]; ok {
		entry.PaymentStatus = model.PaymentStatusFailed
	}
	return nil
}

func (m *memLedger) RecordRefund(ctx context.Context, original *model.LedgerEntry, amountEth float64) (*model.LedgerEntry, error) {
	return m.RecordPending(ctx, &model.LedgerEntry{
		ReservationID:      original.ReservationID,
		PayerWalletAddress: original.PayeeWalletAddress,
		PayeeWalletAddress: original.PayerWalletAddress,
		AmountEth:          amountEth,
		PaymentType:        model.PaymentTypeRefund,
	})
}

func (m *memLedger) EntriesForReservation(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error) {
	var out []*model.LedgerEntry
	for _, entry := range m.entries {
		if entry.ReservationID == reservationID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLedger) ConfirmedEntry(ctx context.Context, reservationID int64, paymentType string) (*model.LedgerEntry, error) {
	entries, _ := m.EntriesForReservation(ctx, reservationID)
	for _, entry := range entries {
		if entry.PaymentType == paymentType && entry.PaymentStatus == model.PaymentStatusConfirmed {
			return entry, nil
		}
	}
	return nil, nil
}

func (m *memLedger) entriesOfType(reservationID int64, paymentType string) []*model.LedgerEntry {
	var out []*model.LedgerEntry
	entries, _ := m.EntriesForReservation(context.Background(), reservationID)
	for _, entry := range entries {
		if entry.PaymentType == paymentType {
			out = append(out, entry)
		}
	}
	return out
}

type mockSettlement struct {
	bookingFunc func(ctx context.Context, req *settlement.BookingRequest) (*settlement.TransactionResult, error)
	escrowFunc  func(ctx context.Context, req *settlement.EscrowReleaseRequest) (*settlement.TransactionResult, error)
	refundFunc  func(ctx context.Context, req *settlement.RefundRequest) (*settlement.TransactionResult, error)
}

func successResult(hash string) *settlement.TransactionResult {
	return &settlement.TransactionResult{
		Success:         true,
		TransactionHash: hash,
		BlockNumber:     1042,
		GasUsed:         0.0002,
	}
}

func (m *mockSettlement) CreateOnChainBooking(ctx context.Context, req *settlement.BookingRequest) (*settlement.TransactionResult, error) {
	if m.bookingFunc != nil {
		return m.bookingFunc(ctx, req)
	}
	return successResult("0xbooking"), nil
}

func (m *mockSettlement) ReleaseEscrow(ctx context.Context, req *settlement.EscrowReleaseRequest) (*settlement.TransactionResult, error) {
	if m.escrowFunc != nil {
		return m.escrowFunc(ctx, req)
	}
	return successResult("0xescrow"), nil
}

func (m *mockSettlement) InitiateRefund(ctx context.Context, req *settlement.RefundRequest) (*settlement.TransactionResult, error) {
	if m.refundFunc != nil {
		return m.refundFunc(ctx, req)
	}
	return successResult("0xrefund"), nil
}

type memOutbox struct {
	staged []*model.OutboxEvent
}

func (m *memOutbox) Stage(ctx context.Context, event *model.OutboxEvent) error {
	m.staged = append(m.staged, event)
	return nil
}

func (m *memOutbox) FindUnpublished(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (m *memOutbox) MarkPublished(ctx context.Context, id string) error {
	return nil
}

func (m *memOutbox) topics() []string {
	var out []string
	for _, event := range m.staged {
		out = append(out, event.Topic)
	}
	return out
}

type mockProperties struct {
	missing bool
	ownerID int64
	wallet  string
}

func (m *mockProperties) PropertyExists(ctx context.Context, propertyID int64) (bool, error) {
	return !m.missing, nil
}

func (m *mockProperties) IsOwner(ctx context.Context, propertyID, userID int64) (bool, error) {
	return userID == m.ownerID, nil
}

func (m *mockProperties) OwnerWallet(ctx context.Context, propertyID int64) (string, error) {
	return m.wallet, nil
}

var (
	_ repository.ReservationRepository = (*memReservations)(nil)
	_ repository.HistoryRepository    = (*memHistory)(nil)
	_ availabilityservice.Guard       = (*memGuard)(nil)
	_ ledgerservice.Ledger            = (*memLedger)(nil)
	_ settlement.Client               = (*mockSettlement)(nil)
	_ events.OutboxRepository         = (*memOutbox)(nil)
	_ client.PropertyClient           = (*mockProperties)(nil)
)

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

const (
	guestID       = int64(7)
	ownerID       = int64(21)
	strangerID    = int64(99)
	guestWallet   = "0x1111111111111111111111111111111111111111"
	ownerWallet   = "0x2222222222222222222222222222222222222222"
	platformAddr  = "0x3333333333333333333333333333333333333333"
	testAmountEth = 1.5
)

type fixture struct {
	cfg          *config.Config
	reservations *memReservations
	history      *memHistory
	guard        *memGuard
	ledger       *memLedger
	settlement   *mockSettlement
	outbox       *memOutbox
	properties   *mockProperties
	orch         Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		cfg: &config.Config{
			Log: logger.New(logger.Config{
				Level:   "error",
				Format:  logger.JSON,
				Service: "test",
			}),
			ReadTimeout:           5 * time.Second,
			WriteTimeout:          5 * time.Second,
			PlatformWalletAddress: platformAddr,
			PendingReservationTTL: 30 * time.Minute,
		},
		reservations: newMemReservations(),
		history:      newMemHistory(),
		guard:        &memGuard{},
		ledger:       newMemLedger(),
		settlement:   &mockSettlement{},
		outbox:       &memOutbox{},
		properties:   &mockProperties{ownerID: ownerID, wallet: ownerWallet},
	}

	f.orch = NewOrchestrator(f.cfg, f.reservations, f.history, f.guard, f.ledger, f.settlement, f.outbox, f.properties)
	return f
}

func bookingRequest() *model.ReservationRequest {
	return &model.ReservationRequest{
		PropertyID:         3,
		CheckInDate:        time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate:       time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC),
		AmountEth:          testAmountEth,
		GuestWalletAddress: guestWallet,
	}
}

func (f *fixture) createConfirmed(t *testing.T) *model.Reservation {
	t.Helper()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	reservation, err = f.orch.ConfirmReservation(context.Background(), reservation.ID, "0xbooking", nil, nil)
	if err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}
	return reservation
}

// beginStay moves the stored stay window into the past so the calendar
// gates on check-in and check-out are open.
func (f *fixture) beginStay(t *testing.T, reservationID int64) {
	t.Helper()

	stored, ok := f.reservations.store[reservationID]
	if !ok {
		t.Fatalf("reservation %d not stored", reservationID)
	}
	stored.CheckInDate = model.ToUTCDate(time.Now().UTC().AddDate(0, 0, -5))
	stored.CheckOutDate = model.ToUTCDate(time.Now().UTC().AddDate(0, 0, -1))
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.StatusPending {
		t.Errorf("status = %s, want PENDING", reservation.Status)
	}
	if len(f.guard.reserved) != 1 || f.guard.reserved[0] != reservation.ID {
		t.Errorf("dates not reserved for %d: %v", reservation.ID, f.guard.reserved)
	}

	payments := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeBookingPayment)
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment entry, got %d", len(payments))
	}
	if payments[0].PayerWalletAddress != guestWallet || payments[0].PayeeWalletAddress != platformAddr {
		t.Errorf("payment path %s -> %s", payments[0].PayerWalletAddress, payments[0].PayeeWalletAddress)
	}

	topics := f.outbox.topics()
	if len(topics) != 1 || topics[0] != events.TopicBookingCreated {
		t.Errorf("staged topics = %v", topics)
	}

	rows := f.history.rows[reservation.ID]
	if len(rows) != 1 || rows[0].NewStatus != model.StatusPending {
		t.Errorf("history rows = %+v", rows)
	}
}

func TestCreateBooking_UnknownProperty(t *testing.T) {
	f := newFixture()
	f.properties.missing = true

	_, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if len(f.guard.reserved) != 0 {
		t.Errorf("dates reserved despite missing property")
	}
}

func TestCreateBooking_DuplicateUserBooking(t *testing.T) {
	f := newFixture()
	f.reservations.overlap = true

	_, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestCreateBooking_DatesUnavailable(t *testing.T) {
	f := newFixture()
	f.guard.reserveErr = apperrors.Conflict("requested dates are not available")

	_, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if len(f.outbox.staged) != 0 {
		t.Errorf("events staged for failed booking")
	}
}

func TestCreateBooking_PersistFailureReleasesDates(t *testing.T) {
	f := newFixture()
	f.reservations.createErr = errors.New("write failed")

	_, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.guard.released) != 1 {
		t.Fatalf("expected compensation to release dates, released = %v", f.guard.released)
	}
	if f.guard.released[0] != f.guard.reserved[0] {
		t.Errorf("released %d, reserved %d", f.guard.released[0], f.guard.reserved[0])
	}
}

func TestConfirmReservation_StampsHashAndPublishes(t *testing.T) {
	f := newFixture()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	block := int64(1042)
	confirmed, err := f.orch.ConfirmReservation(context.Background(), reservation.ID, "0xbooking", &block, nil)
	if err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}

	if confirmed.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", confirmed.Status)
	}
	if confirmed.BlockchainTxHash != "0xbooking" {
		t.Errorf("tx hash = %s", confirmed.BlockchainTxHash)
	}

	payments := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeBookingPayment)
	if payments[0].PaymentStatus != model.PaymentStatusConfirmed {
		t.Errorf("payment status = %s", payments[0].PaymentStatus)
	}

	topics := f.outbox.topics()
	if len(topics) != 2 || topics[1] != events.TopicBookingConfirmed {
		t.Errorf("staged topics = %v", topics)
	}
}

func TestConfirmReservation_IdempotentOnSameHash(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)

	again, err := f.orch.ConfirmReservation(context.Background(), reservation.ID, "0xbooking", nil, nil)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if again.Status != model.StatusConfirmed {
		t.Errorf("status = %s", again.Status)
	}

	// No second booking.confirmed event.
	confirmedEvents := 0
	for _, topic := range f.outbox.topics() {
		if topic == events.TopicBookingConfirmed {
			confirmedEvents++
		}
	}
	if confirmedEvents != 1 {
		t.Errorf("booking.confirmed staged %d times", confirmedEvents)
	}
}

func TestConfirmReservation_WithoutPayment(t *testing.T) {
	f := newFixture()

	f.reservations.put(&model.Reservation{ID: 5, UserID: guestID, PropertyID: 3, Status: model.StatusPending})

	_, err := f.orch.ConfirmReservation(context.Background(), 5, "0xhash", nil, nil)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestConfirmReservation_ResumesAfterPartialFailure(t *testing.T) {
	f := newFixture()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// The ledger entry was confirmed but the process died before the
	// status transition. The redelivered confirmation must finish the job.
	payment := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeBookingPayment)[0]
	if _, err := f.ledger.Confirm(context.Background(), payment.ID, "0xbooking", nil, nil); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	confirmed, err := f.orch.ConfirmReservation(context.Background(), reservation.ID, "0xbooking", nil, nil)
	if err != nil {
		t.Fatalf("redelivered confirm: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", confirmed.Status)
	}
	if confirmed.BlockchainTxHash != "0xbooking" {
		t.Errorf("tx hash = %s", confirmed.BlockchainTxHash)
	}

	topics := f.outbox.topics()
	if topics[len(topics)-1] != events.TopicBookingConfirmed {
		t.Errorf("staged topics = %v", topics)
	}
}

func TestCheckIn_GuestOnly(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)
	f.beginStay(t, reservation.ID)

	if _, err := f.orch.CheckIn(context.Background(), reservation.ID, strangerID); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN for stranger, got %v", err)
	}
	if _, err := f.orch.CheckIn(context.Background(), reservation.ID, ownerID); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN for the property owner, got %v", err)
	}

	checkedIn, err := f.orch.CheckIn(context.Background(), reservation.ID, guestID)
	if err != nil {
		t.Fatalf("guest check-in: %v", err)
	}
	if checkedIn.Status != model.StatusCheckedIn {
		t.Errorf("status = %s, want CHECKED_IN", checkedIn.Status)
	}

	topics := f.outbox.topics()
	if topics[len(topics)-1] != events.TopicCheckinCompleted {
		t.Errorf("staged topics = %v", topics)
	}
}

func TestCheckIn_BeforeArrivalDateRejected(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)

	// The stay window from bookingRequest has not started yet.
	_, err := f.orch.CheckIn(context.Background(), reservation.ID, guestID)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT before the arrival date, got %v", err)
	}
	if f.reservations.store[reservation.ID].Status != model.StatusConfirmed {
		t.Errorf("status changed despite early check-in")
	}
}

func TestCheckIn_FromPendingRejected(t *testing.T) {
	f := newFixture()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	f.beginStay(t, reservation.ID)

	_, err = f.orch.CheckIn(context.Background(), reservation.ID, guestID)
	if !apperrors.IsCode(err, apperrors.CodeStateTransition) {
		t.Fatalf("expected STATE_TRANSITION, got %v", err)
	}
}

func TestCheckOut_ReleasesEscrowToOwner(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)
	f.beginStay(t, reservation.ID)

	if _, err := f.orch.CheckIn(context.Background(), reservation.ID, guestID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	completed, err := f.orch.CheckOut(context.Background(), reservation.ID, guestID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	if completed.Status != model.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
	if !completed.EscrowReleased || completed.EscrowReleaseTxHash != "0xescrow" {
		t.Errorf("escrow released = %v, hash = %s", completed.EscrowReleased, completed.EscrowReleaseTxHash)
	}

	releases := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeEscrowRelease)
	if len(releases) != 1 {
		t.Fatalf("expected 1 escrow entry, got %d", len(releases))
	}
	release := releases[0]
	if release.PaymentStatus != model.PaymentStatusConfirmed {
		t.Errorf("escrow entry status = %s", release.PaymentStatus)
	}
	if release.PayerWalletAddress != platformAddr || release.PayeeWalletAddress != ownerWallet {
		t.Errorf("escrow path %s -> %s", release.PayerWalletAddress, release.PayeeWalletAddress)
	}
	if release.AmountEth != testAmountEth {
		t.Errorf("escrow amount = %v", release.AmountEth)
	}
}

func TestCheckOut_SettlementFailureStillCompletes(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)
	f.beginStay(t, reservation.ID)

	if _, err := f.orch.CheckIn(context.Background(), reservation.ID, guestID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	f.settlement.escrowFunc = func(ctx context.Context, req *settlement.EscrowReleaseRequest) (*settlement.TransactionResult, error) {
		return nil, apperrors.Upstream("settlement service", errors.New("out of gas"))
	}

	completed, err := f.orch.CheckOut(context.Background(), reservation.ID, guestID)
	if err != nil {
		t.Fatalf("CheckOut must not fail on escrow: %v", err)
	}

	if completed.Status != model.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
	if completed.EscrowReleased {
		t.Error("escrow flagged released after settlement failure")
	}

	releases := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeEscrowRelease)
	if len(releases) != 1 || releases[0].PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("escrow entries = %+v", releases)
	}
}

func TestCheckOut_SecondReleaseRejected(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)
	f.beginStay(t, reservation.ID)

	if _, err := f.orch.CheckIn(context.Background(), reservation.ID, guestID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if _, err := f.orch.CheckOut(context.Background(), reservation.ID, guestID); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	// A repeated checkout is an illegal transition and must not create
	// another escrow entry.
	_, err := f.orch.CheckOut(context.Background(), reservation.ID, guestID)
	if !apperrors.IsCode(err, apperrors.CodeStateTransition) {
		t.Fatalf("expected STATE_TRANSITION, got %v", err)
	}

	releases := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeEscrowRelease)
	if len(releases) != 1 {
		t.Errorf("escrow entries = %d, want 1", len(releases))
	}
}

func TestCheckOut_BeforeDepartureDateRejected(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)

	// The stay has started but the departure date is still ahead.
	stored := f.reservations.store[reservation.ID]
	stored.CheckInDate = model.ToUTCDate(time.Now().UTC().AddDate(0, 0, -1))
	stored.CheckOutDate = model.ToUTCDate(time.Now().UTC().AddDate(0, 0, 3))

	if _, err := f.orch.CheckIn(context.Background(), reservation.ID, guestID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	_, err := f.orch.CheckOut(context.Background(), reservation.ID, guestID)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT before the departure date, got %v", err)
	}
	if stored.Status != model.StatusCheckedIn {
		t.Errorf("status changed despite early check-out")
	}
	if releases := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeEscrowRelease); len(releases) != 0 {
		t.Errorf("escrow entries = %d, want 0", len(releases))
	}
}

func TestCancel_BeforeCheckInRefundsInFull(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)

	cancelled, err := f.orch.Cancel(context.Background(), reservation.ID, guestID, "change of plans")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancellationReason != "change of plans" {
		t.Errorf("reason = %q", cancelled.CancellationReason)
	}
	if cancelled.CancelledAt == nil {
		t.Error("cancelled_at not set")
	}
	if len(f.guard.released) != 1 || f.guard.released[0] != reservation.ID {
		t.Errorf("dates not released: %v", f.guard.released)
	}

	refunds := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeRefund)
	if len(refunds) != 1 {
		t.Fatalf("expected 1 refund entry, got %d", len(refunds))
	}
	refund := refunds[0]
	if refund.AmountEth != testAmountEth {
		t.Errorf("refund amount = %v, want full %v", refund.AmountEth, testAmountEth)
	}
	if refund.PayerWalletAddress != platformAddr || refund.PayeeWalletAddress != guestWallet {
		t.Errorf("refund path %s -> %s", refund.PayerWalletAddress, refund.PayeeWalletAddress)
	}
	if refund.PaymentStatus != model.PaymentStatusConfirmed {
		t.Errorf("refund status = %s", refund.PaymentStatus)
	}

	topics := f.outbox.topics()
	if topics[len(topics)-1] != events.TopicBookingCancelled {
		t.Errorf("staged topics = %v", topics)
	}
}

func TestCancel_AfterCheckInNoRefund(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)
	f.beginStay(t, reservation.ID)

	if _, err := f.orch.CheckIn(context.Background(), reservation.ID, guestID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	cancelled, err := f.orch.Cancel(context.Background(), reservation.ID, guestID, "leaving early")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}

	refunds := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeRefund)
	if len(refunds) != 0 {
		t.Errorf("refund issued after check-in: %+v", refunds)
	}
}

func TestCancel_PendingWithoutConfirmedPayment(t *testing.T) {
	f := newFixture()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if _, err := f.orch.Cancel(context.Background(), reservation.ID, guestID, "mind changed"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// The unsettled payment entry is closed out instead of refunded.
	if refunds := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeRefund); len(refunds) != 0 {
		t.Errorf("refund issued for unsettled payment: %+v", refunds)
	}
	payments := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeBookingPayment)
	if payments[0].PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", payments[0].PaymentStatus)
	}
}

func TestCancel_ByStrangerForbidden(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)

	_, err := f.orch.Cancel(context.Background(), reservation.ID, strangerID, "not mine")
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if len(f.guard.released) != 0 {
		t.Errorf("dates released on forbidden cancel")
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	f := newFixture()
	reservation := f.createConfirmed(t)

	if _, err := f.orch.Cancel(context.Background(), reservation.ID, guestID, "first"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err := f.orch.Cancel(context.Background(), reservation.ID, guestID, "second")
	if !apperrors.IsCode(err, apperrors.CodeStateTransition) {
		t.Fatalf("expected STATE_TRANSITION, got %v", err)
	}
}

func TestExpireStalePending(t *testing.T) {
	f := newFixture()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	stored := f.reservations.store[reservation.ID]
	stored.CreatedAt = time.Now().UTC().Add(-time.Hour)

	expired, err := f.orch.ExpireStalePending(context.Background())
	if err != nil {
		t.Fatalf("ExpireStalePending: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	if stored.Status != model.StatusRejected {
		t.Errorf("status = %s, want REJECTED", stored.Status)
	}
	if len(f.guard.released) != 1 || f.guard.released[0] != reservation.ID {
		t.Errorf("dates not released: %v", f.guard.released)
	}

	payments := f.ledger.entriesOfType(reservation.ID, model.PaymentTypeBookingPayment)
	if payments[0].PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", payments[0].PaymentStatus)
	}

	topics := f.outbox.topics()
	if topics[len(topics)-1] != events.TopicBookingCancelled {
		t.Errorf("staged topics = %v", topics)
	}
}

func TestExpireStalePending_FreshReservationsUntouched(t *testing.T) {
	f := newFixture()

	reservation, err := f.orch.CreateBooking(context.Background(), guestID, bookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	expired, err := f.orch.ExpireStalePending(context.Background())
	if err != nil {
		t.Fatalf("ExpireStalePending: %v", err)
	}
	if expired != 0 {
		t.Errorf("expired = %d, want 0", expired)
	}
	if f.reservations.store[reservation.ID].Status != model.StatusPending {
		t.Errorf("fresh reservation no longer PENDING")
	}
}
