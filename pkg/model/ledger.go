package model

import "time"

const (
	PaymentTypeBookingPayment = "BOOKING_PAYMENT"
	PaymentTypeEscrowRelease  = "ESCROW_RELEASE"
	PaymentTypePlatformFee    = "PLATFORM_FEE"
	PaymentTypeRefund         = "REFUND"
)

const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusProcessing = "PROCESSING"
	PaymentStatusConfirmed  = "CONFIRMED"
	PaymentStatusFailed     = "FAILED"
)

// LedgerEntry is an append-only payment record. Corrections are new
// entries (REFUND, ESCROW_RELEASE), never updates to amounts.
type LedgerEntry struct {
	ID                 int64      `json:"id" bson:"_id"`
	ReservationID      int64      `json:"reservation_id" bson:"reservation_id" validate:"required,gt=0"`
	PayerWalletAddress string     `json:"payer_wallet_address" bson:"payer_wallet_address" validate:"required"`
	PayeeWalletAddress string     `json:"payee_wallet_address" bson:"payee_wallet_address" validate:"required"`
	AmountEth          float64    `json:"amount_eth" bson:"amount_eth" validate:"gte=0"`
	GasFeeEth          *float64   `json:"gas_fee_eth,omitempty" bson:"gas_fee_eth,omitempty"`
	TransactionHash    string     `json:"transaction_hash,omitempty" bson:"transaction_hash,omitempty"`
	BlockNumber        *int64     `json:"block_number,omitempty" bson:"block_number,omitempty"`
	PaymentType        string     `json:"payment_type" bson:"payment_type" validate:"required,oneof=BOOKING_PAYMENT ESCROW_RELEASE PLATFORM_FEE REFUND"`
	PaymentStatus      string     `json:"payment_status" bson:"payment_status" validate:"required,oneof=PENDING PROCESSING CONFIRMED FAILED"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
}
