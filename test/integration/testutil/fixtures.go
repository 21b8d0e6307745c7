package testutil

import (
	"time"

	"reserva/pkg/model"
)

const (
	TestGuestWallet = "0x71c7656ec7ab88b098defb751b7401b5f6d8976f"
	TestGuestID     = int64(7)
	TestOwnerID     = int64(21)
	TestPropertyID  = int64(1001)
)

type ReservationRequestBuilder struct {
	req model.ReservationRequest
}

func NewReservationRequestBuilder() *ReservationRequestBuilder {
	checkIn := model.ToUTCDate(time.Now().AddDate(0, 0, 14))

	return &ReservationRequestBuilder{
		req: model.ReservationRequest{
			PropertyID:         TestPropertyID,
			CheckInDate:        checkIn,
			CheckOutDate:       checkIn.AddDate(0, 0, 4),
			AmountEth:          1.5,
			GuestWalletAddress: TestGuestWallet,
		},
	}
}

func (b *ReservationRequestBuilder) WithProperty(propertyID int64) *ReservationRequestBuilder {
	b.req.PropertyID = propertyID
	return b
}

func (b *ReservationRequestBuilder) WithDates(checkIn, checkOut time.Time) *ReservationRequestBuilder {
	b.req.CheckInDate = checkIn
	b.req.CheckOutDate = checkOut
	return b
}

func (b *ReservationRequestBuilder) WithAmount(amountEth float64) *ReservationRequestBuilder {
	b.req.AmountEth = amountEth
	return b
}

func (b *ReservationRequestBuilder) WithWallet(wallet string) *ReservationRequestBuilder {
	b.req.GuestWalletAddress = wallet
	return b
}

func (b *ReservationRequestBuilder) Build() model.ReservationRequest {
	return b.req
}

func ValidReservationRequest() model.ReservationRequest {
	return NewReservationRequestBuilder().Build()
}

func PastCheckInRequest() model.ReservationRequest {
	checkIn := model.ToUTCDate(time.Now().AddDate(0, 0, -3))
	return NewReservationRequestBuilder().
		WithDates(checkIn, checkIn.AddDate(0, 0, 2)).
		Build()
}

func InvertedDatesRequest() model.ReservationRequest {
	checkIn := model.ToUTCDate(time.Now().AddDate(0, 0, 14))
	return NewReservationRequestBuilder().
		WithDates(checkIn, checkIn.AddDate(0, 0, -2)).
		Build()
}

func InvalidWalletRequest() model.ReservationRequest {
	return NewReservationRequestBuilder().
		WithWallet("not-a-wallet").
		Build()
}

func ZeroAmountRequest() model.ReservationRequest {
	return NewReservationRequestBuilder().
		WithAmount(0).
		Build()
}

type DateRangeRequest struct {
	DateStart time.Time `json:"date_start"`
	DateEnd   time.Time `json:"date_end"`
}

func OwnerBlockRequest(daysFromNow, nights int) DateRangeRequest {
	start := model.ToUTCDate(time.Now().AddDate(0, 0, daysFromNow))
	return DateRangeRequest{
		DateStart: start,
		DateEnd:   start.AddDate(0, 0, nights),
	}
}
