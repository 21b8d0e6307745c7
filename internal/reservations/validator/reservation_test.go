package validator

import (
	"testing"
	"time"

	"reserva/pkg/logger"
	"reserva/pkg/model"
)

func testValidator() *ReservationValidator {
	return NewReservationValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	}))
}

func validRequest() *model.ReservationRequest {
	checkIn := model.ToUTCDate(time.Now()).AddDate(0, 0, 7)
	return &model.ReservationRequest{
		PropertyID:         3,
		CheckInDate:        checkIn,
		CheckOutDate:       checkIn.AddDate(0, 0, 4),
		AmountEth:          1.5,
		GuestWalletAddress: "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
	}
}

func TestValidate_ValidRequest(t *testing.T) {
	if err := testValidator().Validate(validRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.ReservationRequest)
		field  string
	}{
		{
			name:   "missing property",
			mutate: func(r *model.ReservationRequest) { r.PropertyID = 0 },
			field:  "PropertyID",
		},
		{
			name:   "zero amount",
			mutate: func(r *model.ReservationRequest) { r.AmountEth = 0 },
			field:  "AmountEth",
		},
		{
			name:   "negative amount",
			mutate: func(r *model.ReservationRequest) { r.AmountEth = -1 },
			field:  "AmountEth",
		},
		{
			name:   "checkout before checkin",
			mutate: func(r *model.ReservationRequest) { r.CheckOutDate = r.CheckInDate.AddDate(0, 0, -1) },
			field:  "CheckOutDate",
		},
		{
			name:   "missing wallet",
			mutate: func(r *model.ReservationRequest) { r.GuestWalletAddress = "" },
			field:  "GuestWalletAddress",
		},
		{
			name:   "malformed wallet",
			mutate: func(r *model.ReservationRequest) { r.GuestWalletAddress = "not-an-address" },
			field:  "GuestWalletAddress",
		},
	}

	v := testValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)

			err := v.Validate(req)
			if err == nil {
				t.Fatal("expected validation error")
			}

			validationErrs, ok := err.(ValidationErrors)
			if !ok {
				t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
			}

			found := false
			for _, ve := range validationErrs {
				if ve.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tc.field, validationErrs)
			}
		})
	}
}

func TestValidate_CheckInInThePast(t *testing.T) {
	req := validRequest()
	req.CheckInDate = model.ToUTCDate(time.Now()).AddDate(0, 0, -2)
	req.CheckOutDate = req.CheckInDate.AddDate(0, 0, 4)

	err := testValidator().Validate(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if validationErrs, ok := err.(ValidationErrors); !ok || validationErrs[0].Field != "CheckInDate" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_StayTooLong(t *testing.T) {
	req := validRequest()
	req.CheckOutDate = req.CheckInDate.AddDate(0, 0, 120)

	err := testValidator().Validate(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if validationErrs, ok := err.(ValidationErrors); !ok || validationErrs[0].Field != "CheckOutDate" {
		t.Errorf("unexpected error: %v", err)
	}
}
