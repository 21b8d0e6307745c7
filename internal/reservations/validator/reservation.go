package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"reserva/pkg/logger"
	"reserva/pkg/model"

	"github.com/go-playground/validator/v10"
)

// maxStayNights caps a single reservation's length.
const maxStayNights = 90

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ReservationValidator) Validate(req *model.ReservationRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	checkIn := model.ToUTCDate(req.CheckInDate)
	checkOut := model.ToUTCDate(req.CheckOutDate)
	today := model.ToUTCDate(time.Now())

	if checkIn.Before(today) {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckInDate",
				Message: "check_in_date cannot be in the past",
			},
		}
	}

	if nights := int(checkOut.Sub(checkIn).Hours() / 24); nights > maxStayNights {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckOutDate",
				Message: fmt.Sprintf("stay length (%d nights) exceeds the maximum of %d", nights, maxStayNights),
			},
		}
	}

	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "eth_addr":
			message = fmt.Sprintf("%s must be a valid Ethereum address", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
