package http

import (
	"encoding/json"
	"net/http"
	apperrors "reserva/pkg/errors"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) {
	var statusCode int
	var errResp ErrorResponse

	switch e := err.(type) {
	case *apperrors.AppError:
		switch e.Code {
		case apperrors.CodeInvalidInput:
			statusCode = http.StatusBadRequest
		case apperrors.CodeNotFound:
			statusCode = http.StatusNotFound
		case apperrors.CodeValidation:
			statusCode = http.StatusUnprocessableEntity
		case apperrors.CodeConflict, apperrors.CodeStateTransition:
			statusCode = http.StatusConflict
		case apperrors.CodeForbidden:
			statusCode = http.StatusForbidden
		case apperrors.CodeUnauthorized:
			statusCode = http.StatusUnauthorized
		case apperrors.CodeUpstream:
			statusCode = http.StatusBadGateway
		case apperrors.CodeTimeout:
			statusCode = http.StatusGatewayTimeout
		case apperrors.CodeUnavailable:
			statusCode = http.StatusServiceUnavailable
		default:
			statusCode = http.StatusInternalServerError
		}
		errResp = ErrorResponse{
			Error:   e.Message,
			Code:    e.Code,
			Details: e.Details,
		}
	default:
		statusCode = http.StatusInternalServerError
		errResp = ErrorResponse{
			Error: "Internal server error",
		}
	}

	WriteJSON(w, statusCode, errResp)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WritePaginated(w http.ResponseWriter, data any, totalCount int64, limit int, offset int64) {
	WriteJSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	})
}
