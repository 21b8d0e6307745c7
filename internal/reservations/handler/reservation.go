package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"reserva/internal/reservations/service"
	"reserva/internal/reservations/validator"
	apperrors "reserva/pkg/errors"
	httputil "reserva/pkg/http"
	"reserva/pkg/logger"
	"reserva/pkg/model"
	"reserva/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	orchestrator service.Orchestrator
	validator    *validator.ReservationValidator
	log          *logger.Logger
}

func NewReservationHandler(orchestrator service.Orchestrator, v *validator.ReservationValidator, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		orchestrator: orchestrator,
		validator:    v,
		log:          log,
	}
}

type confirmRequest struct {
	TransactionHash string   `json:"transaction_hash"`
	BlockNumber     *int64   `json:"block_number,omitempty"`
	GasFeeEth       *float64 `json:"gas_fee_eth,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func parseReservationID(ps httprouter.Params) (int64, error) {
	raw := ps.ByName("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("invalid reservation id: " + raw)
	}
	return id, nil
}

func validationDetails(errs validator.ValidationErrors) map[string]any {
	details := make(map[string]any, len(errs))
	for _, err := range errs {
		details[err.Field] = err.Message
	}
	return details
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actorID, err := httputil.ActorID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	req.GuestWalletAddress = sanitizer.NormalizeWalletAddress(req.GuestWalletAddress)
	if err := h.validator.Validate(&req); err != nil {
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			httputil.WriteError(w, apperrors.Validation("reservation request is invalid", validationDetails(validationErrs)))
			return
		}
		httputil.WriteError(w, err)
		return
	}

	reservation, err := h.orchestrator.CreateBooking(r.Context(), actorID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, reservation)
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if rawUserID := r.URL.Query().Get("user_id"); rawUserID != "" {
		userID, err := strconv.ParseInt(rawUserID, 10, 64)
		if err != nil || userID <= 0 {
			httputil.WriteError(w, apperrors.InvalidInput("invalid user_id parameter: "+rawUserID))
			return
		}

		reservations, err := h.orchestrator.ListUserReservations(r.Context(), userID, limit, offset)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteSuccess(w, reservations)
		return
	}

	reservations, total, err := h.orchestrator.ListReservations(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, reservations, total, limit, offset)
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseReservationID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservation, err := h.orchestrator.GetReservation(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseReservationID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.orchestrator.History(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, rows)
}

func (h *ReservationHandler) Ledger(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseReservationID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.orchestrator.LedgerEntries(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, entries)
}

// Confirm is the settlement callback stamping the on-chain result onto
// the reservation.
func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseReservationID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	reservation, err := h.orchestrator.ConfirmReservation(r.Context(), id, req.TransactionHash, req.BlockNumber, req.GasFeeEth)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseReservationID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID, err := httputil.ActorID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservation, err := h.orchestrator.CheckIn(r.Context(), id, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) CheckOut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseReservationID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID, err := httputil.ActorID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservation, err := h.orchestrator.CheckOut(r.Context(), id, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseReservationID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID, err := httputil.ActorID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}
	req.Reason = sanitizer.NormalizeReason(req.Reason)
	if req.Reason == "" {
		req.Reason = "cancelled by guest"
	}

	reservation, err := h.orchestrator.Cancel(r.Context(), id, actorID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, reservation)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.GetAll)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.GET("/api/v1/reservations/id/:id/history", h.History)
	router.GET("/api/v1/reservations/id/:id/ledger", h.Ledger)
	router.POST("/api/v1/reservations/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/reservations/id/:id/checkin", h.CheckIn)
	router.POST("/api/v1/reservations/id/:id/checkout", h.CheckOut)
	router.POST("/api/v1/reservations/id/:id/cancel", h.Cancel)
}
