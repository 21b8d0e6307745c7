package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	availabilityerrors "reserva/internal/availability/errors"
	"reserva/internal/availability/service"
	"reserva/pkg/client"
	apperrors "reserva/pkg/errors"
	httputil "reserva/pkg/http"
	"reserva/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	guard      service.Guard
	properties client.PropertyClient
	log        *logger.Logger
}

func NewAvailabilityHandler(guard service.Guard, properties client.PropertyClient, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		guard:      guard,
		properties: properties,
		log:        log,
	}
}

type dateRangeRequest struct {
	DateStart time.Time `json:"date_start"`
	DateEnd   time.Time `json:"date_end"`
}

func parsePropertyID(ps httprouter.Params) (int64, error) {
	raw := ps.ByName("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("invalid property id: " + raw)
	}
	return id, nil
}

func (h *AvailabilityHandler) requireOwner(r *http.Request, propertyID int64) (int64, error) {
	actorID, err := httputil.ActorID(r)
	if err != nil {
		return 0, err
	}

	owner, err := h.properties.IsOwner(r.Context(), propertyID, actorID)
	if err != nil {
		return 0, apperrors.Upstream("property service", err)
	}
	if !owner {
		return 0, apperrors.Forbidden("only the property owner may manage availability")
	}
	return actorID, nil
}

func (h *AvailabilityHandler) ListBlocks(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	propertyID, err := parsePropertyID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	blocks, err := h.guard.ListBlocks(r.Context(), propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, blocks)
}

func (h *AvailabilityHandler) Block(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	propertyID, err := parsePropertyID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID, err := h.requireOwner(r, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req dateRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}
	if req.DateStart.IsZero() || req.DateEnd.IsZero() {
		httputil.WriteError(w, apperrors.InvalidInput(availabilityerrors.ErrInvalidDateRange.Error()))
		return
	}

	block, err := h.guard.BlockDates(r.Context(), propertyID, req.DateStart, req.DateEnd)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.log.Info("Owner blocked dates",
		"property_id", propertyID,
		"owner_id", actorID,
		"date_start", req.DateStart.Format(time.DateOnly),
		"date_end", req.DateEnd.Format(time.DateOnly),
	)

	httputil.WriteCreated(w, block)
}

func (h *AvailabilityHandler) Unblock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	propertyID, err := parsePropertyID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID, err := h.requireOwner(r, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req dateRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}
	if req.DateStart.IsZero() || req.DateEnd.IsZero() {
		httputil.WriteError(w, apperrors.InvalidInput(availabilityerrors.ErrInvalidDateRange.Error()))
		return
	}

	if err := h.guard.UnblockDates(r.Context(), propertyID, req.DateStart, req.DateEnd); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.log.Info("Owner unblocked dates",
		"property_id", propertyID,
		"owner_id", actorID,
		"date_start", req.DateStart.Format(time.DateOnly),
		"date_end", req.DateEnd.Format(time.DateOnly),
	)

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/properties/:id/availability", h.ListBlocks)
	router.POST("/api/v1/properties/:id/availability/block", h.Block)
	router.POST("/api/v1/properties/:id/availability/unblock", h.Unblock)
}
