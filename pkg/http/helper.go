package http

import (
	"net/http"
	"reserva/pkg/config"
	apperrors "reserva/pkg/errors"
	"strconv"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ActorID reads the authenticated user from the X-User-ID header set by
// the gateway. Zero is reserved for the system actor and never accepted
// from the outside.
func ActorID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, apperrors.Unauthorized("missing X-User-ID header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Unauthorized("invalid X-User-ID header")
	}
	return id, nil
}
