package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error": {...}}. Anything that is not an
// AppError becomes a 500 and is logged; callers never see the cause.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	appErr := apperr.AsAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", appErr.Code).Msg("request failed")
	}
	writeJSON(w, appErr.Status, ErrorBody{Error: appErr})
}

// decode reads a JSON body into dst and runs its validation.
func decode(w http.ResponseWriter, r *http.Request, dst interface{ Validate() error }) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is empty")
		default:
			return apperr.Validation("invalid JSON body")
		}
	}
	return dst.Validate()
}
