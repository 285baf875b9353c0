package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/storefront-order-service/internal/api/httpx"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// maxBodyBytes bounds JSON request bodies. Uploads have their own limit.
const maxBodyBytes = 1 << 20

var (
	writeJSON  = httpx.WriteJSON
	writeError = httpx.WriteError
)

// writeErr maps a service error to its status. Errors outside the domain
// taxonomy are logged and reported as internal_error without detail.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(models.KindOf(err))
	switch status {
	case http.StatusInternalServerError:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal_error", "internal error")
		return
	case http.StatusServiceUnavailable:
		slog.WarnContext(r.Context(), "storage unavailable", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "1")
	}
	writeError(w, status, models.CodeOf(err), err.Error())
}

func statusFor(k models.Kind) int {
	switch k {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindBusinessRule:
		return http.StatusUnprocessableEntity
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	case models.KindStorage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a JSON body into v and writes the 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}

func orderIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.Invalid("order id must be a positive number")
	}
	return id, nil
}

func parseTimeOrEmpty(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, models.Invalid("%s must be a non-negative integer", name)
	}
	return n, nil
}
