// Package http exposes the dashboard API over JSON. Handlers decode and
// validate requests, call the domain services, and map every error through
// writeError.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/shared/errs"
	"finboard/internal/shared/middleware"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError is the single error boundary of the API. Unclassified errors are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg, ok := errs.Message(err)

	switch {
	case status == http.StatusInternalServerError || !ok:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		status = http.StatusInternalServerError
		msg = "internal server error"
	case status == http.StatusBadGateway:
		slog.WarnContext(r.Context(), "provider call failed", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeRequest reads a JSON body into dst and runs its validate tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errs.Validation("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.Validation("invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errs.Validation("%s is required", fe.Field())
	case "email":
		return errs.Validation("%s must be a valid email address", fe.Field())
	case "min":
		return errs.Validation("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return errs.Validation("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return errs.Validation("%s is invalid", fe.Field())
	}
}

// requireUser returns the authenticated user id, answering 401 when the
// request did not pass through the auth middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return 0, false
	}
	return userID, true
}

// pathID returns the {id} path value. Ids are UUIDs, so anything else cannot
// name a row and is reported as not found.
func pathID(r *http.Request, what string) (string, error) {
	id := r.PathValue("id")
	if err := uuid.Validate(id); err != nil {
		return "", errs.NotFound(what)
	}
	return id, nil
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toFloatPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Validation("%s must be an integer", key)
	}
	return n, nil
}
