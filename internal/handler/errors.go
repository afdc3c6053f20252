package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/middleware"
	"github.com/dukerupert/dokan/internal/telemetry"
)

// ErrorCodeToHTTPStatus maps a domain error code to an HTTP status.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	return ErrorCodeToHTTPStatus(domain.ErrorCode(err))
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes it as JSON or plain text depending on
// what the client accepts. Internal errors never leak their details.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := LogError(r, err)

	if acceptsJSON(r) {
		writeJSONError(w, status, errorBody{Code: code, Message: domain.ErrorMessage(err)})
		return
	}
	http.Error(w, domain.ErrorMessage(err), status)
}

// ValidationErrorResponse writes field-level messages. Errors that are not
// validation errors fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("validation failed",
		"op", ve.Op,
		"fields", len(ve.Fields),
	)

	body := errorBody{
		Code:    domain.EINVALID,
		Message: domain.ErrorMessage(err),
		Fields:  ve.Fields,
	}
	if acceptsJSON(r) {
		writeJSONError(w, http.StatusBadRequest, body)
		return
	}

	var sb strings.Builder
	sb.WriteString(body.Message)
	for _, field := range domain.CheckoutFields {
		if msg, ok := ve.Fields[field]; ok {
			sb.WriteString("\n")
			sb.WriteString(msg)
		}
	}
	http.Error(w, sb.String(), http.StatusBadRequest)
}

// NotFoundResponse writes a 404.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, &domain.Error{Code: domain.ENOTFOUND, Message: "Page not found"})
}

// ForbiddenResponse writes a 403.
func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, &domain.Error{Code: domain.EFORBIDDEN, Message: "Forbidden"})
}

// InternalErrorResponse writes a 500 with a generic message.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "internal error"))
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, body errorBody) {
	WriteJSON(w, status, map[string]errorBody{"error": body})
}

// LogError logs err with the request-scoped logger, reports internal errors
// to Sentry and returns the HTTP status for err.
func LogError(r *http.Request, err error) int {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", errString(err),
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		if code == domain.EINTERNAL {
			telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
				"path": r.URL.Path,
			})
		}
		return status
	}
	logger.Info("request failed", attrs...)
	return status
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AcceptsJSON reports whether the client asked for a JSON response.
func AcceptsJSON(r *http.Request) bool {
	return acceptsJSON(r)
}

func acceptsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json")
}
