// Package httputil translates domain errors into HTTP responses so handlers
// never hand-roll status codes or error envelopes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "foundry/pkg/domain-errors"
)

// Validatable is implemented by request payloads that normalize and parse
// themselves after JSON decoding. Validate runs exactly once per request,
// so it may populate parsed fields for the handler to read back.
type Validatable interface {
	Validate() error
}

// preparable constrains DecodeAndPrepare to pointer types so Validate can
// mutate the decoded payload in place.
type preparable[T any] interface {
	*T
	Validatable
}

// DecodeAndPrepare decodes the request body into a fresh T and runs its
// Validate. On any failure it writes the error envelope and returns
// ok=false; the handler just returns. Decode failures are logged at debug
// since malformed bodies are a caller problem, not an operational one.
func DecodeAndPrepare[T any, PT preparable[T]](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if logger != nil {
			logger.DebugContext(ctx, "request body rejected",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be valid JSON"))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return req, true
}

// errorResponse is the wire envelope for every failed request.
// error_description is omitted for internal failures so infrastructure
// details never leak to callers.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// statusFor maps domain error codes onto HTTP status codes.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as a JSON error envelope. Errors without a domain
// code, and errors coded internal or invariant_violation, render as a bare
// internal_error with no description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)

	resp := errorResponse{Error: string(code)}
	if status == http.StatusInternalServerError {
		resp.Error = "internal_error"
	} else {
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			resp.ErrorDescription = coded.Message
		}
	}

	WriteJSON(w, status, resp)
}

// WriteJSON renders v with the given status. Encoding failures are swallowed;
// by the time encoding runs the status line is already committed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
