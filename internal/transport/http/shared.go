// Package httptransport is the thin HTTP layer over the engine services.
// Handlers only decode, delegate and map error kinds to status codes;
// business rules stay in the services.
package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "schoolbus/pkg/domain-errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func statusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a domain error to its HTTP shape. Unknown errors become an
// opaque 500 so internals never leak to callers.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusForCode(code)
	message := dErrors.Reason(err)
	if status == http.StatusInternalServerError {
		code = dErrors.CodeInternal
		message = ""
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: string(code), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}
