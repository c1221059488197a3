package server

import (
	"net/http"
)

// ValidationDetail describes one reason a request body was rejected.
type ValidationDetail struct {
	Type  string         `json:"type"`
	Loc   []any          `json:"loc"`
	Msg   string         `json:"msg"`
	Input any            `json:"input,omitempty"`
	Ctx   map[string]any `json:"ctx,omitempty"`
}

// ValidationErrorResponse is the 422 body.
type ValidationErrorResponse struct {
	Detail []ValidationDetail `json:"detail"`
}

func writeValidationError(w http.ResponseWriter, details ...ValidationDetail) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Detail: details})
}
