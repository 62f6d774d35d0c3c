package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/foors-plus/internal/sim/state"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// statusFor maps a ScenarioState sentinel error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, state.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrInvalidNodeType), errors.Is(err, state.ErrInvalidSeverity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
