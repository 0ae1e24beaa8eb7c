package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

func parseIntPathValue(r *http.Request, key string) (int, bool) {
	value, err := strconv.Atoi(r.PathValue(key))
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Precondition violations are client errors; invariant breaks are 500s.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errRoomNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidCard):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrCardNotFlippable),
		errors.Is(err, ErrTurnViolation),
		errors.Is(err, ErrGameNotActive),
		errors.Is(err, ErrInsufficientContent),
		errors.Is(err, ErrNoGuessPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errNotHost):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNoPlayers), errors.Is(err, ErrCurrentPlayerNotFound):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
