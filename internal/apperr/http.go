package apperr

import (
	"encoding/json"
	"net/http"
)

// Status maps a kind to its HTTP status.
func Status(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindAlreadyAttempted:
		return http.StatusConflict
	case KindEmptyGroup, KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidSchedule, KindFutureAttempt:
		return http.StatusBadRequest
	case KindInvalidRequest:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type body struct {
	Error struct {
		Kind    Kind   `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// Write renders err as {"error":{"kind","message"}} with the status of its
// kind. Internal errors are not echoed to the client.
func Write(w http.ResponseWriter, err error) {
	WriteStatus(w, Status(KindOf(err)), err)
}

// WriteStatus is Write with an explicit status.
func WriteStatus(w http.ResponseWriter, status int, err error) {
	var b body
	b.Error.Kind = KindOf(err)
	b.Error.Message = err.Error()
	if b.Error.Kind == KindInternal {
		b.Error.Message = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(b)
}
