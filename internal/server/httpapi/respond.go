package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

const internalErrorMessage = "internal error"

// statusForError maps a service error to an HTTP status and a client-safe
// message. Anything unrecognised is an internal error.
func statusForError(err error, credentialStatus int) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrDuplicateAccount):
		return http.StatusBadRequest, common.ErrDuplicateAccount.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return credentialStatus, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrAccountDeactivated):
		return credentialStatus, common.ErrAccountDeactivated.Error()
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, common.ErrInvalidToken.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}
