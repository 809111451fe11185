package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const msgServerError = "Server error"

var validate = validator.New(validator.WithRequiredStructEnabled())

// errMalformedBody is returned by decode for unreadable JSON.
var errMalformedBody = errors.New("malformed request body")

type msgResponse struct {
	Msg string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, msgResponse{Msg: msg})
}

// decode reads a JSON body into dst and runs its validate tags.
// Validation failures are returned as validator.ValidationErrors.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		return errMalformedBody
	}

	return validate.Struct(dst)
}
