package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"intellisearch/internal/relay"
	"intellisearch/pkg/types"
)

// Kinds produced by the HTTP layer itself, outside the relay taxonomy.
const (
	kindNotFound         = "NotFound"
	kindMethodNotAllowed = "MethodNotAllowed"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: kind, Message: msg})
}

// errorPayload maps any error returned by the relay to its HTTP status and
// the public kind and message. Internal causes never reach the client.
func errorPayload(err error) (int, relay.Kind, string) {
	var re *relay.Error
	if errors.As(err, &re) {
		return re.StatusCode(), re.Kind, re.Message
	}
	return http.StatusInternalServerError, relay.KindUnknown, "an unexpected error occurred"
}

func writeRelayError(w http.ResponseWriter, err error) (int, relay.Kind) {
	status, kind, msg := errorPayload(err)
	relayErrorsTotal.WithLabelValues(string(kind)).Inc()
	writeJSONError(w, status, string(kind), msg)
	return status, kind
}
