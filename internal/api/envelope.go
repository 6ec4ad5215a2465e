package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is the "v" field of every response body.
const envelopeVersion = 1

// Envelope is the body shape of every API response.
type Envelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// EnvelopeTransformer wraps huma response bodies in an Envelope. Bodies of
// 4xx and 5xx responses go under "error", everything else under "data".
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if _, ok := v.(*Envelope); ok {
		return v, nil
	}

	code, err := strconv.Atoi(status)
	if err == nil && code >= http.StatusBadRequest {
		return &Envelope{Version: envelopeVersion, Success: false, Error: v}, nil
	}
	return &Envelope{Version: envelopeVersion, Success: true, Data: v}, nil
}

// writeError writes an error envelope from plain HTTP middleware, outside
// of huma.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Envelope{
		Version: envelopeVersion,
		Success: false,
		Error:   &APIError{status: status, Code: code, Message: message},
	})
}
