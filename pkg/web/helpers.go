package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes caps the size of decoded request bodies.
const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned by DecodeJSONObject when the body is not a single JSON object.
var ErrInvalidBody = errors.New("invalid request body")

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// QueryParam returns the first value of the query parameter key, or nil when the key is absent.
// A present but empty parameter (?id=) yields a pointer to "".
func QueryParam(r *http.Request, key string) *string {
	values, ok := r.URL.Query()[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// DecodeJSONObject decodes the request body as a JSON object. Numbers are kept as json.Number
// so that decimal values reach the caller without float rounding.
func DecodeJSONObject(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrInvalidBody)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidBody)
	}
	return obj, nil
}
