package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// decodeJSON decodes the request body into dst. On failure it writes the
// response itself and returns false:
//   - oversized body: 400 "Request body too large"
//   - field of the wrong JSON type: 400 "Validation failed" with details
//   - anything else malformed or empty: 400 "Invalid or missing JSON"
//
// Unknown fields are ignored; request structs only carry the fields a
// handler is allowed to act on.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxErr):
		writeBadRequest(w, msgBodyTooLarge)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		writeValidationError(w, map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()})
	default:
		writeBadRequest(w, msgInvalidJSON)
	}
	return false
}

// parsePositiveID parses a path or body id. It accepts only base-10
// integers greater than zero.
func parsePositiveID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fieldErrors accumulates per-field validation messages.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

// validationMessage strips the sentinel prefix from a wrapped validation
// error, leaving the human-readable reason.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
