package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/studenttools/gateway/pkg/apierror"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a JSON request body into dst. Unknown fields are
// rejected so typos surface as errors instead of silently validating
// a zero value.
func decodeJSON(r *http.Request, dst any) *apierror.Error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apierror.New(http.StatusRequestEntityTooLarge,
				apierror.CodeBadRequest, "Request body too large")
		}
		return apierror.BadRequest("Invalid request body")
	}
	return nil
}
