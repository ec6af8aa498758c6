package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-catalog/internal/errs"
	"media-catalog/internal/logging"
	"media-catalog/internal/middleware"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatusCode writes v as JSON with the given status code.
func writeJSONStatusCode(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error        string `json:"error"`
	Kind         string `json:"kind"`
	ExistingPath string `json:"existingPath,omitempty"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.BadInput:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.AlreadyExists, errs.DuplicateContent:
		return http.StatusConflict
	case errs.InvalidFile:
		return http.StatusUnprocessableEntity
	case errs.Subprocess:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status of its kind. Internal failures are
// logged and their detail withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	resp := ErrorResponse{Error: err.Error(), Kind: kind.String()}

	var e *errs.Error
	if errors.As(err, &e) {
		resp.ExistingPath = e.ExistingPath
	}
	middleware.SetErrorKind(r, resp.Kind)
	if status == http.StatusInternalServerError {
		logging.Error("%s %s failed [%s]: %v", r.Method, r.URL.Path, middleware.RequestID(r.Context()), err)
		resp.Error = "internal error"
	} else {
		logging.Debug("%s %s rejected (%s): %v", r.Method, r.URL.Path, kind, err)
	}
	writeJSONStatusCode(w, resp, status)
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.BadInput, err, "invalid request body")
	}
	return nil
}

// pathID parses the named route variable as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.BadInputf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.BadInputf("invalid %s %q", name, raw)
	}
	return n, nil
}
