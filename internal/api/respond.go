package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"shuttle/internal/errs"

	"go.uber.org/zap"
)

type errorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindTransferFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (api *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	msg := errs.Message(err)
	if status == http.StatusInternalServerError {
		api.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Message: msg, Kind: string(kind)})
}

// decode reads a JSON body into dst and validates it. Unknown fields are
// rejected so read-only columns cannot be smuggled in.
func (api *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validation("request body is empty")
		}
		return errs.Validation("invalid JSON: %v", err)
	}
	if msg := api.validator.check(dst); msg != "" {
		return errs.Validation("%s", msg)
	}
	return nil
}

func requirePath(r *http.Request, name string) (string, error) {
	v := r.PathValue(name)
	if v == "" {
		return "", errs.Validation("missing %s", name)
	}
	return v, nil
}

func notFoundRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Message: fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
		Kind:    string(errs.KindNotFound),
	})
}
