package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errs "github.com/matzehuels/tessellate/pkg/errors"
	"github.com/matzehuels/tessellate/pkg/store"
)

type errorBody struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidGrid, errs.ErrCodeInvalidSolver,
		errs.ErrCodeInvalidMetric, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidPlan,
		errs.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errs.ErrCodeTileSizeMismatch, errs.ErrCodeInsufficientTiles,
		errs.ErrCodeMatrixSizeMismatch, errs.ErrCodeInfeasible:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeNotFound, errs.ErrCodePlanNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeCanceled, errs.ErrCodeTimeout:
		return http.StatusRequestTimeout
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeError classifies err and writes it as JSON. Internal errors are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		err = errs.Wrap(errs.ErrCodePlanNotFound, err, "plan not found")
	}
	err = errs.Classify(err)
	code := errs.GetCode(err)
	status := statusFor(code)

	msg := errs.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
