package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/transport"
)

// Error messages returned for the well-known failure cases.
const (
	msgNoTransport  = "No email configuration found"
	msgRuleNotFound = "Filter not found"
)

// badRequest is returned by request decoding.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// writeFailure maps err onto an HTTP status and writes the error body.
// Unexpected errors are logged and reported as 500.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		badReq  *badRequest
		ruleErr *rule.ValidationError
		cfgErr  *transport.ValidationError
	)

	switch {
	case errors.As(err, &badReq):
		writeError(w, http.StatusBadRequest, badReq.msg)
	case errors.As(err, &ruleErr):
		writeError(w, http.StatusBadRequest, ruleErr.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusBadRequest, cfgErr.Error())
	case errors.Is(err, smsrelay.ErrNoTransportConfig):
		writeError(w, http.StatusBadRequest, msgNoTransport)
	case errors.Is(err, smsrelay.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, msgRuleNotFound)
	default:
		h.logger.ErrorContext(r.Context(), "api: "+op+" failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode validates and unmarshals the request body, wrapping failures as
// bad requests.
func (h *Handler) decode(r *http.Request, schema string, v any) error {
	if err := h.schemas.decode(r, schema, v); err != nil {
		return &badRequest{msg: err.Error()}
	}
	return nil
}
