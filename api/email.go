package api

import (
	"errors"
	"net/http"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/transport"
)

type testEmailRequest struct {
	Recipient string `json:"recipient_email"`
	Message   string `json:"test_message"`
}

func (h *Handler) saveTransport(w http.ResponseWriter, r *http.Request) {
	var in transport.Input
	if err := h.decode(r, "transport.json", &in); err != nil {
		h.writeFailure(w, r, "save transport", err)
		return
	}

	cfg, err := h.relay.Transport().Save(r.Context(), in)
	if err != nil {
		h.writeFailure(w, r, "save transport", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"config_id": cfg.ID.String(),
	})
}

func (h *Handler) getTransport(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.relay.Transport().Current(r.Context())
	if errors.Is(err, smsrelay.ErrNoTransportConfig) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "not_configured"})
		return
	}
	if err != nil {
		h.writeFailure(w, r, "get transport", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "configured",
		"config": cfg.Masked(),
	})
}

func (h *Handler) testTransport(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := h.decode(r, "test-email.json", &req); err != nil {
		h.writeFailure(w, r, "test email", err)
		return
	}

	out, err := h.relay.TestTransport(r.Context(), req.Recipient, req.Message)
	if err != nil {
		h.writeFailure(w, r, "test email", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
