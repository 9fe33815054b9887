package api

import (
	"net/http"
	"time"

	"github.com/xraph/smsrelay/message"
)

type forwardRequest struct {
	Sender    string  `json:"sender"`
	Content   string  `json:"content"`
	Timestamp *string `json:"timestamp"`
}

// Layouts accepted for the optional received timestamp. Values without a
// zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (h *Handler) forwardSMS(w http.ResponseWriter, r *http.Request) {
	var req forwardRequest
	if err := h.decode(r, "forward.json", &req); err != nil {
		h.writeFailure(w, r, "forward sms", err)
		return
	}

	var received time.Time
	if req.Timestamp != nil && *req.Timestamp != "" {
		t, ok := parseTimestamp(*req.Timestamp)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid timestamp: "+*req.Timestamp)
			return
		}
		received = t
	}

	res, err := h.relay.Forward(r.Context(), req.Sender, req.Content, received)
	if err != nil {
		h.writeFailure(w, r, "forward sms", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	status := message.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status: "+string(status))
		return
	}

	records, err := h.relay.History(r.Context(), message.ListOpts{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "skip", 0),
		Status: status,
	})
	if err != nil {
		h.writeFailure(w, r, "list messages", err)
		return
	}
	if records == nil {
		records = []*message.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.relay.Stats(r.Context())
	if err != nil {
		h.writeFailure(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
