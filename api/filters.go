package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/rule"
)

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var in rule.Input
	if err := h.decode(r, "rule-create.json", &in); err != nil {
		h.writeFailure(w, r, "create rule", err)
		return
	}

	created, err := h.relay.Rules().Create(r.Context(), in)
	if err != nil {
		h.writeFailure(w, r, "create rule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"filter_id": created.ID.String(),
	})
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.relay.Rules().List(r.Context(), rule.ListOpts{})
	if err != nil {
		h.writeFailure(w, r, "list rules", err)
		return
	}
	if rules == nil {
		rules = []*rule.Rule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := ruleIDParam(w, r)
	if !ok {
		return
	}

	var p rule.Patch
	if err := h.decode(r, "rule-patch.json", &p); err != nil {
		h.writeFailure(w, r, "update rule", err)
		return
	}

	updated, err := h.relay.Rules().Update(r.Context(), ruleID, p)
	if err != nil {
		h.writeFailure(w, r, "update rule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"updated": updated,
	})
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := ruleIDParam(w, r)
	if !ok {
		return
	}

	if err := h.relay.Rules().Delete(r.Context(), ruleID); err != nil {
		h.writeFailure(w, r, "delete rule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"deleted": true,
	})
}

// ruleIDParam parses the {id} path parameter. An ID that cannot name a rule
// is reported as not found.
func ruleIDParam(w http.ResponseWriter, r *http.Request) (id.ID, bool) {
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, msgRuleNotFound)
		return id.Nil, false
	}
	return ruleID, true
}
