package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/transport"
)

func ctx() context.Context { return context.Background() }

func newRule(name string, kind rule.Kind, value string, enabled bool, created time.Time) *rule.Rule {
	return &rule.Rule{
		Entity:  entity.Entity{CreatedAt: created, UpdatedAt: created},
		ID:      id.NewRuleID(),
		Name:    name,
		Kind:    kind,
		Value:   value,
		Enabled: enabled,
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	s := New()

	if err := s.Migrate(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, smsrelay.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if err := s.CreateMessage(ctx(), message.New("a", "b", time.Time{})); !errors.Is(err, smsrelay.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed on write, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// message.Store
// ──────────────────────────────────────────────────

func TestMessages(t *testing.T) {
	s := New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []id.ID
	for i, status := range []message.Status{message.StatusSent, message.StatusFailed, message.StatusFiltered, message.StatusSent} {
		r := message.New("+1555", "hi", base.Add(time.Duration(i)*time.Hour))
		switch status {
		case message.StatusSent:
			r.MarkSent(r.Timestamp)
		case message.StatusFailed:
			r.MarkFailed("refused")
		case message.StatusFiltered:
			r.MarkFiltered()
		}
		if err := s.CreateMessage(ctx(), r); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, r.ID)
	}

	// Get
	got, err := s.GetMessage(ctx(), ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != message.StatusFailed || got.Error != "refused" {
		t.Fatalf("unexpected record %+v", got)
	}
	if _, err := s.GetMessage(ctx(), id.NewMessageID()); !errors.Is(err, smsrelay.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}

	// List newest first
	list, err := s.ListMessages(ctx(), message.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 4 || list[0].ID != ids[3] || list[3].ID != ids[0] {
		t.Fatal("expected records newest first")
	}

	// Pagination
	page, err := s.ListMessages(ctx(), message.ListOpts{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != ids[2] || page[1].ID != ids[1] {
		t.Fatal("unexpected page")
	}
	empty, err := s.ListMessages(ctx(), message.ListOpts{Offset: 10})
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil page, got %v", empty)
	}

	// Status filter
	sent, err := s.ListMessages(ctx(), message.ListOpts{Status: message.StatusSent})
	if err != nil {
		t.Fatal(err)
	}
	if len(sent) != 2 {
		t.Fatalf("expected 2 sent, got %d", len(sent))
	}

	// Counts
	forwarded := true
	cases := []struct {
		name   string
		filter message.CountFilter
		want   int64
	}{
		{"all", message.CountFilter{}, 4},
		{"forwarded", message.CountFilter{Forwarded: &forwarded}, 2},
		{"failed", message.CountFilter{Status: message.StatusFailed}, 1},
		{"since", message.CountFilter{Since: base.Add(2 * time.Hour)}, 2},
		{"since forwarded", message.CountFilter{Since: base.Add(2 * time.Hour), Forwarded: &forwarded}, 1},
	}
	for _, tc := range cases {
		n, err := s.CountMessages(ctx(), tc.filter)
		if err != nil {
			t.Fatal(err)
		}
		if n != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, n)
		}
	}
}

func TestMessagesAreCopied(t *testing.T) {
	s := New()
	r := message.New("+1555", "hi", time.Time{})
	r.MarkFiltered()
	if err := s.CreateMessage(ctx(), r); err != nil {
		t.Fatal(err)
	}

	r.Content = "changed"
	got, err := s.GetMessage(ctx(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "hi" {
		t.Fatal("store should not alias caller records")
	}
}

// ──────────────────────────────────────────────────
// rule.Store
// ──────────────────────────────────────────────────

func TestRuleCRUD(t *testing.T) {
	s := New()
	r := newRule("bank", rule.KindSender, "BANK", true, time.Now().UTC())

	if err := s.CreateRule(ctx(), r); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRule(ctx(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "bank" {
		t.Fatalf("expected bank, got %q", got.Name)
	}

	got.Enabled = false
	if err := s.UpdateRule(ctx(), got); err != nil {
		t.Fatal(err)
	}
	again, _ := s.GetRule(ctx(), r.ID)
	if again.Enabled {
		t.Fatal("expected rule to be disabled")
	}

	if err := s.DeleteRule(ctx(), r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRule(ctx(), r.ID); !errors.Is(err, smsrelay.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
	if err := s.DeleteRule(ctx(), r.ID); !errors.Is(err, smsrelay.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound on second delete, got %v", err)
	}
	if err := s.UpdateRule(ctx(), r); !errors.Is(err, smsrelay.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound on update, got %v", err)
	}
}

func TestRuleOrdering(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := newRule("first", rule.KindAll, "", true, base)
	second := newRule("second", rule.KindKeyword, "x", false, base.Add(time.Minute))
	third := newRule("third", rule.KindKeyword, "y", true, base.Add(2*time.Minute))
	for _, r := range []*rule.Rule{third, first, second} {
		if err := s.CreateRule(ctx(), r); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListRules(ctx(), rule.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Name != "third" || list[2].Name != "first" {
		t.Fatalf("expected newest first, got %v", names(list))
	}

	enabled, err := s.EnabledRules(ctx(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(enabled) != 2 || enabled[0].Name != "first" || enabled[1].Name != "third" {
		t.Fatalf("expected enabled oldest first, got %v", names(enabled))
	}

	limited, err := s.EnabledRules(ctx(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Name != "first" {
		t.Fatalf("expected limit to keep the oldest rule, got %v", names(limited))
	}

	off := false
	disabled, err := s.ListRules(ctx(), rule.ListOpts{Enabled: &off})
	if err != nil {
		t.Fatal(err)
	}
	if len(disabled) != 1 || disabled[0].Name != "second" {
		t.Fatalf("expected only the disabled rule, got %v", names(disabled))
	}
}

func names(rules []*rule.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Name
	}
	return out
}

// ──────────────────────────────────────────────────
// transport.Store
// ──────────────────────────────────────────────────

func TestTransportSingleton(t *testing.T) {
	s := New()

	if _, err := s.CurrentTransport(ctx()); !errors.Is(err, smsrelay.ErrNoTransportConfig) {
		t.Fatalf("expected ErrNoTransportConfig, got %v", err)
	}

	for _, host := range []string{"a.example.com", "b.example.com"} {
		cfg := &transport.Config{
			Entity:    entity.New(),
			ID:        id.NewTransportID(),
			Kind:      transport.KindSMTP,
			Host:      host,
			Port:      587,
			Recipient: "ops@example.com",
		}
		if err := s.ReplaceTransport(ctx(), cfg); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.CurrentTransport(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if got.Host != "b.example.com" {
		t.Fatalf("expected the latest configuration, got %q", got.Host)
	}

	got.Host = "mutated"
	again, _ := s.CurrentTransport(ctx())
	if again.Host != "b.example.com" {
		t.Fatal("store should not alias returned configurations")
	}
}
