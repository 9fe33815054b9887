package rule_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/store/memory"
)

func ctx() context.Context { return context.Background() }

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	svc := rule.NewService(memory.New(), nil)

	r, err := svc.Create(ctx(), rule.Input{Name: "  bank  ", Kind: rule.KindSender, Value: "BANK"})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID.Prefix() != id.PrefixRule {
		t.Fatalf("expected rule prefix, got %q", r.ID.Prefix())
	}
	if r.Name != "bank" {
		t.Fatalf("expected trimmed name, got %q", r.Name)
	}
	if !r.Enabled {
		t.Fatal("rules should be enabled by default")
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	off, err := svc.Create(ctx(), rule.Input{Name: "off", Kind: rule.KindAll, Enabled: ptr(false)})
	if err != nil {
		t.Fatal(err)
	}
	if off.Enabled {
		t.Fatal("expected explicit enabled=false to be kept")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := rule.NewService(memory.New(), nil)

	cases := []struct {
		name  string
		in    rule.Input
		field string
	}{
		{"missing name", rule.Input{Kind: rule.KindAll}, "name"},
		{"unknown kind", rule.Input{Name: "x", Kind: "regex", Value: "."}, "filter_type"},
		{"keyword without value", rule.Input{Name: "x", Kind: rule.KindKeyword}, "filter_value"},
		{"sender without value", rule.Input{Name: "x", Kind: rule.KindSender}, "filter_value"},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx(), tc.in)
		var ve *rule.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %q", tc.name, tc.field, ve.Field)
		}
	}
}

func TestUpdate(t *testing.T) {
	svc := rule.NewService(memory.New(), nil)
	r, err := svc.Create(ctx(), rule.Input{Name: "urgent", Kind: rule.KindKeyword, Value: "urgent"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx(), r.ID, rule.Patch{Enabled: ptr(false)})
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Fatal("expected update to report a change")
	}

	got, err := svc.Get(ctx(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Enabled || got.Value != "urgent" {
		t.Fatalf("unexpected rule after patch %+v", got)
	}
	if got.UpdatedAt.Before(r.UpdatedAt) {
		t.Fatal("updated_at should not move backwards")
	}

	// Same values again: nothing changes.
	updated, err = svc.Update(ctx(), r.ID, rule.Patch{Enabled: ptr(false), Value: ptr("urgent")})
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Fatal("expected no-op update to report false")
	}
}

func TestPatchNullValueClears(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{`{"enabled": false}`, nil},
		{`{"filter_value": null}`, ptr("")},
		{`{"filter_value": "urgent"}`, ptr("urgent")},
	}
	for _, tt := range tests {
		var p rule.Patch
		if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		switch {
		case tt.want == nil && p.Value != nil:
			t.Fatalf("%s: expected value untouched, got %q", tt.in, *p.Value)
		case tt.want != nil && (p.Value == nil || *p.Value != *tt.want):
			t.Fatalf("%s: expected %q, got %v", tt.in, *tt.want, p.Value)
		}
	}

	var p rule.Patch
	if err := json.Unmarshal([]byte(`{"name": "n", "enabled": true, "filter_value": null}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Name == nil || *p.Name != "n" || p.Enabled == nil || !*p.Enabled {
		t.Fatalf("other fields lost: %+v", p)
	}
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	svc := rule.NewService(memory.New(), nil)
	r, err := svc.Create(ctx(), rule.Input{Name: "all", Kind: rule.KindAll})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Update(ctx(), r.ID, rule.Patch{Kind: ptr(rule.KindKeyword)})
	var ve *rule.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, _ := svc.Get(ctx(), r.ID)
	if got.Kind != rule.KindAll {
		t.Fatal("rejected patch must not be stored")
	}
}

func TestUpdateAndDeleteUnknown(t *testing.T) {
	svc := rule.NewService(memory.New(), nil)

	if _, err := svc.Update(ctx(), id.NewRuleID(), rule.Patch{Name: ptr("x")}); !errors.Is(err, smsrelay.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
	if err := svc.Delete(ctx(), id.NewRuleID()); !errors.Is(err, smsrelay.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	svc := rule.NewService(memory.New(), nil)
	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.Create(ctx(), rule.Input{Name: name, Kind: rule.KindAll}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := svc.List(ctx(), rule.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(list))
	}
	if list[0].Name != "c" {
		t.Fatalf("expected newest first, got %q", list[0].Name)
	}
}
