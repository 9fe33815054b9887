package message

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestNewDefaultsTimestamp(t *testing.T) {
	before := time.Now().UTC()
	r := New("+1555", "hi", time.Time{})

	if r.Status != StatusPending {
		t.Fatalf("expected pending, got %q", r.Status)
	}
	if r.Timestamp.Before(before.Add(-time.Second)) {
		t.Fatalf("expected timestamp near now, got %v", r.Timestamp)
	}
	if r.ID.IsNil() {
		t.Fatal("expected ID to be assigned")
	}

	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := New("a", "b", fixed).Timestamp; !got.Equal(fixed) {
		t.Fatalf("expected %v, got %v", fixed, got)
	}
}

func TestRecordTransitions(t *testing.T) {
	r := New("+1555", "hi", time.Time{})

	r.MarkFailed("dial tcp: refused")
	if r.Status != StatusFailed || r.Error == "" || r.Forwarded || r.ForwardedAt != nil {
		t.Fatalf("unexpected failed record: %+v", r)
	}

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r.MarkSent(at)
	if r.Status != StatusSent || !r.Forwarded || r.ForwardedAt == nil || !r.ForwardedAt.Equal(at) {
		t.Fatalf("unexpected sent record: %+v", r)
	}
	if r.Error != "" {
		t.Fatalf("expected error cleared, got %q", r.Error)
	}

	r.MarkFiltered()
	if r.Status != StatusFiltered || r.Forwarded || r.ForwardedAt != nil {
		t.Fatalf("unexpected filtered record: %+v", r)
	}

	r.MarkNoConfig()
	if r.Status != StatusNoConfig {
		t.Fatalf("expected no_config, got %q", r.Status)
	}
}

func TestForwardingRate(t *testing.T) {
	if got := ForwardingRate(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty history, got %v", got)
	}
	if got := ForwardingRate(2, 3); math.Abs(got-66.67) > 0.01 {
		t.Fatalf("expected ~66.67, got %v", got)
	}
	if got := ForwardingRate(5, 5); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	in := time.Date(2024, 3, 2, 1, 30, 0, 0, loc) // 2024-03-01 22:30 UTC

	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(in); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// sliceStore is the smallest Store needed to drive ComputeStats.
type sliceStore struct {
	Store
	records []*Record
}

func (s *sliceStore) CountMessages(_ context.Context, f CountFilter) (int64, error) {
	var n int64
	for _, r := range s.records {
		if f.Match(r) {
			n++
		}
	}
	return n, nil
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	sent := func(ts time.Time) *Record {
		r := New("a", "b", ts)
		r.MarkSent(ts)
		return r
	}
	failed := New("a", "b", now)
	failed.MarkFailed("boom")
	filtered := New("a", "b", yesterday)
	filtered.MarkFiltered()

	s := &sliceStore{records: []*Record{sent(now), sent(yesterday), failed, filtered}}

	st, err := ComputeStats(context.Background(), s, now)
	if err != nil {
		t.Fatal(err)
	}

	if st.Total != 4 || st.Forwarded != 2 || st.Failed != 1 {
		t.Fatalf("unexpected totals: %+v", st)
	}
	if st.Today != 2 || st.TodayForwarded != 1 {
		t.Fatalf("unexpected today counts: %+v", st)
	}
	if st.ForwardingRate != 50 {
		t.Fatalf("expected rate 50, got %v", st.ForwardingRate)
	}

	empty, err := ComputeStats(context.Background(), &sliceStore{}, now)
	if err != nil {
		t.Fatal(err)
	}
	if empty.ForwardingRate != 0 {
		t.Fatalf("expected rate 0 on empty history, got %v", empty.ForwardingRate)
	}
}
