package message

import (
	"context"
	"fmt"
	"time"
)

// Stats aggregates the message history.
type Stats struct {
	Total          int64   `json:"total_messages"`
	Forwarded      int64   `json:"forwarded_messages"`
	Failed         int64   `json:"failed_messages"`
	Today          int64   `json:"today_messages"`
	TodayForwarded int64   `json:"today_forwarded"`
	ForwardingRate float64 `json:"forwarding_rate"`
}

// ForwardingRate returns forwarded/total as a percentage, or 0 when total is 0.
func ForwardingRate(forwarded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(forwarded) / float64(total) * 100
}

// StartOfDay returns midnight UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeStats runs the counts that make up Stats. "Today" starts at
// midnight UTC of now.
func ComputeStats(ctx context.Context, s Store, now time.Time) (*Stats, error) {
	forwarded := true
	today := StartOfDay(now)

	st := &Stats{}
	counts := []struct {
		dst    *int64
		filter CountFilter
	}{
		{&st.Total, CountFilter{}},
		{&st.Forwarded, CountFilter{Forwarded: &forwarded}},
		{&st.Failed, CountFilter{Status: StatusFailed}},
		{&st.Today, CountFilter{Since: today}},
		{&st.TodayForwarded, CountFilter{Since: today, Forwarded: &forwarded}},
	}

	for _, c := range counts {
		n, err := s.CountMessages(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("count messages: %w", err)
		}
		*c.dst = n
	}

	st.ForwardingRate = ForwardingRate(st.Forwarded, st.Total)
	return st, nil
}
