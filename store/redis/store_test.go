package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/transport"
)

func setup(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	kvs, err := Open(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	s := New(kvs)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func record(status message.Status, at time.Time) *message.Record {
	r := message.New("+1555", "hi", at)
	switch status {
	case message.StatusSent:
		r.MarkSent(at)
	case message.StatusFailed:
		r.MarkFailed("refused")
	case message.StatusFiltered:
		r.MarkFiltered()
	case message.StatusNoConfig:
		r.MarkNoConfig()
	}
	return r
}

func TestLifecycle(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
}

func TestMessages(t *testing.T) {
	s, mr := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	statuses := []message.Status{message.StatusSent, message.StatusFailed, message.StatusFiltered, message.StatusSent, message.StatusNoConfig}
	recs := make([]*message.Record, len(statuses))
	for i, st := range statuses {
		recs[i] = record(st, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.CreateMessage(ctx, recs[i]))
	}

	assert.True(t, mr.Exists(entityKey(prefixMessage, recs[0].ID.String())))

	got, err := s.GetMessage(ctx, recs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, message.StatusFailed, got.Status)
	assert.Equal(t, "refused", got.Error)
	assert.True(t, got.Timestamp.Equal(recs[1].Timestamp))

	_, err = s.GetMessage(ctx, id.NewMessageID())
	assert.True(t, errors.Is(err, smsrelay.ErrMessageNotFound))

	list, err := s.ListMessages(ctx, message.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, recs[4].ID, list[0].ID)
	assert.Equal(t, recs[0].ID, list[4].ID)

	page, err := s.ListMessages(ctx, message.ListOpts{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, recs[3].ID, page[0].ID)
	assert.Equal(t, recs[2].ID, page[1].ID)

	sent, err := s.ListMessages(ctx, message.ListOpts{Status: message.StatusSent})
	require.NoError(t, err)
	assert.Len(t, sent, 2)

	empty, err := s.ListMessages(ctx, message.ListOpts{Offset: 50})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCountMessages(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, st := range []message.Status{message.StatusSent, message.StatusFailed, message.StatusSent, message.StatusFiltered} {
		require.NoError(t, s.CreateMessage(ctx, record(st, base.Add(time.Duration(i)*time.Hour))))
	}

	yes, no := true, false
	since := base.Add(2 * time.Hour)
	cases := []struct {
		name   string
		filter message.CountFilter
		want   int64
	}{
		{"all", message.CountFilter{}, 4},
		{"forwarded", message.CountFilter{Forwarded: &yes}, 2},
		{"not forwarded", message.CountFilter{Forwarded: &no}, 2},
		{"failed", message.CountFilter{Status: message.StatusFailed}, 1},
		{"since", message.CountFilter{Since: since}, 2},
		{"since forwarded", message.CountFilter{Since: since, Forwarded: &yes}, 1},
		{"sent and forwarded", message.CountFilter{Status: message.StatusSent, Forwarded: &yes}, 2},
		{"failed and forwarded", message.CountFilter{Status: message.StatusFailed, Forwarded: &yes}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := s.CountMessages(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestRules(t *testing.T) {
	s, mr := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(name string, enabled bool, offset time.Duration) *rule.Rule {
		at := base.Add(offset)
		return &rule.Rule{
			Entity:  entity.Entity{CreatedAt: at, UpdatedAt: at},
			ID:      id.NewRuleID(),
			Name:    name,
			Kind:    rule.KindKeyword,
			Value:   name,
			Enabled: enabled,
		}
	}
	first := mk("first", true, 0)
	second := mk("second", false, time.Minute)
	third := mk("third", true, 2*time.Minute)
	for _, r := range []*rule.Rule{third, first, second} {
		require.NoError(t, s.CreateRule(ctx, r))
	}

	list, err := s.ListRules(ctx, rule.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "first", list[2].Name)

	enabled, err := s.EnabledRules(ctx, 100)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "first", enabled[0].Name)
	assert.Equal(t, "third", enabled[1].Name)

	off := false
	disabled, err := s.ListRules(ctx, rule.ListOpts{Enabled: &off})
	require.NoError(t, err)
	require.Len(t, disabled, 1)
	assert.Equal(t, "second", disabled[0].Name)

	// Disabling removes the rule from the evaluation index.
	first.Enabled = false
	require.NoError(t, s.UpdateRule(ctx, first))
	members, err := mr.ZMembers(zRuleEnabled)
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID.String()}, members)

	require.NoError(t, s.DeleteRule(ctx, third.ID))
	assert.True(t, errors.Is(s.DeleteRule(ctx, third.ID), smsrelay.ErrRuleNotFound))
	_, err = s.GetRule(ctx, third.ID)
	assert.True(t, errors.Is(err, smsrelay.ErrRuleNotFound))
	assert.True(t, errors.Is(s.UpdateRule(ctx, third), smsrelay.ErrRuleNotFound))

	enabled, err = s.EnabledRules(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, enabled)
}

func TestTransportSingleton(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()

	_, err := s.CurrentTransport(ctx)
	assert.True(t, errors.Is(err, smsrelay.ErrNoTransportConfig))

	var last *transport.Config
	for _, host := range []string{"a.example.com", "b.example.com"} {
		last = &transport.Config{
			Entity:    entity.New(),
			ID:        id.NewTransportID(),
			Kind:      transport.KindSMTP,
			Host:      host,
			Port:      587,
			Password:  "pw",
			UseTLS:    true,
			Recipient: "ops@example.com",
		}
		require.NoError(t, s.ReplaceTransport(ctx, last))
	}

	cur, err := s.CurrentTransport(ctx)
	require.NoError(t, err)
	assert.Equal(t, last.ID, cur.ID)
	assert.Equal(t, "b.example.com", cur.Host)
	assert.Equal(t, "pw", cur.Password)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	s, mr := setup(t)
	mr.Close()

	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smsrelay/redis")
}
