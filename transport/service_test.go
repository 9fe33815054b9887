package transport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/store/memory"
	"github.com/xraph/smsrelay/transport"
)

func TestSaveReplacesConfiguration(t *testing.T) {
	ctx := context.Background()
	svc := transport.NewService(memory.New(), nil)

	if _, err := svc.Current(ctx); !errors.Is(err, smsrelay.ErrNoTransportConfig) {
		t.Fatalf("expected ErrNoTransportConfig, got %v", err)
	}

	first, err := svc.Save(ctx, transport.Input{
		Host:      " smtp.gmail.com ",
		Username:  "me@gmail.com",
		Password:  "app-password",
		Recipient: "me@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if first.Host != "smtp.gmail.com" || first.Port != transport.DefaultSTARTTLSPort || !first.UseTLS {
		t.Fatalf("unexpected defaults %+v", first)
	}

	second, err := svc.Save(ctx, transport.Input{
		Kind:      transport.KindSMTP,
		Host:      "smtp.example.com",
		Port:      2525,
		Recipient: "other@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Fatal("each save should issue a new configuration ID")
	}

	cur, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cur.ID != second.ID || cur.Port != 2525 {
		t.Fatalf("expected the second configuration, got %+v", cur)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := transport.NewService(store, nil)

	_, err := svc.Save(ctx, transport.Input{Host: "smtp.example.com", Recipient: "nope"})
	var ve *transport.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := store.CurrentTransport(ctx); !errors.Is(err, smsrelay.ErrNoTransportConfig) {
		t.Fatal("invalid configuration must not be stored")
	}
}
