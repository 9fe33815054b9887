package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m.MessagesReceived == nil {
		t.Fatal("MessagesReceived should not be nil")
	}
	if m.MessagesTotal == nil {
		t.Fatal("MessagesTotal should not be nil")
	}
	if m.DispatchTotal == nil {
		t.Fatal("DispatchTotal should not be nil")
	}
	if m.DispatchLatency == nil {
		t.Fatal("DispatchLatency should not be nil")
	}
}

func TestNewMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	NewMetrics(reg)
}

func TestRecordDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordDispatch("smtp", "sent", 0.5)
	m.RecordDispatch("smtp", "sent", 1.2)
	m.RecordDispatch("device", "failed", 0.0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, f := range families {
		switch f.GetName() {
		case "smsrelay_dispatch_total":
			found = true
			if len(f.GetMetric()) != 2 { // smtp/sent + device/failed
				t.Fatalf("expected 2 label combinations, got %d", len(f.GetMetric()))
			}
		case "smsrelay_dispatch_latency_seconds":
			if got := f.GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
				t.Fatalf("expected 3 latency samples, got %d", got)
			}
		}
	}
	if !found {
		t.Fatal("smsrelay_dispatch_total metric not found")
	}
}

func TestRecordMessage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordMessage("filtered")
	m.RecordMessage("filtered")
	m.RecordMessage("sent")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, f := range families {
		if f.GetName() != "smsrelay_messages_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			if metric.GetLabel()[0].GetValue() == "filtered" && metric.GetCounter().GetValue() != 2 {
				t.Fatalf("expected filtered=2, got %f", metric.GetCounter().GetValue())
			}
		}
		return
	}
	t.Fatal("smsrelay_messages_total metric not found")
}

func TestTracerSpans(t *testing.T) {
	tr := NewTracerFromProvider(noop.NewTracerProvider())

	ctx, span := tr.StartForwardSpan(context.Background(), "sms_1", "+1555")
	_, dspan := tr.StartDispatchSpan(ctx, "sms_1", "smtp", "smtp.example.com")
	tr.EndDispatchSpan(dspan, "failed", 12, "connection refused")
	tr.EndForwardSpan(span, "failed", errors.New("boom"))

	if span.IsRecording() {
		t.Fatal("noop span should not record")
	}
}
