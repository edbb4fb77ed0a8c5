//go:build !integration

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersNormalizeLabels(t *testing.T) {
	before := testutil.ToFloat64(artifactsDeliveredTotal.WithLabelValues("pdf", "delivered"))
	IncArtifact(" PDF ", "Delivered")
	after := testutil.ToFloat64(artifactsDeliveredTotal.WithLabelValues("pdf", "delivered"))
	if after-before != 1 {
		t.Fatalf("expected artifact counter to grow by 1, got %v", after-before)
	}

	before = testutil.ToFloat64(conversionsTotal.WithLabelValues("rejected"))
	IncConversion("REJECTED")
	if got := testutil.ToFloat64(conversionsTotal.WithLabelValues("rejected")) - before; got != 1 {
		t.Fatalf("expected conversion counter to grow by 1, got %v", got)
	}
}

func TestHistogramsAcceptObservations(t *testing.T) {
	ObserveConversionLatency(1500*time.Millisecond, true)
	ObserveInboundBytes(2048)
	if n := testutil.CollectAndCount(conversionLatencyMs); n == 0 {
		t.Fatal("expected latency series to be collected")
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}

func TestRegisterOnPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterOn(reg); err != nil {
		t.Fatalf("RegisterOn: %v", err)
	}
	IncTelegramCommand("/start")
	SetBuildInfo("v1", "abc")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"telegram_commands_received_total", "build_info"} {
		if !names[want] {
			t.Errorf("expected %s on the registry", want)
		}
	}
	if err := RegisterOn(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
