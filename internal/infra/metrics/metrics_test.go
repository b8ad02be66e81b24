//go:build !integration

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_IsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should skip duplicates, got %v", err)
	}
}

func TestCounters(t *testing.T) {
	// --- Arrange ---
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("add", "ok"))

	// --- Act ---
	IncCommand(" ADD ", "OK")
	ObserveAICall("openai", "gpt-4o-mini", 120, 80, 2*time.Second, true)
	ObserveAICall("openai", "gpt-4o-mini", 500, 500, time.Second, false)

	// --- Assert ---
	if got := testutil.ToFloat64(commandsTotal.WithLabelValues("add", "ok")); got != before+1 {
		t.Errorf("expected labels to be normalized, counter went %v -> %v", before, got)
	}
	if got := testutil.ToFloat64(aiTokens.WithLabelValues("openai", "gpt-4o-mini", "prompt")); got != 120 {
		t.Errorf("expected only successful calls to add tokens, got %v", got)
	}
}
