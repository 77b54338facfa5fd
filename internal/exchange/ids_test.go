package exchange

import "testing"

func TestIDAllocatorPerSymbolSequences(t *testing.T) {
	ids := newIDAllocator()

	if got := ids.OrderID("AUD-USD"); got != "B-AUDUSD-1" {
		t.Fatalf("unexpected order id: %s", got)
	}
	if got := ids.OrderID("AUD-USD"); got != "B-AUDUSD-2" {
		t.Fatalf("unexpected order id: %s", got)
	}
	if got := ids.OrderID("GBP-USD"); got != "B-GBPUSD-1" {
		t.Fatalf("order sequence must be per symbol, got %s", got)
	}

	// Position ids run on their own counter.
	if got := ids.PositionID("AUD-USD"); got != "B-AUDUSD-1" {
		t.Fatalf("unexpected position id: %s", got)
	}
	if got := ids.PositionID("AUD-USD"); got != "B-AUDUSD-2" {
		t.Fatalf("unexpected position id: %s", got)
	}
}

func TestIDAllocatorExecutionIDsGlobal(t *testing.T) {
	ids := newIDAllocator()

	if got := ids.ExecutionID(); got != "E-1" {
		t.Fatalf("unexpected execution id: %s", got)
	}
	if got := ids.ExecutionID(); got != "E-2" {
		t.Fatalf("unexpected execution id: %s", got)
	}
}

func TestIDAllocatorReset(t *testing.T) {
	ids := newIDAllocator()
	ids.OrderID("AUD-USD")
	ids.PositionID("AUD-USD")
	ids.ExecutionID()

	ids.Reset()

	if got := ids.OrderID("AUD-USD"); got != "B-AUDUSD-1" {
		t.Fatalf("order sequence must restart after reset, got %s", got)
	}
	if got := ids.PositionID("AUD-USD"); got != "B-AUDUSD-1" {
		t.Fatalf("position sequence must restart after reset, got %s", got)
	}
	if got := ids.ExecutionID(); got != "E-1" {
		t.Fatalf("execution sequence must restart after reset, got %s", got)
	}
}
