package errs

import (
	"errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New("exchange/commands", CodeInvalid, WithMessage("quantity must be positive"))
	got := err.Error()
	want := `component=exchange/commands code=invalid_request message="quantity must be positive"`
	if got != want {
		t.Fatalf("unexpected error string:\n got %s\nwant %s", got, want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New("backtest/feeder", CodeUnavailable, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to unwrap")
	}
}

func TestNilAndEmptyDefaults(t *testing.T) {
	var nilErr *E
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil error should render <nil>, got %s", nilErr.Error())
	}
	err := New("", "")
	if err.Error() != "component=unknown code=unknown" {
		t.Fatalf("unexpected defaults: %s", err.Error())
	}
}
