package backtest

import (
	"io"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/Ranothil/nautilus-trader/internal/observability"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// JSONSink is an EventSink that writes one JSON object per event to an
// io.Writer, newline delimited.
type JSONSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONSink constructs a sink writing to out.
func NewJSONSink(out io.Writer) *JSONSink {
	return &JSONSink{out: out}
}

type jsonEnvelope struct {
	Type  string       `json:"type"`
	Event schema.Event `json:"event"`
}

// OnEvent implements EventSink.
func (s *JSONSink) OnEvent(event schema.Event) {
	data, err := json.Marshal(jsonEnvelope{Type: eventTypeName(event), Event: event})
	if err != nil {
		observability.Log().Error("event sink: encode event",
			observability.Field{Key: "error", Value: err.Error()})
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		observability.Log().Error("event sink: write event",
			observability.Field{Key: "error", Value: err.Error()})
	}
}
