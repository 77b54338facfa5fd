package backtest

import (
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// EventSink consumes lifecycle events emitted by the venue.
type EventSink interface {
	OnEvent(event schema.Event)
}

// Client is the execution client registered with the simulated exchange. It
// fans every event out to the configured sinks, synchronously and in order.
type Client struct {
	accountID schema.AccountID
	sinks     []EventSink
}

// NewClient constructs a client for the account delivering to the sinks.
func NewClient(accountID schema.AccountID, sinks ...EventSink) *Client {
	return &Client{accountID: accountID, sinks: sinks}
}

// AccountID implements exchange.ExecutionClient.
func (c *Client) AccountID() schema.AccountID {
	return c.accountID
}

// OnEvent implements exchange.ExecutionClient.
func (c *Client) OnEvent(event schema.Event) {
	for _, sink := range c.sinks {
		sink.OnEvent(event)
	}
}
