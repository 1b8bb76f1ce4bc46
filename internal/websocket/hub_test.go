package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testClient(h *Hub, userID int64) *Client {
	c := &Client{hub: h, userID: userID, send: make(chan []byte, sendBufferSize)}
	h.register(c)
	return c
}

func TestHubRegisterUnregister(t *testing.T) {
	h := testHub()
	if h.ClientCount() != 0 {
		t.Fatalf("fresh hub has %d clients", h.ClientCount())
	}

	c := testClient(h, 1)
	if h.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", h.ClientCount())
	}

	h.unregister(c)
	if h.ClientCount() != 0 {
		t.Errorf("client count = %d after unregister, want 0", h.ClientCount())
	}

	// Unregistering twice must not panic or double-close the channel.
	h.unregister(c)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := testHub()
	a := testClient(h, 1)
	b := testClient(h, 2)

	h.Broadcast(ChoreEvent("created", 7))

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.send:
			var evt Event
			if err := json.Unmarshal(raw, &evt); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if evt.Type != "chore_created" || evt.ID != 7 {
				t.Errorf("got event %+v", evt)
			}
		default:
			t.Error("client did not receive broadcast")
		}
	}
}

func TestBroadcastUserScoped(t *testing.T) {
	h := testHub()
	target := testClient(h, 1)
	other := testClient(h, 2)

	h.Broadcast(BalanceEvent(1, -510))

	select {
	case raw := <-target.send:
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Type != "balance_updated" {
			t.Errorf("type = %q", evt.Type)
		}
		if evt.Data["net_minutes"] != float64(-510) {
			t.Errorf("net_minutes = %v", evt.Data["net_minutes"])
		}
	default:
		t.Error("target user did not receive balance event")
	}

	select {
	case <-other.send:
		t.Error("user-scoped event delivered to another user")
	default:
	}
}

func TestBroadcastWithNoClients(t *testing.T) {
	h := testHub()
	// Must not panic.
	h.Broadcast(PeriodEvent(3, 9))
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := testHub()
	c := &Client{hub: h, userID: 1, send: make(chan []byte, 1)}
	h.register(c)

	h.Broadcast(ChoreEvent("created", 1))
	h.Broadcast(ChoreEvent("created", 2))

	if got := len(c.send); got != 1 {
		t.Errorf("buffered messages = %d, want 1", got)
	}
}
