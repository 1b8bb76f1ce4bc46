package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is a real-time update pushed to connected clients: a chore moving
// through review, a balance changing after approval, or a house period being
// replaced. UserID, when set, restricts delivery to that user's connections.
type Event struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	UserID int64          `json:"-"`
	Data   map[string]any `json:"data,omitempty"`
}

// ChoreEvent describes a chore lifecycle transition.
func ChoreEvent(action string, choreID int64) Event {
	return Event{
		Type:   "chore_" + action,
		Entity: "chore",
		Action: action,
		ID:     choreID,
	}
}

// BalanceEvent notifies one user that their work-period balance changed.
func BalanceEvent(userID int64, netMinutes int) Event {
	return Event{
		Type:   "balance_updated",
		Entity: "balance",
		Action: "updated",
		ID:     userID,
		UserID: userID,
		Data:   map[string]any{"net_minutes": netMinutes},
	}
}

// PeriodEvent announces that a house's shared work period was replaced.
func PeriodEvent(houseID, workPeriodID int64) Event {
	return Event{
		Type:   "period_replaced",
		Entity: "work_period",
		Action: "replaced",
		ID:     workPeriodID,
		Data:   map[string]any{"house_id": houseID},
	}
}

// Hub maintains the set of active WebSocket clients and fans events out to
// them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers the event to every connected client, or only to the
// target user's connections when the event is user-scoped.
func (h *Hub) Broadcast(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if evt.UserID != 0 && c.userID != evt.UserID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the hub
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
