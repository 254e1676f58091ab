package websocket

import (
	"encoding/json"
	"sync"
)

type EventType string

const (
	EventTransactionRecorded EventType = "transaction.recorded"
	EventSnapshotRecorded    EventType = "snapshot.recorded"
	EventBucketChanged       EventType = "bucket.changed"
	EventFxRateAdded         EventType = "fx_rate.added"
)

// LedgerEvent tells connected clients which cached resources went stale.
// Invalidate holds REST paths; a client drops every cached response at or
// nested below each one.
type LedgerEvent struct {
	Type        EventType `json:"type"`
	PortfolioID string    `json:"portfolio_id,omitempty"`
	BucketID    string    `json:"bucket_id,omitempty"`
	Invalidate  []string  `json:"invalidate"`
}

const FxRatesPath = "/fx-rates"

func PortfolioPath(portfolioID string) string {
	return "/portfolios/" + portfolioID
}

func BucketPath(portfolioID, bucketID string) string {
	return PortfolioPath(portfolioID) + "/buckets/" + bucketID
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify drops the event for clients whose buffer is full; they resync on
// their next read.
func (h *Hub) Notify(userID string, event LedgerEvent) {
	payload, _ := json.Marshal(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		client.offer(payload)
	}
}

func (h *Hub) BroadcastAll(event LedgerEvent) {
	payload, _ := json.Marshal(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			client.offer(payload)
		}
	}
}
