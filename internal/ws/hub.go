package ws

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	riderdomain "github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
)

// TopicAll is the wildcard topic. City topics are the decimal city id, and
// subscribe_city only accepts positive integers, so the two can never collide.
const TopicAll = "all"

func CityTopic(cityID int64) string {
	return strconv.FormatInt(cityID, 10)
}

const defaultWriteTimeout = 10 * time.Second

// Hub is the connection registry and topic index. One instance per server
// process; every component that needs it receives it explicitly.
//
// A client is a member of at most one topic set at any time. Subscribe is
// remove-then-add under the hub lock, so a broadcast snapshot never observes
// a client in two sets. Tenant bindings are not touched by subscription
// changes; only full removal discards a client.
type Hub struct {
	logger       *slog.Logger
	writeTimeout time.Duration

	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}
}

func NewHub(logger *slog.Logger, writeTimeout time.Duration) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Hub{
		logger:       logger,
		writeTimeout: writeTimeout,
		clients:      map[*Client]struct{}{},
		topics:       map[string]map[*Client]struct{}{},
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromTopicsLocked(client)
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = map[*Client]struct{}{}
	}
	h.topics[topic][client] = struct{}{}
	client.setTopic(topic)
}

// Unsubscribe drops the client's topic membership but keeps its tenant
// binding, so a client can resubscribe without re-authenticating. A client
// with no subscription is a no-op.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromTopicsLocked(client)
}

// Remove is the full teardown: the client leaves every index and its
// transport is closed. Idempotent; called on transport close, transport
// error, failed send and failed keepalive probe alike.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	h.removeFromTopicsLocked(client)
	delete(h.clients, client)
	h.mu.Unlock()
	client.close()
}

func (h *Hub) removeFromTopicsLocked(client *Client) {
	topic := client.Topic()
	if topic == "" {
		return
	}
	if set, ok := h.topics[topic]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
	client.setTopic("")
}

// members returns a point-in-time snapshot of one topic's subscribers.
func (h *Hub) members(topic string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.topics[topic]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Broadcast fans one location batch out to every open connection subscribed
// to the city topic or to "all", filtered to the batch's tenant. The envelope
// is serialized once. A recipient whose send fails is evicted and the fan-out
// continues; per-recipient failures never reach the caller. The only error
// returned is a serialization failure of the batch itself.
func (h *Hub) Broadcast(tenantID, cityID int64, locations []riderdomain.Location) error {
	if len(locations) == 0 {
		return nil
	}

	payload, err := locationsPayload(cityID, locations)
	if err != nil {
		return err
	}

	candidates := h.members(CityTopic(cityID))
	candidates = append(candidates, h.members(TopicAll)...)

	delivered := 0
	for _, client := range candidates {
		boundTenant, authed := client.TenantID()
		if !authed || boundTenant != tenantID {
			continue
		}
		if !client.IsOpen() {
			continue
		}
		if err := client.send(payload, h.writeTimeout); err != nil {
			h.logger.Warn("broadcast send failed, evicting connection",
				"conn", client.ID(), "tenant", tenantID, "city", cityID, "err", err)
			h.Remove(client)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		h.logger.Debug("broadcast had no recipients", "tenant", tenantID, "city", cityID)
	}
	return nil
}

type Stats struct {
	Connections int            `json:"connections"`
	Topics      map[string]int `json:"topics"`
}

// Stats is a read-only snapshot for observability tooling; it is not part of
// the client protocol.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	topics := make(map[string]int, len(h.topics))
	for topic, set := range h.topics {
		topics[topic] = len(set)
	}
	return Stats{Connections: len(h.clients), Topics: topics}
}

// Shutdown closes every connection and empties the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Remove(c)
	}
}
