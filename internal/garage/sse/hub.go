package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// 事件类型，low_stock 为连接建立时的低库存快照
const (
	EventStockAlert       = "stock_alert"
	EventWorkOrderUpdate  = "work_order_update"
	EventLowStockSnapshot = "low_stock"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.Named("sse"),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("client buffer full, skipping event", zap.String("client_id", client.ID), zap.String("event", event.EventType))
		}
	}
}

// PublishStockAlert 低库存预警
func (h *Hub) PublishStockAlert(partID string, stock int) {
	h.publish(EventStockAlert, map[string]interface{}{"part_id": partID, "stock": stock})
}

// PublishWorkOrderUpdate 工单状态变化
func (h *Hub) PublishWorkOrderUpdate(workOrderID, status, action string) {
	h.publish(EventWorkOrderUpdate, map[string]interface{}{"work_order_id": workOrderID, "status": status, "action": action})
}

func (h *Hub) publish(eventType string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal event", zap.String("event", eventType), zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}
