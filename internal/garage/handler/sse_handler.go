package handler

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/sse"
	"github.com/gin-gonic/gin"
)

// LowStockSource 当前低库存配件，连接建立时推送
type LowStockSource interface {
	Alerts() []entity.Part
}

// SSEHandler 车间实时事件
type SSEHandler struct {
	hub   *sse.Hub
	stock LowStockSource
}

func NewSSEHandler(hub *sse.Hub, stock LowStockSource) *SSEHandler {
	return &SSEHandler{hub: hub, stock: stock}
}

// lowStockItem 低库存快照条目
type lowStockItem struct {
	PartID       string `json:"part_id"`
	Name         string `json:"name"`
	Stock        int    `json:"stock"`
	ReorderPoint int    `json:"reorder_point"`
}

// eventFilter 订阅的事件类型，nil 表示全部
type eventFilter map[string]bool

func (f eventFilter) allows(eventType string) bool {
	return f == nil || f[eventType]
}

// parseEventFilter 解析 ?types=stock_alert,work_order_update
func parseEventFilter(raw string) (eventFilter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	f := eventFilter{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		switch t {
		case "":
			continue
		case sse.EventStockAlert, sse.EventWorkOrderUpdate:
			f[t] = true
		default:
			return nil, fmt.Errorf("unknown event type %q", t)
		}
	}
	if len(f) == 0 {
		return nil, nil
	}
	return f, nil
}

// Stream 事件流，订阅预警时先推送一次当前低库存快照
// GET /api/v1/garage/events?types=stock_alert
func (h *SSEHandler) Stream(c *gin.Context) {
	filter, err := parseEventFilter(c.Query("types"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID := GetUserID(c)
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan sse.Event, 64),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(clientID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	if h.stock != nil && filter.allows(sse.EventStockAlert) {
		h.writeLowStock(c)
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if !filter.allows(event.EventType) {
				continue
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}

func (h *SSEHandler) writeLowStock(c *gin.Context) {
	parts := h.stock.Alerts()
	items := make([]lowStockItem, 0, len(parts))
	for _, p := range parts {
		items = append(items, lowStockItem{PartID: p.ID, Name: p.Name, Stock: p.Stock, ReorderPoint: p.ReorderPoint})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", sse.EventLowStockSnapshot, data))
}
