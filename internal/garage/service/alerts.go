package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/inventory"
	"github.com/bdhxxnix/auto-repair/internal/garage/sse"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultAlertChannel 低库存预警发布频道
const DefaultAlertChannel = "garage:stock_alerts"

// StockAlertMessage 预警消息
type StockAlertMessage struct {
	PartID  string    `json:"part_id"`
	Stock   int       `json:"stock"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// AlertPublisher 低库存监听者：记录日志、发布到 Redis、推送 SSE
type AlertPublisher struct {
	rdb     *redis.Client
	channel string
	hub     *sse.Hub
	logger  *zap.Logger
}

func NewAlertPublisher(rdb *redis.Client, channel string, hub *sse.Hub, logger *zap.Logger) *AlertPublisher {
	if channel == "" {
		channel = DefaultAlertChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertPublisher{rdb: rdb, channel: channel, hub: hub, logger: logger}
}

func (p *AlertPublisher) OnLowStock(partID string, stock int) {
	alert := inventory.Alert{PartID: partID, Stock: stock}
	p.logger.Warn("low stock", zap.String("part_id", partID), zap.Int("stock", stock))

	if p.hub != nil {
		p.hub.PublishStockAlert(partID, stock)
	}
	if p.rdb == nil {
		return
	}
	msg, err := json.Marshal(StockAlertMessage{PartID: partID, Stock: stock, Message: alert.String(), At: time.Now()})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.rdb.Publish(ctx, p.channel, msg).Err(); err != nil {
		p.logger.Warn("publish stock alert failed", zap.String("channel", p.channel), zap.Error(err))
	}
}
