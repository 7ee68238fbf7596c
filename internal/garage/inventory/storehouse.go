package inventory

import (
	"fmt"
	"sync"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
)

// Consumption 一次成功的扣减
type Consumption struct {
	PartID     string `json:"part_id"`
	PartName   string `json:"part_name"`
	Qty        int    `json:"qty"`
	StockAfter int    `json:"stock_after"`
	LowStock   bool   `json:"low_stock"`
}

// Storehouse 仓库：台账之上的工单领料协调者，同时收集预警
type Storehouse struct {
	ledger *Ledger

	mu     sync.Mutex
	alerts []Alert
}

// NewStorehouse 仓库自身作为第一个监听者注册到台账
func NewStorehouse(ledger *Ledger) *Storehouse {
	s := &Storehouse{ledger: ledger}
	ledger.Subscribe(s)
	return s
}

func (s *Storehouse) Ledger() *Ledger {
	return s.ledger
}

func (s *Storehouse) Subscribe(lis Listener) {
	s.ledger.Subscribe(lis)
}

func (s *Storehouse) Seed(parts []entity.Part) error {
	for _, p := range parts {
		if err := s.ledger.Upsert(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storehouse) Snapshot() []entity.Part {
	return s.ledger.List()
}

func (s *Storehouse) Consume(partID string, qty int) (entity.Part, error) {
	return s.ledger.Consume(partID, qty)
}

// ConsumeForOrder 按工单领料
// 先预检每条配件需求（同一配件在不同明细中的需求分别对照当前库存，不做合并），
// 预检通过后按明细顺序逐条扣减。预检和扣减在同一临界区内完成。
// 扣减中途失败时返回已完成的扣减和错误，调用方需重新读取台账对账。
func (s *Storehouse) ConsumeForOrder(wo *entity.WorkOrder) ([]Consumption, error) {
	l := s.ledger
	reqs := wo.Requirements()

	l.mu.Lock()
	for _, req := range reqs {
		if req.Qty <= 0 {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: part %s requires non-positive quantity %d", entity.ErrConfiguration, req.Part.ID, req.Qty)
		}
		p, ok := l.parts[req.Part.ID]
		if !ok {
			l.mu.Unlock()
			return nil, fmt.Errorf("work order %s: part %s: %w", wo.ID, req.Part.ID, entity.ErrNotFound)
		}
		if p.Stock < req.Qty {
			l.mu.Unlock()
			return nil, fmt.Errorf("work order %s: %w", wo.ID, &entity.StockError{PartID: p.ID, Requested: req.Qty, Available: p.Stock})
		}
	}

	var (
		done   []Consumption
		alerts []Alert
		failed error
	)
	for _, req := range reqs {
		p, alert, err := l.consumeLocked(req.Part.ID, req.Qty)
		if err != nil {
			failed = fmt.Errorf("work order %s: %w", wo.ID, err)
			break
		}
		done = append(done, Consumption{
			PartID:     p.ID,
			PartName:   p.Name,
			Qty:        req.Qty,
			StockAfter: p.Stock,
			LowStock:   alert != nil,
		})
		if alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	listeners := l.listeners
	l.mu.Unlock()

	notify(listeners, alerts)
	return done, failed
}

// OnLowStock 收集预警
func (s *Storehouse) OnLowStock(partID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, Alert{PartID: partID, Stock: stock})
}

// TakeAlerts 取出并清空待处理预警
func (s *Storehouse) TakeAlerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.alerts
	s.alerts = nil
	return out
}
