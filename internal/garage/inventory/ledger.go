package inventory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
)

// Alert 低库存预警
type Alert struct {
	PartID string `json:"part_id"`
	Stock  int    `json:"stock"`
}

func (a Alert) String() string {
	return fmt.Sprintf("Part %s low stock: %d", a.PartID, a.Stock)
}

// Listener 低库存监听者，由调用方持有其生命周期
type Listener interface {
	OnLowStock(partID string, stock int)
}

// ListenerFunc 函数适配为 Listener
type ListenerFunc func(partID string, stock int)

func (f ListenerFunc) OnLowStock(partID string, stock int) {
	f(partID, stock)
}

// Ledger 库存台账
// 所有变更在同一把锁内完成；监听者在释放锁之后、方法返回之前按注册顺序同步回调
type Ledger struct {
	mu        sync.Mutex
	parts     map[string]entity.Part
	listeners []Listener
}

func NewLedger() *Ledger {
	return &Ledger{parts: make(map[string]entity.Part)}
}

// Subscribe 注册监听者，只增不减
func (l *Ledger) Subscribe(lis Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, lis)
}

// Upsert 新增或整体替换配件
func (l *Ledger) Upsert(p entity.Part) error {
	if err := p.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.parts[p.ID] = p
	return nil
}

func (l *Ledger) Get(id string) (entity.Part, error) {
	p, ok := l.Find(id)
	if !ok {
		return entity.Part{}, fmt.Errorf("part %s: %w", id, entity.ErrNotFound)
	}
	return p, nil
}

func (l *Ledger) Find(id string) (entity.Part, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.parts[id]
	return p, ok
}

// List 按编号排序的快照
func (l *Ledger) List() []entity.Part {
	l.mu.Lock()
	out := make([]entity.Part, 0, len(l.parts))
	for _, p := range l.parts {
		out = append(out, p)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Consume 扣减库存；配件不存在或库存不足时不做任何修改
func (l *Ledger) Consume(id string, qty int) (entity.Part, error) {
	l.mu.Lock()
	p, alert, err := l.consumeLocked(id, qty)
	listeners := l.listeners
	l.mu.Unlock()
	if err != nil {
		return entity.Part{}, err
	}
	if alert != nil {
		notify(listeners, []Alert{*alert})
	}
	return p, nil
}

// Restock 补货入库，不触发预警
func (l *Ledger) Restock(id string, qty int) (entity.Part, error) {
	if qty <= 0 {
		return entity.Part{}, fmt.Errorf("%w: restock quantity must be positive, got %d", entity.ErrConfiguration, qty)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.parts[id]
	if !ok {
		return entity.Part{}, fmt.Errorf("part %s: %w", id, entity.ErrNotFound)
	}
	p.Stock += qty
	l.parts[id] = p
	return p, nil
}

// Adjust 按差额修正库存，不触发预警，用于落库失败后撤销台账变更
func (l *Ledger) Adjust(id string, delta int) (entity.Part, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.parts[id]
	if !ok {
		return entity.Part{}, fmt.Errorf("part %s: %w", id, entity.ErrNotFound)
	}
	if p.Stock+delta < 0 {
		return entity.Part{}, &entity.StockError{PartID: id, Requested: -delta, Available: p.Stock}
	}
	p.Stock += delta
	l.parts[id] = p
	return p, nil
}

// LowStock 当前低于预警线的配件
func (l *Ledger) LowStock() []entity.Part {
	var low []entity.Part
	for _, p := range l.List() {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low
}

func (l *Ledger) consumeLocked(id string, qty int) (entity.Part, *Alert, error) {
	if qty <= 0 {
		return entity.Part{}, nil, fmt.Errorf("%w: consume quantity must be positive, got %d", entity.ErrConfiguration, qty)
	}
	p, ok := l.parts[id]
	if !ok {
		return entity.Part{}, nil, fmt.Errorf("part %s: %w", id, entity.ErrNotFound)
	}
	if p.Stock < qty {
		return entity.Part{}, nil, &entity.StockError{PartID: id, Requested: qty, Available: p.Stock}
	}
	p.Stock -= qty
	l.parts[id] = p
	if p.IsLowStock() {
		return p, &Alert{PartID: id, Stock: p.Stock}, nil
	}
	return p, nil, nil
}

func notify(listeners []Listener, alerts []Alert) {
	for _, a := range alerts {
		for _, lis := range listeners {
			lis.OnLowStock(a.PartID, a.Stock)
		}
	}
}
