package inventory

import (
	"errors"
	"sync"
	"testing"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	name   string
	log    *[]string
	alerts []Alert
}

func (r *recorder) OnLowStock(partID string, stock int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{PartID: partID, Stock: stock})
	if r.log != nil {
		*r.log = append(*r.log, r.name)
	}
}

func seededLedger(t *testing.T, parts ...entity.Part) *Ledger {
	t.Helper()
	l := NewLedger()
	for _, p := range parts {
		require.NoError(t, l.Upsert(p))
	}
	return l
}

func TestLedgerGetFindList(t *testing.T) {
	l := seededLedger(t,
		entity.Part{ID: "P002", Name: "Oil Filter", UnitPrice: 30, Stock: 2, ReorderPoint: 2},
		entity.Part{ID: "P001", Name: "Engine Oil", UnitPrice: 50, Stock: 5, ReorderPoint: 3},
	)

	p, err := l.Get("P001")
	require.NoError(t, err)
	assert.Equal(t, "Engine Oil", p.Name)

	_, err = l.Get("P999")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, ok := l.Find("P999")
	assert.False(t, ok)

	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, "P001", list[0].ID)
	assert.Equal(t, "P002", list[1].ID)
}

func TestLedgerUpsertReplaces(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Name: "Engine Oil", Stock: 5})
	require.NoError(t, l.Upsert(entity.Part{ID: "P001", Name: "Synthetic Oil", Stock: 9}))

	p, err := l.Get("P001")
	require.NoError(t, err)
	assert.Equal(t, "Synthetic Oil", p.Name)
	assert.Equal(t, 9, p.Stock)
	assert.Len(t, l.List(), 1)

	assert.ErrorIs(t, l.Upsert(entity.Part{ID: "P003", Stock: -1}), entity.ErrConfiguration)
	_, ok := l.Find("P003")
	assert.False(t, ok)
}

func TestLedgerConsume(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 10, ReorderPoint: 3})

	p, err := l.Consume("P001", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Stock)

	_, err = l.Consume("P001", 7)
	require.ErrorIs(t, err, entity.ErrInsufficientStock)
	var se *entity.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 6, se.Available)

	got, _ := l.Get("P001")
	assert.Equal(t, 6, got.Stock)

	_, err = l.Consume("P404", 1)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = l.Consume("P001", 0)
	assert.ErrorIs(t, err, entity.ErrConfiguration)
	_, err = l.Consume("P001", -2)
	assert.ErrorIs(t, err, entity.ErrConfiguration)
	got, _ = l.Get("P001")
	assert.Equal(t, 6, got.Stock)
}

func TestLedgerAlertAtReorderBoundary(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 6, ReorderPoint: 3})
	rec := &recorder{}
	l.Subscribe(rec)

	// 剩余 4 = 补货点 + 1，不预警
	_, err := l.Consume("P001", 2)
	require.NoError(t, err)
	assert.Empty(t, rec.alerts)

	// 剩余 3 = 补货点，预警
	_, err = l.Consume("P001", 1)
	require.NoError(t, err)
	assert.Equal(t, []Alert{{PartID: "P001", Stock: 3}}, rec.alerts)
}

func TestLedgerAlertAtCapacityBoundary(t *testing.T) {
	// 容量 45 → 预警线 ceil(4.5) = 5
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 8, ReorderPoint: 1, Capacity: 45})
	rec := &recorder{}
	l.Subscribe(rec)

	_, err := l.Consume("P001", 2)
	require.NoError(t, err)
	assert.Empty(t, rec.alerts)

	_, err = l.Consume("P001", 1)
	require.NoError(t, err)
	assert.Equal(t, []Alert{{PartID: "P001", Stock: 5}}, rec.alerts)
}

func TestLedgerNoAlertOnFailedConsume(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 1, ReorderPoint: 3})
	rec := &recorder{}
	l.Subscribe(rec)

	_, err := l.Consume("P001", 2)
	require.Error(t, err)
	assert.Empty(t, rec.alerts)
}

func TestLedgerListenersInRegistrationOrder(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 2, ReorderPoint: 3})
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		l.Subscribe(&recorder{name: name, log: &order})
	}

	_, err := l.Consume("P001", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestLedgerListenerMayReadLedger(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Name: "Engine Oil", Stock: 4, ReorderPoint: 3})
	var seen entity.Part
	l.Subscribe(ListenerFunc(func(partID string, stock int) {
		seen, _ = l.Get(partID)
	}))

	_, err := l.Consume("P001", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, seen.Stock)
}

func TestLedgerRestock(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 1, ReorderPoint: 3})
	p, err := l.Restock("P001", 5)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Stock)

	_, err = l.Restock("P001", 0)
	assert.ErrorIs(t, err, entity.ErrConfiguration)
	_, err = l.Restock("P404", 1)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestLedgerAdjust(t *testing.T) {
	rec := &recorder{}
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 5, ReorderPoint: 3})
	l.Subscribe(rec)

	p, err := l.Adjust("P001", -3)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)
	p, err = l.Adjust("P001", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	assert.Empty(t, rec.alerts)

	_, err = l.Adjust("P001", -6)
	assert.ErrorIs(t, err, entity.ErrInsufficientStock)
	got, _ := l.Get("P001")
	assert.Equal(t, 5, got.Stock)
	_, err = l.Adjust("P404", 1)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestLedgerLowStock(t *testing.T) {
	l := seededLedger(t,
		entity.Part{ID: "P001", Stock: 3, ReorderPoint: 3},
		entity.Part{ID: "P002", Stock: 10, ReorderPoint: 3},
	)
	low := l.LowStock()
	require.Len(t, low, 1)
	assert.Equal(t, "P001", low[0].ID)
}

func TestLedgerConcurrentConsume(t *testing.T) {
	l := seededLedger(t, entity.Part{ID: "P001", Stock: 100, ReorderPoint: 0})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Consume("P001", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p, _ := l.Get("P001")
	assert.Equal(t, 100, succeeded)
	assert.Equal(t, 0, p.Stock)
}
