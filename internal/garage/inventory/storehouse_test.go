package inventory

import (
	"sync"
	"testing"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWith(items ...entity.WOItem) *entity.WorkOrder {
	wo := entity.NewWorkOrder("WO0001", entity.Vehicle{VIN: "VIN123"}, entity.Customer{ID: "C001"}, entity.Employee{})
	wo.Items = items
	return wo
}

func itemNeeding(reqs ...entity.PartRequirement) entity.WOItem {
	item := entity.NewWOItem(entity.ServiceItem{ID: "S001", Name: "Service", LaborHours: 1, BasePrice: 10})
	item.Parts = reqs
	return item
}

func need(id string, qty int) entity.PartRequirement {
	return entity.PartRequirement{Part: entity.Part{ID: id}, Qty: qty}
}

func newStorehouse(t *testing.T, parts ...entity.Part) *Storehouse {
	t.Helper()
	s := NewStorehouse(NewLedger())
	require.NoError(t, s.Seed(parts))
	return s
}

func stockOf(t *testing.T, s *Storehouse, id string) int {
	t.Helper()
	p, err := s.Ledger().Get(id)
	require.NoError(t, err)
	return p.Stock
}

func TestConsumeForOrderSuccess(t *testing.T) {
	s := newStorehouse(t,
		entity.Part{ID: "P001", Name: "Engine Oil", Stock: 10, ReorderPoint: 3},
		entity.Part{ID: "P002", Name: "Oil Filter", Stock: 5, ReorderPoint: 2},
	)
	wo := orderWith(itemNeeding(need("P001", 4), need("P002", 1)), itemNeeding(need("P002", 1)))

	done, err := s.ConsumeForOrder(wo)
	require.NoError(t, err)
	require.Len(t, done, 3)
	assert.Equal(t, Consumption{PartID: "P001", PartName: "Engine Oil", Qty: 4, StockAfter: 6}, done[0])
	assert.Equal(t, 3, done[2].StockAfter)
	assert.Equal(t, 6, stockOf(t, s, "P001"))
	assert.Equal(t, 3, stockOf(t, s, "P002"))
	assert.Empty(t, s.TakeAlerts())
}

func TestConsumeForOrderPreflightFailureMutatesNothing(t *testing.T) {
	s := newStorehouse(t,
		entity.Part{ID: "P001", Stock: 10, ReorderPoint: 3},
		entity.Part{ID: "P002", Stock: 1, ReorderPoint: 0},
	)
	wo := orderWith(itemNeeding(need("P001", 4)), itemNeeding(need("P002", 2)))

	done, err := s.ConsumeForOrder(wo)
	require.ErrorIs(t, err, entity.ErrInsufficientStock)
	assert.Empty(t, done)
	assert.Equal(t, 10, stockOf(t, s, "P001"))
	assert.Equal(t, 1, stockOf(t, s, "P002"))
}

func TestConsumeForOrderUnknownPart(t *testing.T) {
	s := newStorehouse(t, entity.Part{ID: "P001", Stock: 10})
	_, err := s.ConsumeForOrder(orderWith(itemNeeding(need("P001", 1), need("P404", 1))))
	require.ErrorIs(t, err, entity.ErrNotFound)
	assert.Equal(t, 10, stockOf(t, s, "P001"))
}

// 预检对同一配件的多条需求分别对照当前库存，合并需求超出库存时仍会通过预检，
// 第二条扣减失败并保留第一条扣减。
func TestConsumeForOrderPreflightDoesNotAggregatePerPart(t *testing.T) {
	s := newStorehouse(t, entity.Part{ID: "P001", Stock: 3, ReorderPoint: 0})
	wo := orderWith(itemNeeding(need("P001", 2)), itemNeeding(need("P001", 2)))

	done, err := s.ConsumeForOrder(wo)
	require.ErrorIs(t, err, entity.ErrInsufficientStock)
	require.Len(t, done, 1)
	assert.Equal(t, 1, done[0].StockAfter)
	assert.Equal(t, 1, stockOf(t, s, "P001"))
}

func TestConsumeForOrderQueuesAlerts(t *testing.T) {
	s := newStorehouse(t,
		entity.Part{ID: "P001", Stock: 5, ReorderPoint: 3},
		entity.Part{ID: "P002", Stock: 2, ReorderPoint: 2},
	)
	rec := &recorder{}
	s.Subscribe(rec)

	done, err := s.ConsumeForOrder(orderWith(itemNeeding(need("P001", 4), need("P002", 1))))
	require.NoError(t, err)
	assert.True(t, done[0].LowStock)

	want := []Alert{{PartID: "P001", Stock: 1}, {PartID: "P002", Stock: 1}}
	assert.Equal(t, want, rec.alerts)
	assert.Equal(t, want, s.TakeAlerts())
	assert.Empty(t, s.TakeAlerts())
	assert.Equal(t, "Part P001 low stock: 1", want[0].String())
}

func TestStorehouseCollectsDirectConsumeAlerts(t *testing.T) {
	s := newStorehouse(t, entity.Part{ID: "P001", Stock: 4, ReorderPoint: 3})
	_, err := s.Consume("P001", 1)
	require.NoError(t, err)
	assert.Equal(t, []Alert{{PartID: "P001", Stock: 3}}, s.TakeAlerts())
}

func TestConsumeForOrderIsAtomicUnderConcurrency(t *testing.T) {
	s := newStorehouse(t,
		entity.Part{ID: "P001", Stock: 4, ReorderPoint: 0},
		entity.Part{ID: "P002", Stock: 2, ReorderPoint: 0},
	)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ConsumeForOrder(orderWith(itemNeeding(need("P001", 2), need("P002", 1))))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, entity.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 0, stockOf(t, s, "P001"))
	assert.Equal(t, 0, stockOf(t, s, "P002"))
}
