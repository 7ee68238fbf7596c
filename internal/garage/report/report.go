// Package report 工单营业额与库存汇总
package report

import (
	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/shopspring/decimal"
)

// Turnover 已结算工单营业额
type Turnover struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Summary 工单与库存汇总
type Summary struct {
	Turnover  Turnover                     `json:"turnover"`
	ByStatus  map[entity.WOStatus][]string `json:"by_status"`
	Inventory []entity.Part                `json:"inventory"`
	LowStock  []string                     `json:"low_stock"`
}

// ComputeTurnover 汇总已付款工单的预估总价
func ComputeTurnover(orders []entity.WorkOrder) Turnover {
	var t Turnover
	for i := range orders {
		if orders[i].Status == entity.WOStatusPaid {
			t.Total += orders[i].PreviewTotal()
			t.Count++
		}
	}
	return t
}

// Summarize 只读汇总，不修改入参
func Summarize(orders []entity.WorkOrder, inventory []entity.Part) Summary {
	s := Summary{
		Turnover:  ComputeTurnover(orders),
		ByStatus:  make(map[entity.WOStatus][]string, len(entity.AllStatuses)),
		Inventory: make([]entity.Part, len(inventory)),
		LowStock:  []string{},
	}
	for _, status := range entity.AllStatuses {
		s.ByStatus[status] = []string{}
	}
	for _, wo := range orders {
		s.ByStatus[wo.Status] = append(s.ByStatus[wo.Status], wo.ID)
	}
	copy(s.Inventory, inventory)
	for _, p := range inventory {
		if p.IsLowStock() {
			s.LowStock = append(s.LowStock, p.ID)
		}
	}
	return s
}

// Money 金额保留两位小数
func Money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
