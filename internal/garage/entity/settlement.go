package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement 结算记录，保存 settle 返回的金额
type Settlement struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkOrderID string          `json:"work_order_id" gorm:"size:32;not null;uniqueIndex"`
	CustomerID  string          `json:"customer_id" gorm:"size:32;index"`
	PricingKind PricingKind     `json:"pricing_kind" gorm:"size:20;not null"`
	PricingRate float64         `json:"pricing_rate" gorm:"type:decimal(6,4)"`
	Total       decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	SettledBy   string          `json:"settled_by" gorm:"size:64"`
	SettledAt   time.Time       `json:"settled_at"`
}

func (Settlement) TableName() string {
	return "garage_settlements"
}

// NewSettlement 金额保留两位小数
func NewSettlement(wo *WorkOrder, total float64, userID string) *Settlement {
	return &Settlement{
		WorkOrderID: wo.ID,
		CustomerID:  wo.Customer.ID,
		PricingKind: wo.Pricing.Kind,
		PricingRate: wo.Pricing.Rate,
		Total:       decimal.NewFromFloat(total).Round(2),
		SettledBy:   userID,
		SettledAt:   time.Now(),
	}
}
