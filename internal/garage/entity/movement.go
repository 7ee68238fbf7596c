package entity

import "time"

// 库存变动类型
const (
	MovementConsume = "CONSUME" // 领用
	MovementRestock = "RESTOCK" // 补货入库
	MovementImport  = "IMPORT"  // 批量导入
	MovementAdjust  = "ADJUST"  // 盘点调整
)

// StockMovement 库存变动流水
type StockMovement struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PartID        string    `json:"part_id" gorm:"size:32;not null;index"`
	PartName      string    `json:"part_name" gorm:"size:128"`
	MovementType  string    `json:"movement_type" gorm:"size:20;not null"`
	Quantity      int       `json:"quantity" gorm:"not null"` // 正=入，负=出
	StockAfter    int       `json:"stock_after" gorm:"not null"`
	ReferenceType string    `json:"reference_type" gorm:"size:20"` // WO, MANUAL, CSV
	ReferenceID   string    `json:"reference_id" gorm:"size:64;index"`
	LowStock      bool      `json:"low_stock" gorm:"default:false"`
	CreatedBy     string    `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "garage_stock_movements"
}
