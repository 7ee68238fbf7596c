package entity

import (
	"fmt"
	"time"
)

// DefaultReorderPoint 默认补货点
const DefaultReorderPoint = 3

// Part 配件
type Part struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	UnitPrice    float64   `json:"unit_price" gorm:"type:decimal(12,2);not null;default:0"`
	Stock        int       `json:"stock" gorm:"not null;default:0"`
	ReorderPoint int       `json:"reorder_point" gorm:"not null"`
	Capacity     int       `json:"capacity" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Part) TableName() string {
	return "garage_parts"
}

// Validate 校验配件记录
func (p Part) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: part id is required", ErrConfiguration)
	}
	if p.UnitPrice < 0 || p.Stock < 0 || p.Capacity < 0 {
		return fmt.Errorf("%w: part %s has negative price, stock or capacity", ErrConfiguration, p.ID)
	}
	return nil
}

// CapacityThreshold 设计容量的 10%（向上取整），未设置容量时返回 -1
func (p Part) CapacityThreshold() int {
	if p.Capacity <= 0 {
		return -1
	}
	return (p.Capacity + 9) / 10
}

// IsLowStock 库存是否低于补货点或容量预警线
func (p Part) IsLowStock() bool {
	if p.Stock <= p.ReorderPoint {
		return true
	}
	return p.Capacity > 0 && p.Stock <= p.CapacityThreshold()
}

// PartRequirement 服务项目所需配件
type PartRequirement struct {
	Part Part `json:"part"`
	Qty  int  `json:"qty"`
}
