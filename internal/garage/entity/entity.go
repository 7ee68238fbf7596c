package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移维修车间所有表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 主数据
		&Customer{},
		&Vehicle{},
		&Employee{},
		&Part{},

		// 工单
		&WorkOrder{},
		&Settlement{},

		// 库存
		&StockMovement{},
	)
}
