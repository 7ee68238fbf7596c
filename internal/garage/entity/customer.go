package entity

import "time"

// 客户等级
const (
	CustomerLevelNormal = 0
	CustomerLevelVIP    = 1
)

// Customer 客户
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Phone     string    `json:"phone" gorm:"size:32"`
	Level     int       `json:"level" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "garage_customers"
}

func (c Customer) IsVIP() bool {
	return c.Level == CustomerLevelVIP
}

// Vehicle 车辆
type Vehicle struct {
	VIN       string    `json:"vin" gorm:"primaryKey;size:32"`
	Plate     string    `json:"plate" gorm:"size:32;index"`
	Brand     string    `json:"brand" gorm:"size:64"`
	Model     string    `json:"model" gorm:"size:64"`
	Year      int       `json:"year"`
	OwnerID   string    `json:"owner_id" gorm:"size:32;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "garage_vehicles"
}

// AgeAt 车龄（按自然年计算）
func (v Vehicle) AgeAt(year int) int {
	return year - v.Year
}
