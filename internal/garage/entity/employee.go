package entity

import (
	"fmt"
	"time"
)

// Role 员工角色
type Role string

const (
	RoleTechnician     Role = "TECHNICIAN"      // 维修技师
	RoleServiceAdvisor Role = "SERVICE_ADVISOR" // 服务顾问
	RoleManager        Role = "MANAGER"         // 店长
)

// 薪资默认值
const (
	DefaultHourlyRate    = 120.0
	DefaultAdvisorSalary = 6000.0
	DefaultManagerSalary = 10000.0
)

// Employee 员工；技师、服务顾问、店长共用一张表，按 Role 区分计薪字段
type Employee struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Role        Role      `json:"role" gorm:"size:20;not null;index"`
	HourlyRate  float64   `json:"hourly_rate" gorm:"type:decimal(10,2);default:0"`
	HoursWorked float64   `json:"hours_worked" gorm:"type:decimal(10,2);default:0"`
	BaseSalary  float64   `json:"base_salary" gorm:"type:decimal(12,2);default:0"`
	Commission  float64   `json:"commission" gorm:"type:decimal(12,2);default:0"`
	Bonus       float64   `json:"bonus" gorm:"type:decimal(12,2);default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 技师当前分配的工单，由工单表重建，不落库
	AssignedOrders []string `json:"assigned_orders,omitempty" gorm:"-"`
}

func (Employee) TableName() string {
	return "garage_employees"
}

func NewTechnician(id, name string, hourlyRate float64) Employee {
	if hourlyRate <= 0 {
		hourlyRate = DefaultHourlyRate
	}
	return Employee{ID: id, Name: name, Role: RoleTechnician, HourlyRate: hourlyRate}
}

func NewServiceAdvisor(id, name string, commission float64) Employee {
	return Employee{ID: id, Name: name, Role: RoleServiceAdvisor, BaseSalary: DefaultAdvisorSalary, Commission: commission}
}

func NewManager(id, name string, bonus float64) Employee {
	return Employee{ID: id, Name: name, Role: RoleManager, BaseSalary: DefaultManagerSalary, Bonus: bonus}
}

// ApplyDefaults 按角色补齐未设置的薪资字段
func (e *Employee) ApplyDefaults() {
	switch e.Role {
	case RoleTechnician:
		if e.HourlyRate <= 0 {
			e.HourlyRate = DefaultHourlyRate
		}
	case RoleServiceAdvisor:
		if e.BaseSalary <= 0 {
			e.BaseSalary = DefaultAdvisorSalary
		}
	case RoleManager:
		if e.BaseSalary <= 0 {
			e.BaseSalary = DefaultManagerSalary
		}
	}
}

func (e Employee) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: employee id is required", ErrConfiguration)
	}
	switch e.Role {
	case RoleTechnician, RoleServiceAdvisor, RoleManager:
	default:
		return fmt.Errorf("%w: unknown employee role %q", ErrConfiguration, e.Role)
	}
	if e.HourlyRate < 0 || e.HoursWorked < 0 || e.BaseSalary < 0 || e.Commission < 0 || e.Bonus < 0 {
		return fmt.Errorf("%w: employee %s has negative pay fields", ErrConfiguration, e.ID)
	}
	return nil
}

// Pay 计算应发薪资
func Pay(e Employee) float64 {
	switch e.Role {
	case RoleTechnician:
		return e.HourlyRate * e.HoursWorked
	case RoleServiceAdvisor:
		return e.BaseSalary + e.Commission
	case RoleManager:
		return e.BaseSalary + e.Bonus
	}
	return 0
}
