package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"gorm.io/gorm"
)

// Repositories 车间仓库集合
type Repositories struct {
	db        *gorm.DB
	Part      *PartRepository
	Customer  *CustomerRepository
	Employee  *EmployeeRepository
	WorkOrder *WorkOrderRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:        db,
		Part:      NewPartRepository(db),
		Customer:  NewCustomerRepository(db),
		Employee:  NewEmployeeRepository(db),
		WorkOrder: NewWorkOrderRepository(db),
	}
}

// Transaction 在同一事务中执行多个仓库操作
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Ping 数据库连通性检查
func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ListParams 分页参数
type ListParams struct {
	Page int
	Size int
}

func (p *ListParams) normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = 20
	}
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.Size
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, entity.ErrNotFound)
	}
	return err
}
