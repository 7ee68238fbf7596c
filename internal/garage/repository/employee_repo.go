package repository

import (
	"context"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID 技师的已分配工单从工单表重建
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*entity.Employee, error) {
	var e entity.Employee
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "employee", id)
	}
	employees := []entity.Employee{e}
	if err := r.attachAssignments(ctx, employees); err != nil {
		return nil, err
	}
	return &employees[0], nil
}

// List role 为空时返回全部员工
func (r *EmployeeRepository) List(ctx context.Context, role entity.Role) ([]entity.Employee, error) {
	query := r.db.WithContext(ctx).Model(&entity.Employee{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var items []entity.Employee
	if err := query.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if err := r.attachAssignments(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *entity.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EmployeeRepository) Upsert(ctx context.Context, e *entity.Employee) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "role", "hourly_rate", "hours_worked", "base_salary", "commission", "bonus", "updated_at",
		}),
	}).Create(e).Error
}

// AddHours 累加技师工时
func (r *EmployeeRepository) AddHours(ctx context.Context, id string, hours float64) error {
	res := r.db.WithContext(ctx).Model(&entity.Employee{}).Where("id = ?", id).
		Update("hours_worked", gorm.Expr("hours_worked + ?", hours))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "employee", id)
	}
	return nil
}

func (r *EmployeeRepository) attachAssignments(ctx context.Context, employees []entity.Employee) error {
	var techIDs []string
	for i := range employees {
		employees[i].AssignedOrders = nil
		if employees[i].Role == entity.RoleTechnician {
			techIDs = append(techIDs, employees[i].ID)
		}
	}
	if len(techIDs) == 0 {
		return nil
	}

	var rows []struct {
		ID     string
		TechID string
	}
	err := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).
		Select("id, tech_id").
		Where("tech_id IN ?", techIDs).
		Order("created_at ASC, id ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	index := make(map[string]int, len(employees))
	for i := range employees {
		index[employees[i].ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.TechID]; ok {
			employees[i].AssignedOrders = append(employees[i].AssignedOrders, row.ID)
		}
	}
	return nil
}
