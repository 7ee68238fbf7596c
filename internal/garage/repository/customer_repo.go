package repository

import (
	"context"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	var c entity.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "customer", id)
	}
	return &c, nil
}

type CustomerListParams struct {
	ListParams
	Keyword string
	Level   *int
}

func (r *CustomerRepository) List(ctx context.Context, params CustomerListParams) ([]entity.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Customer{})
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ?", kw, kw)
	}
	if params.Level != nil {
		query = query.Where("level = ?", *params.Level)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	params.normalize()
	var items []entity.Customer
	err := query.Order("id ASC").Offset(params.offset()).Limit(params.Size).Find(&items).Error
	return items, total, err
}

func (r *CustomerRepository) ListAll(ctx context.Context) ([]entity.Customer, error) {
	var items []entity.Customer
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CustomerRepository) Upsert(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "level", "updated_at"}),
	}).Create(c).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&entity.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "customer", id)
	}
	return nil
}

func (r *CustomerRepository) FindVehicle(ctx context.Context, vin string) (*entity.Vehicle, error) {
	var v entity.Vehicle
	if err := r.db.WithContext(ctx).First(&v, "vin = ?", vin).Error; err != nil {
		return nil, notFound(err, "vehicle", vin)
	}
	return &v, nil
}

// ListVehicles ownerID 为空时返回全部
func (r *CustomerRepository) ListVehicles(ctx context.Context, ownerID string) ([]entity.Vehicle, error) {
	query := r.db.WithContext(ctx).Model(&entity.Vehicle{})
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	var items []entity.Vehicle
	err := query.Order("vin ASC").Find(&items).Error
	return items, err
}

func (r *CustomerRepository) CreateVehicle(ctx context.Context, v *entity.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *CustomerRepository) UpsertVehicle(ctx context.Context, v *entity.Vehicle) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vin"}},
		DoUpdates: clause.AssignmentColumns([]string{"plate", "brand", "model", "year", "owner_id", "updated_at"}),
	}).Create(v).Error
}
