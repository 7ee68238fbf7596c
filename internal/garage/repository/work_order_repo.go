package repository

import (
	"context"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

func (r *WorkOrderRepository) FindByID(ctx context.Context, id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	if err := r.db.WithContext(ctx).First(&wo, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "work order", id)
	}
	return &wo, nil
}

type WorkOrderListParams struct {
	ListParams
	Status     string
	VehicleVIN string
	CustomerID string
	TechID     string
}

func (r *WorkOrderRepository) List(ctx context.Context, params WorkOrderListParams) ([]entity.WorkOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.WorkOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.VehicleVIN != "" {
		query = query.Where("vehicle_vin = ?", params.VehicleVIN)
	}
	if params.CustomerID != "" {
		query = query.Where("customer_id = ?", params.CustomerID)
	}
	if params.TechID != "" {
		query = query.Where("tech_id = ?", params.TechID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	params.normalize()
	var items []entity.WorkOrder
	err := query.Order("created_at DESC, id DESC").Offset(params.offset()).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// ListAll 全量工单，供报表和备份使用
func (r *WorkOrderRepository) ListAll(ctx context.Context) ([]entity.WorkOrder, error) {
	var items []entity.WorkOrder
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&items).Error
	return items, err
}

// HasActiveForVehicle 车辆是否有未付款且未取消的工单
func (r *WorkOrderRepository) HasActiveForVehicle(ctx context.Context, vin string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).
		Where("vehicle_vin = ? AND status NOT IN ?", vin, []entity.WOStatus{entity.WOStatusPaid, entity.WOStatusCancelled}).
		Count(&count).Error
	return count > 0, err
}

// CountByPrefix 当日工单数，用于生成工单号
func (r *WorkOrderRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).Where("id LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (r *WorkOrderRepository) Create(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Create(wo).Error
}

func (r *WorkOrderRepository) Save(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Save(wo).Error
}

func (r *WorkOrderRepository) Upsert(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(wo).Error
}

func (r *WorkOrderRepository) CreateSettlement(ctx context.Context, s *entity.Settlement) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *WorkOrderRepository) FindSettlement(ctx context.Context, workOrderID string) (*entity.Settlement, error) {
	var s entity.Settlement
	if err := r.db.WithContext(ctx).First(&s, "work_order_id = ?", workOrderID).Error; err != nil {
		return nil, notFound(err, "settlement", workOrderID)
	}
	return &s, nil
}
