package repository

import (
	"context"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	var p entity.Part
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "part", id)
	}
	return &p, nil
}

// ListAll 全量配件，用于启动时加载台账
func (r *PartRepository) ListAll(ctx context.Context) ([]entity.Part, error) {
	var parts []entity.Part
	err := r.db.WithContext(ctx).Order("id ASC").Find(&parts).Error
	return parts, err
}

// Upsert 按编号新增或整体覆盖
func (r *PartRepository) Upsert(ctx context.Context, p *entity.Part) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "unit_price", "stock", "reorder_point", "capacity", "updated_at"}),
	}).Create(p).Error
}

// UpdateStock 只更新库存数量
func (r *PartRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	res := r.db.WithContext(ctx).Model(&entity.Part{}).Where("id = ?", id).Update("stock", stock)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "part", id)
	}
	return nil
}

func (r *PartRepository) CreateMovement(ctx context.Context, m *entity.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// HasMovements 某来源单据是否已有指定类型的库存流水
func (r *PartRepository) HasMovements(ctx context.Context, movementType, refType, refID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.StockMovement{}).
		Where("movement_type = ? AND reference_type = ? AND reference_id = ?", movementType, refType, refID).
		Count(&count).Error
	return count > 0, err
}

type MovementListParams struct {
	ListParams
	PartID      string
	ReferenceID string
}

func (r *PartRepository) ListMovements(ctx context.Context, params MovementListParams) ([]entity.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockMovement{})
	if params.PartID != "" {
		query = query.Where("part_id = ?", params.PartID)
	}
	if params.ReferenceID != "" {
		query = query.Where("reference_id = ?", params.ReferenceID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	params.normalize()
	var items []entity.StockMovement
	err := query.Order("created_at DESC").Offset(params.offset()).Limit(params.Size).Find(&items).Error
	return items, total, err
}
