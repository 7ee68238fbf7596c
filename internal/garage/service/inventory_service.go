package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/inventory"
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 库存变动来源
const (
	refWorkOrder = "WO"
	refManual    = "MANUAL"
	refCSV       = "CSV"
	refBackup    = "BACKUP"
)

// InventoryService 库存服务
// 内存台账是扣减的唯一入口，每次变更后把结果库存和流水落库
type InventoryService struct {
	repos               *repository.Repositories
	store               *inventory.Storehouse
	cache               *reportCache
	defaultReorderPoint int
	logger              *zap.Logger
}

func NewInventoryService(repos *repository.Repositories, store *inventory.Storehouse, cache *reportCache, defaultReorderPoint int, logger *zap.Logger) *InventoryService {
	if defaultReorderPoint <= 0 {
		defaultReorderPoint = entity.DefaultReorderPoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		repos:               repos,
		store:               store,
		cache:               cache,
		defaultReorderPoint: defaultReorderPoint,
		logger:              logger,
	}
}

// UpsertPartRequest 新增或覆盖配件
type UpsertPartRequest struct {
	ID           string  `json:"id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	UnitPrice    float64 `json:"unit_price"`
	Stock        int     `json:"stock"`
	ReorderPoint *int    `json:"reorder_point"`
	Capacity     int     `json:"capacity"`
}

// QuantityRequest 领用或补货数量
type QuantityRequest struct {
	Qty int `json:"qty" binding:"required"`
}

// ConsumeResult 领料结果；Alerts 为本次取出的待处理预警
type ConsumeResult struct {
	Consumptions []inventory.Consumption `json:"consumptions"`
	Alerts       []string                `json:"alerts"`
}

// ImportResult CSV 导入结果
type ImportResult struct {
	Imported int           `json:"imported"`
	Parts    []entity.Part `json:"parts"`
}

// Hydrate 从数据库加载台账
func (s *InventoryService) Hydrate(ctx context.Context) error {
	parts, err := s.repos.Part.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("加载库存失败: %w", err)
	}
	if err := s.store.Seed(parts); err != nil {
		return err
	}
	s.logger.Info("inventory loaded", zap.Int("parts", len(parts)))
	return nil
}

func (s *InventoryService) Storehouse() *inventory.Storehouse {
	return s.store
}

func (s *InventoryService) Upsert(ctx context.Context, req *UpsertPartRequest, userID string) (*entity.Part, error) {
	p := entity.Part{
		ID:           req.ID,
		Name:         req.Name,
		UnitPrice:    req.UnitPrice,
		Stock:        req.Stock,
		ReorderPoint: s.defaultReorderPoint,
		Capacity:     req.Capacity,
	}
	if req.ReorderPoint != nil {
		p.ReorderPoint = *req.ReorderPoint
	}
	if err := s.save(ctx, []entity.Part{p}, entity.MovementAdjust, refManual, "", userID); err != nil {
		return nil, err
	}
	out, err := s.store.Ledger().Get(p.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// save 落库并同步台账，库存有变化时记一条流水
func (s *InventoryService) save(ctx context.Context, parts []entity.Part, movementType, refType, refID, userID string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return s.persistParts(ctx, tx, parts, movementType, refType, refID, userID)
	})
	if err != nil {
		return fmt.Errorf("保存配件失败: %w", err)
	}
	return s.applyParts(ctx, parts)
}

// persistParts 在调用方事务内写入配件和流水，台账需在提交后由 applyParts 同步
func (s *InventoryService) persistParts(ctx context.Context, tx *repository.Repositories, parts []entity.Part, movementType, refType, refID, userID string) error {
	for _, p := range parts {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	ledger := s.store.Ledger()
	for i := range parts {
		p := parts[i]
		prev, existed := ledger.Find(p.ID)
		if err := tx.Part.Upsert(ctx, &p); err != nil {
			return err
		}
		delta := p.Stock
		if existed {
			delta -= prev.Stock
		}
		if delta == 0 && existed {
			continue
		}
		if err := tx.Part.CreateMovement(ctx, &entity.StockMovement{
			ID:            uuid.New().String(),
			PartID:        p.ID,
			PartName:      p.Name,
			MovementType:  movementType,
			Quantity:      delta,
			StockAfter:    p.Stock,
			ReferenceType: refType,
			ReferenceID:   refID,
			LowStock:      p.IsLowStock(),
			CreatedBy:     userID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *InventoryService) applyParts(ctx context.Context, parts []entity.Part) error {
	ledger := s.store.Ledger()
	for _, p := range parts {
		if err := ledger.Upsert(p); err != nil {
			return err
		}
	}
	s.cache.invalidate(ctx)
	return nil
}

func (s *InventoryService) Get(id string) (*entity.Part, error) {
	p, err := s.store.Ledger().Get(id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List 按编号排序的库存快照
func (s *InventoryService) List() []entity.Part {
	return s.store.Snapshot()
}

// Alerts 当前处于低库存的配件
func (s *InventoryService) Alerts() []entity.Part {
	return s.store.Ledger().LowStock()
}

// Consume 手工领用
func (s *InventoryService) Consume(ctx context.Context, id string, qty int, userID string) (*ConsumeResult, error) {
	p, err := s.store.Consume(id, qty)
	if err != nil {
		return nil, err
	}
	c := inventory.Consumption{PartID: p.ID, PartName: p.Name, Qty: qty, StockAfter: p.Stock, LowStock: p.IsLowStock()}
	if err := s.persistConsumptions(ctx, []inventory.Consumption{c}, refManual, "", userID); err != nil {
		s.revertConsumptions(refManual, []inventory.Consumption{c})
		return nil, err
	}
	return &ConsumeResult{Consumptions: []inventory.Consumption{c}, Alerts: s.takeAlerts()}, nil
}

// Restock 补货入库，不触发预警
func (s *InventoryService) Restock(ctx context.Context, id string, qty int, userID string) (*entity.Part, error) {
	p, err := s.store.Ledger().Restock(id, qty)
	if err != nil {
		return nil, err
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Part.UpdateStock(ctx, p.ID, p.Stock); err != nil {
			return err
		}
		return tx.Part.CreateMovement(ctx, &entity.StockMovement{
			ID:            uuid.New().String(),
			PartID:        p.ID,
			PartName:      p.Name,
			MovementType:  entity.MovementRestock,
			Quantity:      qty,
			StockAfter:    p.Stock,
			ReferenceType: refManual,
			LowStock:      p.IsLowStock(),
			CreatedBy:     userID,
		})
	})
	if err != nil {
		s.logger.Error("persist restock failed", zap.String("part_id", id), zap.Error(err))
		if _, undoErr := s.store.Ledger().Adjust(id, -qty); undoErr != nil {
			s.logger.Error("revert restock failed", zap.String("part_id", id), zap.Error(undoErr))
		}
		return nil, fmt.Errorf("保存补货失败: %w", err)
	}
	s.cache.invalidate(ctx)
	return &p, nil
}

// ConsumeForOrder 按工单领料
// 台账中途失败时已完成的扣减仍然落库，并随错误一起返回；落库失败则撤销全部扣减
func (s *InventoryService) ConsumeForOrder(ctx context.Context, wo *entity.WorkOrder, userID string) (*ConsumeResult, error) {
	done, consumeErr := s.store.ConsumeForOrder(wo)
	result := &ConsumeResult{Consumptions: done}
	if len(done) > 0 {
		if err := s.persistConsumptions(ctx, done, refWorkOrder, wo.ID, userID); err != nil {
			s.revertConsumptions(wo.ID, done)
			return &ConsumeResult{Consumptions: []inventory.Consumption{}, Alerts: []string{}}, errors.Join(consumeErr, err)
		}
	}
	result.Alerts = s.takeAlerts()
	if result.Consumptions == nil {
		result.Consumptions = []inventory.Consumption{}
	}
	return result, consumeErr
}

func (s *InventoryService) persistConsumptions(ctx context.Context, done []inventory.Consumption, refType, refID, userID string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		for _, c := range done {
			if err := tx.Part.UpdateStock(ctx, c.PartID, c.StockAfter); err != nil {
				return err
			}
			if err := tx.Part.CreateMovement(ctx, &entity.StockMovement{
				ID:            uuid.New().String(),
				PartID:        c.PartID,
				PartName:      c.PartName,
				MovementType:  entity.MovementConsume,
				Quantity:      -c.Qty,
				StockAfter:    c.StockAfter,
				ReferenceType: refType,
				ReferenceID:   refID,
				LowStock:      c.LowStock,
				CreatedBy:     userID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("persist consumption failed", zap.String("reference", refID), zap.Error(err))
		return fmt.Errorf("保存领料记录失败: %w", err)
	}
	s.cache.invalidate(ctx)
	return nil
}

// revertConsumptions 落库失败后按相反顺序归还台账库存，并丢弃这次扣减产生的预警
func (s *InventoryService) revertConsumptions(ref string, done []inventory.Consumption) {
	ledger := s.store.Ledger()
	for i := len(done) - 1; i >= 0; i-- {
		if _, err := ledger.Adjust(done[i].PartID, done[i].Qty); err != nil {
			s.logger.Error("revert consumption failed",
				zap.String("reference", ref),
				zap.String("part_id", done[i].PartID),
				zap.Error(err),
			)
		}
	}
	if dropped := s.store.TakeAlerts(); len(dropped) > 0 {
		s.logger.Warn("dropped alerts of reverted consumption", zap.String("reference", ref), zap.Int("alerts", len(dropped)))
	}
}

func (s *InventoryService) takeAlerts() []string {
	alerts := s.store.TakeAlerts()
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.String())
	}
	return out
}

func (s *InventoryService) Movements(ctx context.Context, params repository.MovementListParams) ([]entity.StockMovement, int64, error) {
	return s.repos.Part.ListMovements(ctx, params)
}

// ImportCSV 导入配件文件，已有配件整体覆盖
func (s *InventoryService) ImportCSV(ctx context.Context, r io.Reader, encoding, userID string) (*ImportResult, error) {
	parts, err := inventory.ReadPartsCSV(r, encoding, s.defaultReorderPoint)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, parts, entity.MovementImport, refCSV, "", userID); err != nil {
		return nil, err
	}
	return &ImportResult{Imported: len(parts), Parts: parts}, nil
}

func (s *InventoryService) ExportCSV(w io.Writer, encoding string) error {
	return inventory.WritePartsCSV(w, s.store.Snapshot(), encoding)
}
