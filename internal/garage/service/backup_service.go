package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/bdhxxnix/auto-repair/internal/garage/snapshot"
	"go.uber.org/zap"
)

// BackupService 全量数据备份与恢复
type BackupService struct {
	repos     *repository.Repositories
	inventory *InventoryService
	archiver  *archiver
	logger    *zap.Logger
	now       func() time.Time
}

func NewBackupService(repos *repository.Repositories, inventorySvc *InventoryService, arch *archiver, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{repos: repos, inventory: inventorySvc, archiver: arch, logger: logger, now: time.Now}
}

// Export 导出快照
func (s *BackupService) Export(ctx context.Context) (*snapshot.Document, error) {
	customers, err := s.repos.Customer.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.repos.Customer.ListVehicles(ctx, "")
	if err != nil {
		return nil, err
	}
	employees, err := s.repos.Employee.List(ctx, "")
	if err != nil {
		return nil, err
	}
	orders, err := s.repos.WorkOrder.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	doc := snapshot.Build(customers, vehicles, employees, s.inventory.List(), orders)
	return &doc, nil
}

// Restore 在同一事务内按快照覆盖写入，快照之外的已有记录保留；提交后再同步库存台账
func (s *BackupService) Restore(ctx context.Context, doc *snapshot.Document, userID string) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		for i := range doc.Customers {
			if err := tx.Customer.Upsert(ctx, &doc.Customers[i]); err != nil {
				return err
			}
		}
		for i := range doc.Vehicles {
			if err := tx.Customer.UpsertVehicle(ctx, &doc.Vehicles[i]); err != nil {
				return err
			}
		}
		for _, e := range doc.Employees() {
			e := e
			e.AssignedOrders = nil
			if err := tx.Employee.Upsert(ctx, &e); err != nil {
				return err
			}
		}
		for i := range doc.WorkOrders {
			if err := tx.WorkOrder.Upsert(ctx, &doc.WorkOrders[i]); err != nil {
				return err
			}
		}
		return s.inventory.persistParts(ctx, tx, doc.Parts, entity.MovementImport, refBackup, "", userID)
	})
	if err != nil {
		return fmt.Errorf("恢复备份失败: %w", err)
	}
	if err := s.inventory.applyParts(ctx, doc.Parts); err != nil {
		return err
	}
	s.logger.Info("backup restored",
		zap.Int("customers", len(doc.Customers)),
		zap.Int("parts", len(doc.Parts)),
		zap.Int("work_orders", len(doc.WorkOrders)),
	)
	return nil
}

// Archive 导出快照并上传到对象存储
func (s *BackupService) Archive(ctx context.Context) (*ArchiveResult, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, *doc); err != nil {
		return nil, err
	}
	object := fmt.Sprintf("backups/garage-%s.json", archiveStamp(s.now()))
	return s.archiver.put(ctx, object, buf.Bytes(), "application/json")
}
