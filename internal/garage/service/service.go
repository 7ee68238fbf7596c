package service

import (
	"context"

	"github.com/bdhxxnix/auto-repair/internal/config"
	"github.com/bdhxxnix/auto-repair/internal/garage/inventory"
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/bdhxxnix/auto-repair/internal/garage/sse"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 车间服务集合
type Services struct {
	Customer  *CustomerService
	Employee  *EmployeeService
	Inventory *InventoryService
	WorkOrder *WorkOrderService
	Report    *ReportService
	Backup    *BackupService
}

// NewServices rdb 为 nil 时不缓存报表也不发布预警；未配置 MinIO 时不归档
func NewServices(repos *repository.Repositories, rdb *redis.Client, hub *sse.Hub, cfg *config.Config, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 初始化MinIO客户端
	var store ObjectStore
	if cfg.MinIO.Endpoint != "" {
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio disabled", zap.Error(err))
		} else {
			store = client
		}
	}

	return newServices(repos, rdb, hub, store, cfg, logger)
}

func newServices(repos *repository.Repositories, rdb *redis.Client, hub *sse.Hub, store ObjectStore, cfg *config.Config, logger *zap.Logger) *Services {
	garage := cfg.Garage
	cache := newReportCache(rdb, garage.ReportCacheTTL, logger)
	arch := newArchiver(store, cfg.MinIO.Bucket)

	storehouse := inventory.NewStorehouse(inventory.NewLedger())
	storehouse.Subscribe(NewAlertPublisher(rdb, garage.AlertChannel, hub, logger))

	inventorySvc := NewInventoryService(repos, storehouse, cache, garage.DefaultReorderPoint, logger)
	return &Services{
		Customer:  NewCustomerService(repos.Customer),
		Employee:  NewEmployeeService(repos.Employee, garage.DefaultHourlyRate),
		Inventory: inventorySvc,
		WorkOrder: NewWorkOrderService(repos, inventorySvc, cache, hub, garage, logger),
		Report:    NewReportService(repos.WorkOrder, inventorySvc, cache, arch),
		Backup:    NewBackupService(repos, inventorySvc, arch, logger),
	}
}

// Init 从数据库加载库存台账，按需写入演示数据
func (s *Services) Init(ctx context.Context, seedDemo bool) error {
	if err := s.Inventory.Hydrate(ctx); err != nil {
		return err
	}
	if seedDemo {
		return SeedDemo(ctx, s)
	}
	return nil
}
