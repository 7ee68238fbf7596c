package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/report"
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportService 报表服务
type ReportService struct {
	orders    *repository.WorkOrderRepository
	inventory *InventoryService
	cache     *reportCache
	archiver  *archiver
	now       func() time.Time
}

func NewReportService(orders *repository.WorkOrderRepository, inventorySvc *InventoryService, cache *reportCache, arch *archiver) *ReportService {
	return &ReportService{orders: orders, inventory: inventorySvc, cache: cache, archiver: arch, now: time.Now}
}

// Turnover 已付款工单营业额
func (s *ReportService) Turnover(ctx context.Context) (*report.Turnover, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	t := report.ComputeTurnover(orders)
	return &t, nil
}

// Summary 经营概览，命中缓存时直接返回
func (s *ReportService) Summary(ctx context.Context) (*report.Summary, error) {
	var cached report.Summary
	if s.cache.get(ctx, summaryCacheKey, &cached) {
		return &cached, nil
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	summary := report.Summarize(orders, s.inventory.List())
	s.cache.set(ctx, summaryCacheKey, summary)
	return &summary, nil
}

// Export 生成工作簿
func (s *ReportService) Export(ctx context.Context) (*excelize.File, string, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, "", err
	}
	return report.Workbook(report.Summarize(orders, s.inventory.List()), orders)
}

// Archive 生成工作簿并上传到对象存储
func (s *ReportService) Archive(ctx context.Context) (*ArchiveResult, error) {
	f, _, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成报表失败: %w", err)
	}
	object := fmt.Sprintf("reports/summary-%s.xlsx", archiveStamp(s.now()))
	return s.archiver.put(ctx, object, buf.Bytes(), xlsxContentType)
}
