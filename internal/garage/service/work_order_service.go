package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/config"
	"github.com/bdhxxnix/auto-repair/internal/garage/advisor"
	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/report"
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/bdhxxnix/auto-repair/internal/garage/sse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkOrderService 工单服务
// 状态流转在服务内串行执行：读取、变更、保存之间不允许其他流转插入
type WorkOrderService struct {
	repos     *repository.Repositories
	inventory *InventoryService
	cache     *reportCache
	hub       *sse.Hub
	cfg       config.GarageConfig
	logger    *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewWorkOrderService(repos *repository.Repositories, inventorySvc *InventoryService, cache *reportCache, hub *sse.Hub, cfg config.GarageConfig, logger *zap.Logger) *WorkOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkOrderService{
		repos:     repos,
		inventory: inventorySvc,
		cache:     cache,
		hub:       hub,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// PartQty 配件需求
type PartQty struct {
	PartID string `json:"part_id" binding:"required"`
	Qty    int    `json:"qty"`
}

// WOItemRequest 手工录入的服务明细
type WOItemRequest struct {
	ServiceID     string    `json:"service_id"`
	Name          string    `json:"name" binding:"required"`
	LaborHours    float64   `json:"labor_hours"`
	BasePrice     float64   `json:"base_price"`
	LaborOverride *float64  `json:"labor_override"`
	Parts         []PartQty `json:"parts"`
}

// PricingRequest 计价方式，rate 缺省时取配置中的折扣率，显式传 0 则按 0 计
type PricingRequest struct {
	Kind string   `json:"kind" binding:"required"`
	Rate *float64 `json:"rate"`
}

// CreateWorkOrderRequest 开单请求
type CreateWorkOrderRequest struct {
	VehicleVIN string          `json:"vehicle_vin" binding:"required"`
	AdvisorID  string          `json:"advisor_id" binding:"required"`
	TechID     string          `json:"tech_id"`
	Items      []WOItemRequest `json:"items"`
	AutoDetect bool            `json:"auto_detect"`
	Pricing    *PricingRequest `json:"pricing"`
}

// AssignRequest 派工请求
type AssignRequest struct {
	TechID string `json:"tech_id" binding:"required"`
}

// Preview 报价预览
type Preview struct {
	WorkOrderID string               `json:"work_order_id"`
	Status      entity.WOStatus      `json:"status"`
	Pricing     entity.PricingPolicy `json:"pricing"`
	HourlyRate  float64              `json:"hourly_rate"`
	LaborHours  float64              `json:"labor_hours"`
	Subtotal    float64              `json:"subtotal"`
	Total       float64              `json:"total"`
}

// SettleResult 结算结果
type SettleResult struct {
	WorkOrder  *entity.WorkOrder  `json:"work_order"`
	Total      float64            `json:"total"`
	Settlement *entity.Settlement `json:"settlement"`
}

// OrderConsumeResult 工单领料结果
type OrderConsumeResult struct {
	WorkOrderID string `json:"work_order_id"`
	*ConsumeResult
}

func (s *WorkOrderService) List(ctx context.Context, params repository.WorkOrderListParams) ([]entity.WorkOrder, int64, error) {
	params.Status = normalizeStatus(params.Status)
	return s.repos.WorkOrder.List(ctx, params)
}

func (s *WorkOrderService) Get(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return s.repos.WorkOrder.FindByID(ctx, id)
}

// Detect 试算推荐项目，不开单
func (s *WorkOrderService) Detect(ctx context.Context, vin string) (*advisor.Result, error) {
	vehicle, err := s.repos.Customer.FindVehicle(ctx, vin)
	if err != nil {
		return nil, err
	}
	result := advisor.Detect(*vehicle, s.inventory.List())
	return &result, nil
}

// Create 开单
// 同一车辆只能有一张未付款且未取消的工单
func (s *WorkOrderService) Create(ctx context.Context, req *CreateWorkOrderRequest) (*entity.WorkOrder, error) {
	vehicle, err := s.repos.Customer.FindVehicle(ctx, req.VehicleVIN)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID == "" {
		return nil, fmt.Errorf("%w: vehicle %s has no owner", entity.ErrConfiguration, vehicle.VIN)
	}
	owner, err := s.repos.Customer.FindByID(ctx, vehicle.OwnerID)
	if err != nil {
		return nil, err
	}
	adv, err := s.employeeWithRole(ctx, req.AdvisorID, entity.RoleServiceAdvisor)
	if err != nil {
		return nil, err
	}
	var tech *entity.Employee
	if req.TechID != "" {
		if tech, err = s.employeeWithRole(ctx, req.TechID, entity.RoleTechnician); err != nil {
			return nil, err
		}
	}
	pricing, err := s.pricingFor(*owner, req.Pricing)
	if err != nil {
		return nil, err
	}

	var (
		items entity.WOItems
		note  string
	)
	if req.AutoDetect || len(req.Items) == 0 {
		result := advisor.Detect(*vehicle, s.inventory.List())
		items, note = result.Items, result.Note
	} else if items, err = s.resolveItems(req.Items); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.repos.WorkOrder.HasActiveForVehicle(ctx, vehicle.VIN)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("vehicle %s: %w", vehicle.VIN, entity.ErrDuplicateActiveOrder)
	}
	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	wo := entity.NewWorkOrder(id, *vehicle, *owner, *adv)
	wo.Items = items
	wo.DetectionNote = note
	wo.Pricing = pricing
	if tech != nil {
		if err := wo.Assign(tech); err != nil {
			return nil, err
		}
	}
	if err := s.repos.WorkOrder.Create(ctx, wo); err != nil {
		return nil, fmt.Errorf("创建工单失败: %w", err)
	}
	s.changed(ctx, wo, "create")
	return wo, nil
}

func (s *WorkOrderService) employeeWithRole(ctx context.Context, id string, role entity.Role) (*entity.Employee, error) {
	e, err := s.repos.Employee.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Role != role {
		return nil, fmt.Errorf("%w: employee %s is %s, not %s", entity.ErrConfiguration, id, e.Role, role)
	}
	return e, nil
}

// pricingFor 未指定时会员按会员折扣，其他客户按标准价
func (s *WorkOrderService) pricingFor(c entity.Customer, req *PricingRequest) (entity.PricingPolicy, error) {
	if req == nil {
		if c.IsVIP() {
			return entity.MemberDiscount(s.memberRate()), nil
		}
		return entity.StandardPricing(), nil
	}
	var rate float64
	if req.Rate != nil {
		rate = *req.Rate
	}
	p, err := entity.ParsePricing(req.Kind, rate)
	if err != nil {
		return entity.PricingPolicy{}, err
	}
	if req.Rate == nil {
		switch p.Kind {
		case entity.PricingMember:
			p.Rate = s.memberRate()
		case entity.PricingPromotional:
			p.Rate = s.promotionRate()
		}
	}
	return p, nil
}

func (s *WorkOrderService) memberRate() float64 {
	if s.cfg.MemberRate > 0 {
		return s.cfg.MemberRate
	}
	return entity.DefaultMemberRate
}

func (s *WorkOrderService) promotionRate() float64 {
	if s.cfg.PromotionRate > 0 {
		return s.cfg.PromotionRate
	}
	return entity.DefaultPromotionRate
}

func (s *WorkOrderService) resolveItems(reqs []WOItemRequest) (entity.WOItems, error) {
	items := make(entity.WOItems, 0, len(reqs))
	for i, r := range reqs {
		if r.LaborHours < 0 || r.BasePrice < 0 {
			return nil, fmt.Errorf("%w: item %d has negative hours or price", entity.ErrConfiguration, i+1)
		}
		svcID := r.ServiceID
		if svcID == "" {
			svcID = fmt.Sprintf("S-%02d", i+1)
		}
		item := entity.NewWOItem(entity.ServiceItem{ID: svcID, Name: r.Name, LaborHours: r.LaborHours, BasePrice: r.BasePrice})
		if r.LaborOverride != nil {
			item.LaborOverride = *r.LaborOverride
		}
		for _, pq := range r.Parts {
			if pq.Qty <= 0 {
				return nil, fmt.Errorf("%w: part %s requires non-positive quantity %d", entity.ErrConfiguration, pq.PartID, pq.Qty)
			}
			part, err := s.inventory.Get(pq.PartID)
			if err != nil {
				return nil, err
			}
			item.Parts = append(item.Parts, entity.PartRequirement{Part: *part, Qty: pq.Qty})
		}
		items = append(items, item)
	}
	return items, nil
}

// nextID 工单号：WO + 日期 + 当日序号
func (s *WorkOrderService) nextID(ctx context.Context) (string, error) {
	prefix := "WO" + s.now().Format("20060102")
	count, err := s.repos.WorkOrder.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("生成工单号失败: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// transition 读取、变更、保存
func (s *WorkOrderService) transition(ctx context.Context, id, action string, apply func(wo *entity.WorkOrder, tx *repository.Repositories) error) (*entity.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wo, err := s.repos.WorkOrder.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := apply(wo, tx); err != nil {
			return err
		}
		return tx.WorkOrder.Save(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, wo, action)
	return wo, nil
}

func (s *WorkOrderService) changed(ctx context.Context, wo *entity.WorkOrder, action string) {
	s.cache.invalidate(ctx)
	if s.hub != nil {
		s.hub.PublishWorkOrderUpdate(wo.ID, string(wo.Status), action)
	}
	s.logger.Info("work order "+action,
		zap.String("work_order_id", wo.ID),
		zap.String("status", string(wo.Status)),
	)
}

// Assign 派工
func (s *WorkOrderService) Assign(ctx context.Context, id, techID string) (*entity.WorkOrder, error) {
	tech, err := s.employeeWithRole(ctx, techID, entity.RoleTechnician)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, "assign", func(wo *entity.WorkOrder, _ *repository.Repositories) error {
		return wo.Assign(tech)
	})
}

func (s *WorkOrderService) Start(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return s.transition(ctx, id, "start", func(wo *entity.WorkOrder, _ *repository.Repositories) error {
		return wo.Start()
	})
}

// Complete 完工，计费工时计入技师
func (s *WorkOrderService) Complete(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return s.transition(ctx, id, "complete", func(wo *entity.WorkOrder, tx *repository.Repositories) error {
		if err := wo.Complete(); err != nil {
			return err
		}
		if hours := wo.LaborHours(); hours > 0 {
			return tx.Employee.AddHours(ctx, wo.TechID, hours)
		}
		return nil
	})
}

// Settle 结算并保存结算记录
func (s *WorkOrderService) Settle(ctx context.Context, id, userID string) (*SettleResult, error) {
	var result SettleResult
	wo, err := s.transition(ctx, id, "settle", func(wo *entity.WorkOrder, tx *repository.Repositories) error {
		total, err := wo.Settle()
		if err != nil {
			return err
		}
		settlement := entity.NewSettlement(wo, total, userID)
		settlement.ID = uuid.New().String()
		if err := tx.WorkOrder.CreateSettlement(ctx, settlement); err != nil {
			return err
		}
		result.Total = report.Money(total)
		result.Settlement = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.WorkOrder = wo
	return &result, nil
}

func (s *WorkOrderService) Cancel(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return s.transition(ctx, id, "cancel", func(wo *entity.WorkOrder, _ *repository.Repositories) error {
		return wo.Cancel()
	})
}

// SetPricing 更换计价方式，已付款或已取消的工单不可修改
func (s *WorkOrderService) SetPricing(ctx context.Context, id string, req *PricingRequest) (*entity.WorkOrder, error) {
	return s.transition(ctx, id, "pricing", func(wo *entity.WorkOrder, _ *repository.Repositories) error {
		if wo.Status.IsTerminal() {
			return &entity.TransitionError{Op: "set pricing", Status: wo.Status}
		}
		p, err := s.pricingFor(wo.Customer, req)
		if err != nil {
			return err
		}
		return wo.SetPricing(p)
	})
}

// Preview 报价预览，任意状态可用
func (s *WorkOrderService) Preview(ctx context.Context, id string) (*Preview, error) {
	wo, err := s.repos.WorkOrder.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Preview{
		WorkOrderID: wo.ID,
		Status:      wo.Status,
		Pricing:     wo.Pricing,
		HourlyRate:  wo.Tech.HourlyRate,
		LaborHours:  wo.LaborHours(),
		Subtotal:    report.Money(entity.Subtotal(wo.Items, wo.Tech.HourlyRate)),
		Total:       report.Money(wo.PreviewTotal()),
	}, nil
}

// ConsumeParts 按工单明细领料
func (s *WorkOrderService) ConsumeParts(ctx context.Context, id, userID string) (*OrderConsumeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wo, err := s.repos.WorkOrder.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status.IsTerminal() {
		return nil, &entity.TransitionError{Op: "consume parts", Status: wo.Status}
	}
	consumed, err := s.repos.Part.HasMovements(ctx, entity.MovementConsume, refWorkOrder, wo.ID)
	if err != nil {
		return nil, err
	}
	if consumed {
		return nil, fmt.Errorf("work order %s: %w", wo.ID, entity.ErrPartsAlreadyConsumed)
	}
	res, err := s.inventory.ConsumeForOrder(ctx, wo, userID)
	out := &OrderConsumeResult{WorkOrderID: wo.ID, ConsumeResult: res}
	if err != nil {
		if res != nil && len(res.Consumptions) > 0 {
			s.logger.Warn("work order consumption partially applied",
				zap.String("work_order_id", wo.ID),
				zap.Int("applied", len(res.Consumptions)),
				zap.Error(err),
			)
		}
		return out, err
	}
	if s.hub != nil {
		s.hub.PublishWorkOrderUpdate(wo.ID, string(wo.Status), "consume_parts")
	}
	return out, nil
}

func normalizeStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}
