package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// WOStatus 工单状态
type WOStatus string

const (
	WOStatusDraft      WOStatus = "DRAFT"
	WOStatusAssigned   WOStatus = "ASSIGNED"
	WOStatusInProgress WOStatus = "IN_PROGRESS"
	WOStatusCompleted  WOStatus = "COMPLETED"
	WOStatusPaid       WOStatus = "PAID"
	WOStatusCancelled  WOStatus = "CANCELLED"
)

// AllStatuses 按流转顺序排列
var AllStatuses = []WOStatus{
	WOStatusDraft,
	WOStatusAssigned,
	WOStatusInProgress,
	WOStatusCompleted,
	WOStatusPaid,
	WOStatusCancelled,
}

func (s WOStatus) IsTerminal() bool {
	return s == WOStatusPaid || s == WOStatusCancelled
}

// ParseStatus 解析工单状态，不区分大小写，兼容旧存档的 InProgress、Paid 写法
func ParseStatus(raw string) (WOStatus, error) {
	key := statusKey(raw)
	for _, s := range AllStatuses {
		if statusKey(string(s)) == key {
			return s, nil
		}
	}
	if key == "CANCELED" {
		return WOStatusCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown work order status %q", ErrConfiguration, raw)
}

func statusKey(s string) string {
	return strings.ToUpper(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
}

// Valid 是否为已定义的状态
func (s WOStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// NoLaborOverride 工时未覆盖，使用标准工时
const NoLaborOverride = -1.0

// ServiceItem 服务项目目录
type ServiceItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	LaborHours float64 `json:"labor_hours"`
	BasePrice  float64 `json:"base_price"`
}

// WOItem 工单服务明细
type WOItem struct {
	Service       ServiceItem       `json:"service"`
	LaborOverride float64           `json:"labor_override"`
	AutoDetected  bool              `json:"auto_detected"`
	Parts         []PartRequirement `json:"parts"`
}

func NewWOItem(svc ServiceItem) WOItem {
	return WOItem{Service: svc, LaborOverride: NoLaborOverride}
}

// EffectiveHours 实际计费工时
func (i WOItem) EffectiveHours() float64 {
	if i.LaborOverride >= 0 {
		return i.LaborOverride
	}
	return i.Service.LaborHours
}

// Subtotal 单项合计 = 基础价 + 工时费 + 配件费
func (i WOItem) Subtotal(hourlyRate float64) float64 {
	total := i.Service.BasePrice + i.EffectiveHours()*hourlyRate
	for _, req := range i.Parts {
		total += req.Part.UnitPrice * float64(req.Qty)
	}
	return total
}

// WOItems 以 JSONB 存储的服务明细
type WOItems []WOItem

func (items WOItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (items *WOItems) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*items = nil
		return nil
	case []byte:
		return json.Unmarshal(v, items)
	case string:
		return json.Unmarshal([]byte(v), items)
	}
	return fmt.Errorf("unsupported work order items type %T", value)
}

// WorkOrder 维修工单
// 车辆、客户、顾问、技师均为创建或派工时的快照，后续修改主数据不影响已有工单
type WorkOrder struct {
	ID            string        `json:"id" gorm:"primaryKey;size:32"`
	VehicleVIN    string        `json:"vehicle_vin" gorm:"size:32;not null;index"`
	CustomerID    string        `json:"customer_id" gorm:"size:32;index"`
	TechID        string        `json:"tech_id" gorm:"size:32;index"`
	Vehicle       Vehicle       `json:"vehicle" gorm:"serializer:json;type:jsonb"`
	Customer      Customer      `json:"customer" gorm:"serializer:json;type:jsonb"`
	Advisor       Employee      `json:"advisor" gorm:"serializer:json;type:jsonb"`
	Tech          Employee      `json:"tech" gorm:"serializer:json;type:jsonb"`
	Items         WOItems       `json:"items" gorm:"type:jsonb"`
	Status        WOStatus      `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	Pricing       PricingPolicy `json:"pricing" gorm:"embedded;embeddedPrefix:pricing_"`
	DetectionNote string        `json:"detection_note" gorm:"type:text"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (WorkOrder) TableName() string {
	return "garage_work_orders"
}

// BeforeSave 同步快照上的索引列
func (wo *WorkOrder) BeforeSave(tx *gorm.DB) error {
	wo.VehicleVIN = wo.Vehicle.VIN
	wo.CustomerID = wo.Customer.ID
	wo.TechID = wo.Tech.ID
	return nil
}

func NewWorkOrder(id string, vehicle Vehicle, customer Customer, advisor Employee) *WorkOrder {
	return &WorkOrder{
		ID:         id,
		VehicleVIN: vehicle.VIN,
		CustomerID: customer.ID,
		Vehicle:    vehicle,
		Customer:   customer,
		Advisor:    snapshot(advisor),
		Status:     WOStatusDraft,
		Pricing:    StandardPricing(),
	}
}

func snapshot(e Employee) Employee {
	e.AssignedOrders = nil
	return e
}

func (wo *WorkOrder) guard(op string, want WOStatus) error {
	if wo.Status != want {
		return &TransitionError{Op: op, Status: wo.Status}
	}
	return nil
}

// Assign 派工：记录技师快照，并把工单号登记到技师名下
func (wo *WorkOrder) Assign(tech *Employee) error {
	if err := wo.guard("assign", WOStatusDraft); err != nil {
		return err
	}
	wo.Tech = snapshot(*tech)
	wo.TechID = tech.ID
	wo.Status = WOStatusAssigned
	tech.AssignedOrders = append(tech.AssignedOrders, wo.ID)
	return nil
}

func (wo *WorkOrder) Start() error {
	if err := wo.guard("start", WOStatusAssigned); err != nil {
		return err
	}
	wo.Status = WOStatusInProgress
	return nil
}

func (wo *WorkOrder) Complete() error {
	if err := wo.guard("complete", WOStatusInProgress); err != nil {
		return err
	}
	wo.Status = WOStatusCompleted
	return nil
}

// Settle 结算并返回应收金额，金额由调用方自行保存
func (wo *WorkOrder) Settle() (float64, error) {
	if err := wo.guard("settle", WOStatusCompleted); err != nil {
		return 0, err
	}
	total := wo.PreviewTotal()
	wo.Status = WOStatusPaid
	return total, nil
}

// Cancel 取消未终结的工单
func (wo *WorkOrder) Cancel() error {
	if wo.Status.IsTerminal() {
		return &TransitionError{Op: "cancel", Status: wo.Status}
	}
	wo.Status = WOStatusCancelled
	return nil
}

// PreviewTotal 按当前明细和技师费率估算总价，任意状态可调用
func (wo *WorkOrder) PreviewTotal() float64 {
	return wo.Pricing.Total(wo.Items, wo.Tech.HourlyRate)
}

// SetPricing 更换计价策略
func (wo *WorkOrder) SetPricing(p PricingPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	wo.Pricing = p
	return nil
}

// LaborHours 工单总计费工时
func (wo *WorkOrder) LaborHours() float64 {
	var hours float64
	for _, item := range wo.Items {
		hours += item.EffectiveHours()
	}
	return hours
}

// Requirements 按明细顺序展开的配件需求
func (wo *WorkOrder) Requirements() []PartRequirement {
	var reqs []PartRequirement
	for _, item := range wo.Items {
		reqs = append(reqs, item.Parts...)
	}
	return reqs
}
