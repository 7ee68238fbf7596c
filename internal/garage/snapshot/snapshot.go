package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
)

// Document 车间数据快照
// 顶层键沿用桌面版存档格式，技师以外的员工放在 staff 中
type Document struct {
	Customers   []entity.Customer  `json:"customers"`
	Vehicles    []entity.Vehicle   `json:"vehicles"`
	Technicians []entity.Employee  `json:"technicians"`
	Staff       []entity.Employee  `json:"staff,omitempty"`
	Parts       []entity.Part      `json:"parts"`
	WorkOrders  []entity.WorkOrder `json:"workOrders"`
}

// Build 组装快照并按工单重建技师的已分配列表
func Build(customers []entity.Customer, vehicles []entity.Vehicle, employees []entity.Employee,
	parts []entity.Part, orders []entity.WorkOrder) Document {
	doc := Document{
		Customers:   nonNil(customers),
		Vehicles:    nonNil(vehicles),
		Technicians: []entity.Employee{},
		Parts:       nonNil(parts),
		WorkOrders:  nonNil(orders),
	}
	for _, e := range employees {
		if e.Role == entity.RoleTechnician {
			doc.Technicians = append(doc.Technicians, e)
		} else {
			doc.Staff = append(doc.Staff, e)
		}
	}
	doc.RebuildAssignments()
	return doc
}

// Employees 全部员工
func (d Document) Employees() []entity.Employee {
	out := make([]entity.Employee, 0, len(d.Technicians)+len(d.Staff))
	out = append(out, d.Technicians...)
	return append(out, d.Staff...)
}

// RebuildAssignments 技师的已分配工单以工单中的技师快照为准，不区分工单状态
func (d *Document) RebuildAssignments() {
	index := make(map[string]int, len(d.Technicians))
	for i := range d.Technicians {
		d.Technicians[i].AssignedOrders = nil
		index[d.Technicians[i].ID] = i
	}
	for _, wo := range d.WorkOrders {
		if wo.Tech.ID == "" {
			continue
		}
		if i, ok := index[wo.Tech.ID]; ok {
			d.Technicians[i].AssignedOrders = append(d.Technicians[i].AssignedOrders, wo.ID)
		}
	}
}

// Validate 检查引用完整性
func (d Document) Validate() error {
	customers := make(map[string]bool, len(d.Customers))
	for _, c := range d.Customers {
		if c.ID == "" {
			return fmt.Errorf("%w: customer id is required", entity.ErrConfiguration)
		}
		customers[c.ID] = true
	}
	for _, v := range d.Vehicles {
		if v.VIN == "" {
			return fmt.Errorf("%w: vehicle vin is required", entity.ErrConfiguration)
		}
		if v.OwnerID != "" && !customers[v.OwnerID] {
			return fmt.Errorf("%w: vehicle %s owner %s not found", entity.ErrConfiguration, v.VIN, v.OwnerID)
		}
	}
	for _, e := range d.Employees() {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, p := range d.Parts {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(d.WorkOrders))
	for _, wo := range d.WorkOrders {
		if wo.ID == "" {
			return fmt.Errorf("%w: work order id is required", entity.ErrConfiguration)
		}
		if seen[wo.ID] {
			return fmt.Errorf("%w: duplicate work order %s", entity.ErrConfiguration, wo.ID)
		}
		seen[wo.ID] = true
		if !wo.Status.Valid() {
			return fmt.Errorf("%w: work order %s has unknown status %q", entity.ErrConfiguration, wo.ID, wo.Status)
		}
		if err := wo.Pricing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode 读取快照，校验后重建技师分配关系
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: decode snapshot: %v", entity.ErrConfiguration, err)
	}
	if err := doc.Normalize(); err != nil {
		return Document{}, err
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	doc.RebuildAssignments()
	return doc, nil
}

// Normalize 统一工单状态和计价方式的写法，缺省为草稿、标准价
func (d *Document) Normalize() error {
	for i := range d.WorkOrders {
		wo := &d.WorkOrders[i]
		if wo.Status == "" {
			wo.Status = entity.WOStatusDraft
		} else {
			status, err := entity.ParseStatus(string(wo.Status))
			if err != nil {
				return fmt.Errorf("work order %s: %w", wo.ID, err)
			}
			wo.Status = status
		}
		pricing, err := entity.ParsePricing(string(wo.Pricing.Kind), wo.Pricing.Rate)
		if err != nil {
			return fmt.Errorf("work order %s: %w", wo.ID, err)
		}
		wo.Pricing = pricing
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
