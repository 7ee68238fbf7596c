// Package advisor 根据车龄和现有库存推荐保养项目
package advisor

import (
	"strings"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
)

// 目录配件编号
const (
	PartEngineOil      = "P001"
	PartOilFilter      = "P002"
	PartCabinAirFilter = "P003"
	PartBrakePads      = "P004"
)

// 规则说明
const (
	NoteOilChange   = "Added oil and filter change"
	NoteCabinFilter = "Refreshed cabin air filter for vehicles older than 3 years"
	NoteBrakeCheck  = "Included brake pad check for 5+ year old vehicles"
	NoteFallback    = "Fallback general inspection used (no matching parts found)"
)

var (
	serviceOilChange   = entity.ServiceItem{ID: "S-OIL", Name: "Oil & Filter Change", LaborHours: 0.6, BasePrice: 35}
	serviceCabinFilter = entity.ServiceItem{ID: "S-AIR", Name: "Cabin Air Filter", LaborHours: 0.3, BasePrice: 20}
	serviceBrakeCheck  = entity.ServiceItem{ID: "S-BRAKE", Name: "Brake Pad Inspection", LaborHours: 0.8, BasePrice: 45}
	serviceInspection  = entity.ServiceItem{ID: "S-CHECK", Name: "General Inspection", LaborHours: 0.5, BasePrice: 30}
)

// Result 推荐结果
type Result struct {
	Items []entity.WOItem `json:"items"`
	Note  string          `json:"note"`
}

// Detect 以当前年份计算车龄
func Detect(vehicle entity.Vehicle, stock []entity.Part) Result {
	return DetectAt(time.Now().Year(), vehicle, stock)
}

// DetectAt 按给定年份计算车龄，所有命中的规则都会加入结果
func DetectAt(year int, vehicle entity.Vehicle, stock []entity.Part) Result {
	age := vehicle.AgeAt(year)

	oil, hasOil := findPart(stock, PartEngineOil, "engine oil")
	filter, hasFilter := findPart(stock, PartOilFilter, "oil filter")
	cabin, hasCabin := findPart(stock, PartCabinAirFilter, "cabin air filter")
	pads, hasPads := findPart(stock, PartBrakePads, "brake pad")

	var (
		items []entity.WOItem
		notes []string
	)
	if hasOil && hasFilter {
		items = append(items, makeItem(serviceOilChange, entity.PartRequirement{Part: oil, Qty: 4}, entity.PartRequirement{Part: filter, Qty: 1}))
		notes = append(notes, NoteOilChange)
	}
	if age >= 3 && hasCabin {
		items = append(items, makeItem(serviceCabinFilter, entity.PartRequirement{Part: cabin, Qty: 1}))
		notes = append(notes, NoteCabinFilter)
	}
	if age >= 5 && hasPads {
		items = append(items, makeItem(serviceBrakeCheck, entity.PartRequirement{Part: pads, Qty: 1}))
		notes = append(notes, NoteBrakeCheck)
	}
	if len(items) == 0 {
		items = append(items, makeItem(serviceInspection))
		notes = append(notes, NoteFallback)
	}

	return Result{Items: items, Note: strings.Join(notes, "; ")}
}

func makeItem(svc entity.ServiceItem, parts ...entity.PartRequirement) entity.WOItem {
	item := entity.NewWOItem(svc)
	item.LaborOverride = svc.LaborHours
	item.AutoDetected = true
	item.Parts = parts
	return item
}

// findPart 优先按目录编号匹配，其次按名称（不区分大小写）
func findPart(stock []entity.Part, id, name string) (entity.Part, bool) {
	for _, p := range stock {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range stock {
		if strings.Contains(strings.ToLower(p.Name), name) {
			return p, true
		}
	}
	return entity.Part{}, false
}
