package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary   = "Summary"
	SheetOrders    = "Orders"
	SheetInventory = "Inventory"
)

var (
	orderHeaders     = []string{"工单号", "VIN", "车牌", "客户", "技师", "状态", "计价方式", "折扣率", "工时", "预估金额"}
	inventoryHeaders = []string{"配件编号", "名称", "单价", "库存", "补货点", "设计容量", "低库存"}
)

// Workbook 导出汇总 Excel
func Workbook(s Summary, orders []entity.WorkOrder) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, "", err
	}
	for _, name := range []string{SheetOrders, SheetInventory} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// 汇总页
	writeHeaders(f, SheetSummary, []string{"状态", "数量", "工单"}, headerStyle)
	for i, status := range entity.AllStatuses {
		row := i + 2
		ids := s.ByStatus[status]
		f.SetCellValue(SheetSummary, fmt.Sprintf("A%d", row), string(status))
		f.SetCellValue(SheetSummary, fmt.Sprintf("B%d", row), len(ids))
		f.SetCellValue(SheetSummary, fmt.Sprintf("C%d", row), strings.Join(ids, ", "))
	}
	totalRow := len(entity.AllStatuses) + 3
	f.SetCellValue(SheetSummary, fmt.Sprintf("A%d", totalRow), "营业额")
	f.SetCellValue(SheetSummary, fmt.Sprintf("B%d", totalRow), s.Turnover.Count)
	f.SetCellValue(SheetSummary, fmt.Sprintf("C%d", totalRow), Money(s.Turnover.Total))
	f.SetCellStyle(SheetSummary, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("C%d", totalRow), headerStyle)

	// 工单页
	writeHeaders(f, SheetOrders, orderHeaders, headerStyle)
	for i := range orders {
		wo := &orders[i]
		row := i + 2
		f.SetCellValue(SheetOrders, fmt.Sprintf("A%d", row), wo.ID)
		f.SetCellValue(SheetOrders, fmt.Sprintf("B%d", row), wo.Vehicle.VIN)
		f.SetCellValue(SheetOrders, fmt.Sprintf("C%d", row), wo.Vehicle.Plate)
		f.SetCellValue(SheetOrders, fmt.Sprintf("D%d", row), wo.Customer.Name)
		f.SetCellValue(SheetOrders, fmt.Sprintf("E%d", row), wo.Tech.Name)
		f.SetCellValue(SheetOrders, fmt.Sprintf("F%d", row), string(wo.Status))
		f.SetCellValue(SheetOrders, fmt.Sprintf("G%d", row), string(wo.Pricing.Kind))
		f.SetCellValue(SheetOrders, fmt.Sprintf("H%d", row), wo.Pricing.Rate)
		f.SetCellValue(SheetOrders, fmt.Sprintf("I%d", row), wo.LaborHours())
		f.SetCellValue(SheetOrders, fmt.Sprintf("J%d", row), Money(wo.PreviewTotal()))
	}

	// 库存页
	writeHeaders(f, SheetInventory, inventoryHeaders, headerStyle)
	for i, p := range s.Inventory {
		row := i + 2
		low := "否"
		if p.IsLowStock() {
			low = "是"
		}
		f.SetCellValue(SheetInventory, fmt.Sprintf("A%d", row), p.ID)
		f.SetCellValue(SheetInventory, fmt.Sprintf("B%d", row), p.Name)
		f.SetCellValue(SheetInventory, fmt.Sprintf("C%d", row), Money(p.UnitPrice))
		f.SetCellValue(SheetInventory, fmt.Sprintf("D%d", row), p.Stock)
		f.SetCellValue(SheetInventory, fmt.Sprintf("E%d", row), p.ReorderPoint)
		f.SetCellValue(SheetInventory, fmt.Sprintf("F%d", row), p.Capacity)
		f.SetCellValue(SheetInventory, fmt.Sprintf("G%d", row), low)
	}

	for sheet, widths := range map[string][]float64{
		SheetSummary:   {14, 8, 60},
		SheetOrders:    {12, 20, 12, 14, 14, 14, 12, 8, 8, 12},
		SheetInventory: {12, 24, 10, 8, 8, 10, 8},
	} {
		for i, w := range widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetColWidth(sheet, col, col, w)
		}
	}

	filename := fmt.Sprintf("garage_summary_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}
