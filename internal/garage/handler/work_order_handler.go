package handler

import (
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/bdhxxnix/auto-repair/internal/garage/service"
	"github.com/gin-gonic/gin"
)

// WorkOrderHandler 工单
type WorkOrderHandler struct {
	svc *service.WorkOrderService
}

func NewWorkOrderHandler(svc *service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{svc: svc}
}

// List GET /work-orders?status=&vehicle_vin=&customer_id=&tech_id=
func (h *WorkOrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), repository.WorkOrderListParams{
		ListParams: repository.ListParams{Page: page, Size: pageSize},
		Status:     c.Query("status"),
		VehicleVIN: c.Query("vehicle_vin"),
		CustomerID: c.Query("customer_id"),
		TechID:     c.Query("tech_id"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

func (h *WorkOrderHandler) Create(c *gin.Context) {
	var req service.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	wo, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, wo)
}

func (h *WorkOrderHandler) Get(c *gin.Context) {
	wo, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// Detect POST /work-orders/detect 按车辆试算推荐项目
func (h *WorkOrderHandler) Detect(c *gin.Context) {
	var req struct {
		VehicleVIN string `json:"vehicle_vin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.Detect(c.Request.Context(), req.VehicleVIN)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

func (h *WorkOrderHandler) Preview(c *gin.Context) {
	preview, err := h.svc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, preview)
}

func (h *WorkOrderHandler) SetPricing(c *gin.Context) {
	var req service.PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	wo, err := h.svc.SetPricing(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

func (h *WorkOrderHandler) Assign(c *gin.Context) {
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	wo, err := h.svc.Assign(c.Request.Context(), c.Param("id"), req.TechID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

func (h *WorkOrderHandler) Start(c *gin.Context) {
	wo, err := h.svc.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

func (h *WorkOrderHandler) Complete(c *gin.Context) {
	wo, err := h.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

func (h *WorkOrderHandler) Settle(c *gin.Context) {
	result, err := h.svc.Settle(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	wo, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// ConsumeParts POST /work-orders/:id/consume-parts
// 部分扣减失败时 data 中仍带回已完成的扣减
func (h *WorkOrderHandler) ConsumeParts(c *gin.Context) {
	result, err := h.svc.ConsumeParts(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		code := ErrorCode(err)
		if result != nil && result.ConsumeResult != nil && len(result.Consumptions) > 0 {
			c.JSON(code/100, Response{Code: code, Message: err.Error(), Data: result})
			return
		}
		Error(c, code, err.Error())
		return
	}
	Success(c, result)
}
