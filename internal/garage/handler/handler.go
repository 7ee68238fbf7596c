package handler

import (
	"errors"
	"strconv"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/service"
	"github.com/bdhxxnix/auto-repair/internal/garage/sse"
	"github.com/bdhxxnix/auto-repair/internal/middleware"
	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	CodeBadRequest        = 40000
	CodeConfiguration     = 40001
	CodeNotFound          = 40400
	CodeInvalidTransition = 40900
	CodeInsufficientStock = 40901
	CodeDuplicateOrder    = 40902
	CodeAlreadyConsumed   = 40903
	CodeInternal          = 50000
)

// Handlers 处理器集合
type Handlers struct {
	Customer  *CustomerHandler
	Employee  *EmployeeHandler
	Part      *PartHandler
	WorkOrder *WorkOrderHandler
	Report    *ReportHandler
	Backup    *BackupHandler
	SSE       *SSEHandler
}

func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		Customer:  NewCustomerHandler(svc.Customer),
		Employee:  NewEmployeeHandler(svc.Employee),
		Part:      NewPartHandler(svc.Inventory),
		WorkOrder: NewWorkOrderHandler(svc.WorkOrder),
		Report:    NewReportHandler(svc.Report),
		Backup:    NewBackupHandler(svc.Backup),
		SSE:       NewSSEHandler(hub, svc.Inventory),
	}
}

// RegisterRoutes 注册车间路由，api 需已挂载 JWT 中间件
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/garage")

	customers := g.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.DELETE("/:id", h.Customer.Delete)
		customers.GET("/:id/vehicles", h.Customer.Vehicles)
	}

	vehicles := g.Group("/vehicles")
	{
		vehicles.GET("", h.Customer.ListVehicles)
		vehicles.POST("", h.Customer.CreateVehicle)
		vehicles.GET("/:vin", h.Customer.GetVehicle)
	}

	employees := g.Group("/employees")
	{
		employees.GET("", h.Employee.List)
		employees.POST("", h.Employee.Create)
		employees.GET("/:id", h.Employee.Get)
	}
	g.GET("/payroll", middleware.RequireRole(middleware.RoleManager), h.Employee.Payroll)

	parts := g.Group("/parts")
	{
		parts.GET("", h.Part.List)
		parts.POST("", h.Part.Upsert)
		parts.GET("/alerts", h.Part.Alerts)
		parts.GET("/movements", h.Part.Movements)
		parts.POST("/import", h.Part.Import)
		parts.GET("/export", h.Part.Export)
		parts.GET("/:id", h.Part.Get)
		parts.POST("/:id/consume", h.Part.Consume)
		parts.POST("/:id/restock", h.Part.Restock)
	}

	orders := g.Group("/work-orders")
	{
		orders.GET("", h.WorkOrder.List)
		orders.POST("", h.WorkOrder.Create)
		orders.POST("/detect", h.WorkOrder.Detect)
		orders.GET("/:id", h.WorkOrder.Get)
		orders.GET("/:id/preview", h.WorkOrder.Preview)
		orders.PUT("/:id/pricing", h.WorkOrder.SetPricing)
		orders.POST("/:id/assign", h.WorkOrder.Assign)
		orders.POST("/:id/start", h.WorkOrder.Start)
		orders.POST("/:id/complete", h.WorkOrder.Complete)
		orders.POST("/:id/settle", h.WorkOrder.Settle)
		orders.POST("/:id/cancel", h.WorkOrder.Cancel)
		orders.POST("/:id/consume-parts", h.WorkOrder.ConsumeParts)
	}

	reports := g.Group("/reports")
	{
		reports.GET("/turnover", h.Report.Turnover)
		reports.GET("/summary", h.Report.Summary)
		reports.GET("/export", h.Report.Export)
		reports.POST("/archive", h.Report.Archive)
	}

	backup := g.Group("/backup")
	{
		backup.GET("", h.Backup.Export)
		backup.POST("/restore", h.Backup.Restore)
		backup.POST("/archive", h.Backup.Archive)
	}

	g.GET("/events", h.SSE.Stream)
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPagination(page, pageSize int, total int64) *Pagination {
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return &Pagination{Page: page, PageSize: pageSize, Total: int(total), TotalPages: pages}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, CodeInternal, message)
}

// ErrorCode 业务错误到错误码的映射
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, entity.ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, entity.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, entity.ErrDuplicateActiveOrder):
		return CodeDuplicateOrder
	case errors.Is(err, entity.ErrPartsAlreadyConsumed):
		return CodeAlreadyConsumed
	case errors.Is(err, entity.ErrConfiguration):
		return CodeConfiguration
	}
	return CodeInternal
}

// HandleError 按错误类型输出响应
func HandleError(c *gin.Context, err error) {
	Error(c, ErrorCode(err), err.Error())
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
