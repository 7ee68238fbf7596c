package handler

import (
	"github.com/bdhxxnix/auto-repair/internal/garage/service"
	"github.com/gin-gonic/gin"
)

// EmployeeHandler 员工
type EmployeeHandler struct {
	svc *service.EmployeeService
}

func NewEmployeeHandler(svc *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// List GET /employees?role=TECHNICIAN
func (h *EmployeeHandler) List(c *gin.Context) {
	employees, err := h.svc.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: employees})
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	var req service.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	e, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, e)
}

func (h *EmployeeHandler) Get(c *gin.Context) {
	e, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, e)
}

// Payroll GET /payroll 仅店长可见
func (h *EmployeeHandler) Payroll(c *gin.Context) {
	payroll, err := h.svc.Payroll(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, payroll)
}
