package handler

import (
	"strconv"

	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/bdhxxnix/auto-repair/internal/garage/service"
	"github.com/gin-gonic/gin"
)

// CustomerHandler 客户与车辆
type CustomerHandler struct {
	svc *service.CustomerService
}

func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// List GET /customers?keyword=&level=
func (h *CustomerHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.CustomerListParams{
		ListParams: repository.ListParams{Page: page, Size: pageSize},
		Keyword:    c.Query("keyword"),
	}
	if lv := c.Query("level"); lv != "" {
		v, err := strconv.Atoi(lv)
		if err != nil {
			BadRequest(c, "level 参数无效")
			return
		}
		params.Level = &v
	}
	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	customer, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, customer)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, customer)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

func (h *CustomerHandler) Vehicles(c *gin.Context) {
	vehicles, err := h.svc.Vehicles(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: vehicles})
}

func (h *CustomerHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.svc.ListVehicles(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: vehicles})
}

func (h *CustomerHandler) CreateVehicle(c *gin.Context) {
	var req service.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	vehicle, err := h.svc.CreateVehicle(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, vehicle)
}

func (h *CustomerHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.svc.GetVehicle(c.Request.Context(), c.Param("vin"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, vehicle)
}
