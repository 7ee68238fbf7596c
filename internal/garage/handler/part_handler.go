package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/bdhxxnix/auto-repair/internal/garage/service"
	"github.com/gin-gonic/gin"
)

// PartHandler 配件库存
type PartHandler struct {
	svc *service.InventoryService
}

func NewPartHandler(svc *service.InventoryService) *PartHandler {
	return &PartHandler{svc: svc}
}

func (h *PartHandler) List(c *gin.Context) {
	Success(c, ListResponse{Items: h.svc.List()})
}

// Upsert POST /parts 新增或覆盖
func (h *PartHandler) Upsert(c *gin.Context) {
	var req service.UpsertPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	part, err := h.svc.Upsert(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, part)
}

func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.Get(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, part)
}

func (h *PartHandler) Consume(c *gin.Context) {
	var req service.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.Consume(c.Request.Context(), c.Param("id"), req.Qty, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

func (h *PartHandler) Restock(c *gin.Context) {
	var req service.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	part, err := h.svc.Restock(c.Request.Context(), c.Param("id"), req.Qty, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, part)
}

// Alerts GET /parts/alerts 当前低库存配件
func (h *PartHandler) Alerts(c *gin.Context) {
	Success(c, ListResponse{Items: h.svc.Alerts()})
}

// Movements GET /parts/movements?part_id=&reference_id=
func (h *PartHandler) Movements(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.Movements(c.Request.Context(), repository.MovementListParams{
		ListParams:  repository.ListParams{Page: page, Size: pageSize},
		PartID:      c.Query("part_id"),
		ReferenceID: c.Query("reference_id"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

// Import POST /parts/import?encoding=gbk
// 支持 multipart 字段 file，或直接以请求体上传
func (h *PartHandler) Import(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			BadRequest(c, "读取上传文件失败: "+err.Error())
			return
		}
		defer f.Close()
		body = f
	}
	result, err := h.svc.ImportCSV(c.Request.Context(), body, c.Query("encoding"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Export GET /parts/export?encoding=gbk
func (h *PartHandler) Export(c *gin.Context) {
	filename := fmt.Sprintf("parts_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset="+csvCharset(c.Query("encoding")))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := h.svc.ExportCSV(c.Writer, c.Query("encoding")); err != nil {
		HandleError(c, err)
	}
}

func csvCharset(encoding string) string {
	switch encoding {
	case "gbk", "GBK":
		return "gbk"
	}
	return "utf-8"
}
