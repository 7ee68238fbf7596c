package handler

import (
	"fmt"

	"github.com/bdhxxnix/auto-repair/internal/garage/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler 报表
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) Turnover(c *gin.Context) {
	t, err := h.svc.Turnover(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, t)
}

func (h *ReportHandler) Summary(c *gin.Context) {
	s, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, s)
}

// Export GET /reports/export 下载 Excel
func (h *ReportHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.Export(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "导出报表失败: "+err.Error())
	}
}

func (h *ReportHandler) Archive(c *gin.Context) {
	result, err := h.svc.Archive(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}
