package handler

import (
	"github.com/bdhxxnix/auto-repair/internal/garage/service"
	"github.com/bdhxxnix/auto-repair/internal/garage/snapshot"
	"github.com/gin-gonic/gin"
)

// BackupHandler 备份与恢复
type BackupHandler struct {
	svc *service.BackupService
}

func NewBackupHandler(svc *service.BackupService) *BackupHandler {
	return &BackupHandler{svc: svc}
}

// Export GET /backup 返回快照 JSON
func (h *BackupHandler) Export(c *gin.Context) {
	doc, err := h.svc.Export(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Type", "application/json; charset=utf-8")
	if err := snapshot.Encode(c.Writer, *doc); err != nil {
		InternalError(c, "导出备份失败: "+err.Error())
	}
}

// Restore POST /backup/restore 请求体为快照 JSON
func (h *BackupHandler) Restore(c *gin.Context) {
	doc, err := snapshot.Decode(c.Request.Body)
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := h.svc.Restore(c.Request.Context(), &doc, GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{
		"customers":   len(doc.Customers),
		"vehicles":    len(doc.Vehicles),
		"employees":   len(doc.Employees()),
		"parts":       len(doc.Parts),
		"work_orders": len(doc.WorkOrders),
	})
}

func (h *BackupHandler) Archive(c *gin.Context) {
	result, err := h.svc.Archive(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}
