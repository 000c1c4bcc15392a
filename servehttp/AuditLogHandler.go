package servehttp

import (
	"net/http"
	"wetlands/audit"
	"wetlands/misc"
	"wetlands/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterAuditLogsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/audit-logs", middleWares...)

	handler := &auditLogHandler{}

	g.GET("", handler.handleQuery)
}

type auditLogHandler struct {
}

func (h *auditLogHandler) handleQuery(c *gin.Context) {
	query := audit.AuditLogQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := audit.QueryAuditLogsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}
