package servehttp

import (
	"net/http"
	"wetlands/domain/dashboard"
	"wetlands/session"

	"github.com/gin-gonic/gin"
)

func RegisterDashboardHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/dashboard", middleWares...)

	handler := &dashboardHandler{}

	g.GET("summary", handler.handleSummary)
	g.GET("analytics", handler.handleAnalytics)
}

type dashboardHandler struct {
}

func (h *dashboardHandler) handleSummary(c *gin.Context) {
	summary, err := dashboard.LoadSummaryFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, summary)
}

func (h *dashboardHandler) handleAnalytics(c *gin.Context) {
	analytics, err := dashboard.LoadAnalyticsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, analytics)
}
