package servehttp

import (
	"errors"
	"net/http"
	"wetlands/bizerror"
	"wetlands/domain/alert"
	"wetlands/misc"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterAlertsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/alerts", middleWares...)

	handler := &alertHandler{validator: validator.New()}

	g.GET("", handler.handleQuery)
	g.POST("", handler.handleCreate)
	g.POST(":id/acknowledgement", handler.handleAcknowledge)
	g.POST(":id/resolution", handler.handleResolve)
}

type alertHandler struct {
	validator *validator.Validate
}

func (h *alertHandler) handleCreate(c *gin.Context) {
	creation := alert.AlertCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := alert.CreateAlertFunc(creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *alertHandler) handleQuery(c *gin.Context) {
	query := alert.AlertQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := alert.QueryAlertsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *alertHandler) handleAcknowledge(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	if err := alert.AcknowledgeAlertFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, nil)
}

func (h *alertHandler) handleResolve(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	if err := alert.ResolveAlertFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, nil)
}
