package servehttp

import (
	"errors"
	"net/http"
	"wetlands/bizerror"
	"wetlands/domain/observation"
	"wetlands/misc"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterObservationsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/observations", middleWares...)

	handler := &observationHandler{validator: validator.New()}

	g.GET("", handler.handleQuery)
	g.POST("", handler.handleCreate)
	g.PUT(":id", handler.handleUpdate)
	g.DELETE(":id", handler.handleDelete)
}

type observationHandler struct {
	validator *validator.Validate
}

func (h *observationHandler) handleCreate(c *gin.Context) {
	creation := observation.ObservationCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := observation.CreateObservationFunc(creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *observationHandler) handleQuery(c *gin.Context) {
	query := observation.ObservationQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := observation.QueryObservationsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *observationHandler) handleUpdate(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	updating := observation.ObservationUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(updating); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := observation.UpdateObservationFunc(id, updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, nil)
}

func (h *observationHandler) handleDelete(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	if err := observation.DeleteObservationFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusNoContent, nil)
}
