package servehttp

import (
	"net/http"
	"wetlands/bizerror"
	"wetlands/domain/sensor"
	"wetlands/misc"
	"wetlands/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterReadingsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/sensor-readings", middleWares...)

	handler := &readingHandler{validator: validator.New()}

	g.POST("", handler.handleIngest)
	g.GET("", handler.handleQuery)
}

type readingHandler struct {
	validator *validator.Validate
}

func (h *readingHandler) handleIngest(c *gin.Context) {
	creation := sensor.ReadingCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := sensor.IngestReadingFunc(creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *readingHandler) handleQuery(c *gin.Context) {
	query := sensor.ReadingQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	records, err := sensor.QueryReadingsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}
