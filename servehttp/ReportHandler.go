package servehttp

import (
	"errors"
	"net/http"
	"wetlands/bizerror"
	"wetlands/domain/report"
	"wetlands/indices"
	"wetlands/misc"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterReportsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/community-reports", middleWares...)

	handler := &reportHandler{validator: validator.New()}

	g.GET("", handler.handleQuery)
	g.POST("", handler.handleCreate)
	g.GET(":id", handler.handleDetail)
	g.PUT(":id/status", handler.handleUpdateStatus)
	g.PUT(":id/assignment", handler.handleAssign)
	g.DELETE(":id", handler.handleDelete)
	g.GET(":id/comments", handler.handleQueryComments)
	g.POST(":id/comments", handler.handleCreateComment)

	r.GET("/v1/report-search", append(middleWares, handler.handleSearch)...)
}

type reportHandler struct {
	validator *validator.Validate
}

func (h *reportHandler) handleCreate(c *gin.Context) {
	creation := report.ReportCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := report.CreateReportFunc(creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *reportHandler) handleQuery(c *gin.Context) {
	query := report.ReportQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := report.QueryReportsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *reportHandler) handleDetail(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	record, err := report.DetailReportFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func (h *reportHandler) handleUpdateStatus(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	updating := report.StatusUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(updating); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := report.UpdateReportStatusFunc(id, updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, nil)
}

func (h *reportHandler) handleAssign(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	assignment := report.Assignment{}
	if err := c.ShouldBindBodyWith(&assignment, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(assignment); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := report.AssignReportFunc(id, assignment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, nil)
}

func (h *reportHandler) handleDelete(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	if err := report.DeleteReportFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *reportHandler) handleCreateComment(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	creation := report.CommentCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := report.CreateCommentFunc(id, creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *reportHandler) handleQueryComments(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	records, err := report.QueryCommentsFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *reportHandler) handleSearch(c *gin.Context) {
	query := indices.ReportSearch{}
	_ = c.MustBindWith(&query, binding.Query)

	docs, err := indices.SearchReportsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: docs, Total: uint64(len(docs))})
}
