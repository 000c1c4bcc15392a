package servehttp

import (
	"errors"
	"net/http"
	"wetlands/bizerror"
	"wetlands/domain/project"
	"wetlands/misc"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterProjectsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/projects", middleWares...)

	handler := &projectHandler{validator: validator.New()}

	g.GET("", handler.handleQuery)
	g.POST("", handler.handleCreate)
	g.PUT(":id", handler.handleUpdate)
	g.POST(":id/approval", handler.handleApprove)
	g.DELETE(":id", handler.handleDelete)
}

type projectHandler struct {
	validator *validator.Validate
}

func (h *projectHandler) handleCreate(c *gin.Context) {
	creation := project.ProjectCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := project.CreateProjectFunc(creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *projectHandler) handleQuery(c *gin.Context) {
	query := project.ProjectQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := project.QueryProjectsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *projectHandler) handleUpdate(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	updating := project.ProjectUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(updating); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := project.UpdateProjectFunc(id, updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, nil)
}

func (h *projectHandler) handleApprove(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	if err := project.ApproveProjectFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, nil)
}

func (h *projectHandler) handleDelete(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	if err := project.DeleteProjectFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusNoContent, nil)
}
