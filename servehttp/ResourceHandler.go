package servehttp

import (
	"errors"
	"net/http"
	"wetlands/bizerror"
	"wetlands/domain/resource"
	"wetlands/misc"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterResourcesHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/resources", middleWares...)

	handler := &resourceHandler{validator: validator.New()}

	g.GET("", handler.handleQuery)
	g.POST("", handler.handleCreate)
	g.GET(":id/content", handler.handleDownload)
	g.DELETE(":id", handler.handleDelete)
}

type resourceHandler struct {
	validator *validator.Validate
}

// handleCreate accepts a multipart form: a "file" part carries the payload,
// the other fields carry the metadata.
func (h *resourceHandler) handleCreate(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	public := c.PostForm("public") != "false"
	creation := resource.ResourceCreation{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		ResourceType: c.PostForm("resourceType"),
		Category:     c.PostForm("category"),
		FileName:     file.Filename,
		MimeType:     file.Header.Get("Content-Type"),
		Public:       &public,
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	content, err := file.Open()
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	defer content.Close()

	record, err := resource.CreateResourceFunc(creation, content, file.Size, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *resourceHandler) handleQuery(c *gin.Context) {
	query := resource.ResourceQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := resource.QueryResourcesFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *resourceHandler) handleDownload(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	record, content, err := resource.DownloadResourceFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}

	mimeType := record.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+record.FileName+`"`)
	c.Data(http.StatusOK, mimeType, content)
}

func (h *resourceHandler) handleDelete(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	if err := resource.DeleteResourceFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusNoContent, nil)
}
