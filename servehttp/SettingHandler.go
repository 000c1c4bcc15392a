package servehttp

import (
	"net/http"
	"wetlands/bizerror"
	"wetlands/domain/settings"
	"wetlands/misc"
	"wetlands/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterSettingsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/user-settings", middleWares...)

	handler := &settingHandler{}

	g.GET("", handler.handleQuery)
	g.PUT("", handler.handleSave)
	g.DELETE(":key", handler.handleDelete)
}

type settingHandler struct {
}

func (h *settingHandler) handleQuery(c *gin.Context) {
	records, err := settings.QuerySettingsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *settingHandler) handleSave(c *gin.Context) {
	saving := settings.SettingSaving{}
	if err := c.ShouldBindBodyWith(&saving, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := settings.SaveSettingFunc(saving, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func (h *settingHandler) handleDelete(c *gin.Context) {
	if err := settings.DeleteSettingFunc(c.Param("key"), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusNoContent, nil)
}
