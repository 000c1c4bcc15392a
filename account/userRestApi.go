package account

import (
	"net/http"
	"wetlands/bizerror"
	"wetlands/misc"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterUsersHandler routes under /v1/users require an authenticated
// session; signup is registered separately through RegisterSignupHandler.
func RegisterUsersHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	handler := &usersHandler{validator: validator.New()}

	g := r.Group("/v1/users", middleWares...)
	g.GET("", handler.handleQueryUsers)
	g.PUT(":id/role", handler.handleUpdateUserRole)
	g.PUT(":id/enabled", handler.handleSetUserEnabled)
	g.DELETE(":id", handler.handleDeleteUser)

	self := r.Group("/v1/user", middleWares...)
	self.PUT("basic", handler.handleUpdateBaseInfo)
	self.PUT("password", handler.handleChangePassword)
}

func RegisterSignupHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	handler := &usersHandler{validator: validator.New()}
	g := r.Group("/v1/signup", middleWares...)
	g.POST("", handler.handleRegisterUser)
}

type usersHandler struct {
	validator *validator.Validate
}

func (h *usersHandler) handleRegisterUser(c *gin.Context) {
	creation := UserCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	info, err := RegisterUserFunc(creation)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, info)
}

func (h *usersHandler) handleQueryUsers(c *gin.Context) {
	query := UserQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	users, err := QueryUsersFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, users)
}

func (h *usersHandler) handleUpdateUserRole(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	updating := RoleUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := UpdateUserRoleFunc(id, updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func (h *usersHandler) handleSetUserEnabled(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	updating := EnabledUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(updating); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := SetUserEnabledFunc(id, updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func (h *usersHandler) handleDeleteUser(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	if err := DeleteUserFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func (h *usersHandler) handleUpdateBaseInfo(c *gin.Context) {
	updating := BaseInfoUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(updating); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := UpdateBaseInfoFunc(updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func (h *usersHandler) handleChangePassword(c *gin.Context) {
	changing := PasswordChanging{}
	if err := c.ShouldBindBodyWith(&changing, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(changing); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := ChangePasswordFunc(changing, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
