package account_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"wetlands/account"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/session"
	"wetlands/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestSignupHandler(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	account.RegisterSignupHandler(router)

	registerUserOrigin := account.RegisterUserFunc
	defer func() { account.RegisterUserFunc = registerUserOrigin }()

	t.Run("should answer 201 with the created user info", func(t *testing.T) {
		account.RegisterUserFunc = func(c account.UserCreation) (*account.UserInfo, error) {
			return &account.UserInfo{ID: 10, Name: c.Name, Role: authority.RoleResearcher, Enabled: true}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/signup",
			bytes.NewBufferString(`{"name":"ann","password":"123456"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(ContainSubstring(`"name":"ann"`))
		Expect(body).To(ContainSubstring(`"role":"researcher"`))
	})

	t.Run("should answer 400 when the password is too short", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/signup",
			bytes.NewBufferString(`{"name":"ann","password":"123"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
	})

	t.Run("should answer 409 on a name conflict", func(t *testing.T) {
		account.RegisterUserFunc = func(c account.UserCreation) (*account.UserInfo, error) {
			return nil, &bizerror.ErrConflict{Message: "user name is already taken"}
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/signup",
			bytes.NewBufferString(`{"name":"ann","password":"123456"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"common.conflict","message":"user name is already taken","data":null}`))
	})
}

func TestUpdateUserRoleHandler(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	account.RegisterUsersHandler(router)

	updateUserRoleOrigin := account.UpdateUserRoleFunc
	defer func() { account.UpdateUserRoleFunc = updateUserRoleOrigin }()

	t.Run("should answer 204 on success", func(t *testing.T) {
		var updatedId types.ID
		var updatedRole authority.Role
		account.UpdateUserRoleFunc = func(id types.ID, u account.RoleUpdating, s *session.Session) error {
			updatedId, updatedRole = id, u.Role
			return nil
		}

		req := httptest.NewRequest(http.MethodPut, "/v1/users/20/role",
			bytes.NewBufferString(`{"role":"government_official"}`))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(updatedId).To(Equal(types.ID(20)))
		Expect(updatedRole).To(Equal(authority.RoleGovernmentOfficial))
	})

	t.Run("should answer 400 on a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/users/abc/role",
			bytes.NewBufferString(`{"role":"researcher"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
	})

	t.Run("should answer 400 on an unknown role", func(t *testing.T) {
		account.UpdateUserRoleFunc = func(id types.ID, u account.RoleUpdating, s *session.Session) error {
			return bizerror.ErrUnknownRole
		}

		req := httptest.NewRequest(http.MethodPut, "/v1/users/20/role",
			bytes.NewBufferString(`{"role":"super_user"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"account.unknown_role","message":"unknown role","data":null}`))
	})
}
