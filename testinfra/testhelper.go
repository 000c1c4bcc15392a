package testinfra

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"wetlands/authority"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BuildSession builds an in-memory session for the given role, bypassing
// the login flow.
func BuildSession(uid types.ID, role authority.Role) *session.Session {
	return &session.Session{
		Token:    uuid.New().String(),
		Identity: session.Identity{ID: uid, Name: "user" + uid.String()},
		Role:     role,
	}
}

// ExecuteRequest runs the request against the router and returns the
// response status, body and headers.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, http.Header) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()
	bodyBytes, err := ioutil.ReadAll(res.Body)
	if err != nil {
		panic(err)
	}
	return res.StatusCode, string(bodyBytes), res.Header
}
