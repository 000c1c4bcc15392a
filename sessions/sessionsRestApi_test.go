package sessions_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"wetlands/account"
	"wetlands/audit"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/persistence"
	"wetlands/session"
	"wetlands/sessions"
	"wetlands/testinfra"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/gomega"
	"github.com/patrickmn/go-cache"
)

func setupSessionsTestDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartMysqlTestDatabase("wetlands")
	persistence.ActiveDataSourceManager = testDatabase.DS
	Expect(testDatabase.DS.GormDB().AutoMigrate(&account.User{}, &audit.AuditLog{}).Error).To(BeNil())
	t.Cleanup(func() { testinfra.StopMysqlTestDatabase(testDatabase) })
	return testDatabase
}

func TestSimpleLoginHandler(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupSessionsTestDatabase(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	sessions.RegisterSessionsHandler(router)

	db := testDatabase.DS.GormDB()
	Expect(db.Save(&account.User{ID: 10, Name: "ann", Role: authority.RoleGovernmentOfficial,
		Enabled: true, Secret: account.HashSha256("123456")}).Error).To(BeNil())
	Expect(db.Save(&account.User{ID: 11, Name: "blocked", Role: authority.RoleResearcher,
		Enabled: false, Secret: account.HashSha256("123456")}).Error).To(BeNil())

	t.Run("should answer capabilities and sections on successful login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			bytes.NewBufferString(`{"name":"ann","password":"123456"}`))
		status, body, headers := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(headers.Get("Set-Cookie")).To(ContainSubstring(session.KeySecToken))
		Expect(body).To(ContainSubstring(`"role":"government_official"`))
		Expect(body).To(ContainSubstring(`"canAssignReports":true`))
		Expect(body).To(ContainSubstring(`"canManageUsers":false`))
		Expect(body).To(ContainSubstring(`"community_reports"`))
		Expect(body).ToNot(ContainSubstring(`"user_management"`))

		user := account.User{}
		Expect(db.Where(&account.User{ID: 10}).First(&user).Error).To(BeNil())
		Expect(user.LastLoginTime).ToNot(BeZero())

		record := audit.AuditLog{}
		Expect(db.Where("action = ?", audit.ActionLogin).First(&record).Error).To(BeNil())
		Expect(record.ActorName).To(Equal("ann"))
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			bytes.NewBufferString(`{"name":"ann","password":"wrong"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})

	t.Run("should reject a disabled account", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			bytes.NewBufferString(`{"name":"blocked","password":"123456"}`))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
	})
}

func TestSimpleLogoutHandler(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	sessions.RegisterSessionsHandler(router)

	t.Run("should drop the cached token", func(t *testing.T) {
		token := uuid.New().String()
		session.TokenCache.Set(token, &session.Session{Token: token}, cache.DefaultExpiration)

		req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))

		_, found := session.TokenCache.Get(token)
		Expect(found).To(BeFalse())
	})

	t.Run("should succeed without a cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
	})
}

func TestSessionQueryHandler(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	sessions.RegisterSessionHandler(router, session.SimpleAuthFilter())

	t.Run("should answer the session detail for a valid token", func(t *testing.T) {
		token := uuid.New().String()
		session.TokenCache.Set(token, &session.Session{Token: token,
			Identity: session.Identity{ID: 20, Name: "walker"},
			Role:     authority.RoleCommunityMember}, cache.DefaultExpiration)

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"role":"community_member"`))
		Expect(body).To(ContainSubstring(`"sections":["overview","local_wetlands","report_issue","educational_resources"]`))
	})

	t.Run("should reject a missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})
}
