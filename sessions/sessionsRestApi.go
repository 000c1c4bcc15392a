package sessions

import (
	"net/http"
	"time"
	"wetlands/account"
	"wetlands/audit"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/misc"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// login attempts are throttled process-wide to slow down brute force
var LoginLimiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 10)

func RegisterSessionsHandler(r *gin.Engine) {
	g := r.Group("/v1/sessions")
	g.POST("", SimpleLoginHandler)
	g.DELETE("", SimpleLogoutHandler)
}

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/session", middleWares...)
	g.GET("", SessionQueryHandler)
}

type SessionDetail struct {
	session.Session

	Capabilities authority.Capabilities `json:"capabilities"`
	Sections     []string               `json:"sections"`
}

func buildSessionDetail(s *session.Session) *SessionDetail {
	return &SessionDetail{
		Session:      *s,
		Capabilities: authority.UserCapabilities(s.Role),
		Sections:     authority.AllowedSections(s.Role),
	}
}

// SessionQueryHandler answers identity, role, capability flags and allowed
// sections in one call, so the UI can build its navigation on login.
func SessionQueryHandler(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	if s.Token == "" {
		panic(bizerror.ErrUnauthenticated)
	}
	c.JSON(http.StatusOK, buildSessionDetail(s))
}

func SimpleLoginHandler(c *gin.Context) {
	if !LoginLimiter.Allow() {
		panic(bizerror.ErrTooManyRequests)
	}

	login := session.LoginRequest{}
	if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: err.Error()})
		return
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	user := account.User{}
	if err := db.Model(&account.User{}).
		Where(&account.User{Name: login.Name, Secret: account.HashSha256(login.Password)}).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			panic(bizerror.ErrUnauthenticated)
		}
		c.JSON(http.StatusInternalServerError, &misc.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
		return
	}
	if !user.Enabled {
		panic(bizerror.ErrForbidden)
	}

	token := uuid.New().String()
	securityContext := session.Session{Token: token,
		Identity: session.Identity{ID: user.ID, Name: user.Name, Nickname: user.Nickname},
		Role:     user.Role, SigningTime: time.Now()}
	session.TokenCache.Set(token, &securityContext, cache.DefaultExpiration)

	now := types.CurrentTimestamp()
	if err := db.Model(&account.User{}).Where("id = ?", user.ID).
		Update("last_login_time", now).Error; err != nil {
		c.JSON(http.StatusInternalServerError, &misc.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
		return
	}
	_ = audit.RecordFunc(audit.ActionLogin, "session", user.ID, user.Name, nil,
		&securityContext.Identity, db)

	c.SetCookie(session.KeySecToken, token, int(session.TokenExpiration/time.Second), "/", "", false, false)
	c.JSON(http.StatusOK, buildSessionDetail(&securityContext))
}

func SimpleLogoutHandler(c *gin.Context) {
	token, _ := c.Cookie(session.KeySecToken) // ErrNoCookie
	if token != "" {
		session.TokenCache.Delete(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, false)
	c.AbortWithStatus(http.StatusNoContent)
}
