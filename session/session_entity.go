package session

import (
	"context"
	"time"
	"wetlands/authority"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Token    string         `json:"token"`
	Identity Identity       `json:"identity"`
	Role     authority.Role `json:"role"`

	SigningTime time.Time `json:"-"`

	Context context.Context `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

// Can is shorthand for a permission check against the session's role.
func (s *Session) Can(action, resource string) bool {
	return authority.HasPermission(s.Role, action, resource)
}

func (s *Session) Clone() Session {
	return Session{Token: s.Token, Identity: s.Identity, Role: s.Role,
		SigningTime: s.SigningTime, Context: s.Context}
}
