package account

import (
	"wetlands/authority"

	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	Name     string   `json:"name" gorm:"unique_index:uni_user_name"`
	Nickname string   `json:"nickname"`
	Email    string   `json:"email"`
	Secret   string   `json:"-"`

	Role         authority.Role `json:"role"`
	Organization string         `json:"organization"`
	Phone        string         `json:"phone"`
	Enabled      bool           `json:"enabled"`

	CreateTime    types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	LastLoginTime types.Timestamp `json:"lastLoginTime" sql:"type:DATETIME(6)"`
}

// UserInfo is the externally visible projection of User.
type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
	Email    string   `json:"email"`

	Role         authority.Role `json:"role"`
	Organization string         `json:"organization"`
	Phone        string         `json:"phone"`
	Enabled      bool           `json:"enabled"`

	CreateTime    types.Timestamp `json:"createTime"`
	LastLoginTime types.Timestamp `json:"lastLoginTime"`
}

func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Nickname: u.Nickname, Email: u.Email,
		Role: u.Role, Organization: u.Organization, Phone: u.Phone, Enabled: u.Enabled,
		CreateTime: u.CreateTime, LastLoginTime: u.LastLoginTime}
}
