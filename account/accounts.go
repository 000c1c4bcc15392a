package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"wetlands/audit"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	RegisterUserFunc   = RegisterUser
	QueryUsersFunc     = QueryUsers
	UpdateUserRoleFunc = UpdateUserRole
	SetUserEnabledFunc = SetUserEnabled
	UpdateBaseInfoFunc = UpdateBaseInfo
	ChangePasswordFunc = ChangePassword
	DeleteUserFunc     = DeleteUser
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultSecurityConfiguration seeds the initial admin account once.
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.Getenv("INITIAL_ADMIN_PASSWORD")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			return tx.Save(&User{ID: 1, Name: "admin", Nickname: "Administrator",
				Role: authority.RoleAdmin, Enabled: true, Secret: HashSha256(initialAdminPassword),
				CreateTime: types.CurrentTimestamp()}).Error
		}
		return err
	})
}

type UserCreation struct {
	Name     string `json:"name" binding:"required,lte=128"`
	Password string `json:"password" binding:"required,gte=6,lte=128"`

	Nickname     string         `json:"nickname" binding:"lte=128"`
	Email        string         `json:"email" binding:"omitempty,email"`
	Role         authority.Role `json:"role"`
	Organization string         `json:"organization" binding:"lte=128"`
	Phone        string         `json:"phone" binding:"lte=32"`
}

// RegisterUser is open signup. A missing or unrecognized requested role
// silently falls back to researcher.
func RegisterUser(c UserCreation) (*UserInfo, error) {
	role := c.Role
	if !authority.IsKnownRole(role) {
		role = authority.RoleResearcher
	}

	u := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Nickname: c.Nickname,
		Email: c.Email, Secret: HashSha256(c.Password),
		Role: role, Organization: c.Organization, Phone: c.Phone, Enabled: true,
		CreateTime: types.CurrentTimestamp()}

	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		existed := User{}
		if err := tx.Model(&User{}).Where(&User{Name: c.Name}).First(&existed).Error; err == nil {
			return &bizerror.ErrConflict{Message: "user name is already taken"}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "user", u.ID, u.Name, nil,
			&session.Identity{ID: u.ID, Name: u.Name}, tx)
	})
	if err != nil {
		return nil, err
	}
	info := u.Info()
	return &info, nil
}

type UserQuery struct {
	Role    authority.Role `form:"role"`
	Keyword string         `form:"keyword"`
}

func QueryUsers(q UserQuery, s *session.Session) ([]UserInfo, error) {
	if !s.Can("read", "users") {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	query := db.Model(&User{}).Order("id ASC")
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.Keyword != "" {
		query = query.Where("name LIKE ? OR nickname LIKE ?", "%"+q.Keyword+"%", "%"+q.Keyword+"%")
	}

	users := []User{}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.Info())
	}
	return infos, nil
}

type RoleUpdating struct {
	Role authority.Role `json:"role" binding:"required"`
}

func UpdateUserRole(id types.ID, u RoleUpdating, s *session.Session) error {
	if !s.Can("manage_roles", "users") {
		return bizerror.ErrForbidden
	}
	if !authority.IsKnownRole(u.Role) {
		return bizerror.ErrUnknownRole
	}
	if id == s.Identity.ID {
		// an admin must not lock themself out by dropping their own role
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, id)
		if err != nil {
			return err
		}
		if user.Role == authority.RoleAdmin && u.Role != authority.RoleAdmin {
			if err := assertNotLastAdmin(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Model(&User{}).Where("id = ?", id).Update("role", u.Role).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionRoleChanged, "user", id, user.Name,
			audit.Detail{"oldRole": string(user.Role), "newRole": string(u.Role)}, &s.Identity, tx)
	})
}

type EnabledUpdating struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func SetUserEnabled(id types.ID, u EnabledUpdating, s *session.Session) error {
	if !s.Can("update", "users") {
		return bizerror.ErrForbidden
	}
	if id == s.Identity.ID {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&User{}).Where("id = ?", id).Update("enabled", *u.Enabled).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "user", id, user.Name, nil, &s.Identity, tx)
	})
}

type BaseInfoUpdating struct {
	Nickname     string `json:"nickname" binding:"lte=128"`
	Email        string `json:"email" binding:"omitempty,email"`
	Organization string `json:"organization" binding:"lte=128"`
	Phone        string `json:"phone" binding:"lte=32"`
}

// UpdateBaseInfo lets a user change their own profile only.
func UpdateBaseInfo(u BaseInfoUpdating, s *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Model(&User{}).Where("id = ?", s.Identity.ID).
		Updates(map[string]interface{}{"nickname": u.Nickname, "email": u.Email,
			"organization": u.Organization, "phone": u.Phone}).Error
}

type PasswordChanging struct {
	OriginalPassword string `json:"originalPassword" binding:"required"`
	NewPassword      string `json:"newPassword" binding:"required,gte=6,lte=128"`
}

func ChangePassword(p PasswordChanging, s *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Model(&User{}).
			Where(&User{ID: s.Identity.ID, Secret: HashSha256(p.OriginalPassword)}).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrForbidden
			}
			return err
		}
		return tx.Model(&User{}).Where("id = ?", s.Identity.ID).
			Update("secret", HashSha256(p.NewPassword)).Error
	})
}

func DeleteUser(id types.ID, s *session.Session) error {
	if !s.Can("delete", "users") {
		return bizerror.ErrForbidden
	}
	if id == s.Identity.ID {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, id)
		if err != nil {
			return err
		}
		if user.Role == authority.RoleAdmin {
			if err := assertNotLastAdmin(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Delete(User{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionDeleted, "user", id, user.Name, nil, &s.Identity, tx)
	})
}

func findUser(tx *gorm.DB, id types.ID) (*User, error) {
	user := User{}
	if err := tx.Model(&User{}).Where(&User{ID: id}).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func assertNotLastAdmin(tx *gorm.DB, excludeId types.ID) error {
	count := 0
	if err := tx.Model(&User{}).Where("role = ? AND id <> ?", authority.RoleAdmin, excludeId).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &bizerror.ErrConflict{Message: "at least one admin account must remain"}
	}
	return nil
}
