package settings

import (
	"errors"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// UserSetting is one key/value preference row. Users only ever touch
// their own rows, no permission table entry is involved.
type UserSetting struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	UserID types.ID `json:"userId" gorm:"unique_index:uni_user_setting"`

	SettingKey   string `json:"settingKey" gorm:"unique_index:uni_user_setting"`
	SettingValue string `json:"settingValue" sql:"type:TEXT"`

	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type SettingSaving struct {
	SettingKey   string `json:"settingKey" binding:"required,lte=100"`
	SettingValue string `json:"settingValue"`
}

var (
	settingIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QuerySettingsFunc = QuerySettings
	SaveSettingFunc   = SaveSetting
	DeleteSettingFunc = DeleteSetting
)

func QuerySettings(s *session.Session) ([]UserSetting, error) {
	records := []UserSetting{}
	if err := persistence.ActiveDataSourceManager.GormDB().
		Where("user_id = ?", s.Identity.ID).Order("setting_key ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func SaveSetting(c SettingSaving, s *session.Session) (*UserSetting, error) {
	record := UserSetting{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&UserSetting{UserID: s.Identity.ID, SettingKey: c.SettingKey}).First(&record).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = UserSetting{ID: idgen.NextID(settingIdWorker), UserID: s.Identity.ID,
				SettingKey: c.SettingKey, SettingValue: c.SettingValue, UpdateTime: types.CurrentTimestamp()}
			return tx.Create(&record).Error
		}

		record.SettingValue = c.SettingValue
		record.UpdateTime = types.CurrentTimestamp()
		return tx.Model(&UserSetting{}).Where("id = ?", record.ID).
			Updates(map[string]interface{}{"setting_value": record.SettingValue, "update_time": record.UpdateTime}).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func DeleteSetting(key string, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB().
		Delete(UserSetting{}, "user_id = ? AND setting_key = ?", s.Identity.ID, key).Error
}
