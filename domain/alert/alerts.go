package alert

import (
	"errors"
	"wetlands/audit"
	"wetlands/bizerror"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

const (
	TypeCritical = "critical"
	TypeWarning  = "warning"
	TypeInfo     = "info"
)

type Alert struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Title     string `json:"title"`
	Message   string `json:"message" sql:"type:TEXT"`
	AlertType string `json:"alertType"`
	Severity  string `json:"severity"`
	Active    bool   `json:"active"`

	WetlandID types.ID `json:"wetlandId"`
	SensorID  types.ID `json:"sensorId"`

	ThresholdValue float64 `json:"thresholdValue"`
	ActualValue    float64 `json:"actualValue"`

	CreateTime      types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	ResolveTime     types.Timestamp `json:"resolveTime" sql:"type:DATETIME(6)"`
	AcknowledgerID  types.ID        `json:"acknowledgerId"`
	AcknowledgeTime types.Timestamp `json:"acknowledgeTime" sql:"type:DATETIME(6)"`
}

type AlertCreation struct {
	Title     string `json:"title" binding:"required,lte=200"`
	Message   string `json:"message" binding:"required"`
	AlertType string `json:"alertType" binding:"required,oneof=critical warning info"`
	Severity  string `json:"severity" binding:"required,oneof=low medium high critical"`

	WetlandID types.ID `json:"wetlandId"`
	SensorID  types.ID `json:"sensorId"`

	ThresholdValue float64 `json:"thresholdValue"`
	ActualValue    float64 `json:"actualValue"`
}

type AlertQuery struct {
	Active    *bool    `form:"active"`
	Severity  string   `form:"severity"`
	WetlandID types.ID `form:"wetlandId"`
}

var (
	alertIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateAlertFunc      = CreateAlert
	QueryAlertsFunc      = QueryAlerts
	AcknowledgeAlertFunc = AcknowledgeAlert
	ResolveAlertFunc     = ResolveAlert
)

func CreateAlert(c AlertCreation, s *session.Session) (*Alert, error) {
	if !s.Can("create", "alerts") {
		return nil, bizerror.ErrForbidden
	}

	a := Alert{ID: idgen.NextID(alertIdWorker), Title: c.Title, Message: c.Message,
		AlertType: c.AlertType, Severity: c.Severity, Active: true,
		WetlandID: c.WetlandID, SensorID: c.SensorID,
		ThresholdValue: c.ThresholdValue, ActualValue: c.ActualValue,
		CreateTime: types.CurrentTimestamp()}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "alert", a.ID, a.Title, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func QueryAlerts(q AlertQuery, s *session.Session) ([]Alert, error) {
	if !s.Can("read", "alerts") {
		return nil, bizerror.ErrForbidden
	}

	query := persistence.ActiveDataSourceManager.GormDB().Model(&Alert{}).Order("create_time DESC")
	if q.Active != nil {
		query = query.Where("active = ?", *q.Active)
	}
	if q.Severity != "" {
		query = query.Where("severity = ?", q.Severity)
	}
	if q.WetlandID != 0 {
		query = query.Where("wetland_id = ?", q.WetlandID)
	}

	alerts := []Alert{}
	if err := query.Limit(500).Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func AcknowledgeAlert(id types.ID, s *session.Session) error {
	if !s.Can("acknowledge", "alerts") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		a, err := findAlert(tx, id)
		if err != nil {
			return err
		}
		if a.AcknowledgerID != 0 {
			return &bizerror.ErrConflict{Message: "alert is already acknowledged"}
		}
		if err := tx.Model(&Alert{}).Where("id = ?", id).Updates(map[string]interface{}{
			"acknowledger_id": s.Identity.ID, "acknowledge_time": types.CurrentTimestamp()}).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionAcknowledged, "alert", id, a.Title, nil, &s.Identity, tx)
	})
}

func ResolveAlert(id types.ID, s *session.Session) error {
	if !s.Can("update", "alerts") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		a, err := findAlert(tx, id)
		if err != nil {
			return err
		}
		if !a.Active {
			return &bizerror.ErrConflict{Message: "alert is already resolved"}
		}
		if err := tx.Model(&Alert{}).Where("id = ?", id).Updates(map[string]interface{}{
			"active": false, "resolve_time": types.CurrentTimestamp()}).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "alert", id, a.Title,
			audit.Detail{"resolved": "true"}, &s.Identity, tx)
	})
}

func findAlert(tx *gorm.DB, id types.ID) (*Alert, error) {
	a := Alert{}
	if err := tx.Where(&Alert{ID: id}).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
