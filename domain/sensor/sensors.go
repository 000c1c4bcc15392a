package sensor

import (
	"errors"
	"wetlands/audit"
	"wetlands/bizerror"
	"wetlands/domain/wetland"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

const (
	StatusActive      = "active"
	StatusInactive    = "inactive"
	StatusMaintenance = "maintenance"
	StatusError       = "error"
)

type Sensor struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	WetlandID types.ID `json:"wetlandId"`

	// key of the physical device, stable across re-registration
	SensorKey string `json:"sensorKey" gorm:"unique_index:uni_sensor_key"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Status    string `json:"status"`

	BatteryLevel    float64 `json:"batteryLevel"`
	FirmwareVersion string  `json:"firmwareVersion"`

	LastSeenTime types.Timestamp `json:"lastSeenTime" sql:"type:DATETIME(6)"`
	InstallTime  types.Timestamp `json:"installTime" sql:"type:DATETIME(6) NOT NULL"`
}

type SensorCreation struct {
	WetlandID types.ID `json:"wetlandId" binding:"required"`
	SensorKey string   `json:"sensorKey" binding:"required,lte=128"`
	Name      string   `json:"name" binding:"required,lte=255"`
	Type      string   `json:"type" binding:"required,lte=64"`
}

type SensorUpdating struct {
	Name string `json:"name" binding:"required,lte=255"`
	Type string `json:"type" binding:"required,lte=64"`
}

// SensorConfiguration covers the operational knobs only.
type SensorConfiguration struct {
	Status          string `json:"status" binding:"required,oneof=active inactive maintenance error"`
	FirmwareVersion string `json:"firmwareVersion" binding:"lte=64"`
}

type SensorQuery struct {
	WetlandID types.ID `form:"wetlandId"`
	Status    string   `form:"status"`
}

var (
	sensorIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateSensorFunc    = CreateSensor
	QuerySensorsFunc    = QuerySensors
	UpdateSensorFunc    = UpdateSensor
	ConfigureSensorFunc = ConfigureSensor
	DeleteSensorFunc    = DeleteSensor
)

func init() {
	wetland.WetlandDeleteCheckFuncs = append(wetland.WetlandDeleteCheckFuncs,
		func(w wetland.Wetland, tx *gorm.DB) error {
			count := 0
			if err := tx.Model(&Sensor{}).Where("wetland_id = ?", w.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return &bizerror.ErrConflict{Message: "wetland still has sensors installed"}
			}
			return nil
		})
}

func CreateSensor(c SensorCreation, s *session.Session) (*Sensor, error) {
	if !s.Can("create", "sensors") {
		return nil, bizerror.ErrForbidden
	}

	r := Sensor{ID: idgen.NextID(sensorIdWorker), WetlandID: c.WetlandID,
		SensorKey: c.SensorKey, Name: c.Name, Type: c.Type, Status: StatusActive,
		InstallTime: types.CurrentTimestamp()}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		w := wetland.Wetland{}
		if err := tx.Where("id = ?", c.WetlandID).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "sensor", r.ID, r.Name, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func QuerySensors(q SensorQuery, s *session.Session) ([]Sensor, error) {
	if !s.Can("read", "sensors") {
		return nil, bizerror.ErrForbidden
	}

	query := persistence.ActiveDataSourceManager.GormDB().Model(&Sensor{}).Order("id ASC")
	if q.WetlandID != 0 {
		query = query.Where("wetland_id = ?", q.WetlandID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	sensors := []Sensor{}
	if err := query.Find(&sensors).Error; err != nil {
		return nil, err
	}
	return sensors, nil
}

func UpdateSensor(id types.ID, u SensorUpdating, s *session.Session) error {
	if !s.Can("update", "sensors") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r, err := findSensor(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&Sensor{}).Where("id = ?", id).
			Updates(map[string]interface{}{"name": u.Name, "type": u.Type}).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "sensor", id, r.Name, nil, &s.Identity, tx)
	})
}

func ConfigureSensor(id types.ID, c SensorConfiguration, s *session.Session) error {
	if !s.Can("configure", "sensors") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r, err := findSensor(tx, id)
		if err != nil {
			return err
		}
		changes := map[string]interface{}{"status": c.Status}
		if c.FirmwareVersion != "" {
			changes["firmware_version"] = c.FirmwareVersion
		}
		if err := tx.Model(&Sensor{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "sensor", id, r.Name,
			audit.Detail{"oldStatus": r.Status, "newStatus": c.Status}, &s.Identity, tx)
	})
}

func DeleteSensor(id types.ID, s *session.Session) error {
	if !s.Can("delete", "sensors") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r, err := findSensor(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(Sensor{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionDeleted, "sensor", id, r.Name, nil, &s.Identity, tx)
	})
}

func findSensor(tx *gorm.DB, id types.ID) (*Sensor, error) {
	r := Sensor{}
	if err := tx.Where(&Sensor{ID: id}).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
