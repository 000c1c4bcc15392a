package sensor

import (
	"errors"
	"time"
	"wetlands/bizerror"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type Reading struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	SensorID  types.ID `json:"sensorId" gorm:"index:idx_reading_sensor"`
	WetlandID types.ID `json:"wetlandId" gorm:"index:idx_reading_wetland"`

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6) NOT NULL"`

	Temperature     *float64 `json:"temperature"`
	PH              *float64 `json:"ph"`
	DissolvedOxygen *float64 `json:"dissolvedOxygen"`
	Turbidity       *float64 `json:"turbidity"`
}

func (r *Reading) TableName() string {
	return "sensor_readings"
}

type ReadingCreation struct {
	SensorKey string `json:"sensorKey" binding:"required"`

	Temperature     *float64 `json:"temperature"`
	PH              *float64 `json:"ph" binding:"omitempty,gte=0,lte=14"`
	DissolvedOxygen *float64 `json:"dissolvedOxygen" binding:"omitempty,gte=0"`
	Turbidity       *float64 `json:"turbidity" binding:"omitempty,gte=0"`

	BatteryLevel *float64 `json:"batteryLevel" binding:"omitempty,gte=0,lte=100"`
}

type ReadingQuery struct {
	SensorID  types.ID `form:"sensorId"`
	WetlandID types.ID `form:"wetlandId"`

	Begin time.Time `form:"begin" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
}

var (
	readingIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	IngestReadingFunc      = IngestReading
	QueryReadingsFunc      = QueryReadings
	QueryLatestReadingFunc = QueryLatestReading
)

// IngestReading accepts one measurement from a device relay. The relay is
// an authenticated caller but needs no sensor permission. The owning
// sensor's liveness fields are refreshed in the same transaction.
func IngestReading(c ReadingCreation, s *session.Session) (*Reading, error) {
	r := Reading{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		owner := Sensor{}
		if err := tx.Where(&Sensor{SensorKey: c.SensorKey}).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		r = Reading{ID: idgen.NextID(readingIdWorker), SensorID: owner.ID, WetlandID: owner.WetlandID,
			Timestamp:   types.CurrentTimestamp(),
			Temperature: c.Temperature, PH: c.PH, DissolvedOxygen: c.DissolvedOxygen, Turbidity: c.Turbidity}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}

		changes := map[string]interface{}{"last_seen_time": r.Timestamp}
		if c.BatteryLevel != nil {
			changes["battery_level"] = *c.BatteryLevel
		}
		return tx.Model(&Sensor{}).Where("id = ?", owner.ID).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryReadings(q ReadingQuery, s *session.Session) ([]Reading, error) {
	if !s.Can("read", "sensors") {
		return nil, bizerror.ErrForbidden
	}

	query := persistence.ActiveDataSourceManager.GormDB().Model(&Reading{}).Order("timestamp ASC")
	if q.SensorID != 0 {
		query = query.Where("sensor_id = ?", q.SensorID)
	}
	if q.WetlandID != 0 {
		query = query.Where("wetland_id = ?", q.WetlandID)
	}
	if !q.Begin.IsZero() {
		query = query.Where("timestamp >= ?", q.Begin)
	}
	if !q.End.IsZero() {
		query = query.Where("timestamp < ?", q.End)
	}

	readings := []Reading{}
	if err := query.Limit(10000).Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func QueryLatestReading(sensorId types.ID, s *session.Session) (*Reading, error) {
	if !s.Can("read", "sensors") {
		return nil, bizerror.ErrForbidden
	}

	r := Reading{}
	if err := persistence.ActiveDataSourceManager.GormDB().
		Where("sensor_id = ?", sensorId).Order("timestamp DESC").First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
