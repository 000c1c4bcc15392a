package observation

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

type Observation struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	WetlandID types.ID `json:"wetlandId" gorm:"index:idx_observation_wetland"`

	Species string `json:"species"`
	Count   int    `json:"count"`
	Notes   string `json:"notes" sql:"type:TEXT"`

	ObserverID  types.ID        `json:"observerId"`
	ObserveTime types.Timestamp `json:"observeTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ObservationCreation struct {
	WetlandID types.ID `json:"wetlandId" binding:"required"`
	Species   string   `json:"species" binding:"required,lte=255"`
	Count     int      `json:"count" binding:"required,gte=1"`
	Notes     string   `json:"notes"`
}

type ObservationUpdating struct {
	Species string `json:"species" binding:"required,lte=255"`
	Count   int    `json:"count" binding:"required,gte=1"`
	Notes   string `json:"notes"`
}

type ObservationQuery struct {
	WetlandID types.ID `form:"wetlandId"`
	Species   string   `form:"species"`
}

var (
	observationIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateObservationFunc = CreateObservation
	QueryObservationsFunc = QueryObservations
	UpdateObservationFunc = UpdateObservation
	DeleteObservationFunc = DeleteObservation
)

func CreateObservation(c ObservationCreation, s *session.Session) (*Observation, error) {
	if !s.Can("create", "observations") {
		return nil, bizerror.ErrForbidden
	}

	o := Observation{ID: idgen.NextID(observationIdWorker), WetlandID: c.WetlandID,
		Species: c.Species, Count: c.Count, Notes: c.Notes,
		ObserverID: s.Identity.ID, ObserveTime: types.CurrentTimestamp()}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&o).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "observation", o.ID, o.Species, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func QueryObservations(q ObservationQuery, s *session.Session) ([]Observation, error) {
	if !s.Can("read", "observations") {
		return nil, bizerror.ErrForbidden
	}

	query := persistence.ActiveDataSourceManager.GormDB().Model(&Observation{}).Order("observe_time DESC")
	if q.WetlandID != 0 {
		query = query.Where("wetland_id = ?", q.WetlandID)
	}
	if q.Species != "" {
		query = query.Where("species LIKE ?", "%"+q.Species+"%")
	}

	observations := []Observation{}
	if err := query.Find(&observations).Error; err != nil {
		return nil, err
	}
	return observations, nil
}

func UpdateObservation(id types.ID, u ObservationUpdating, s *session.Session) error {
	if !s.Can("update", "observations") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		o, err := findObservation(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&Observation{}).Where("id = ?", id).
			Updates(map[string]interface{}{"species": u.Species, "count": u.Count, "notes": u.Notes}).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "observation", id, o.Species, nil, &s.Identity, tx)
	})
}

func DeleteObservation(id types.ID, s *session.Session) error {
	if !s.Can("delete", "observations") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		o, err := findObservation(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(Observation{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionDeleted, "observation", id, o.Species, nil, &s.Identity, tx)
	})
}

func findObservation(tx *gorm.DB, id types.ID) (*Observation, error) {
	o := Observation{}
	if err := tx.Where(&Observation{ID: id}).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
