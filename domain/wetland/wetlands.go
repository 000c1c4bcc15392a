package wetland

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

var (
	// other modules register referential checks before a wetland is removed
	WetlandDeleteCheckFuncs []func(w Wetland, tx *gorm.DB) error
)

type Wetland struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name        string  `json:"name" gorm:"unique_index:uni_wetland_name"`
	Location    string  `json:"location"`
	Size        float64 `json:"size"`
	Type        string  `json:"type"`
	Description string  `json:"description" sql:"type:TEXT"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type WetlandCreation struct {
	Name        string  `json:"name" binding:"required,lte=255"`
	Location    string  `json:"location" binding:"lte=255"`
	Size        float64 `json:"size" binding:"gte=0"`
	Type        string  `json:"type" binding:"required,lte=64"`
	Description string  `json:"description"`
}

type WetlandUpdating struct {
	Name        string  `json:"name" binding:"required,lte=255"`
	Location    string  `json:"location" binding:"lte=255"`
	Size        float64 `json:"size" binding:"gte=0"`
	Type        string  `json:"type" binding:"required,lte=64"`
	Description string  `json:"description"`
}

type WetlandQuery struct {
	Type    string `form:"type"`
	Keyword string `form:"keyword"`
}

var (
	wetlandIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateWetlandFunc = CreateWetland
	QueryWetlandsFunc = QueryWetlands
	DetailWetlandFunc = DetailWetland
	UpdateWetlandFunc = UpdateWetland
	DeleteWetlandFunc = DeleteWetland
)

func CreateWetland(c WetlandCreation, s *session.Session) (*Wetland, error) {
	if !s.Can("create", "wetlands") {
		return nil, bizerror.ErrForbidden
	}

	w := Wetland{ID: idgen.NextID(wetlandIdWorker), Name: c.Name, Location: c.Location,
		Size: c.Size, Type: c.Type, Description: c.Description,
		CreatorID: s.Identity.ID, CreateTime: types.CurrentTimestamp()}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "wetland", w.ID, w.Name, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func QueryWetlands(q WetlandQuery, s *session.Session) ([]Wetland, error) {
	if !s.Can("read", "wetlands") {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	query := db.Model(&Wetland{}).Order("name ASC")
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.Keyword != "" {
		query = query.Where("name LIKE ? OR location LIKE ?", "%"+q.Keyword+"%", "%"+q.Keyword+"%")
	}

	wetlands := []Wetland{}
	if err := query.Find(&wetlands).Error; err != nil {
		return nil, err
	}
	return wetlands, nil
}

func DetailWetland(id types.ID, s *session.Session) (*Wetland, error) {
	if !s.Can("read", "wetlands") {
		return nil, bizerror.ErrForbidden
	}

	w := Wetland{}
	if err := persistence.ActiveDataSourceManager.GormDB().
		Where(&Wetland{ID: id}).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func UpdateWetland(id types.ID, u WetlandUpdating, s *session.Session) (*Wetland, error) {
	if !s.Can("update", "wetlands") {
		return nil, bizerror.ErrForbidden
	}

	w := Wetland{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&Wetland{ID: id}).First(&w).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{"name": u.Name, "location": u.Location,
			"size": u.Size, "type": u.Type, "description": u.Description}
		if err := tx.Model(&Wetland{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		if err := tx.Where(&Wetland{ID: id}).First(&w).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "wetland", id, w.Name, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func DeleteWetland(id types.ID, s *session.Session) error {
	if !s.Can("delete", "wetlands") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		w := Wetland{}
		if err := tx.Where(&Wetland{ID: id}).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		for _, f := range WetlandDeleteCheckFuncs {
			if err := f(w, tx); err != nil {
				return err
			}
		}

		if err := tx.Delete(Wetland{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionDeleted, "wetland", id, w.Name, nil, &s.Identity, tx)
	})
}
