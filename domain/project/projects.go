package project

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
	StatusPlanning  = "planning"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusOnHold    = "on_hold"
)

type ConservationProject struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Title       string `json:"title"`
	Description string `json:"description" sql:"type:TEXT"`
	ProjectType string `json:"projectType"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`

	Budget        float64 `json:"budget"`
	FundingSource string  `json:"fundingSource"`

	WetlandID        types.ID `json:"wetlandId"`
	LeadOrganization string   `json:"leadOrganization"`

	CompletionPercentage int `json:"completionPercentage"`

	CreatorID  types.ID `json:"creatorId"`
	AssigneeID types.ID `json:"assigneeId"`
	ApproverID types.ID `json:"approverId"`

	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime  types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
	ApproveTime types.Timestamp `json:"approveTime" sql:"type:DATETIME(6)"`
}

func (p *ConservationProject) TableName() string {
	return "conservation_projects"
}

type ProjectCreation struct {
	Title       string `json:"title" binding:"required,lte=200"`
	Description string `json:"description"`
	ProjectType string `json:"projectType" binding:"required,oneof=restoration monitoring education research other"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high critical"`

	Budget        float64 `json:"budget" binding:"gte=0"`
	FundingSource string  `json:"fundingSource" binding:"lte=128"`

	WetlandID        types.ID `json:"wetlandId"`
	LeadOrganization string   `json:"leadOrganization" binding:"lte=128"`
}

type ProjectUpdating struct {
	Title       string `json:"title" binding:"required,lte=200"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=planning active completed cancelled on_hold"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high critical"`

	Budget               float64 `json:"budget" binding:"gte=0"`
	CompletionPercentage int     `json:"completionPercentage" binding:"gte=0,lte=100"`
}

type ProjectQuery struct {
	Status    string   `form:"status"`
	WetlandID types.ID `form:"wetlandId"`
}

var (
	projectIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateProjectFunc  = CreateProject
	QueryProjectsFunc  = QueryProjects
	UpdateProjectFunc  = UpdateProject
	ApproveProjectFunc = ApproveProject
	DeleteProjectFunc  = DeleteProject
)

func CreateProject(c ProjectCreation, s *session.Session) (*ConservationProject, error) {
	if !s.Can("create", "projects") {
		return nil, bizerror.ErrForbidden
	}

	priority := c.Priority
	if priority == "" {
		priority = "medium"
	}
	now := types.CurrentTimestamp()
	p := ConservationProject{ID: idgen.NextID(projectIdWorker),
		Title: c.Title, Description: c.Description, ProjectType: c.ProjectType,
		Status: StatusPlanning, Priority: priority,
		Budget: c.Budget, FundingSource: c.FundingSource,
		WetlandID: c.WetlandID, LeadOrganization: c.LeadOrganization,
		CreatorID: s.Identity.ID, CreateTime: now, UpdateTime: now}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "project", p.ID, p.Title, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func QueryProjects(q ProjectQuery, s *session.Session) ([]ConservationProject, error) {
	if !s.Can("read", "projects") {
		return nil, bizerror.ErrForbidden
	}

	query := persistence.ActiveDataSourceManager.GormDB().Model(&ConservationProject{}).Order("create_time DESC")
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.WetlandID != 0 {
		query = query.Where("wetland_id = ?", q.WetlandID)
	}

	projects := []ConservationProject{}
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func UpdateProject(id types.ID, u ProjectUpdating, s *session.Session) error {
	if !s.Can("update", "projects") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		p, err := findProject(tx, id)
		if err != nil {
			return err
		}
		changes := map[string]interface{}{"title": u.Title, "description": u.Description,
			"budget": u.Budget, "completion_percentage": u.CompletionPercentage,
			"update_time": types.CurrentTimestamp()}
		if u.Status != "" {
			changes["status"] = u.Status
		}
		if u.Priority != "" {
			changes["priority"] = u.Priority
		}
		if err := tx.Model(&ConservationProject{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "project", id, p.Title, nil, &s.Identity, tx)
	})
}

// ApproveProject moves a planned project into the active state.
func ApproveProject(id types.ID, s *session.Session) error {
	if !s.Can("approve", "projects") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		p, err := findProject(tx, id)
		if err != nil {
			return err
		}
		if p.Status != StatusPlanning {
			return &bizerror.ErrConflict{Message: "only a planned project can be approved"}
		}
		if err := tx.Model(&ConservationProject{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status": StatusActive, "approver_id": s.Identity.ID,
			"approve_time": types.CurrentTimestamp(), "update_time": types.CurrentTimestamp()}).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionApproved, "project", id, p.Title, nil, &s.Identity, tx)
	})
}

func DeleteProject(id types.ID, s *session.Session) error {
	if !s.Can("delete", "projects") {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		p, err := findProject(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ConservationProject{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionDeleted, "project", id, p.Title, nil, &s.Identity, tx)
	})
}

func findProject(tx *gorm.DB, id types.ID) (*ConservationProject, error) {
	p := ConservationProject{}
	if err := tx.Where(&ConservationProject{ID: id}).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
