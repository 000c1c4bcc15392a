package report

import (
	"errors"
	"wetlands/account"
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

const (
	StatusPending       = "pending"
	StatusInvestigating = "investigating"
	StatusResolved      = "resolved"
	StatusClosed        = "closed"
)

type CommunityReport struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ReporterID   types.ID `json:"reporterId" gorm:"index:idx_report_reporter"`
	ReporterName string   `json:"reporterName"`

	ReportType  string `json:"reportType"`
	Title       string `json:"title"`
	Description string `json:"description" sql:"type:TEXT"`

	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	LocationDesc string   `json:"locationDesc" sql:"type:TEXT"`
	WetlandID    types.ID `json:"wetlandId"`

	Severity string `json:"severity"`
	Status   string `json:"status"`
	Priority string `json:"priority"`

	AssigneeID      types.ID `json:"assigneeId"`
	ResolutionNotes string   `json:"resolutionNotes" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ReportCreation struct {
	ReportType  string `json:"reportType" binding:"required,oneof=pollution encroachment illegal_dumping habitat_destruction other"`
	Title       string `json:"title" binding:"required,lte=200"`
	Description string `json:"description" binding:"required"`

	Latitude     float64  `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude    float64  `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	LocationDesc string   `json:"locationDesc"`
	WetlandID    types.ID `json:"wetlandId"`

	Severity string `json:"severity" binding:"omitempty,oneof=low medium high critical"`
}

type ReportQuery struct {
	Status    string   `form:"status"`
	Severity  string   `form:"severity"`
	WetlandID types.ID `form:"wetlandId"`
}

type StatusUpdating struct {
	Status          string `json:"status" binding:"required,oneof=pending investigating resolved closed"`
	Priority        string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	ResolutionNotes string `json:"resolutionNotes"`
}

type Assignment struct {
	AssigneeID types.ID `json:"assigneeId" binding:"required"`
}

var (
	reportIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateReportFunc       = CreateReport
	QueryReportsFunc       = QueryReports
	DetailReportFunc       = DetailReport
	UpdateReportStatusFunc = UpdateReportStatus
	AssignReportFunc       = AssignReport
	DeleteReportFunc       = DeleteReport

	// IndexReportFunc pushes a report into the search index after a
	// successful mutation, best effort. Wired in main, no-op by default.
	IndexReportFunc = func(r CommunityReport) {}
	// DeindexReportFunc removes a deleted report from the search index.
	DeindexReportFunc = func(id types.ID) {}
)

func CreateReport(c ReportCreation, s *session.Session) (*CommunityReport, error) {
	if !s.Can("create", "community_reports") {
		return nil, bizerror.ErrForbidden
	}

	severity := c.Severity
	if severity == "" {
		severity = "medium"
	}
	now := types.CurrentTimestamp()
	r := CommunityReport{ID: idgen.NextID(reportIdWorker),
		ReporterID: s.Identity.ID, ReporterName: s.Identity.Name,
		ReportType: c.ReportType, Title: c.Title, Description: c.Description,
		Latitude: c.Latitude, Longitude: c.Longitude, LocationDesc: c.LocationDesc,
		WetlandID: c.WetlandID, Severity: severity, Status: StatusPending, Priority: "normal",
		CreateTime: now, UpdateTime: now}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "community_report", r.ID, r.Title, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	IndexReportFunc(r)
	return &r, nil
}

// QueryReports: a community member only sees reports they filed
// themselves, every other granted role sees all.
func QueryReports(q ReportQuery, s *session.Session) ([]CommunityReport, error) {
	if !s.Can("read", "community_reports") {
		return nil, bizerror.ErrForbidden
	}

	query := persistence.ActiveDataSourceManager.GormDB().Model(&CommunityReport{}).Order("create_time DESC")
	if s.Role == authority.RoleCommunityMember {
		query = query.Where("reporter_id = ?", s.Identity.ID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Severity != "" {
		query = query.Where("severity = ?", q.Severity)
	}
	if q.WetlandID != 0 {
		query = query.Where("wetland_id = ?", q.WetlandID)
	}

	reports := []CommunityReport{}
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func DetailReport(id types.ID, s *session.Session) (*CommunityReport, error) {
	if !s.Can("read", "community_reports") {
		return nil, bizerror.ErrForbidden
	}

	r := CommunityReport{}
	if err := persistence.ActiveDataSourceManager.GormDB().
		Where(&CommunityReport{ID: id}).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if s.Role == authority.RoleCommunityMember && r.ReporterID != s.Identity.ID {
		return nil, bizerror.ErrForbidden
	}
	return &r, nil
}

func UpdateReportStatus(id types.ID, u StatusUpdating, s *session.Session) error {
	if !s.Can("update", "community_reports") {
		return bizerror.ErrForbidden
	}

	var updated CommunityReport
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r, err := findReport(tx, id)
		if err != nil {
			return err
		}
		changes := map[string]interface{}{"status": u.Status, "update_time": types.CurrentTimestamp()}
		if u.Priority != "" {
			changes["priority"] = u.Priority
		}
		if u.ResolutionNotes != "" {
			changes["resolution_notes"] = u.ResolutionNotes
		}
		if err := tx.Model(&CommunityReport{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		if err := tx.Where(&CommunityReport{ID: id}).First(&updated).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionUpdated, "community_report", id, r.Title,
			audit.Detail{"oldStatus": r.Status, "newStatus": u.Status}, &s.Identity, tx)
	})
	if err != nil {
		return err
	}
	IndexReportFunc(updated)
	return nil
}

// AssignReport hands a report to a user whose role ranks researcher or
// higher; community members cannot be assignees.
func AssignReport(id types.ID, a Assignment, s *session.Session) error {
	if !s.Can("assign", "community_reports") {
		return bizerror.ErrForbidden
	}

	var updated CommunityReport
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r, err := findReport(tx, id)
		if err != nil {
			return err
		}

		assignee := account.User{}
		if err := tx.Model(&account.User{}).Where("id = ?", a.AssigneeID).First(&assignee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &bizerror.ErrBadParam{Cause: errors.New("assignee not found")}
			}
			return err
		}
		if !authority.HasHigherOrEqualRole(assignee.Role, authority.RoleResearcher) {
			return &bizerror.ErrBadParam{Cause: errors.New("assignee role is not allowed to handle reports")}
		}

		changes := map[string]interface{}{"assignee_id": a.AssigneeID,
			"status": StatusInvestigating, "update_time": types.CurrentTimestamp()}
		if err := tx.Model(&CommunityReport{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		if err := tx.Where(&CommunityReport{ID: id}).First(&updated).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionAssigned, "community_report", id, r.Title,
			audit.Detail{"assignee": assignee.Name}, &s.Identity, tx)
	})
	if err != nil {
		return err
	}
	IndexReportFunc(updated)
	return nil
}

func DeleteReport(id types.ID, s *session.Session) error {
	if !s.Can("delete", "community_reports") {
		return bizerror.ErrForbidden
	}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r, err := findReport(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ReportComment{}, "report_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(CommunityReport{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionDeleted, "community_report", id, r.Title, nil, &s.Identity, tx)
	})
	if err != nil {
		return err
	}
	DeindexReportFunc(id)
	return nil
}

func findReport(tx *gorm.DB, id types.ID) (*CommunityReport, error) {
	r := CommunityReport{}
	if err := tx.Where(&CommunityReport{ID: id}).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
