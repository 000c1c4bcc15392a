package report

import (
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type ReportComment struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	ReportID types.ID `json:"reportId" gorm:"index:idx_comment_report"`

	AuthorID   types.ID `json:"authorId"`
	AuthorName string   `json:"authorName"`
	Content    string   `json:"content" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type CommentCreation struct {
	Content string `json:"content" binding:"required"`
}

var (
	commentIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateCommentFunc = CreateComment
	QueryCommentsFunc = QueryComments
)

func CreateComment(reportId types.ID, c CommentCreation, s *session.Session) (*ReportComment, error) {
	if !s.Can("comment", "community_reports") {
		return nil, bizerror.ErrForbidden
	}

	comment := ReportComment{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r, err := findReport(tx, reportId)
		if err != nil {
			return err
		}
		// a community member may only discuss their own report
		if s.Role == authority.RoleCommunityMember && r.ReporterID != s.Identity.ID {
			return bizerror.ErrForbidden
		}

		comment = ReportComment{ID: idgen.NextID(commentIdWorker), ReportID: reportId,
			AuthorID: s.Identity.ID, AuthorName: s.Identity.Name, Content: c.Content,
			CreateTime: types.CurrentTimestamp()}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func QueryComments(reportId types.ID, s *session.Session) ([]ReportComment, error) {
	if _, err := DetailReportFunc(reportId, s); err != nil {
		return nil, err
	}

	comments := []ReportComment{}
	if err := persistence.ActiveDataSourceManager.GormDB().
		Where("report_id = ?", reportId).Order("create_time ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
