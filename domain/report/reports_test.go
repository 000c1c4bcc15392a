package report_test

import (
	"testing"
	"wetlands/account"
	"wetlands/audit"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/domain/report"
	"wetlands/persistence"
	"wetlands/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setupReportsTestDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartMysqlTestDatabase("wetlands")
	persistence.ActiveDataSourceManager = testDatabase.DS
	Expect(testDatabase.DS.GormDB().AutoMigrate(
		&report.CommunityReport{}, &report.ReportComment{}, &account.User{}, &audit.AuditLog{}).Error).To(BeNil())
	t.Cleanup(func() { testinfra.StopMysqlTestDatabase(testDatabase) })
	return testDatabase
}

func TestCreateReport(t *testing.T) {
	RegisterTestingT(t)
	setupReportsTestDatabase(t)

	t.Run("should stamp the reporter and default status and severity", func(t *testing.T) {
		s := testinfra.BuildSession(30, authority.RoleCommunityMember)
		r, err := report.CreateReport(report.ReportCreation{
			ReportType: "pollution", Title: "oil film", Description: "oil film on the water"}, s)
		Expect(err).To(BeNil())
		Expect(r.ReporterID).To(Equal(s.Identity.ID))
		Expect(r.Status).To(Equal(report.StatusPending))
		Expect(r.Severity).To(Equal("medium"))
		Expect(r.Priority).To(Equal("normal"))
	})
}

func TestQueryReports(t *testing.T) {
	RegisterTestingT(t)
	setupReportsTestDatabase(t)

	member := testinfra.BuildSession(30, authority.RoleCommunityMember)
	otherMember := testinfra.BuildSession(31, authority.RoleCommunityMember)
	official := testinfra.BuildSession(40, authority.RoleGovernmentOfficial)

	mine, err := report.CreateReport(report.ReportCreation{
		ReportType: "pollution", Title: "oil film", Description: "d"}, member)
	Expect(err).To(BeNil())
	_, err = report.CreateReport(report.ReportCreation{
		ReportType: "encroachment", Title: "new fence", Description: "d"}, otherMember)
	Expect(err).To(BeNil())

	t.Run("should scope a community member to their own reports", func(t *testing.T) {
		records, err := report.QueryReports(report.ReportQuery{}, member)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).To(Equal(mine.ID))
	})

	t.Run("should show all reports to triaging roles", func(t *testing.T) {
		records, err := report.QueryReports(report.ReportQuery{}, official)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(2))
	})

	t.Run("should scope the detail view the same way", func(t *testing.T) {
		_, err := report.DetailReport(mine.ID, otherMember)
		Expect(err).To(Equal(bizerror.ErrForbidden))

		r, err := report.DetailReport(mine.ID, official)
		Expect(err).To(BeNil())
		Expect(r.Title).To(Equal("oil film"))
	})
}

func TestAssignReport(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupReportsTestDatabase(t)

	db := testDatabase.DS.GormDB()
	Expect(db.Save(&account.User{ID: 50, Name: "ann", Role: authority.RoleResearcher, Enabled: true}).Error).To(BeNil())
	Expect(db.Save(&account.User{ID: 51, Name: "walker", Role: authority.RoleCommunityMember, Enabled: true}).Error).To(BeNil())

	member := testinfra.BuildSession(30, authority.RoleCommunityMember)
	official := testinfra.BuildSession(40, authority.RoleGovernmentOfficial)
	r, err := report.CreateReport(report.ReportCreation{
		ReportType: "pollution", Title: "oil film", Description: "d"}, member)
	Expect(err).To(BeNil())

	t.Run("should be denied for community members", func(t *testing.T) {
		err := report.AssignReport(r.ID, report.Assignment{AssigneeID: 50}, member)
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should refuse an assignee below researcher rank", func(t *testing.T) {
		err := report.AssignReport(r.ID, report.Assignment{AssigneeID: 51}, official)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(Equal("assignee role is not allowed to handle reports"))
	})

	t.Run("should assign and move the report to investigating", func(t *testing.T) {
		Expect(report.AssignReport(r.ID, report.Assignment{AssigneeID: 50}, official)).To(BeNil())

		updated, err := report.DetailReport(r.ID, official)
		Expect(err).To(BeNil())
		Expect(updated.AssigneeID).To(Equal(types.ID(50)))
		Expect(updated.Status).To(Equal(report.StatusInvestigating))

		record := audit.AuditLog{}
		Expect(db.Where("action = ?", audit.ActionAssigned).First(&record).Error).To(BeNil())
		Expect(record.Detail["assignee"]).To(Equal("ann"))
	})
}

func TestDeleteReport(t *testing.T) {
	RegisterTestingT(t)
	setupReportsTestDatabase(t)

	member := testinfra.BuildSession(30, authority.RoleCommunityMember)
	official := testinfra.BuildSession(40, authority.RoleGovernmentOfficial)
	admin := testinfra.BuildSession(1, authority.RoleAdmin)

	r, err := report.CreateReport(report.ReportCreation{
		ReportType: "pollution", Title: "oil film", Description: "d"}, member)
	Expect(err).To(BeNil())
	_, err = report.CreateComment(r.ID, report.CommentCreation{Content: "saw it too"}, official)
	Expect(err).To(BeNil())

	deindexed := []types.ID{}
	deindexOrigin := report.DeindexReportFunc
	report.DeindexReportFunc = func(id types.ID) { deindexed = append(deindexed, id) }
	defer func() { report.DeindexReportFunc = deindexOrigin }()

	t.Run("should be denied below admin", func(t *testing.T) {
		Expect(report.DeleteReport(r.ID, member)).To(Equal(bizerror.ErrForbidden))
		Expect(report.DeleteReport(r.ID, official)).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should delete the report with its comments and deindex it", func(t *testing.T) {
		Expect(report.DeleteReport(r.ID, admin)).To(BeNil())
		Expect(deindexed).To(Equal([]types.ID{r.ID}))

		_, err := report.DetailReport(r.ID, admin)
		Expect(err).To(Equal(bizerror.ErrNotFound))

		comments := []report.ReportComment{}
		Expect(persistence.ActiveDataSourceManager.GormDB().
			Where("report_id = ?", r.ID).Find(&comments).Error).To(BeNil())
		Expect(comments).To(BeEmpty())
	})
}

func TestCreateComment(t *testing.T) {
	RegisterTestingT(t)
	setupReportsTestDatabase(t)

	member := testinfra.BuildSession(30, authority.RoleCommunityMember)
	otherMember := testinfra.BuildSession(31, authority.RoleCommunityMember)
	r, err := report.CreateReport(report.ReportCreation{
		ReportType: "pollution", Title: "oil film", Description: "d"}, member)
	Expect(err).To(BeNil())

	t.Run("should let a community member discuss their own report only", func(t *testing.T) {
		_, err := report.CreateComment(r.ID, report.CommentCreation{Content: "me too"}, otherMember)
		Expect(err).To(Equal(bizerror.ErrForbidden))

		comment, err := report.CreateComment(r.ID, report.CommentCreation{Content: "still there"}, member)
		Expect(err).To(BeNil())
		Expect(comment.AuthorID).To(Equal(member.Identity.ID))

		comments, err := report.QueryComments(r.ID, member)
		Expect(err).To(BeNil())
		Expect(len(comments)).To(Equal(1))
	})
}
