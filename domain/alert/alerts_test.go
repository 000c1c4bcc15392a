package alert_test

import (
	"testing"
	"wetlands/audit"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/domain/alert"
	"wetlands/persistence"
	"wetlands/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setupAlertsTestDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartMysqlTestDatabase("alerts")
	persistence.ActiveDataSourceManager = testDatabase.DS
	Expect(testDatabase.DS.GormDB().AutoMigrate(&alert.Alert{}, &audit.AuditLog{}).Error).To(BeNil())
	t.Cleanup(func() { testinfra.StopMysqlTestDatabase(testDatabase) })
	return testDatabase
}

func buildAlert(t *testing.T) *alert.Alert {
	a, err := alert.CreateAlert(alert.AlertCreation{
		Title: "ph out of range", Message: "ph 9.2 on sensor dev-001",
		AlertType: alert.TypeCritical, Severity: "high",
		WetlandID: 100, SensorID: 200, ThresholdValue: 8.5, ActualValue: 9.2},
		testinfra.BuildSession(1, authority.RoleAdmin))
	Expect(err).To(BeNil())
	return a
}

func TestCreateAlert(t *testing.T) {
	RegisterTestingT(t)
	setupAlertsTestDatabase(t)

	t.Run("should be admin only", func(t *testing.T) {
		_, err := alert.CreateAlert(alert.AlertCreation{
			Title: "t", Message: "m", AlertType: alert.TypeInfo, Severity: "low"},
			testinfra.BuildSession(1, authority.RoleResearcher))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should create an active alert with a create time", func(t *testing.T) {
		a := buildAlert(t)
		Expect(a.ID).ToNot(BeZero())
		Expect(a.Active).To(BeTrue())
		Expect(a.CreateTime.Time().IsZero()).To(BeFalse())
	})
}

func TestAcknowledgeAlert(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupAlertsTestDatabase(t)

	a := buildAlert(t)

	t.Run("should be denied for community members", func(t *testing.T) {
		err := alert.AcknowledgeAlert(a.ID, testinfra.BuildSession(9, authority.RoleCommunityMember))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should stamp the acknowledger and the acknowledge time", func(t *testing.T) {
		s := testinfra.BuildSession(30, authority.RoleGovernmentOfficial)
		Expect(alert.AcknowledgeAlert(a.ID, s)).To(BeNil())

		fetched := alert.Alert{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", a.ID).First(&fetched).Error).To(BeNil())
		Expect(fetched.AcknowledgerID).To(Equal(s.Identity.ID))
		Expect(fetched.AcknowledgeTime.Time().IsZero()).To(BeFalse())
		Expect(fetched.Active).To(BeTrue())

		record := audit.AuditLog{}
		Expect(testDatabase.DS.GormDB().
			Where("resource_type = ? AND resource_id = ? AND action = ?",
				"alert", a.ID, audit.ActionAcknowledged).First(&record).Error).To(BeNil())
	})

	t.Run("should refuse a second acknowledgement", func(t *testing.T) {
		err := alert.AcknowledgeAlert(a.ID, testinfra.BuildSession(31, authority.RoleResearcher))
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(Equal("alert is already acknowledged"))
	})

	t.Run("should answer not found for a missing id", func(t *testing.T) {
		err := alert.AcknowledgeAlert(types.ID(424242), testinfra.BuildSession(30, authority.RoleAdmin))
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})
}

func TestResolveAlert(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupAlertsTestDatabase(t)

	a := buildAlert(t)

	t.Run("should be denied for roles without the update permission", func(t *testing.T) {
		err := alert.ResolveAlert(a.ID, testinfra.BuildSession(30, authority.RoleGovernmentOfficial))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should deactivate and stamp the resolve time", func(t *testing.T) {
		Expect(alert.ResolveAlert(a.ID, testinfra.BuildSession(2, authority.RoleAdmin))).To(BeNil())

		fetched := alert.Alert{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", a.ID).First(&fetched).Error).To(BeNil())
		Expect(fetched.Active).To(BeFalse())
		Expect(fetched.ResolveTime.Time().IsZero()).To(BeFalse())
	})

	t.Run("should refuse to resolve twice", func(t *testing.T) {
		err := alert.ResolveAlert(a.ID, testinfra.BuildSession(2, authority.RoleAdmin))
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(Equal("alert is already resolved"))
	})
}
