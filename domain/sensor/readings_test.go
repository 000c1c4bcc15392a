package sensor_test

import (
	"testing"
	"wetlands/audit"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/domain/sensor"
	"wetlands/domain/wetland"
	"wetlands/persistence"
	"wetlands/testinfra"

	. "github.com/onsi/gomega"
)

func setupReadingsTestDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartMysqlTestDatabase("readings")
	persistence.ActiveDataSourceManager = testDatabase.DS
	Expect(testDatabase.DS.GormDB().AutoMigrate(
		&wetland.Wetland{}, &sensor.Sensor{}, &sensor.Reading{}, &audit.AuditLog{}).Error).To(BeNil())
	t.Cleanup(func() { testinfra.StopMysqlTestDatabase(testDatabase) })
	return testDatabase
}

func measure(v float64) *float64 {
	return &v
}

func TestIngestReading(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupReadingsTestDatabase(t)

	admin := testinfra.BuildSession(1, authority.RoleAdmin)
	w, err := wetland.CreateWetland(wetland.WetlandCreation{Name: "east marsh", Type: "marsh"}, admin)
	Expect(err).To(BeNil())
	device, err := sensor.CreateSensor(sensor.SensorCreation{
		WetlandID: w.ID, SensorKey: "dev-001", Name: "ph probe", Type: "water_quality"}, admin)
	Expect(err).To(BeNil())

	relay := testinfra.BuildSession(50, authority.RoleCommunityMember)

	t.Run("should record the reading and refresh the sensor liveness", func(t *testing.T) {
		r, err := sensor.IngestReading(sensor.ReadingCreation{
			SensorKey: "dev-001", PH: measure(7.2), Temperature: measure(18.5),
			BatteryLevel: measure(80)}, relay)
		Expect(err).To(BeNil())
		Expect(r.SensorID).To(Equal(device.ID))
		Expect(r.WetlandID).To(Equal(w.ID))
		Expect(r.Timestamp.Time().IsZero()).To(BeFalse())

		fetched := sensor.Sensor{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", device.ID).First(&fetched).Error).To(BeNil())
		Expect(fetched.LastSeenTime.Time().IsZero()).To(BeFalse())
		Expect(fetched.BatteryLevel).To(Equal(80.0))
	})

	t.Run("should leave the battery level alone when the relay omits it", func(t *testing.T) {
		_, err := sensor.IngestReading(sensor.ReadingCreation{
			SensorKey: "dev-001", PH: measure(7.1)}, relay)
		Expect(err).To(BeNil())

		fetched := sensor.Sensor{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", device.ID).First(&fetched).Error).To(BeNil())
		Expect(fetched.BatteryLevel).To(Equal(80.0))
	})

	t.Run("should answer not found for an unknown sensor key", func(t *testing.T) {
		_, err := sensor.IngestReading(sensor.ReadingCreation{SensorKey: "dev-missing"}, relay)
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})
}

func TestQueryReadings(t *testing.T) {
	RegisterTestingT(t)
	setupReadingsTestDatabase(t)

	admin := testinfra.BuildSession(1, authority.RoleAdmin)
	w, err := wetland.CreateWetland(wetland.WetlandCreation{Name: "east marsh", Type: "marsh"}, admin)
	Expect(err).To(BeNil())
	device, err := sensor.CreateSensor(sensor.SensorCreation{
		WetlandID: w.ID, SensorKey: "dev-001", Name: "ph probe", Type: "water_quality"}, admin)
	Expect(err).To(BeNil())
	_, err = sensor.IngestReading(sensor.ReadingCreation{SensorKey: "dev-001", PH: measure(7.0)}, admin)
	Expect(err).To(BeNil())
	_, err = sensor.IngestReading(sensor.ReadingCreation{SensorKey: "dev-001", PH: measure(7.4)}, admin)
	Expect(err).To(BeNil())

	t.Run("should be denied for community members", func(t *testing.T) {
		_, err := sensor.QueryReadings(sensor.ReadingQuery{},
			testinfra.BuildSession(9, authority.RoleCommunityMember))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should list readings in time order", func(t *testing.T) {
		records, err := sensor.QueryReadings(sensor.ReadingQuery{SensorID: device.ID},
			testinfra.BuildSession(2, authority.RoleResearcher))
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(2))
		Expect(*records[0].PH).To(Equal(7.0))
		Expect(*records[1].PH).To(Equal(7.4))
	})

	t.Run("should answer the latest reading only", func(t *testing.T) {
		r, err := sensor.QueryLatestReading(device.ID, testinfra.BuildSession(2, authority.RoleResearcher))
		Expect(err).To(BeNil())
		Expect(*r.PH).To(Equal(7.4))
	})
}
