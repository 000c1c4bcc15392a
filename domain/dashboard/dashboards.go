package dashboard

import (
	"wetlands/account"
	"wetlands/bizerror"
	"wetlands/domain/alert"
	"wetlands/domain/observation"
	"wetlands/domain/report"
	"wetlands/domain/sensor"
	"wetlands/domain/wetland"
	"wetlands/persistence"
	"wetlands/session"
)

// Summary is the overview block every authenticated role may load.
type Summary struct {
	WetlandCount     int `json:"wetlandCount"`
	SensorCount      int `json:"sensorCount"`
	ActiveSensors    int `json:"activeSensors"`
	ActiveAlerts     int `json:"activeAlerts"`
	PendingReports   int `json:"pendingReports"`
	ObservationCount int `json:"observationCount"`
}

// Analytics carries the aggregate figures gated by (read, analytics).
type Analytics struct {
	UserCountByRole   map[string]int `json:"userCountByRole"`
	ReportsByStatus   map[string]int `json:"reportsByStatus"`
	SensorsByStatus   map[string]int `json:"sensorsByStatus"`
	ReadingsLast24h   int            `json:"readingsLast24h"`
	AcknowledgedRatio float64        `json:"acknowledgedRatio"`
}

var (
	LoadSummaryFunc   = LoadSummary
	LoadAnalyticsFunc = LoadAnalytics
)

func LoadSummary(s *session.Session) (*Summary, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	r := Summary{}

	if err := db.Model(&wetland.Wetland{}).Count(&r.WetlandCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&sensor.Sensor{}).Count(&r.SensorCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&sensor.Sensor{}).Where("status = ?", sensor.StatusActive).
		Count(&r.ActiveSensors).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&alert.Alert{}).Where("active = ?", true).Count(&r.ActiveAlerts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&report.CommunityReport{}).Where("status = ?", report.StatusPending).
		Count(&r.PendingReports).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&observation.Observation{}).Count(&r.ObservationCount).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func LoadAnalytics(s *session.Session) (*Analytics, error) {
	if !s.Can("read", "analytics") {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	r := Analytics{UserCountByRole: map[string]int{}, ReportsByStatus: map[string]int{}, SensorsByStatus: map[string]int{}}

	type bucket struct {
		Key   string
		Count int
	}

	buckets := []bucket{}
	if err := db.Model(&account.User{}).Select("role as `key`, count(*) as count").
		Group("role").Scan(&buckets).Error; err != nil {
		return nil, err
	}
	for _, b := range buckets {
		r.UserCountByRole[b.Key] = b.Count
	}

	buckets = []bucket{}
	if err := db.Model(&report.CommunityReport{}).Select("status as `key`, count(*) as count").
		Group("status").Scan(&buckets).Error; err != nil {
		return nil, err
	}
	for _, b := range buckets {
		r.ReportsByStatus[b.Key] = b.Count
	}

	buckets = []bucket{}
	if err := db.Model(&sensor.Sensor{}).Select("status as `key`, count(*) as count").
		Group("status").Scan(&buckets).Error; err != nil {
		return nil, err
	}
	for _, b := range buckets {
		r.SensorsByStatus[b.Key] = b.Count
	}

	if err := db.Model(&sensor.Reading{}).
		Where("timestamp > DATE_SUB(NOW(6), INTERVAL 24 HOUR)").Count(&r.ReadingsLast24h).Error; err != nil {
		return nil, err
	}

	total, acked := 0, 0
	if err := db.Model(&alert.Alert{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&alert.Alert{}).Where("acknowledger_id <> 0").Count(&acked).Error; err != nil {
		return nil, err
	}
	if total > 0 {
		r.AcknowledgedRatio = float64(acked) / float64(total)
	}
	return &r, nil
}
