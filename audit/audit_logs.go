package audit

import (
	"wetlands/bizerror"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	auditIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	RecordFunc         = Record
	QueryAuditLogsFunc = QueryAuditLogs
	auditPersistCreate = func(record *AuditLog, db *gorm.DB) error {
		return db.Create(record).Error
	}
)

// Record appends an audit entry within the caller's transaction. Failures
// surface to the caller so mutations and their trail stay atomic.
func Record(action, resourceType string, resourceID types.ID, resourceDesc string,
	detail Detail, identity *session.Identity, db *gorm.DB) error {

	record := AuditLog{
		ID: idgen.NextID(auditIdWorker),

		ActorID:   identity.ID,
		ActorName: identity.Name,

		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceDesc: resourceDesc,

		Detail:    detail,
		Timestamp: types.CurrentTimestamp(),
	}
	return auditPersistCreate(&record, db)
}

type AuditLogQuery struct {
	ResourceType string   `form:"resourceType"`
	ActorID      types.ID `form:"actorId"`
}

func QueryAuditLogs(q AuditLogQuery, s *session.Session) ([]AuditLog, error) {
	if !s.Can("read", "audit_logs") {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	query := db.Model(&AuditLog{}).Order("timestamp DESC")
	if q.ResourceType != "" {
		query = query.Where("resource_type = ?", q.ResourceType)
	}
	if q.ActorID != 0 {
		query = query.Where("actor_id = ?", q.ActorID)
	}

	records := []AuditLog{}
	if err := query.Limit(500).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
