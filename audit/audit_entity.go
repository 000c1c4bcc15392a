package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

const (
	ActionCreated      = "CREATED"
	ActionUpdated      = "UPDATED"
	ActionDeleted      = "DELETED"
	ActionAssigned     = "ASSIGNED"
	ActionAcknowledged = "ACKNOWLEDGED"
	ActionApproved     = "APPROVED"
	ActionRoleChanged  = "ROLE_CHANGED"
	ActionLogin        = "LOGIN"
	ActionLogout       = "LOGOUT"
)

type AuditLog struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ActorID   types.ID `json:"actorId"`
	ActorName string   `json:"actorName"`

	Action       string   `json:"action"`
	ResourceType string   `json:"resourceType"`
	ResourceID   types.ID `json:"resourceId"`
	ResourceDesc string   `json:"resourceDesc"`

	Detail Detail `json:"detail" sql:"type:TEXT"`

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6)"`
}

func (r *AuditLog) TableName() string {
	return "audit_logs"
}

type Detail map[string]string

func (t Detail) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (t *Detail) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonBytes, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonBytes)
	}
	return json.Unmarshal([]byte(jsonString), t)
}
