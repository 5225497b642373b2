package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog represents a persisted ledger audit event
type AuditLog struct {
	gorm.Model
	EventType string `json:"event_type" gorm:"column:event_type;type:varchar(64);index"`
	RunID     string `json:"run_id" gorm:"column:run_id;type:varchar(64);index"`
	Actor     string `json:"actor" gorm:"column:actor;type:varchar(100)"`
	PatientID string `json:"patient_id" gorm:"column:patient_id;type:varchar(32);index"`
	Message   string `json:"message" gorm:"column:message;type:text"`
	// Details holds event specific attributes such as amounts or request paths.
	Details datatypes.JSON `json:"details" gorm:"column:details;type:json"`
}

// Models lists every table managed by this module, in migration order.
func Models() []interface{} {
	return []interface{}{&Service{}, &Patient{}, &Cita{}, &AuditLog{}}
}
