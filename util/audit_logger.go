package util

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType represents different types of ledger audit events
type AuditEventType string

const (
	EventCatalogSeeded       AuditEventType = "CATALOG_SEEDED"
	EventPatientRegistered   AuditEventType = "PATIENT_REGISTERED"
	EventDuplicateIdentifier AuditEventType = "DUPLICATE_IDENTIFIER"
	EventEntryCompleted      AuditEventType = "ENTRY_COMPLETED"
	EventEntryScheduled      AuditEventType = "ENTRY_SCHEDULED"
	EventAttendanceChanged   AuditEventType = "ATTENDANCE_CHANGED"
	EventSimulationStarted   AuditEventType = "SIMULATION_STARTED"
	EventSimulationFinished  AuditEventType = "SIMULATION_FINISHED"
	EventSimulationFailed    AuditEventType = "SIMULATION_FAILED"
	EventRateLimitExceeded   AuditEventType = "RATE_LIMIT_EXCEEDED"
	EventUnauthorizedAccess  AuditEventType = "UNAUTHORIZED_ACCESS"
	EventEndpointCall        AuditEventType = "ENDPOINT_CALL"
)

// AuditEvent represents an audit event to be logged
type AuditEvent struct {
	EventType AuditEventType
	RunID     string
	Actor     string
	PatientID string
	Message   string
	Details   map[string]interface{}
}

var auditLogger *zerolog.Logger
var auditDB *gorm.DB

// SetAuditLoggerDB sets a gorm DB instance used to persist audit events.
// Pass nil to stop persisting. Events must not be logged while a write
// transaction on the same database is still open.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

func currentAuditLogger() *zerolog.Logger {
	if auditLogger != nil {
		return auditLogger
	}
	l := log.With().Str("component", "audit").Logger()
	return &l
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogAuditEvent logs an audit event and persists it when an audit DB is set.
func LogAuditEvent(event AuditEvent) {
	l := currentAuditLogger()
	e := l.Info()
	if event.EventType == EventSimulationFailed || event.EventType == EventUnauthorizedAccess {
		e = l.Warn()
	}
	e = e.Str("event", sanitizeLogValue(string(event.EventType)))
	if event.RunID != "" {
		e = e.Str("run_id", sanitizeLogValue(event.RunID))
	}
	if event.Actor != "" {
		e = e.Str("actor", sanitizeLogValue(event.Actor))
	}
	if event.PatientID != "" {
		e = e.Str("patient_id", sanitizeLogValue(event.PatientID))
	}
	if len(event.Details) > 0 {
		e = e.Int("details_count", len(event.Details))
	}
	e.Msg(sanitizeLogValue(event.Message))

	if auditDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.AuditLog{
		EventType: string(event.EventType),
		RunID:     sanitizeLogValue(event.RunID),
		Actor:     sanitizeLogValue(event.Actor),
		PatientID: sanitizeLogValue(event.PatientID),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}

	// best-effort write; the audited operation has already committed
	if err := auditDB.Create(&entry).Error; err != nil {
		l.Error().Err(err).Msg("failed to persist audit event")
	}
}

// LogDuplicateIdentifier records a tolerated patient identifier collision.
func LogDuplicateIdentifier(patientID string, attempt int) {
	LogAuditEvent(AuditEvent{
		EventType: EventDuplicateIdentifier,
		PatientID: patientID,
		Message:   fmt.Sprintf("identifier collision on attempt %d, retrying", attempt),
		Details:   map[string]interface{}{"attempt": attempt},
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogAuditEvent(AuditEvent{
		EventType: EventRateLimitExceeded,
		Actor:     ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}

// LogUnauthorizedAccess logs rejected operator requests
func LogUnauthorizedAccess(ip, resource, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: EventUnauthorizedAccess,
		Actor:     ip,
		Message:   fmt.Sprintf("Unauthorized access to %s: %s", resource, reason),
	})
}

// SetAuditLoggerForTest sets a custom logger for testing purposes
func SetAuditLoggerForTest(logger *zerolog.Logger) {
	auditLogger = logger
}
