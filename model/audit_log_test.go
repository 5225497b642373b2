package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestAuditLogModel_CreateWithDetails(t *testing.T) {
	db := setupTestDB(t, "audit_log", &AuditLog{})

	entry := AuditLog{
		EventType: "ENTRY_COMPLETED",
		RunID:     "run-1",
		PatientID: "ANA-GAR-101",
		Message:   "completed entry recorded",
		Details:   datatypes.JSON(`{"amount_paid":"1200"}`),
	}
	err := db.Create(&entry).Error
	assert.NoError(t, err)

	var found AuditLog
	err = db.Where("patient_id = ?", "ANA-GAR-101").First(&found).Error
	assert.NoError(t, err)
	assert.Equal(t, "ENTRY_COMPLETED", found.EventType)
	assert.JSONEq(t, `{"amount_paid":"1200"}`, string(found.Details))
}

func TestModels_ListsAllTables(t *testing.T) {
	db := setupTestDB(t, "models", Models()...)

	for _, table := range []string{"servicios", "pacientes", "citas", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
