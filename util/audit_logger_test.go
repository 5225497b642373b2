package util

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestLogger creates a test logger that captures output and returns it for assertions
// along with a cleanup function to restore the original logger
func setupTestLogger() (*bytes.Buffer, func()) {
	buf := &bytes.Buffer{}
	original := auditLogger
	l := zerolog.New(buf)
	auditLogger = &l
	cleanup := func() {
		auditLogger = original
	}
	return buf, cleanup
}

// assertLogContains checks if the log output contains all expected substrings
func assertLogContains(t *testing.T, output string, expected []string) {
	for _, expectedSubstr := range expected {
		if !strings.Contains(output, expectedSubstr) {
			t.Errorf("Log output missing expected substring %q\nGot: %s", expectedSubstr, output)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes newlines",
			input:    "hello\nworld",
			expected: "hello world",
		},
		{
			name:     "removes tabs",
			input:    "hello\tworld",
			expected: "hello world",
		},
		{
			name:     "truncates long values",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", 200) + "...",
		},
		{
			name:     "combines multiple issues",
			input:    "line1\nline2\rline3\ttab",
			expected: "line1 line2 line3 tab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeLogValue(tt.input))
		})
	}
}

func TestLogAuditEvent_WritesStructuredLine(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	LogAuditEvent(AuditEvent{
		EventType: EventEntryCompleted,
		RunID:     "run-42",
		PatientID: "ANA-GAR-101",
		Message:   "completed\nentry",
		Details:   map[string]interface{}{"amount_paid": "1200"},
	})

	assertLogContains(t, buf.String(), []string{
		`"event":"ENTRY_COMPLETED"`,
		`"run_id":"run-42"`,
		`"patient_id":"ANA-GAR-101"`,
		`"details_count":1`,
		`"message":"completed entry"`,
	})
}

func TestLogDuplicateIdentifier(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	LogDuplicateIdentifier("ANA-GAR-101", 2)

	assertLogContains(t, buf.String(), []string{
		`"event":"DUPLICATE_IDENTIFIER"`,
		"attempt 2",
	})
}

func TestLogAuditEvent_PersistsWhenDBSet(t *testing.T) {
	_, cleanup := setupTestLogger()
	defer cleanup()

	dsn := fmt.Sprintf("file:testdb_audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&model.AuditLog{}))

	SetAuditLoggerDB(db)
	defer SetAuditLoggerDB(nil)

	LogAuditEvent(AuditEvent{
		EventType: EventSimulationFinished,
		RunID:     "run-7",
		Message:   "simulation finished",
		Details:   map[string]interface{}{"completed": 12},
	})

	var stored model.AuditLog
	err = db.Where("run_id = ?", "run-7").First(&stored).Error
	assert.NoError(t, err)
	assert.Equal(t, string(EventSimulationFinished), stored.EventType)
	assert.JSONEq(t, `{"completed":12}`, string(stored.Details))
}
