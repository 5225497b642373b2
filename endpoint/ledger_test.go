package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedBody(patientID, date, payment string) map[string]interface{} {
	return map[string]interface{}{
		"id_paciente":    patientID,
		"categoria":      "Operatoria",
		"tratamiento":    "Resina simple",
		"doctor_atendio": "Dra. Sofía Martínez",
		"fecha":          date,
		"hora":           "10:00",
		"pago":           payment,
	}
}

func scheduledBody(patientID, date string) map[string]interface{} {
	return map[string]interface{}{
		"id_paciente":    patientID,
		"categoria":      "Preventiva",
		"tratamiento":    "Limpieza dental (profilaxis)",
		"doctor_atendio": "Dr. Carlos Ramírez",
		"fecha":          date,
		"hora":           "11:30",
	}
}

func TestCreateCompletedEntry(t *testing.T) {
	r, _, token := setupEndpointTest(t)
	id := registerPatient(t, r, token)

	w, resp := doRequest(t, r, requestParams{
		method: http.MethodPost, path: "/ledger/completed", token: token,
		body: completedBody(id, "14/06/2024", "partial"),
	})
	assertStatus(t, w, http.StatusCreated)
	data := dataMap(t, resp)
	assert.Equal(t, "600", data["monto_pagado"])
	assert.Equal(t, "600", data["saldo_pendiente"])
	assert.Equal(t, string(model.PaymentPending), data["estado_pago"])
	assert.Equal(t, string(model.AttendanceAttended), data["estatus_asistencia"])
	assert.Equal(t, "14/06/2024", data["fecha_pago"])
}

func TestCreateCompletedEntry_Errors(t *testing.T) {
	r, _, token := setupEndpointTest(t)
	id := registerPatient(t, r, token)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"future visit", completedBody(id, "16/06/2024", "full"), http.StatusUnprocessableEntity},
		{"unknown patient", completedBody("ZZZ-ZZZ-000", "14/06/2024", "full"), http.StatusUnprocessableEntity},
		{"bad date", completedBody(id, "2024-06-14", "full"), http.StatusBadRequest},
		{"bad outcome", completedBody(id, "14/06/2024", "credit"), http.StatusBadRequest},
		{"missing doctor", func() map[string]interface{} {
			b := completedBody(id, "14/06/2024", "full")
			delete(b, "doctor_atendio")
			return b
		}(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, r, requestParams{method: http.MethodPost, path: "/ledger/completed", token: token, body: tt.body})
			assertStatus(t, w, tt.status)
			assert.False(t, resp.Success)
		})
	}
}

func TestCreateScheduledEntry(t *testing.T) {
	r, _, token := setupEndpointTest(t)
	id := registerPatient(t, r, token)

	w, resp := doRequest(t, r, requestParams{
		method: http.MethodPost, path: "/ledger/scheduled", token: token,
		body: scheduledBody(id, "17/06/2024"),
	})
	assertStatus(t, w, http.StatusCreated)
	data := dataMap(t, resp)
	assert.Equal(t, string(model.AttendanceScheduled), data["estatus_asistencia"])
	assert.Equal(t, "0", data["precio_final"])

	w, _ = doRequest(t, r, requestParams{
		method: http.MethodPost, path: "/ledger/scheduled", token: token,
		body: scheduledBody(id, "10/06/2024"),
	})
	assertStatus(t, w, http.StatusUnprocessableEntity)
}

func TestListLedgerAndBalance(t *testing.T) {
	r, _, token := setupEndpointTest(t)
	id := registerPatient(t, r, token)

	for _, body := range []map[string]interface{}{
		completedBody(id, "10/06/2024", "full"),
		completedBody(id, "12/06/2024", "partial"),
	} {
		w, _ := doRequest(t, r, requestParams{method: http.MethodPost, path: "/ledger/completed", token: token, body: body})
		assertStatus(t, w, http.StatusCreated)
	}
	w, _ := doRequest(t, r, requestParams{method: http.MethodPost, path: "/ledger/scheduled", token: token, body: scheduledBody(id, "18/06/2024")})
	assertStatus(t, w, http.StatusCreated)

	w, resp := doRequest(t, r, requestParams{method: http.MethodGet, path: "/ledger"})
	assertStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 3, dataMap(t, resp)["total"])

	w, resp = doRequest(t, r, requestParams{method: http.MethodGet, path: "/ledger?from=11/06/2024&to=12/06/2024"})
	assertStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 1, dataMap(t, resp)["total"])

	w, resp = doRequest(t, r, requestParams{method: http.MethodGet, path: "/ledger?payment_status=Pendiente&attendance=Programada"})
	assertStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 1, dataMap(t, resp)["total"])

	w, resp = doRequest(t, r, requestParams{method: http.MethodGet, path: "/ledger/balance?patient_id=" + id})
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "600.00", dataMap(t, resp)["outstanding"])

	w, _ = doRequest(t, r, requestParams{method: http.MethodGet, path: "/ledger?from=junio"})
	assertStatus(t, w, http.StatusBadRequest)

	w, _ = doRequest(t, r, requestParams{method: http.MethodGet, path: "/ledger?payment_status=Cobrado"})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestUpdateAttendance(t *testing.T) {
	r, _, token := setupEndpointTest(t)
	id := registerPatient(t, r, token)

	w, resp := doRequest(t, r, requestParams{method: http.MethodPost, path: "/ledger/scheduled", token: token, body: scheduledBody(id, "17/06/2024")})
	assertStatus(t, w, http.StatusCreated)
	entryID, ok := dataMap(t, resp)["ID"].(float64)
	require.True(t, ok)
	path := fmt.Sprintf("/ledger/%d/attendance", int(entryID))

	w, resp = doRequest(t, r, requestParams{method: http.MethodPatch, path: path, token: token, body: map[string]string{"estatus_asistencia": "Cancelada"}})
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "Cancelada", dataMap(t, resp)["estatus_asistencia"])

	w, _ = doRequest(t, r, requestParams{method: http.MethodPatch, path: path, token: token, body: map[string]string{"estatus_asistencia": "No Asistió"}})
	assertStatus(t, w, http.StatusConflict)

	w, _ = doRequest(t, r, requestParams{method: http.MethodPatch, path: "/ledger/999/attendance", token: token, body: map[string]string{"estatus_asistencia": "Cancelada"}})
	assertStatus(t, w, http.StatusNotFound)

	w, _ = doRequest(t, r, requestParams{method: http.MethodPatch, path: "/ledger/abc/attendance", token: token, body: map[string]string{"estatus_asistencia": "Cancelada"}})
	assertStatus(t, w, http.StatusBadRequest)

	w, resp = doRequest(t, r, requestParams{method: http.MethodGet, path: fmt.Sprintf("/ledger/%d", int(entryID))})
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "Cancelada", dataMap(t, resp)["estatus_asistencia"])
}
