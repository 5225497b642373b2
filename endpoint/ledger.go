package endpoint

import (
	"fmt"
	"strconv"

	"github.com/ariebrainware/dental-ledger/ledger"
	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// parseLedgerFilter reads the shared query filters. "to" names the last
// included day.
func parseLedgerFilter(c *gin.Context) (ledger.Filter, error) {
	f := ledger.Filter{
		PatientID:     c.Query("patient_id"),
		PaymentStatus: model.PaymentStatus(c.Query("payment_status")),
		Attendance:    model.AttendanceStatus(c.Query("attendance")),
	}
	if from := c.Query("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			return ledger.Filter{}, err
		}
		f.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			return ledger.Filter{}, err
		}
		f.To = t.AddDate(0, 0, 1)
	}
	return f, nil
}

func rows(entries []ledger.LedgerEntry) []model.Cita {
	out := make([]model.Cita, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Row())
	}
	return out
}

// ListLedger godoc
// @Summary      List ledger entries
// @Tags         Ledger
// @Produce      json
// @Param        from query string false "First day, dd/mm/yyyy"
// @Param        to query string false "Last day, dd/mm/yyyy"
// @Param        patient_id query string false "Patient identifier"
// @Param        payment_status query string false "Pagado|Pendiente"
// @Param        attendance query string false "Asistió|Programada|No Asistió|Cancelada"
// @Success      200 {object} util.APIResponse{data=object} "Ledger retrieved"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Router       /ledger [get]
func ListLedger(c *gin.Context) {
	filter, err := parseLedgerFilter(c)
	if err != nil {
		respondLedgerError(c, "Invalid filter", err)
		return
	}

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, _, book := components(db)
	entries, err := book.List(c.Request.Context(), filter)
	if err != nil {
		respondLedgerError(c, "Failed to retrieve ledger", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Ledger retrieved",
		Data: map[string]interface{}{"total": len(entries), "entries": rows(entries)},
	})
}

// GetLedgerBalance godoc
// @Summary      Sum outstanding balances
// @Tags         Ledger
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Balance computed"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Router       /ledger/balance [get]
func GetLedgerBalance(c *gin.Context) {
	filter, err := parseLedgerFilter(c)
	if err != nil {
		respondLedgerError(c, "Invalid filter", err)
		return
	}

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, _, book := components(db)
	balance, err := book.OutstandingBalance(c.Request.Context(), filter)
	if err != nil {
		respondLedgerError(c, "Failed to compute balance", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Balance computed",
		Data: map[string]interface{}{"outstanding": balance.StringFixed(2)},
	})
}

func parseEntryID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: entry id %q", ledger.ErrInvalidInput, c.Param("id"))
	}
	return uint(id), nil
}

// GetLedgerEntry godoc
// @Summary      Get a ledger entry
// @Tags         Ledger
// @Produce      json
// @Param        id path int true "Entry ID"
// @Success      200 {object} util.APIResponse{data=model.Cita} "Entry found"
// @Failure      404 {object} util.APIResponse "Entry not found"
// @Router       /ledger/{id} [get]
func GetLedgerEntry(c *gin.Context) {
	id, err := parseEntryID(c)
	if err != nil {
		respondLedgerError(c, "Invalid entry id", err)
		return
	}

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, _, book := components(db)
	entry, err := book.Get(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, "Entry not found", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Entry found",
		Data: entry.Row(),
	})
}

type entryRequest struct {
	PatientID    string `json:"id_paciente" binding:"required" example:"ANA-GAR-417"`
	Category     string `json:"categoria" binding:"required" example:"Operatoria"`
	Treatment    string `json:"tratamiento" binding:"required" example:"Resina simple"`
	Doctor       string `json:"doctor_atendio" binding:"required" example:"Dra. Sofía Martínez"`
	Date         string `json:"fecha" binding:"required" example:"14/06/2024"`
	Time         string `json:"hora" binding:"required" example:"10:30"`
	Notes        string `json:"notas"`
	Observations string `json:"observaciones"`
}

type completedEntryRequest struct {
	entryRequest
	Payment         string              `json:"pago" example:"partial"`
	DiscountPercent decimal.Decimal     `json:"porcentaje" swaggertype:"number" example:"10"`
	PaymentMethod   model.PaymentMethod `json:"metodo_pago" example:"Tarjeta"`
}

// CreateCompletedEntry godoc
// @Summary      Record an attended visit
// @Tags         Ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body completedEntryRequest true "Visit"
// @Success      201 {object} util.APIResponse{data=model.Cita} "Visit recorded"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      422 {object} util.APIResponse "Unknown patient or service, or visit not in the past"
// @Router       /ledger/completed [post]
func CreateCompletedEntry(c *gin.Context) {
	var req completedEntryRequest
	if !bindJSONOrRespond(c, &req) {
		return
	}

	when, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		respondLedgerError(c, "Invalid visit time", err)
		return
	}
	outcome, err := ledger.ParsePaymentOutcome(req.Payment)
	if err != nil {
		respondLedgerError(c, "Invalid payment outcome", err)
		return
	}

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, _, book := components(db)
	entry, err := book.RecordCompleted(c.Request.Context(), ledger.CompletedRequest{
		PatientID:       req.PatientID,
		Category:        req.Category,
		Treatment:       req.Treatment,
		Doctor:          req.Doctor,
		When:            when,
		Outcome:         outcome,
		DiscountPercent: req.DiscountPercent,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		Observations:    req.Observations,
	})
	if err != nil {
		respondLedgerError(c, "Failed to record visit", err)
		return
	}

	util.CallCreated(c, util.APISuccessParams{
		Msg:  "Visit recorded",
		Data: entry.Row(),
	})
}

// CreateScheduledEntry godoc
// @Summary      Book an appointment
// @Tags         Ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body entryRequest true "Appointment"
// @Success      201 {object} util.APIResponse{data=model.Cita} "Appointment booked"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      422 {object} util.APIResponse "Unknown patient or service, or time not in the future"
// @Router       /ledger/scheduled [post]
func CreateScheduledEntry(c *gin.Context) {
	var req entryRequest
	if !bindJSONOrRespond(c, &req) {
		return
	}

	when, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		respondLedgerError(c, "Invalid appointment time", err)
		return
	}

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, _, book := components(db)
	entry, err := book.RecordScheduled(c.Request.Context(), ledger.ScheduledRequest{
		PatientID:    req.PatientID,
		Category:     req.Category,
		Treatment:    req.Treatment,
		Doctor:       req.Doctor,
		When:         when,
		Notes:        req.Notes,
		Observations: req.Observations,
	})
	if err != nil {
		respondLedgerError(c, "Failed to book appointment", err)
		return
	}

	util.CallCreated(c, util.APISuccessParams{
		Msg:  "Appointment booked",
		Data: entry.Row(),
	})
}

type attendanceRequest struct {
	Attendance model.AttendanceStatus `json:"estatus_asistencia" binding:"required" example:"Cancelada"`
}

// UpdateAttendance godoc
// @Summary      Mark a booked appointment as missed or cancelled
// @Tags         Ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Entry ID"
// @Param        request body attendanceRequest true "New attendance status"
// @Success      200 {object} util.APIResponse{data=model.Cita} "Attendance updated"
// @Failure      404 {object} util.APIResponse "Entry not found"
// @Failure      409 {object} util.APIResponse "Transition not allowed"
// @Router       /ledger/{id}/attendance [patch]
func UpdateAttendance(c *gin.Context) {
	id, err := parseEntryID(c)
	if err != nil {
		respondLedgerError(c, "Invalid entry id", err)
		return
	}

	var req attendanceRequest
	if !bindJSONOrRespond(c, &req) {
		return
	}

	db := getDBOrRespond(c)
	if db == nil {
		return
	}

	_, _, book := components(db)
	entry, err := book.MarkAttendance(c.Request.Context(), id, req.Attendance)
	if err != nil {
		respondLedgerError(c, "Failed to update attendance", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Attendance updated",
		Data: entry.Row(),
	})
}
