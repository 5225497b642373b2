package ledger

import (
	"time"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/shopspring/decimal"
)

// EntryHeader holds the fields every ledger entry carries.
type EntryHeader struct {
	ID           uint      `json:"id"`
	When         time.Time `json:"when"`
	Date         string    `json:"fecha"`
	Time         string    `json:"hora"`
	PatientID    string    `json:"id_paciente"`
	PatientName  string    `json:"nombre_paciente"`
	Category     string    `json:"categoria"`
	Treatment    string    `json:"tratamiento"`
	Doctor       string    `json:"doctor_atendio"`
	Notes        string    `json:"notas"`
	Observations string    `json:"observaciones"`
	Duration     int       `json:"duracion"`
}

// LedgerEntry is either a CompletedEntry or a ScheduledEntry.
type LedgerEntry interface {
	Header() EntryHeader
	Attendance() model.AttendanceStatus
	PaymentStatus() model.PaymentStatus
	// Row renders the entry as its storage row.
	Row() model.Cita
	isLedgerEntry()
}

// CompletedEntry is an attended, billed visit.
type CompletedEntry struct {
	EntryHeader
	ListPrice       decimal.Decimal     `json:"precio_lista"`
	DiscountPercent decimal.Decimal     `json:"porcentaje"`
	FinalPrice      decimal.Decimal     `json:"precio_final"`
	AmountPaid      decimal.Decimal     `json:"monto_pagado"`
	Outstanding     decimal.Decimal     `json:"saldo_pendiente"`
	LabCost         decimal.Decimal     `json:"costo_laboratorio"`
	PaymentMethod   model.PaymentMethod `json:"metodo_pago"`
	PaymentDate     string              `json:"fecha_pago"`
}

// ScheduledEntry is a booked appointment. Financial fields do not exist
// until it is attended.
type ScheduledEntry struct {
	EntryHeader
	Status model.AttendanceStatus `json:"estatus_asistencia"`
}

func (e CompletedEntry) Header() EntryHeader { return e.EntryHeader }

func (e CompletedEntry) Attendance() model.AttendanceStatus { return model.AttendanceAttended }

// PaymentStatus is Pagado iff nothing is outstanding.
func (e CompletedEntry) PaymentStatus() model.PaymentStatus {
	if e.Outstanding.IsZero() {
		return model.PaymentPaid
	}
	return model.PaymentPending
}

func (e CompletedEntry) Row() model.Cita {
	row := headerRow(e.EntryHeader)
	row.ListPrice = e.ListPrice
	row.DiscountPercent = e.DiscountPercent
	row.FinalPrice = e.FinalPrice
	row.AmountPaid = e.AmountPaid
	row.OutstandingAmount = e.Outstanding
	row.LabCost = e.LabCost
	row.PaymentMethod = e.PaymentMethod
	row.PaymentDate = e.PaymentDate
	row.PaymentStatus = e.PaymentStatus()
	row.Attendance = e.Attendance()
	return row
}

func (CompletedEntry) isLedgerEntry() {}

func (e ScheduledEntry) Header() EntryHeader { return e.EntryHeader }

func (e ScheduledEntry) Attendance() model.AttendanceStatus {
	if e.Status == "" {
		return model.AttendanceScheduled
	}
	return e.Status
}

func (e ScheduledEntry) PaymentStatus() model.PaymentStatus { return model.PaymentPending }

func (e ScheduledEntry) Row() model.Cita {
	row := headerRow(e.EntryHeader)
	row.ListPrice = decimal.Zero
	row.DiscountPercent = decimal.Zero
	row.FinalPrice = decimal.Zero
	row.AmountPaid = decimal.Zero
	row.OutstandingAmount = decimal.Zero
	row.LabCost = decimal.Zero
	row.PaymentStatus = e.PaymentStatus()
	row.Attendance = e.Attendance()
	return row
}

func (ScheduledEntry) isLedgerEntry() {}

func headerRow(h EntryHeader) model.Cita {
	row := model.Cita{
		Timestamp:    h.When.Unix(),
		Date:         h.Date,
		Time:         h.Time,
		PatientID:    h.PatientID,
		PatientName:  h.PatientName,
		Category:     h.Category,
		Treatment:    h.Treatment,
		Doctor:       h.Doctor,
		Notes:        h.Notes,
		Observations: h.Observations,
		Type:         model.EntryTreatment,
		Duration:     h.Duration,
	}
	row.ID = h.ID
	return row
}

// entryFromRow rebuilds the typed entry. Attended rows are completed entries.
func entryFromRow(row model.Cita, loc *time.Location) LedgerEntry {
	h := EntryHeader{
		ID:           row.ID,
		When:         time.Unix(row.Timestamp, 0).In(loc),
		Date:         row.Date,
		Time:         row.Time,
		PatientID:    row.PatientID,
		PatientName:  row.PatientName,
		Category:     row.Category,
		Treatment:    row.Treatment,
		Doctor:       row.Doctor,
		Notes:        row.Notes,
		Observations: row.Observations,
		Duration:     row.Duration,
	}
	if row.Attendance == model.AttendanceAttended {
		return CompletedEntry{
			EntryHeader:     h,
			ListPrice:       row.ListPrice,
			DiscountPercent: row.DiscountPercent,
			FinalPrice:      row.FinalPrice,
			AmountPaid:      row.AmountPaid,
			Outstanding:     row.OutstandingAmount,
			LabCost:         row.LabCost,
			PaymentMethod:   row.PaymentMethod,
			PaymentDate:     row.PaymentDate,
		}
	}
	return ScheduledEntry{EntryHeader: h, Status: row.Attendance}
}
