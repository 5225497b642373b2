package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// PaymentOutcome decides how much of the final price is paid at the visit.
type PaymentOutcome int

const (
	PaymentFull PaymentOutcome = iota
	PaymentPartial
)

func (o PaymentOutcome) String() string {
	if o == PaymentPartial {
		return "partial"
	}
	return "full"
}

// ParsePaymentOutcome accepts "full" or "partial". Empty means full.
func ParsePaymentOutcome(s string) (PaymentOutcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return PaymentFull, nil
	case "partial":
		return PaymentPartial, nil
	}
	return PaymentFull, fmt.Errorf("%w: unknown payment outcome %q", ErrInvalidInput, s)
}

// amountPaid applies the outcome to final. A partial payment is half the
// final price rounded to cents, so paid + outstanding always equals final.
func (o PaymentOutcome) amountPaid(final decimal.Decimal) decimal.Decimal {
	if o == PaymentPartial {
		return final.Div(decimal.NewFromInt(2)).Round(2)
	}
	return final
}

// CompletedRequest describes a visit that already happened.
type CompletedRequest struct {
	PatientID       string
	Category        string
	Treatment       string
	Doctor          string
	When            time.Time
	Outcome         PaymentOutcome
	DiscountPercent decimal.Decimal
	PaymentMethod   model.PaymentMethod
	Notes           string
	Observations    string
}

// ScheduledRequest describes a future booking.
type ScheduledRequest struct {
	PatientID    string
	Category     string
	Treatment    string
	Doctor       string
	When         time.Time
	Notes        string
	Observations string
}

// Filter narrows ledger reads. From is inclusive, To exclusive; zero values
// are ignored.
type Filter struct {
	From          time.Time
	To            time.Time
	PatientID     string
	PaymentStatus model.PaymentStatus
	Attendance    model.AttendanceStatus
}

func (f Filter) validate() error {
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, f.PaymentStatus)
	}
	if f.Attendance != "" && !f.Attendance.Valid() {
		return fmt.Errorf("%w: unknown attendance status %q", ErrInvalidInput, f.Attendance)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return fmt.Errorf("%w: empty date range", ErrInvalidInput)
	}
	return nil
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if !f.From.IsZero() {
		q = q.Where("citas.timestamp >= ?", f.From.Unix())
	}
	if !f.To.IsZero() {
		q = q.Where("citas.timestamp < ?", f.To.Unix())
	}
	if f.PatientID != "" {
		q = q.Where("id_paciente = ?", f.PatientID)
	}
	if f.PaymentStatus != "" {
		q = q.Where("estado_pago = ?", f.PaymentStatus)
	}
	if f.Attendance != "" {
		q = q.Where("estatus_asistencia = ?", f.Attendance)
	}
	return q
}

// Ledger records and reads clinic entries. Every write checks that the
// patient and service resolve and that the entry falls on the correct side
// of the current time.
type Ledger struct {
	db       *gorm.DB
	catalog  *Catalog
	registry *Registry
	now      func() time.Time
	loc      *time.Location
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithNow sets the clock that separates completed from scheduled entries.
func WithNow(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the zone used for display dates and times.
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// NewLedger returns a Ledger backed by db.
func NewLedger(db *gorm.DB, catalog *Catalog, registry *Registry, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		db:       db,
		catalog:  catalog,
		registry: registry,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithTx returns a copy of the ledger, its catalog and its registry bound to tx.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	cp := *l
	cp.db = tx
	cp.catalog = l.catalog.WithTx(tx)
	cp.registry = l.registry.WithTx(tx)
	return &cp
}

// Location returns the display zone.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// resolve checks the references of a write inside tx.
func (l *Ledger) resolve(ctx context.Context, tx *gorm.DB, patientID, category, treatment string) (model.Patient, model.Service, error) {
	patient, err := l.registry.WithTx(tx).Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Patient{}, model.Service{}, fmt.Errorf("%w: patient %q not registered", ErrReferential, patientID)
		}
		return model.Patient{}, model.Service{}, err
	}
	svc, err := l.catalog.WithTx(tx).Find(ctx, category, treatment)
	if err != nil {
		return model.Patient{}, model.Service{}, err
	}
	return patient, svc, nil
}

func (l *Ledger) header(when time.Time, patient model.Patient, svc model.Service, doctor, notes, observations string) EntryHeader {
	local := when.In(l.loc)
	return EntryHeader{
		When:         time.Unix(when.Unix(), 0).In(l.loc),
		Date:         local.Format(model.DateLayout),
		Time:         local.Format(model.TimeLayout),
		PatientID:    patient.PatientID,
		PatientName:  patient.FullName(),
		Category:     svc.Category,
		Treatment:    svc.TreatmentName,
		Doctor:       doctor,
		Notes:        notes,
		Observations: observations,
		Duration:     svc.Duration,
	}
}

// RecordCompleted writes an attended, billed visit. req.When must be strictly
// before now.
func (l *Ledger) RecordCompleted(ctx context.Context, req CompletedRequest) (CompletedEntry, error) {
	if now := l.now(); !req.When.Before(now) {
		return CompletedEntry{}, fmt.Errorf("%w: completed entry at %s is not in the past", ErrInvalidSchedule, req.When.Format(time.RFC3339))
	}
	if strings.TrimSpace(req.Doctor) == "" {
		return CompletedEntry{}, fmt.Errorf("%w: attending doctor is required", ErrInvalidInput)
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(hundred) {
		return CompletedEntry{}, fmt.Errorf("%w: discount %s outside 0..100", ErrInvalidInput, req.DiscountPercent)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return CompletedEntry{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, req.PaymentMethod)
	}

	var entry CompletedEntry
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		patient, svc, err := l.resolve(ctx, tx, req.PatientID, req.Category, req.Treatment)
		if err != nil {
			return err
		}

		final := svc.ListPrice.Mul(hundred.Sub(req.DiscountPercent)).Div(hundred).Round(2)
		paid := req.Outcome.amountPaid(final)
		entry = CompletedEntry{
			EntryHeader:     l.header(req.When, patient, svc, req.Doctor, req.Notes, req.Observations),
			ListPrice:       svc.ListPrice,
			DiscountPercent: req.DiscountPercent,
			FinalPrice:      final,
			AmountPaid:      paid,
			Outstanding:     final.Sub(paid),
			LabCost:         svc.BaseLabCost,
			PaymentMethod:   req.PaymentMethod,
		}
		if paid.IsPositive() {
			entry.PaymentDate = entry.Date
		}

		row := entry.Row()
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		entry.ID = row.ID
		return nil
	})
	if err != nil {
		return CompletedEntry{}, asStorageFailure("record completed entry", err)
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventEntryCompleted,
		PatientID: entry.PatientID,
		Message:   fmt.Sprintf("completed %s on %s %s", entry.Treatment, entry.Date, entry.Time),
		Details: map[string]interface{}{
			"id":          entry.ID,
			"final_price": entry.FinalPrice.StringFixed(2),
			"paid":        entry.AmountPaid.StringFixed(2),
			"status":      string(entry.PaymentStatus()),
		},
	})
	return entry, nil
}

// RecordScheduled books a future appointment. req.When must be strictly
// after now.
func (l *Ledger) RecordScheduled(ctx context.Context, req ScheduledRequest) (ScheduledEntry, error) {
	if now := l.now(); !req.When.After(now) {
		return ScheduledEntry{}, fmt.Errorf("%w: scheduled entry at %s is not in the future", ErrInvalidSchedule, req.When.Format(time.RFC3339))
	}
	if strings.TrimSpace(req.Doctor) == "" {
		return ScheduledEntry{}, fmt.Errorf("%w: attending doctor is required", ErrInvalidInput)
	}

	var entry ScheduledEntry
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		patient, svc, err := l.resolve(ctx, tx, req.PatientID, req.Category, req.Treatment)
		if err != nil {
			return err
		}

		entry = ScheduledEntry{
			EntryHeader: l.header(req.When, patient, svc, req.Doctor, req.Notes, req.Observations),
			Status:      model.AttendanceScheduled,
		}
		row := entry.Row()
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		entry.ID = row.ID
		return nil
	})
	if err != nil {
		return ScheduledEntry{}, asStorageFailure("record scheduled entry", err)
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventEntryScheduled,
		PatientID: entry.PatientID,
		Message:   fmt.Sprintf("scheduled %s on %s %s", entry.Treatment, entry.Date, entry.Time),
		Details:   map[string]interface{}{"id": entry.ID, "doctor": entry.Doctor},
	})
	return entry, nil
}

// MarkAttendance moves a scheduled entry to No Asistió or Cancelada.
// Only entries still in Programada can change.
func (l *Ledger) MarkAttendance(ctx context.Context, id uint, status model.AttendanceStatus) (ScheduledEntry, error) {
	if status != model.AttendanceNoShow && status != model.AttendanceCancelled {
		return ScheduledEntry{}, fmt.Errorf("%w: cannot mark an entry as %q", ErrInvalidTransition, status)
	}

	var entry ScheduledEntry
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.Cita
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: ledger entry %d", ErrNotFound, id)
			}
			return err
		}
		if row.Attendance != model.AttendanceScheduled {
			return fmt.Errorf("%w: entry %d is %q", ErrInvalidTransition, id, row.Attendance)
		}
		if err := tx.Model(&row).Update("estatus_asistencia", status).Error; err != nil {
			return err
		}
		row.Attendance = status
		entry = entryFromRow(row, l.loc).(ScheduledEntry)
		return nil
	})
	if err != nil {
		return ScheduledEntry{}, asStorageFailure("mark attendance", err)
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventAttendanceChanged,
		PatientID: entry.PatientID,
		Message:   fmt.Sprintf("entry %d marked %s", id, status),
		Details:   map[string]interface{}{"id": id, "status": string(status)},
	})
	return entry, nil
}

// Get returns a single entry.
func (l *Ledger) Get(ctx context.Context, id uint) (LedgerEntry, error) {
	var row model.Cita
	if err := l.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ledger entry %d", ErrNotFound, id)
		}
		return nil, asStorageFailure("get entry", err)
	}
	return entryFromRow(row, l.loc), nil
}

// List returns the entries matching f in chronological order.
func (l *Ledger) List(ctx context.Context, f Filter) ([]LedgerEntry, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	var rows []model.Cita
	if err := f.apply(l.db.WithContext(ctx).Model(&model.Cita{})).Order("citas.timestamp, id").Find(&rows).Error; err != nil {
		return nil, asStorageFailure("list entries", err)
	}
	entries := make([]LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(row, l.loc))
	}
	return entries, nil
}

// Count returns the number of entries matching f.
func (l *Ledger) Count(ctx context.Context, f Filter) (int64, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	var count int64
	if err := f.apply(l.db.WithContext(ctx).Model(&model.Cita{})).Count(&count).Error; err != nil {
		return 0, asStorageFailure("count entries", err)
	}
	return count, nil
}

// OutstandingBalance sums the outstanding amount over the entries matching f.
func (l *Ledger) OutstandingBalance(ctx context.Context, f Filter) (decimal.Decimal, error) {
	if err := f.validate(); err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	row := f.apply(l.db.WithContext(ctx).Model(&model.Cita{})).Select("COALESCE(SUM(saldo_pendiente), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, asStorageFailure("sum outstanding", err)
	}
	return total.Round(2), nil
}
