package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ariebrainware/dental-ledger/ledger"
	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNoPatients is returned when entries are due but the registry is empty.
var ErrNoPatients = errors.New("no patients to book")

// Engine fills the registry and the ledger with a random but consistent
// history and agenda. Every run appends a fresh sample.
type Engine struct {
	db      *gorm.DB
	cfg     Config
	rng     *rand.Rand
	now     func() time.Time
	loc     *time.Location
	doctors []string
	lock    *util.RunLock
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source for every draw of the run.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithSeed is WithRand with a PCG source seeded from seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithClock sets the clock read once at the start of a run.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the clinic zone that days and hours are laid out in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithDoctors replaces the attending staff.
func WithDoctors(doctors ...string) Option {
	return func(e *Engine) {
		if len(doctors) > 0 {
			e.doctors = doctors
		}
	}
}

// WithRunLock guards runs with a shared lock so only one process writes.
func WithRunLock(lock *util.RunLock) Option {
	return func(e *Engine) { e.lock = lock }
}


// New returns an Engine writing to db.
func New(db *gorm.DB, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		db:      db,
		cfg:     cfg,
		now:     time.Now,
		loc:     time.Local,
		doctors: DefaultDoctors,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return e
}

// Summary reports what a run wrote.
type Summary struct {
	RunID              string          `json:"run_id"`
	Now                time.Time       `json:"now"`
	CatalogSeeded      bool            `json:"catalog_seeded"`
	PatientsRegistered int             `json:"patients_registered"`
	ActiveDays         int             `json:"active_days"`
	Completed          int             `json:"completed"`
	FullyPaid          int             `json:"fully_paid"`
	Scheduled          int             `json:"scheduled"`
	Billed             decimal.Decimal `json:"billed"`
	Collected          decimal.Decimal `json:"collected"`
	Outstanding        decimal.Decimal `json:"outstanding"`
	Duration           time.Duration   `json:"duration"`
}

// Run seeds the catalog, registers patients, then writes the historical and
// future passes. Everything happens in one transaction: on error nothing is
// kept.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	if err := e.cfg.Validate(); err != nil {
		return Summary{}, err
	}

	started := time.Now()
	summary := Summary{
		RunID:       uuid.NewString(),
		Now:         e.now().In(e.loc),
		Billed:      decimal.Zero,
		Collected:   decimal.Zero,
		Outstanding: decimal.Zero,
	}

	if err := e.lock.Acquire(ctx, summary.RunID); err != nil {
		return summary, err
	}
	defer func() {
		if err := e.lock.Release(context.Background(), summary.RunID); err != nil {
			log.Warn().Err(err).Str("run_id", summary.RunID).Msg("failed to release simulation lock")
		}
	}()

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventSimulationStarted,
		RunID:     summary.RunID,
		Message:   fmt.Sprintf("simulation started at %s", summary.Now.Format(time.RFC3339)),
		Details: map[string]interface{}{
			"patients":     e.cfg.Patients,
			"history_days": e.cfg.HistoryDays,
			"future_days":  e.cfg.FutureDays,
		},
	})

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return e.run(ctx, tx, &summary)
	})
	summary.Duration = time.Since(started)
	if err != nil {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventSimulationFailed,
			RunID:     summary.RunID,
			Message:   "simulation rolled back: " + err.Error(),
		})
		return summary, err
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventSimulationFinished,
		RunID:     summary.RunID,
		Message:   "simulation committed",
		Details: map[string]interface{}{
			"patients":    summary.PatientsRegistered,
			"completed":   summary.Completed,
			"scheduled":   summary.Scheduled,
			"outstanding": summary.Outstanding.StringFixed(2),
		},
	})
	return summary, nil
}

func (e *Engine) run(ctx context.Context, tx *gorm.DB, summary *Summary) error {
	now := summary.Now
	fixed := func() time.Time { return now }

	catalog := ledger.NewCatalog(tx)
	registry := ledger.NewRegistry(tx, ledger.WithRand(e.rng), ledger.WithClock(fixed))
	book := ledger.NewLedger(tx, catalog, registry, ledger.WithNow(fixed), ledger.WithLocation(e.loc))

	seeded, err := catalog.EnsureSeeded(ctx, ledger.DefaultServices())
	if err != nil {
		return err
	}
	summary.CatalogSeeded = seeded

	registered, err := e.registerPatients(ctx, registry)
	summary.PatientsRegistered = registered
	if err != nil {
		return err
	}
	log.Info().Str("run_id", summary.RunID).Int("patients", registered).Msg("patients registered")

	patients, err := registry.IDs(ctx)
	if err != nil {
		return err
	}
	services, err := catalog.List(ctx)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		return fmt.Errorf("%w: catalog is empty", ledger.ErrReferential)
	}
	if len(patients) == 0 && (e.cfg.HistoryDays > 0 || (e.cfg.FutureDays > 0 && e.cfg.DailyBookings > 0)) {
		return ErrNoPatients
	}

	p := pools{patients: patients, services: services}
	if err := e.historical(ctx, book, p, now, summary); err != nil {
		return err
	}
	log.Info().Str("run_id", summary.RunID).Int("completed", summary.Completed).Int("active_days", summary.ActiveDays).Msg("historical pass done")

	if err := e.future(ctx, book, p, now, summary); err != nil {
		return err
	}
	log.Info().Str("run_id", summary.RunID).Int("scheduled", summary.Scheduled).Msg("future pass done")
	return nil
}

type pools struct {
	patients []string
	services []model.Service
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

func (e *Engine) registerPatients(ctx context.Context, registry *ledger.Registry) (int, error) {
	for i := 0; i < e.cfg.Patients; i++ {
		name := ledger.NameParts{
			Given:    pick(e.rng, givenNames),
			Paternal: pick(e.rng, surnames),
			Maternal: pick(e.rng, surnames),
		}
		details := ledger.PatientDetails{
			Phone:             fmt.Sprintf("55%08d", e.rng.IntN(100_000_000)),
			MedicalBackground: pick(e.rng, medicalBackgrounds),
			Allergies:         pick(e.rng, allergies),
			AdminNote:         pick(e.rng, adminNotes),
		}
		if _, err := registry.Register(ctx, name, details); err != nil {
			return i, err
		}
	}
	return e.cfg.Patients, nil
}

// slot returns day's date at a random quarter hour in [from, to).
func (e *Engine) slot(day time.Time, from, to int) time.Time {
	hour := from + e.rng.IntN(to-from)
	minute := 15 * e.rng.IntN(4)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, e.loc)
}

// historical walks the days [now-H, now) and writes completed visits.
func (e *Engine) historical(ctx context.Context, book *ledger.Ledger, p pools, now time.Time, summary *Summary) error {
	for cursor := now.AddDate(0, 0, -e.cfg.HistoryDays); cursor.Before(now); cursor = cursor.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sameDay(cursor, now) {
			break
		}
		if e.rng.Float64() >= e.cfg.ActiveProbability {
			continue
		}
		summary.ActiveDays++

		visits := e.cfg.MinDailyVisits + e.rng.IntN(e.cfg.MaxDailyVisits-e.cfg.MinDailyVisits+1)
		for i := 0; i < visits; i++ {
			svc := pick(e.rng, p.services)
			outcome := ledger.PaymentPartial
			if e.rng.Float64() < e.cfg.PaidProbability {
				outcome = ledger.PaymentFull
			}
			entry, err := book.RecordCompleted(ctx, ledger.CompletedRequest{
				PatientID:     pick(e.rng, p.patients),
				Category:      svc.Category,
				Treatment:     svc.TreatmentName,
				Doctor:        pick(e.rng, e.doctors),
				When:          e.slot(cursor, e.cfg.OpenHour, e.cfg.CloseHour),
				Outcome:       outcome,
				PaymentMethod: pick(e.rng, model.PaymentMethods),
				Notes:         pick(e.rng, clinicalNotes),
				Observations:  pick(e.rng, observations),
			})
			if err != nil {
				return err
			}
			summary.Completed++
			if outcome == ledger.PaymentFull {
				summary.FullyPaid++
			}
			summary.Billed = summary.Billed.Add(entry.FinalPrice)
			summary.Collected = summary.Collected.Add(entry.AmountPaid)
			summary.Outstanding = summary.Outstanding.Add(entry.Outstanding)
		}
	}
	return nil
}

// future books DailyBookings appointments on each of the days now+1..now+F.
func (e *Engine) future(ctx context.Context, book *ledger.Ledger, p pools, now time.Time, summary *Summary) error {
	for d := 1; d <= e.cfg.FutureDays; d++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := now.AddDate(0, 0, d)
		for i := 0; i < e.cfg.DailyBookings; i++ {
			svc := pick(e.rng, p.services)
			if _, err := book.RecordScheduled(ctx, ledger.ScheduledRequest{
				PatientID: pick(e.rng, p.patients),
				Category:  svc.Category,
				Treatment: svc.TreatmentName,
				Doctor:    pick(e.rng, e.doctors),
				When:      e.slot(day, e.cfg.BookingOpenHour, e.cfg.BookingCloseHour),
			}); err != nil {
				return err
			}
			summary.Scheduled++
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
