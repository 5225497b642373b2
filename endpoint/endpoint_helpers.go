package endpoint

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ariebrainware/dental-ledger/ledger"
	"github.com/ariebrainware/dental-ledger/middleware"
	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	clinicLocation = time.Local
	now            = time.Now
)

// SetLocation sets the clinic zone used to read and render dates.
func SetLocation(loc *time.Location) {
	if loc != nil {
		clinicLocation = loc
	}
}

// getDBOrRespond fetches the DB from context and writes a server error if missing.
func getDBOrRespond(c *gin.Context) *gorm.DB {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return nil
	}
	return db
}

// bindJSONOrRespond binds JSON into req and writes a user error on failure.
func bindJSONOrRespond(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return false
	}
	return true
}

// components builds request-scoped ledger components. Registries own their
// random source, so each request gets a fresh one.
func components(db *gorm.DB) (*ledger.Catalog, *ledger.Registry, *ledger.Ledger) {
	seed := uint64(now().UnixNano())
	catalog := ledger.NewCatalog(db, ledger.WithServiceCache(util.GetServiceCache()))
	registry := ledger.NewRegistry(db,
		ledger.WithRand(rand.New(rand.NewPCG(seed, seed>>1))),
		ledger.WithClock(now),
	)
	book := ledger.NewLedger(db, catalog, registry, ledger.WithNow(now), ledger.WithLocation(clinicLocation))
	return catalog, registry, book
}

// respondLedgerError maps ledger sentinel errors onto HTTP statuses.
func respondLedgerError(c *gin.Context, msg string, err error) {
	params := util.APIErrorParams{Msg: msg, Err: err}
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		util.CallUserError(c, params)
	case errors.Is(err, ledger.ErrNotFound):
		util.CallErrorNotFound(c, params)
	case errors.Is(err, ledger.ErrReferential), errors.Is(err, ledger.ErrInvalidSchedule):
		util.CallUnprocessable(c, params)
	case errors.Is(err, ledger.ErrInvalidTransition), errors.Is(err, ledger.ErrRegistrationExhausted):
		util.CallConflictError(c, params)
	default:
		util.CallServerError(c, params)
	}
}

// parseDate reads a dd/mm/yyyy date in the clinic zone.
func parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout, value, clinicLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not dd/mm/yyyy", ledger.ErrInvalidInput, value)
	}
	return t, nil
}

// parseDateTime reads a dd/mm/yyyy date and HH:MM time in the clinic zone.
func parseDateTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout+" "+model.TimeLayout, date+" "+clock, clinicLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q is not dd/mm/yyyy HH:MM", ledger.ErrInvalidInput, date, clock)
	}
	return t, nil
}
