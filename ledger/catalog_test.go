package ledger

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureSeeded_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalog(db)

	seeded, err := catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)
	assert.False(t, seeded)

	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}

func TestEnsureSeeded_NonEmptyCatalogIsLeftAlone(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalog(db)

	_, err := catalog.EnsureSeeded(ctx, DefaultServices()[:1])
	require.NoError(t, err)

	seeded, err := catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)
	assert.False(t, seeded)

	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEnsureSeeded_RollsBackOnInsertFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	inserts := 0
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_fifth_service", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Model.(*model.Service); !ok {
			return
		}
		inserts++
		if inserts == 5 {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	catalog := NewCatalog(db)
	seeded, err := catalog.EnsureSeeded(ctx, DefaultServices())
	assert.ErrorIs(t, err, ErrSeedFailure)
	assert.False(t, seeded)

	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEnsureSeeded_RejectsInvalidService(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(newTestDB(t))

	bad := DefaultServices()
	bad[3].ListPrice = decimal.NewFromInt(-1)

	_, err := catalog.EnsureSeeded(ctx, bad)
	assert.ErrorIs(t, err, ErrSeedFailure)
	assert.ErrorIs(t, err, ErrInvalidInput)

	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCatalogFind(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(newTestDB(t))
	_, err := catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)

	svc, err := catalog.Find(ctx, "Operatoria", "Resina simple")
	require.NoError(t, err)
	assert.True(t, svc.ListPrice.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, model.ConsentLowRisk, svc.ConsentLevel)

	_, err = catalog.Find(ctx, "Operatoria", "Implante")
	assert.ErrorIs(t, err, ErrReferential)
}

func TestCatalogFind_UsesCache(t *testing.T) {
	ctx := context.Background()
	cache := util.NewServiceCache(0)
	catalog := NewCatalog(newTestDB(t), WithServiceCache(cache))
	_, err := catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)

	_, err = catalog.Find(ctx, "Endodoncia", "Endodoncia unirradicular")
	require.NoError(t, err)
	_, err = catalog.Find(ctx, "Endodoncia", "Endodoncia unirradicular")
	require.NoError(t, err)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCatalogList(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(newTestDB(t))
	_, err := catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)

	services, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, services, 10)
	for i := 1; i < len(services); i++ {
		assert.LessOrEqual(t, services[i-1].Category, services[i].Category)
	}
}

func TestDefaultServicesAreValid(t *testing.T) {
	for _, s := range DefaultServices() {
		assert.NoError(t, validateService(s), s.TreatmentName)
	}
}

func TestCatalogFind_RolledBackSeedNeverReachesCache(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cache := util.NewServiceCache(0)
	errAbort := errors.New("abort")

	err := db.Transaction(func(tx *gorm.DB) error {
		inner := NewCatalog(tx, WithServiceCache(cache))
		if _, err := inner.EnsureSeeded(ctx, DefaultServices()); err != nil {
			return err
		}
		if _, err := inner.Find(ctx, "Preventiva", "Aplicación de flúor"); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, ok := cache.Get("Preventiva", "Aplicación de flúor")
	assert.False(t, ok)

	catalog := NewCatalog(db, WithServiceCache(cache))
	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = catalog.Find(ctx, "Preventiva", "Aplicación de flúor")
	assert.ErrorIs(t, err, ErrReferential)

	registry := NewRegistry(db, WithRand(rand.New(rand.NewPCG(3, 4))), WithClock(clock))
	patient, err := registry.Register(ctx, NameParts{Given: "Luis", Paternal: "Pérez"}, PatientDetails{})
	require.NoError(t, err)
	book := NewLedger(db, catalog, registry, WithNow(clock), WithLocation(time.UTC))
	_, err = book.RecordCompleted(ctx, CompletedRequest{
		PatientID: patient.PatientID,
		Category:  "Preventiva",
		Treatment: "Aplicación de flúor",
		Doctor:    "Dra. Sofía Martínez",
		When:      fixedNow.Add(-time.Hour),
		Outcome:   PaymentFull,
	})
	assert.ErrorIs(t, err, ErrReferential)
}

func TestCatalogWarm(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cache := util.NewServiceCache(0)
	catalog := NewCatalog(db, WithServiceCache(cache))
	_, err := catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		n, err := catalog.WithTx(tx).Warm(ctx)
		assert.Zero(t, n)
		return err
	})
	require.NoError(t, err)
	_, ok := cache.Get("Cirugía", "Extracción simple")
	assert.False(t, ok)

	n, err := catalog.Warm(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultServices()), n)

	_, err = catalog.WithTx(db).Find(ctx, "Cirugía", "Extracción simple")
	require.NoError(t, err)
	hits, _ := cache.Stats()
	assert.Equal(t, int64(1), hits)

	n, err = NewCatalog(db).Warm(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
