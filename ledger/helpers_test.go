package ledger

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow is the clock used across ledger tests.
var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:ledger_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.Models()...))
	return db
}

type fixture struct {
	db       *gorm.DB
	catalog  *Catalog
	registry *Registry
	ledger   *Ledger
	patient  model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalog(db)
	_, err := catalog.EnsureSeeded(ctx, DefaultServices())
	require.NoError(t, err)

	registry := NewRegistry(db, WithRand(rand.New(rand.NewPCG(1, 2))), WithClock(clock))
	patient, err := registry.Register(ctx, NameParts{Given: "Ana", Paternal: "García", Maternal: "López"}, PatientDetails{Phone: "5512345678"})
	require.NoError(t, err)

	return &fixture{
		db:       db,
		catalog:  catalog,
		registry: registry,
		ledger:   NewLedger(db, catalog, registry, WithNow(clock), WithLocation(time.UTC)),
		patient:  patient,
	}
}

// captureAudit redirects audit lines into a buffer for the test's lifetime.
func captureAudit(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	util.SetAuditLoggerForTest(&l)
	t.Cleanup(func() { util.SetAuditLoggerForTest(nil) })
	return &buf
}
