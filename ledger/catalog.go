package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Catalog is the read-mostly store of billable services.
type Catalog struct {
	db    *gorm.DB
	cache *util.ServiceCache
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithServiceCache puts an in-memory cache in front of Find.
func WithServiceCache(c *util.ServiceCache) CatalogOption {
	return func(cat *Catalog) { cat.cache = c }
}

// NewCatalog returns a Catalog backed by db.
func NewCatalog(db *gorm.DB, opts ...CatalogOption) *Catalog {
	c := &Catalog{db: db}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTx returns a copy of the catalog bound to tx.
func (c *Catalog) WithTx(tx *gorm.DB) *Catalog {
	cp := *c
	cp.db = tx
	return &cp
}

// inTx reports whether the catalog is bound to an open transaction. Rows read
// there never reach the shared cache.
func (c *Catalog) inTx() bool {
	_, ok := c.db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}

func validateService(s model.Service) error {
	switch {
	case s.Category == "" || s.TreatmentName == "":
		return fmt.Errorf("%w: service needs category and treatment name", ErrInvalidInput)
	case s.ListPrice.IsNegative():
		return fmt.Errorf("%w: negative list price for %q", ErrInvalidInput, s.TreatmentName)
	case s.BaseLabCost.IsNegative():
		return fmt.Errorf("%w: negative lab cost for %q", ErrInvalidInput, s.TreatmentName)
	case !s.ConsentLevel.Valid():
		return fmt.Errorf("%w: unknown consent level %q", ErrInvalidInput, s.ConsentLevel)
	case s.Duration <= 0:
		return fmt.Errorf("%w: non-positive duration for %q", ErrInvalidInput, s.TreatmentName)
	}
	return nil
}

// EnsureSeeded inserts services iff the catalog is empty. The whole list goes
// in one transaction. It reports whether rows were inserted.
func (c *Catalog) EnsureSeeded(ctx context.Context, services []model.Service) (bool, error) {
	for _, s := range services {
		if err := validateService(s); err != nil {
			return false, fmt.Errorf("%w: %w", ErrSeedFailure, err)
		}
	}

	seeded := false
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Service{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		rows := make([]model.Service, len(services))
		copy(rows, services)
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSeedFailure, err)
	}

	if seeded {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventCatalogSeeded,
			Message:   fmt.Sprintf("seeded %d services", len(services)),
			Details:   map[string]interface{}{"count": len(services)},
		})
	}
	return seeded, nil
}

// Warm loads every committed service into the cache. It is a no-op without a
// cache or inside a transaction.
func (c *Catalog) Warm(ctx context.Context) (int, error) {
	if c.cache == nil || c.inTx() {
		return 0, nil
	}
	services, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, svc := range services {
		c.cache.Set(svc)
	}
	return len(services), nil
}

// Count returns the number of services.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&model.Service{}).Count(&count).Error; err != nil {
		return 0, asStorageFailure("count services", err)
	}
	return count, nil
}

// List returns every service ordered by category and treatment.
func (c *Catalog) List(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	if err := c.db.WithContext(ctx).Order("categoria, nombre_tratamiento").Find(&services).Error; err != nil {
		return nil, asStorageFailure("list services", err)
	}
	return services, nil
}

// Find resolves a (category, treatment) pair. Unknown pairs yield ErrReferential.
func (c *Catalog) Find(ctx context.Context, category, treatment string) (model.Service, error) {
	if svc, ok := c.cache.Get(category, treatment); ok {
		return svc, nil
	}

	var svc model.Service
	err := c.db.WithContext(ctx).
		Where("categoria = ? AND nombre_tratamiento = ?", category, treatment).
		First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Service{}, fmt.Errorf("%w: service %q/%q not in catalog", ErrReferential, category, treatment)
		}
		return model.Service{}, asStorageFailure("find service", err)
	}
	if !c.inTx() {
		c.cache.Set(svc)
	}
	return svc, nil
}

func service(category, treatment string, price, lab int64, consent model.ConsentLevel, minutes int) model.Service {
	return model.Service{
		Category:      category,
		TreatmentName: treatment,
		ListPrice:     decimal.NewFromInt(price),
		BaseLabCost:   decimal.NewFromInt(lab),
		ConsentLevel:  consent,
		Duration:      minutes,
	}
}

// DefaultServices is the clinic's fixed service list.
func DefaultServices() []model.Service {
	return []model.Service{
		service("Diagnóstico", "Consulta de valoración", 500, 0, model.ConsentLowRisk, 30),
		service("Preventiva", "Limpieza dental (profilaxis)", 800, 0, model.ConsentLowRisk, 45),
		service("Preventiva", "Aplicación de flúor", 400, 0, model.ConsentLowRisk, 20),
		service("Operatoria", "Resina simple", 1200, 0, model.ConsentLowRisk, 60),
		service("Operatoria", "Resina compuesta", 1600, 0, model.ConsentLowRisk, 75),
		service("Endodoncia", "Endodoncia unirradicular", 3500, 0, model.ConsentHighRisk, 90),
		service("Cirugía", "Extracción simple", 900, 0, model.ConsentHighRisk, 45),
		service("Cirugía", "Extracción de tercer molar", 3000, 0, model.ConsentHighRisk, 90),
		service("Prótesis", "Corona de zirconia", 6500, 2200, model.ConsentHighRisk, 90),
		service("Ortodoncia", "Ajuste de brackets", 700, 0, model.ConsentLowRisk, 30),
	}
}
