package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/ariebrainware/dental-ledger/model"
	"github.com/ariebrainware/dental-ledger/util"
	"gorm.io/gorm"
)

const (
	defaultMaxAttempts = 5
	minSuffix          = 100
	maxSuffix          = 999
	minAge             = 18
	maxAge             = 60
)

// NameParts are the name components a patient identifier is built from.
type NameParts struct {
	Given    string `json:"nombre"`
	Paternal string `json:"apellido_paterno"`
	Maternal string `json:"apellido_materno"`
}

// PatientDetails are the optional demographic fields of a registration.
type PatientDetails struct {
	Phone             string `json:"telefono"`
	MedicalBackground string `json:"antecedentes"`
	Allergies         string `json:"alergias"`
	AdminNote         string `json:"nota_administrativa"`
}

// Registry creates and reads patient records. A Registry is not safe for
// concurrent use because it owns its random source.
type Registry struct {
	db          *gorm.DB
	rng         *rand.Rand
	now         func() time.Time
	maxAttempts int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRand sets the random source used for identifier suffixes and birth dates.
func WithRand(rng *rand.Rand) RegistryOption {
	return func(r *Registry) { r.rng = rng }
}

// WithClock sets the clock used to derive birth dates.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithMaxAttempts bounds the identifier retries. Values below 1 are ignored.
func WithMaxAttempts(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewRegistry returns a Registry backed by db.
func NewRegistry(db *gorm.DB, opts ...RegistryOption) *Registry {
	r := &Registry{
		db:          db,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		seed := uint64(r.now().UnixNano())
		r.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return r
}

// WithTx returns a copy of the registry bound to tx. The copy shares the
// random source.
func (r *Registry) WithTx(tx *gorm.DB) *Registry {
	cp := *r
	cp.db = tx
	return &cp
}

// letterPrefix returns the first n letters of s, uppercased.
func letterPrefix(s string, n int) string {
	var b strings.Builder
	for _, ch := range s {
		if n == 0 {
			break
		}
		if unicode.IsLetter(ch) {
			b.WriteRune(unicode.ToUpper(ch))
			n--
		}
	}
	return b.String()
}

func idPrefix(name NameParts) string {
	return letterPrefix(name.Given, 3) + "-" + letterPrefix(name.Paternal, 3)
}

// BuildPatientID formats a patient identifier such as ANA-GAR-417.
func BuildPatientID(name NameParts, suffix int) string {
	return fmt.Sprintf("%s-%03d", idPrefix(name), suffix)
}

func (r *Registry) birthDate() string {
	age := minAge + r.rng.IntN(maxAge-minAge+1)
	return r.now().AddDate(-age, 0, -r.rng.IntN(365)).Format(model.DateLayout)
}

// Register creates a patient. Identifier collisions are logged and retried
// with a fresh suffix until the attempt budget runs out.
func (r *Registry) Register(ctx context.Context, name NameParts, details PatientDetails) (model.Patient, error) {
	name.Given = util.NormalizeName(name.Given)
	name.Paternal = util.NormalizeName(name.Paternal)
	name.Maternal = util.NormalizeName(name.Maternal)
	if letterPrefix(name.Given, 1) == "" || letterPrefix(name.Paternal, 1) == "" {
		return model.Patient{}, fmt.Errorf("%w: given name and paternal surname are required", ErrInvalidInput)
	}

	birthDate := r.birthDate()
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		patient := model.Patient{
			PatientID:         BuildPatientID(name, minSuffix+r.rng.IntN(maxSuffix-minSuffix+1)),
			GivenName:         name.Given,
			PaternalSurname:   name.Paternal,
			MaternalSurname:   name.Maternal,
			BirthDate:         birthDate,
			Phone:             details.Phone,
			MedicalBackground: details.MedicalBackground,
			Allergies:         details.Allergies,
			AdminNote:         details.AdminNote,
		}

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			taken, err := idTaken(tx, patient.PatientID)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateIdentifier
			}
			return tx.Create(&patient).Error
		})
		switch {
		case err == nil:
			util.LogAuditEvent(util.AuditEvent{
				EventType: util.EventPatientRegistered,
				PatientID: patient.PatientID,
				Message:   "patient registered",
				Details:   map[string]interface{}{"attempts": attempt},
			})
			return patient, nil
		case errors.Is(err, ErrDuplicateIdentifier), errors.Is(err, gorm.ErrDuplicatedKey):
			util.LogDuplicateIdentifier(patient.PatientID, attempt)
		default:
			return model.Patient{}, asStorageFailure("register patient", err)
		}
	}

	return model.Patient{}, fmt.Errorf("%w: %d attempts for %s: %w",
		ErrRegistrationExhausted, r.maxAttempts, idPrefix(name), ErrDuplicateIdentifier)
}

// idTaken includes soft-deleted rows; identifiers are never reused.
func idTaken(tx *gorm.DB, patientID string) (bool, error) {
	var count int64
	if err := tx.Unscoped().Model(&model.Patient{}).Where("id_paciente = ?", patientID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Get returns the patient with the given identifier.
func (r *Registry) Get(ctx context.Context, patientID string) (model.Patient, error) {
	var patient model.Patient
	err := r.db.WithContext(ctx).Where("id_paciente = ?", patientID).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Patient{}, fmt.Errorf("%w: patient %q", ErrNotFound, patientID)
		}
		return model.Patient{}, asStorageFailure("get patient", err)
	}
	return patient, nil
}

// Exists reports whether patientID resolves to a live patient.
func (r *Registry) Exists(ctx context.Context, patientID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Patient{}).Where("id_paciente = ?", patientID).Count(&count).Error; err != nil {
		return false, asStorageFailure("check patient", err)
	}
	return count > 0, nil
}

// IDs returns every live patient identifier in registration order.
func (r *Registry) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Patient{}).Order("id").Pluck("id_paciente", &ids).Error; err != nil {
		return nil, asStorageFailure("list patient ids", err)
	}
	return ids, nil
}

// List returns a page of patients, newest first, and the total count.
func (r *Registry) List(ctx context.Context, limit, offset int) ([]model.Patient, int64, error) {
	return r.Search(ctx, "", limit, offset)
}

// Search matches keyword against identifier, names and phone.
func (r *Registry) Search(ctx context.Context, keyword string, limit, offset int) ([]model.Patient, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Patient{})
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("id_paciente LIKE ? OR nombre LIKE ? OR apellido_paterno LIKE ? OR apellido_materno LIKE ? OR telefono LIKE ?", kw, kw, kw, kw, kw)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, asStorageFailure("count patients", err)
	}

	query = query.Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var patients []model.Patient
	if err := query.Find(&patients).Error; err != nil {
		return nil, 0, asStorageFailure("search patients", err)
	}
	return patients, total, nil
}
