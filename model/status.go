package model

// Display formats shared by the ledger rows and patient records.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// PaymentStatus is the billing state of a ledger entry.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Pagado"
	PaymentPending PaymentStatus = "Pendiente"
)

// AttendanceStatus records whether a visit happened, is booked, or was missed.
type AttendanceStatus string

const (
	AttendanceAttended  AttendanceStatus = "Asistió"
	AttendanceScheduled AttendanceStatus = "Programada"
	AttendanceNoShow    AttendanceStatus = "No Asistió"
	AttendanceCancelled AttendanceStatus = "Cancelada"
)

// EntryType classifies a ledger entry. Only treatments are produced today.
type EntryType string

const EntryTreatment EntryType = "Tratamiento"

// ConsentLevel is the risk classification of a catalog service.
type ConsentLevel string

const (
	ConsentLowRisk  ConsentLevel = "LOW_RISK"
	ConsentHighRisk ConsentLevel = "HIGH_RISK"
)

// PaymentMethod is how a completed visit was paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Efectivo"
	PaymentCard     PaymentMethod = "Tarjeta"
	PaymentTransfer PaymentMethod = "Transferencia"
)

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer}

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentPending
}

// Valid reports whether s is one of the known attendance statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceAttended, AttendanceScheduled, AttendanceNoShow, AttendanceCancelled:
		return true
	}
	return false
}

func (c ConsentLevel) Valid() bool {
	return c == ConsentLowRisk || c == ConsentHighRisk
}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}
