package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cita is the storage row shared by completed visits and booked appointments.
// Financial columns stay at zero for rows that have not been attended.
type Cita struct {
	gorm.Model
	Timestamp         int64            `json:"timestamp" gorm:"column:timestamp;not null;index"`
	Date              string           `json:"fecha" gorm:"column:fecha;size:10;not null"`
	Time              string           `json:"hora" gorm:"column:hora;size:5;not null"`
	PatientID         string           `json:"id_paciente" gorm:"column:id_paciente;size:32;not null;index"`
	PatientName       string           `json:"nombre_paciente" gorm:"column:nombre_paciente;size:255"`
	Category          string           `json:"categoria" gorm:"column:categoria;size:100;not null"`
	Treatment         string           `json:"tratamiento" gorm:"column:tratamiento;size:191;not null"`
	Doctor            string           `json:"doctor_atendio" gorm:"column:doctor_atendio;size:100"`
	ListPrice         decimal.Decimal  `json:"precio_lista" gorm:"column:precio_lista;type:decimal(12,2);not null;default:0"`
	FinalPrice        decimal.Decimal  `json:"precio_final" gorm:"column:precio_final;type:decimal(12,2);not null;default:0"`
	DiscountPercent   decimal.Decimal  `json:"porcentaje" gorm:"column:porcentaje;type:decimal(5,2);not null;default:0"`
	PaymentMethod     PaymentMethod    `json:"metodo_pago" gorm:"column:metodo_pago;size:32"`
	PaymentStatus     PaymentStatus    `json:"estado_pago" gorm:"column:estado_pago;size:16;not null;index"`
	Notes             string           `json:"notas" gorm:"column:notas;type:text"`
	Observations      string           `json:"observaciones" gorm:"column:observaciones;type:text"`
	AmountPaid        decimal.Decimal  `json:"monto_pagado" gorm:"column:monto_pagado;type:decimal(12,2);not null;default:0"`
	OutstandingAmount decimal.Decimal  `json:"saldo_pendiente" gorm:"column:saldo_pendiente;type:decimal(12,2);not null;default:0"`
	PaymentDate       string           `json:"fecha_pago" gorm:"column:fecha_pago;size:10"`
	LabCost           decimal.Decimal  `json:"costo_laboratorio" gorm:"column:costo_laboratorio;type:decimal(12,2);not null;default:0"`
	Attendance        AttendanceStatus `json:"estatus_asistencia" gorm:"column:estatus_asistencia;size:16;not null;index"`
	Type              EntryType        `json:"tipo" gorm:"column:tipo;size:32;not null"`
	Duration          int              `json:"duracion" gorm:"column:duracion"`
}

func (Cita) TableName() string {
	return "citas"
}
