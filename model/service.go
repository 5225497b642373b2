package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service represents a billable catalog entry
// @Description Dental service with pricing and risk metadata
type Service struct {
	gorm.Model
	Category      string          `json:"category" gorm:"column:categoria;size:100;not null;index:idx_servicio_tratamiento" example:"Endodoncia"`
	TreatmentName string          `json:"treatment_name" gorm:"column:nombre_tratamiento;size:191;not null;index:idx_servicio_tratamiento" example:"Endodoncia unirradicular"`
	ListPrice     decimal.Decimal `json:"list_price" gorm:"column:precio_lista;type:decimal(12,2);not null" example:"3500"`
	BaseLabCost   decimal.Decimal `json:"base_lab_cost" gorm:"column:costo_laboratorio_base;type:decimal(12,2);not null" example:"0"`
	ConsentLevel  ConsentLevel    `json:"consent_level" gorm:"column:consent_level;size:16;not null" example:"HIGH_RISK"`
	Duration      int             `json:"duration" gorm:"column:duracion;not null" example:"90"`
}

func (Service) TableName() string {
	return "servicios"
}
