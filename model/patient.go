package model

import (
	"strings"

	"gorm.io/gorm"
)

// Patient represents a registered clinic patient
// @Description Patient demographic record
type Patient struct {
	gorm.Model
	PatientID         string `json:"id_paciente" gorm:"column:id_paciente;size:32;uniqueIndex;not null" example:"ANA-GAR-417"`
	GivenName         string `json:"nombre" gorm:"column:nombre;size:100;not null" example:"Ana"`
	PaternalSurname   string `json:"apellido_paterno" gorm:"column:apellido_paterno;size:100;not null" example:"García"`
	MaternalSurname   string `json:"apellido_materno" gorm:"column:apellido_materno;size:100" example:"López"`
	BirthDate         string `json:"fecha_nacimiento" gorm:"column:fecha_nacimiento;size:10" example:"14/03/1990"`
	Phone             string `json:"telefono" gorm:"column:telefono;size:32" example:"5512345678"`
	MedicalBackground string `json:"antecedentes" gorm:"column:antecedentes;type:text" example:"Hipertensión"`
	Allergies         string `json:"alergias" gorm:"column:alergias;type:text" example:"Penicilina"`
	AdminNote         string `json:"nota_administrativa" gorm:"column:nota_administrativa;type:text"`
}

func (Patient) TableName() string {
	return "pacientes"
}

// FullName joins the given name and both surnames, skipping empty parts.
func (p Patient) FullName() string {
	return strings.Join(strings.Fields(strings.Join([]string{p.GivenName, p.PaternalSurname, p.MaternalSurname}, " ")), " ")
}
