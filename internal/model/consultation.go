package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ConsultationStatusPending = "pendiente"
	ConsultationStatusPaid    = "pagada"
)

// Consultation is a clinical visit. Deleting one cascades to its
// prescriptions but is blocked while a sale references it.
type Consultation struct {
	ID              uuid.UUID           `db:"id" json:"id"`
	PatientID       uuid.UUID           `db:"paciente_id" json:"paciente_id"`
	Date            time.Time           `db:"fecha" json:"fecha"`
	Reason          *string             `db:"motivo_consulta" json:"motivo_consulta"`
	Observations    *string             `db:"observaciones" json:"observaciones"`
	ServiceCost     decimal.NullDecimal `db:"costo_servicio" json:"costo_servicio"`
	FinancialStatus *string             `db:"estado_financiero" json:"estado_financiero"`
	ClinicalDetails json.RawMessage     `db:"detalles_clinicos" json:"detalles_clinicos,omitempty"`
	UserID          *uuid.UUID          `db:"usuario_id" json:"usuario_id"`

	Prescriptions []*Prescription `db:"-" json:"graduaciones,omitempty"`
	Patient       *Patient        `db:"-" json:"paciente,omitempty"`
}

// Prescription holds one graduation row (OD/OI sphere, cylinder, axis,
// addition) plus an opaque mounting-details blob.
type Prescription struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	ConsultationID uuid.UUID           `db:"consulta_id" json:"consulta_id"`
	Type           *string             `db:"tipo_graduacion" json:"tipo_graduacion"`
	ODSphere       decimal.NullDecimal `db:"od_esfera" json:"od_esfera"`
	ODCylinder     decimal.NullDecimal `db:"od_cilindro" json:"od_cilindro"`
	ODAxis         *int                `db:"od_eje" json:"od_eje"`
	ODAddition     decimal.NullDecimal `db:"od_adicion" json:"od_adicion"`
	OISphere       decimal.NullDecimal `db:"oi_esfera" json:"oi_esfera"`
	OICylinder     decimal.NullDecimal `db:"oi_cilindro" json:"oi_cilindro"`
	OIAxis         *int                `db:"oi_eje" json:"oi_eje"`
	OIAddition     decimal.NullDecimal `db:"oi_adicion" json:"oi_adicion"`
	MountingDetail json.RawMessage     `db:"detalles_montaje" json:"detalles_montaje,omitempty"`
}

type CreateConsultationRequest struct {
	PatientID       uuid.UUID                   `json:"paciente_id" binding:"required"`
	Date            *FlexTime                   `json:"fecha"`
	Reason          *string                     `json:"motivo_consulta"`
	Observations    *string                     `json:"observaciones"`
	ServiceCost     decimal.NullDecimal         `json:"costo_servicio"`
	FinancialStatus *string                     `json:"estado_financiero"`
	ClinicalDetails json.RawMessage             `json:"detalles_clinicos"`
	UserID          *uuid.UUID                  `json:"usuario_id"`
	Prescriptions   []CreatePrescriptionRequest `json:"graduaciones"`
}

type CreatePrescriptionRequest struct {
	Type           *string             `json:"tipo_graduacion"`
	ODSphere       decimal.NullDecimal `json:"od_esfera"`
	ODCylinder     decimal.NullDecimal `json:"od_cilindro"`
	ODAxis         *int                `json:"od_eje"`
	ODAddition     decimal.NullDecimal `json:"od_adicion"`
	OISphere       decimal.NullDecimal `json:"oi_esfera"`
	OICylinder     decimal.NullDecimal `json:"oi_cilindro"`
	OIAxis         *int                `json:"oi_eje"`
	OIAddition     decimal.NullDecimal `json:"oi_adicion"`
	MountingDetail json.RawMessage     `json:"detalles_montaje"`
}
