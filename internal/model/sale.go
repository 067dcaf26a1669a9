package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale statuses. Historical captures always start out Activa.
const (
	SaleStatusActive    = "Activa"
	SaleStatusPaid      = "Pagada"
	SaleStatusCancelled = "Cancelada"
	SaleStatusPending   = "Pendiente"
)

// Payment methods accepted at the counter.
const (
	PaymentMethodCash     = "efectivo"
	PaymentMethodCard     = "tarjeta"
	PaymentMethodTransfer = "transferencia"
)

// Sale is a commercial transaction, optionally linked to a consultation.
// Total and Balance are caller-declared: historical paper records may
// carry a balance that does not arithmetically match the payments, and
// that declaration is stored verbatim.
type Sale struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Folio          *string         `db:"folio_fisico" json:"folio_fisico"`
	Date           time.Time       `db:"fecha" json:"fecha"`
	ConsultationID *uuid.UUID      `db:"consulta_id" json:"consulta_id"`
	Total          decimal.Decimal `db:"total_venta" json:"total_venta"`
	Balance        decimal.Decimal `db:"saldo_pendiente" json:"saldo_pendiente"`
	Status         string          `db:"estado" json:"estado"`
	Notes          *string         `db:"observaciones_generales" json:"observaciones_generales"`
	CancelReason   *string         `db:"motivo_cancelacion" json:"motivo_cancelacion"`
	UserID         *uuid.UUID      `db:"usuario_id" json:"usuario_id"`

	Lines    []*SaleLine `db:"-" json:"detalles"`
	Payments []*Payment  `db:"-" json:"abonos"`
}

// SaleLine references an optional patient, prescription and catalog item.
type SaleLine struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	SaleID         uuid.UUID           `db:"venta_id" json:"venta_id"`
	PatientID      *uuid.UUID          `db:"paciente_id" json:"paciente_id"`
	PrescriptionID *uuid.UUID          `db:"graduacion_id" json:"graduacion_id"`
	PDRight        decimal.NullDecimal `db:"dp_od" json:"dp_od"`
	PDLeft         decimal.NullDecimal `db:"dp_oi" json:"dp_oi"`
	SegmentHeight  decimal.NullDecimal `db:"altura_oblea" json:"altura_oblea"`
	CatalogID      *uuid.UUID          `db:"catalogo_id" json:"catalogo_id"`
	Description    *string             `db:"descripcion_manual" json:"descripcion_manual"`
	Price          decimal.NullDecimal `db:"precio_aplicado" json:"precio_aplicado"`
}

// Payment always belongs to exactly one sale.
type Payment struct {
	ID     uuid.UUID       `db:"id" json:"id"`
	SaleID uuid.UUID       `db:"venta_id" json:"venta_id"`
	Amount decimal.Decimal `db:"monto" json:"monto"`
	PaidAt time.Time       `db:"fecha_pago" json:"fecha_pago"`
	Method *string         `db:"metodo_pago" json:"metodo_pago"`
	UserID *uuid.UUID      `db:"usuario_id" json:"usuario_id"`
}

// PaidTotal sums the persisted payment amounts.
func (s *Sale) PaidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// DerivedBalance is total minus payments. Used for status display only;
// the stored Balance is the caller's declaration and may differ.
func (s *Sale) DerivedBalance() decimal.Decimal {
	return s.Total.Sub(s.PaidTotal())
}

// BalanceMatchesDeclared reports whether the declared balance agrees with
// the payment arithmetic. A mismatch is informational, never an error.
func (s *Sale) BalanceMatchesDeclared() bool {
	return s.Balance.Equal(s.DerivedBalance())
}

type CreateSaleRequest struct {
	Folio          *string                 `json:"folio_fisico"`
	Date           *FlexTime               `json:"fecha"`
	ConsultationID *uuid.UUID              `json:"consulta_id"`
	Total          *decimal.Decimal        `json:"total_venta"`
	Balance        *decimal.Decimal        `json:"saldo_pendiente"`
	Notes          *string                 `json:"observaciones_generales"`
	UserID         *uuid.UUID              `json:"usuario_id"`
	Lines          []CreateSaleLineRequest `json:"detalles"`
	Payments       []CreatePaymentRequest  `json:"abonos_iniciales"`
}

type CreateSaleLineRequest struct {
	PatientID      *uuid.UUID          `json:"paciente_id"`
	PrescriptionID *uuid.UUID          `json:"graduacion_id"`
	PDRight        decimal.NullDecimal `json:"dp_od"`
	PDLeft         decimal.NullDecimal `json:"dp_oi"`
	SegmentHeight  decimal.NullDecimal `json:"altura_oblea"`
	CatalogID      *uuid.UUID          `json:"catalogo_id"`
	Description    *string             `json:"descripcion_manual"`
	Price          decimal.NullDecimal `json:"precio_aplicado"`
}

type CreatePaymentRequest struct {
	Amount decimal.Decimal `json:"monto" binding:"required"`
	Date   *FlexTime       `json:"fecha_pago"`
	Method *string         `json:"metodo_pago"`
	UserID *uuid.UUID      `json:"usuario_id"`
}
