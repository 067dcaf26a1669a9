package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

const saleColumns = `id, folio_fisico, fecha, consulta_id, total_venta, saldo_pendiente,
	estado, observaciones_generales, motivo_cancelacion, usuario_id`

const saleLineColumns = `id, venta_id, paciente_id, graduacion_id, dp_od, dp_oi,
	altura_oblea, catalogo_id, descripcion_manual, precio_aplicado`

const paymentColumns = `id, venta_id, monto, fecha_pago, metodo_pago, usuario_id`

type saleRepository struct {
	gw *Gateway
}

func NewSaleRepository(gw *Gateway) repository.SaleRepository {
	return &saleRepository{gw: gw}
}

// CreateCapture persists the sale header, its lines and its initial
// payments as one atomic unit. Any failure rolls back the whole capture;
// no header, line or payment survives a failed attempt.
func (r *saleRepository) CreateCapture(ctx context.Context, sale *model.Sale) error {
	err := r.gw.Transact(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO ventas (`+saleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			sale.ID,
			sale.Folio,
			sale.Date,
			sale.ConsultationID,
			sale.Total,
			sale.Balance,
			sale.Status,
			sale.Notes,
			sale.CancelReason,
			sale.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		for _, line := range sale.Lines {
			_, err := q.ExecContext(ctx, `
				INSERT INTO detalle_ventas (`+saleLineColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				line.ID,
				line.SaleID,
				line.PatientID,
				line.PrescriptionID,
				line.PDRight,
				line.PDLeft,
				line.SegmentHeight,
				line.CatalogID,
				line.Description,
				line.Price,
			)
			if err != nil {
				return fmt.Errorf("failed to create sale line: %w", err)
			}
		}

		for _, payment := range sale.Payments {
			_, err := q.ExecContext(ctx, `
				INSERT INTO abonos (`+paymentColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				payment.ID,
				payment.SaleID,
				payment.Amount,
				payment.PaidAt,
				payment.Method,
				payment.UserID,
			)
			if err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.BadRequest("sale references a missing consultation, patient or prescription", err)
		}
		return err
	}
	return nil
}

func (r *saleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.gw.Read(ctx, func(q Querier) error {
		if err := q.GetContext(ctx, &sale,
			`SELECT `+saleColumns+` FROM ventas WHERE id = $1`, id); err != nil {
			return err
		}
		return loadSaleChildren(ctx, q, &sale)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("sale", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return &sale, nil
}

// ListByPatient matches a sale to a patient through either linkage path:
// the sale's consultation belonging to the patient, or any sale line
// referencing the patient directly. Both are checked.
func (r *saleRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Sale, error) {
	var sales []*model.Sale
	err := r.gw.Read(ctx, func(q Querier) error {
		if err := q.SelectContext(ctx, &sales, `
			SELECT `+prefixColumns("s", saleColumns)+` FROM ventas s
			LEFT JOIN consultas c ON c.id = s.consulta_id
			WHERE c.paciente_id = $1
				OR EXISTS (
					SELECT 1 FROM detalle_ventas d
					WHERE d.venta_id = s.id AND d.paciente_id = $1
				)
			ORDER BY s.fecha DESC`, patientID); err != nil {
			return err
		}
		for _, sale := range sales {
			if err := loadSaleChildren(ctx, q, sale); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sales for patient: %w", err)
	}
	if sales == nil {
		sales = []*model.Sale{}
	}
	return sales, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// loadSaleChildren eagerly loads lines and payments so callers always
// see the full capture.
func loadSaleChildren(ctx context.Context, q Querier, sale *model.Sale) error {
	if err := q.SelectContext(ctx, &sale.Lines,
		`SELECT `+saleLineColumns+` FROM detalle_ventas WHERE venta_id = $1`, sale.ID); err != nil {
		return fmt.Errorf("failed to load sale lines: %w", err)
	}
	if err := q.SelectContext(ctx, &sale.Payments,
		`SELECT `+paymentColumns+` FROM abonos WHERE venta_id = $1 ORDER BY fecha_pago`, sale.ID); err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	if sale.Lines == nil {
		sale.Lines = []*model.SaleLine{}
	}
	if sale.Payments == nil {
		sale.Payments = []*model.Payment{}
	}
	return nil
}
