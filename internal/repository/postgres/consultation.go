package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

const consultationColumns = `id, paciente_id, fecha, motivo_consulta, observaciones,
	costo_servicio, estado_financiero, detalles_clinicos, usuario_id`

const prescriptionColumns = `id, consulta_id, tipo_graduacion,
	od_esfera, od_cilindro, od_eje, od_adicion,
	oi_esfera, oi_cilindro, oi_eje, oi_adicion, detalles_montaje`

const insertPrescriptionQuery = `
	INSERT INTO graduaciones (` + prescriptionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

type consultationRepository struct {
	gw *Gateway
}

func NewConsultationRepository(gw *Gateway) repository.ConsultationRepository {
	return &consultationRepository{gw: gw}
}

// CreateWithPrescriptions persists the consultation header and its
// prescriptions in one transaction; a failing prescription insert rolls
// back the header too.
func (r *consultationRepository) CreateWithPrescriptions(ctx context.Context, consultation *model.Consultation) error {
	return r.gw.Transact(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO consultas (`+consultationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			consultation.ID,
			consultation.PatientID,
			consultation.Date,
			consultation.Reason,
			consultation.Observations,
			consultation.ServiceCost,
			consultation.FinancialStatus,
			nullableJSON(consultation.ClinicalDetails),
			consultation.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to create consultation: %w", err)
		}

		for _, p := range consultation.Prescriptions {
			if err := insertPrescription(ctx, q, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertPrescription(ctx context.Context, q Querier, p *model.Prescription) error {
	_, err := q.ExecContext(ctx, insertPrescriptionQuery,
		p.ID,
		p.ConsultationID,
		p.Type,
		p.ODSphere,
		p.ODCylinder,
		p.ODAxis,
		p.ODAddition,
		p.OISphere,
		p.OICylinder,
		p.OIAxis,
		p.OIAddition,
		nullableJSON(p.MountingDetail),
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	var consultation model.Consultation
	err := r.gw.Read(ctx, func(q Querier) error {
		if err := q.GetContext(ctx, &consultation,
			`SELECT `+consultationColumns+` FROM consultas WHERE id = $1`, id); err != nil {
			return err
		}
		if err := q.SelectContext(ctx, &consultation.Prescriptions,
			`SELECT `+prescriptionColumns+` FROM graduaciones WHERE consulta_id = $1`, id); err != nil {
			return fmt.Errorf("failed to load prescriptions: %w", err)
		}
		var patient model.Patient
		err := q.GetContext(ctx, &patient,
			`SELECT `+patientColumns+` FROM pacientes WHERE id = $1`, consultation.PatientID)
		switch {
		case err == nil:
			consultation.Patient = &patient
		case errors.Is(err, sql.ErrNoRows):
			// Dangling reference; the consultation still stands on its own.
		default:
			return fmt.Errorf("failed to load patient: %w", err)
		}
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("consultation", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &consultation, nil
}

func (r *consultationRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	var consultations []*model.Consultation
	err := r.gw.Read(ctx, func(q Querier) error {
		if err := q.SelectContext(ctx, &consultations, `
			SELECT `+consultationColumns+` FROM consultas
			WHERE paciente_id = $1
			ORDER BY fecha DESC`, patientID); err != nil {
			return err
		}
		for _, c := range consultations {
			if err := q.SelectContext(ctx, &c.Prescriptions,
				`SELECT `+prescriptionColumns+` FROM graduaciones WHERE consulta_id = $1`, c.ID); err != nil {
				return fmt.Errorf("failed to load prescriptions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	if consultations == nil {
		consultations = []*model.Consultation{}
	}
	return consultations, nil
}

// Delete removes the consultation; prescriptions cascade at the schema
// level, while a referencing sale blocks the delete.
func (r *consultationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.gw.Transact(ctx, func(q Querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM consultas WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NotFound("consultation", nil)
		}
		return nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("cannot delete consultation, it has related records", err)
		}
		if apperrors.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete consultation: %w", err)
	}
	return nil
}

// AddPrescription appends a single prescription to an existing
// consultation as a standalone atomic insert.
func (r *consultationRepository) AddPrescription(ctx context.Context, prescription *model.Prescription) error {
	err := r.gw.Transact(ctx, func(q Querier) error {
		var exists bool
		if err := q.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM consultas WHERE id = $1)`, prescription.ConsultationID); err != nil {
			return fmt.Errorf("failed to check consultation: %w", err)
		}
		if !exists {
			return apperrors.NotFound("consultation", nil)
		}
		return insertPrescription(ctx, q, prescription)
	})
	return err
}

func (r *consultationRepository) GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	var prescription model.Prescription
	err := r.gw.Read(ctx, func(q Querier) error {
		return q.GetContext(ctx, &prescription,
			`SELECT `+prescriptionColumns+` FROM graduaciones WHERE id = $1`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("prescription", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return &prescription, nil
}
