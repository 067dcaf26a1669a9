package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

const patientColumns = `id, nombre, apellido_paterno, apellido_materno, fecha_nacimiento,
	telefono, email, direccion, ocupacion, notas, activo, fecha_creacion, metadata`

type patientRepository struct {
	gw *Gateway
}

func NewPatientRepository(gw *Gateway) repository.PatientRepository {
	return &patientRepository{gw: gw}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO pacientes (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if patient.RegisteredAt.IsZero() {
		patient.RegisteredAt = time.Now().In(model.StorageZone)
	}

	return r.gw.Transact(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, query,
			patient.ID,
			patient.Name,
			patient.PaternalSurname,
			patient.MaternalSurname,
			patient.BirthDate,
			patient.Phone,
			patient.Email,
			patient.Address,
			patient.Occupation,
			patient.Notes,
			patient.Active,
			patient.RegisteredAt,
			nullableJSON(patient.Metadata),
		)
		if err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}
		return nil
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	err := r.gw.Read(ctx, func(q Querier) error {
		return q.GetContext(ctx, &patient,
			`SELECT `+patientColumns+` FROM pacientes WHERE id = $1`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE pacientes
		SET nombre = $1, apellido_paterno = $2, apellido_materno = $3,
			fecha_nacimiento = $4, telefono = $5, email = $6, direccion = $7,
			ocupacion = $8, notas = $9, activo = $10, metadata = $11
		WHERE id = $12
	`
	return r.gw.Transact(ctx, func(q Querier) error {
		res, err := q.ExecContext(ctx, query,
			patient.Name,
			patient.PaternalSurname,
			patient.MaternalSurname,
			patient.BirthDate,
			patient.Phone,
			patient.Email,
			patient.Address,
			patient.Occupation,
			patient.Notes,
			patient.Active,
			nullableJSON(patient.Metadata),
			patient.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NotFound("patient", nil)
		}
		return nil
	})
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.gw.Transact(ctx, func(q Querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM pacientes WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NotFound("patient", nil)
		}
		return nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("cannot delete patient, it has related consultations or sales", err)
		}
		if apperrors.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

// List pages through patients. Page and page size arrive already
// normalized by the service layer.
func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) (*model.PatientPage, error) {
	page := filters.Page
	pageSize := filters.PageSize

	conds := []string{}
	args := []interface{}{}
	if s := strings.TrimSpace(filters.Search); s != "" {
		args = append(args, s)
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, `(nombre ILIKE '%' || `+p+` || '%'
				OR apellido_paterno ILIKE '%' || `+p+` || '%'
				OR telefono LIKE '%' || `+p+` || '%'
				OR email ILIKE '%' || `+p+` || '%')`)
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		conds = append(conds, fmt.Sprintf("activo = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	result := &model.PatientPage{Page: page, PageSize: pageSize}
	err := r.gw.Read(ctx, func(q Querier) error {
		if err := q.GetContext(ctx, &result.TotalItems,
			`SELECT COUNT(*) FROM pacientes`+where, args...); err != nil {
			return fmt.Errorf("failed to count patients: %w", err)
		}

		listArgs := append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)
		query := fmt.Sprintf(`
			SELECT `+patientColumns+` FROM pacientes
			%s
			ORDER BY fecha_creacion DESC
			LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
		if err := q.SelectContext(ctx, &result.Items, query, listArgs...); err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.TotalPages = (result.TotalItems + pageSize - 1) / pageSize
	if result.Items == nil {
		result.Items = []*model.Patient{}
	}
	return result, nil
}

// FindDuplicates matches existing patients by full name (maternal surname
// both-null counts as equal) or by exact phone when the trimmed phone is
// longer than five characters. Newest registrations first, capped at 10.
func (r *patientRepository) FindDuplicates(ctx context.Context, crit model.DuplicateCriteria) ([]*model.Patient, error) {
	name := strings.TrimSpace(crit.Name)
	paternal := strings.TrimSpace(crit.PaternalSurname)

	var maternal sql.NullString
	if crit.MaternalSurname != nil {
		if m := strings.TrimSpace(*crit.MaternalSurname); m != "" {
			maternal = sql.NullString{String: m, Valid: true}
		}
	}

	// The phone rule only applies to phones with a meaningful length.
	var phone sql.NullString
	if crit.Phone != nil {
		if p := strings.TrimSpace(*crit.Phone); len(p) > 5 {
			phone = sql.NullString{String: p, Valid: true}
		}
	}

	var exclude interface{}
	if crit.ExcludeID != nil {
		exclude = *crit.ExcludeID
	}

	query := `
		SELECT ` + patientColumns + ` FROM pacientes
		WHERE ($5::uuid IS NULL OR id <> $5)
			AND (
				(
					LOWER(nombre) = LOWER($1)
					AND apellido_paterno IS NOT NULL AND $2 <> '' AND LOWER(apellido_paterno) = LOWER($2)
					AND (
						(apellido_materno IS NULL AND $3::text IS NULL)
						OR (apellido_materno IS NOT NULL AND $3::text IS NOT NULL AND LOWER(apellido_materno) = LOWER($3))
					)
				)
				OR ($4::text IS NOT NULL AND telefono = $4)
			)
		ORDER BY fecha_creacion DESC
		LIMIT 10
	`

	var patients []*model.Patient
	err := r.gw.Read(ctx, func(q Querier) error {
		return q.SelectContext(ctx, &patients, query, name, paternal, maternal, phone, exclude)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate patients: %w", err)
	}
	if patients == nil {
		patients = []*model.Patient{}
	}
	return patients, nil
}

// nullableJSON maps an empty blob to NULL so jsonb columns keep their
// database default instead of storing an empty string.
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
