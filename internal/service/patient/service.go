// Package patient implements patient demographics: CRUD, paginated
// search and the duplicate-detection heuristic used by capture forms.
package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// duplicatePhoneMinLen guards against short placeholder values
	// ("N/A", "12345") flooding the phone match with false positives.
	duplicatePhoneMinLen = 5
)

type Service struct {
	patients repository.PatientRepository
	logger   zerolog.Logger
}

func NewService(patients repository.PatientRepository, logger zerolog.Logger) *Service {
	return &Service{
		patients: patients,
		logger:   logger.With().Str("component", "patient_service").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.BadRequest("patient name is required", nil)
	}

	patient := &model.Patient{
		ID:              uuid.New(),
		Name:            name,
		PaternalSurname: trimPtr(req.PaternalSurname),
		MaternalSurname: trimPtr(req.MaternalSurname),
		Phone:           trimPtr(req.Phone),
		Email:           trimPtr(req.Email),
		Address:         req.Address,
		Occupation:      req.Occupation,
		Notes:           req.Notes,
		Active:          true,
		RegisteredAt:    time.Now().In(model.StorageZone),
		Metadata:        req.Metadata,
	}
	if req.BirthDate != nil && !req.BirthDate.IsZero() {
		t := req.BirthDate.Time
		patient.BirthDate = &t
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", patient.ID.String()).Msg("patient created")
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.patients.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.BadRequest("patient name cannot be blank", nil)
		}
		patient.Name = name
	}
	if req.PaternalSurname != nil {
		patient.PaternalSurname = trimPtr(req.PaternalSurname)
	}
	if req.MaternalSurname != nil {
		patient.MaternalSurname = trimPtr(req.MaternalSurname)
	}
	if req.BirthDate != nil {
		if req.BirthDate.IsZero() {
			patient.BirthDate = nil
		} else {
			t := req.BirthDate.Time
			patient.BirthDate = &t
		}
	}
	if req.Phone != nil {
		patient.Phone = trimPtr(req.Phone)
	}
	if req.Email != nil {
		patient.Email = trimPtr(req.Email)
	}
	if req.Address != nil {
		patient.Address = req.Address
	}
	if req.Occupation != nil {
		patient.Occupation = req.Occupation
	}
	if req.Notes != nil {
		patient.Notes = req.Notes
	}
	if req.Active != nil {
		patient.Active = *req.Active
	}
	if req.Metadata != nil {
		patient.Metadata = req.Metadata
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) (*model.PatientPage, error) {
	if filters == nil {
		filters = &model.PatientFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
	filters.Search = strings.TrimSpace(filters.Search)
	return s.patients.List(ctx, filters)
}

// FindDuplicates runs the duplicate heuristic. A candidate matches on
// full name (case-insensitive, a maternal surname missing on both sides
// counts as equal) or, when the trimmed phone is longer than five
// characters, on exact phone. Name and paternal surname are mandatory;
// without them the heuristic has nothing meaningful to compare.
func (s *Service) FindDuplicates(ctx context.Context, crit model.DuplicateCriteria) ([]*model.Patient, error) {
	crit.Name = strings.TrimSpace(crit.Name)
	crit.PaternalSurname = strings.TrimSpace(crit.PaternalSurname)
	if crit.Name == "" || crit.PaternalSurname == "" {
		return nil, apperrors.BadRequest("nombre and apellido_paterno are required for duplicate search", nil)
	}

	crit.MaternalSurname = trimPtr(crit.MaternalSurname)
	if crit.Phone != nil {
		phone := strings.TrimSpace(*crit.Phone)
		if len(phone) > duplicatePhoneMinLen {
			crit.Phone = &phone
		} else {
			crit.Phone = nil
		}
	}

	return s.patients.FindDuplicates(ctx, crit)
}

// trimPtr trims the pointee and collapses blank strings to nil.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
