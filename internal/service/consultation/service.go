// Package consultation implements clinical visits and their
// prescriptions. Prescriptions are created together with the visit or
// appended later; deleting a visit cascades to its prescriptions but is
// blocked while a sale references it.
package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

type Service struct {
	consultations repository.ConsultationRepository
	patients      repository.PatientRepository
	logger        zerolog.Logger
}

func NewService(
	consultations repository.ConsultationRepository,
	patients repository.PatientRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		consultations: consultations,
		patients:      patients,
		logger:        logger.With().Str("component", "consultation_service").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateConsultationRequest) (*model.Consultation, error) {
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.BadRequest("consultation references a missing patient", err)
		}
		return nil, err
	}

	consultation := &model.Consultation{
		ID:              uuid.New(),
		PatientID:       req.PatientID,
		Date:            normalizeDate(req.Date),
		Reason:          req.Reason,
		Observations:    req.Observations,
		ServiceCost:     req.ServiceCost,
		FinancialStatus: req.FinancialStatus,
		ClinicalDetails: req.ClinicalDetails,
		UserID:          req.UserID,
	}
	if consultation.FinancialStatus == nil {
		status := model.ConsultationStatusPending
		consultation.FinancialStatus = &status
	}

	for _, p := range req.Prescriptions {
		consultation.Prescriptions = append(consultation.Prescriptions, buildPrescription(consultation.ID, p))
	}

	if err := s.consultations.CreateWithPrescriptions(ctx, consultation); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("consultation_id", consultation.ID.String()).
		Int("prescriptions", len(consultation.Prescriptions)).
		Msg("consultation created")
	return consultation, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	return s.consultations.Get(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	return s.consultations.ListByPatient(ctx, patientID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.consultations.Delete(ctx, id)
}

func (s *Service) AddPrescription(ctx context.Context, consultationID uuid.UUID, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	prescription := buildPrescription(consultationID, *req)
	if err := s.consultations.AddPrescription(ctx, prescription); err != nil {
		return nil, err
	}
	return prescription, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	return s.consultations.GetPrescription(ctx, id)
}

func buildPrescription(consultationID uuid.UUID, req model.CreatePrescriptionRequest) *model.Prescription {
	return &model.Prescription{
		ID:             uuid.New(),
		ConsultationID: consultationID,
		Type:           req.Type,
		ODSphere:       req.ODSphere,
		ODCylinder:     req.ODCylinder,
		ODAxis:         req.ODAxis,
		ODAddition:     req.ODAddition,
		OISphere:       req.OISphere,
		OICylinder:     req.OICylinder,
		OIAxis:         req.OIAxis,
		OIAddition:     req.OIAddition,
		MountingDetail: req.MountingDetail,
	}
}

// normalizeDate keeps the caller's declared clock value when one was
// given (historical captures carry back-dated visits) and falls back to
// now in the storage zone.
func normalizeDate(t *model.FlexTime) time.Time {
	if t != nil && !t.IsZero() {
		return t.Time
	}
	return time.Now().In(model.StorageZone)
}
