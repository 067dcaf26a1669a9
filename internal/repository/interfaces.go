package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/optica/backend/internal/model"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.PatientFilters) (*model.PatientPage, error)
	FindDuplicates(ctx context.Context, crit model.DuplicateCriteria) ([]*model.Patient, error)
}

type ConsultationRepository interface {
	CreateWithPrescriptions(ctx context.Context, consultation *model.Consultation) error
	Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddPrescription(ctx context.Context, prescription *model.Prescription) error
	GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
}

type SaleRepository interface {
	// CreateCapture persists the sale header together with its lines and
	// payments as one atomic unit.
	CreateCapture(ctx context.Context, sale *model.Sale) error
	Get(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Sale, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, schemaName string) ([]*model.User, error)
}

type TenantRepository interface {
	List(ctx context.Context) ([]*model.Tenant, error)
	Get(ctx context.Context, schemaName string) (*model.Tenant, error)
	Create(ctx context.Context, tenant *model.Tenant) error
}

type TokenRepository interface {
	StoreRefreshToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	LookupRefreshToken(ctx context.Context, token string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}
