package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/backend/internal/model"
	apperrors "github.com/optica/backend/pkg/errors"
)

type fakeRepo struct {
	created  *model.Patient
	lastCrit *model.DuplicateCriteria
}

func (f *fakeRepo) Create(_ context.Context, p *model.Patient) error {
	f.created = p
	return nil
}
func (f *fakeRepo) Get(context.Context, uuid.UUID) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient", nil)
}
func (f *fakeRepo) Update(context.Context, *model.Patient) error { return nil }
func (f *fakeRepo) Delete(context.Context, uuid.UUID) error      { return nil }
func (f *fakeRepo) List(context.Context, *model.PatientFilters) (*model.PatientPage, error) {
	return &model.PatientPage{}, nil
}
func (f *fakeRepo) FindDuplicates(_ context.Context, crit model.DuplicateCriteria) ([]*model.Patient, error) {
	f.lastCrit = &crit
	return []*model.Patient{}, nil
}

func strPtr(s string) *string { return &s }

func TestCreateNormalizesBlankFields(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zerolog.Nop())

	created, err := svc.Create(context.Background(), &model.CreatePatientRequest{
		Name:            "  María ",
		PaternalSurname: strPtr("  "),
		Phone:           strPtr(" 5551234 "),
	})
	require.NoError(t, err)

	assert.Equal(t, "María", created.Name)
	assert.Nil(t, created.PaternalSurname)
	require.NotNil(t, created.Phone)
	assert.Equal(t, "5551234", *created.Phone)
	assert.True(t, created.Active)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(&fakeRepo{}, zerolog.Nop())
	_, err := svc.Create(context.Background(), &model.CreatePatientRequest{Name: "   "})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestFindDuplicatesRequiresNameAndSurname(t *testing.T) {
	svc := NewService(&fakeRepo{}, zerolog.Nop())

	_, err := svc.FindDuplicates(context.Background(), model.DuplicateCriteria{Name: "Juan"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestFindDuplicatesDropsShortPhones(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.FindDuplicates(context.Background(), model.DuplicateCriteria{
		Name:            "Juan",
		PaternalSurname: "Pérez",
		Phone:           strPtr(" 12345 "),
	})
	require.NoError(t, err)
	require.NotNil(t, repo.lastCrit)
	assert.Nil(t, repo.lastCrit.Phone)
}

func TestFindDuplicatesKeepsUsablePhones(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.FindDuplicates(context.Background(), model.DuplicateCriteria{
		Name:            "Juan",
		PaternalSurname: "Pérez",
		Phone:           strPtr(" 5551234567 "),
	})
	require.NoError(t, err)
	require.NotNil(t, repo.lastCrit)
	require.NotNil(t, repo.lastCrit.Phone)
	assert.Equal(t, "5551234567", *repo.lastCrit.Phone)
}

func TestListClampsPagination(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zerolog.Nop())

	filters := &model.PatientFilters{Page: -3, PageSize: 10000}
	_, err := svc.List(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 1, filters.Page)
	assert.Equal(t, maxPageSize, filters.PageSize)
}
