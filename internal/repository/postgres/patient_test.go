package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/tenant"
	apperrors "github.com/optica/backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestFindDuplicatesBindsCriteria(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewPatientRepository(gw)
	excludeID := uuid.New()

	expectSearchPath(mock, "public")
	mock.ExpectQuery(`SELECT .* FROM pacientes`).
		WithArgs(
			"Juan",
			"Pérez",
			sql.NullString{String: "García", Valid: true},
			sql.NullString{String: "5551234567", Valid: true},
			excludeID,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "activo", "fecha_creacion"}))

	crit := model.DuplicateCriteria{
		Name:            " Juan ",
		PaternalSurname: "Pérez",
		MaternalSurname: strPtr("García"),
		Phone:           strPtr("5551234567"),
		ExcludeID:       &excludeID,
	}
	ctx := tenant.WithSchema(context.Background(), "public")
	matches, err := repo.FindDuplicates(ctx, crit)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDuplicatesDropsShortPhone(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewPatientRepository(gw)

	// A five-character phone carries no signal; the phone rule must not
	// participate.
	expectSearchPath(mock, "public")
	mock.ExpectQuery(`SELECT .* FROM pacientes`).
		WithArgs("Ana", "López", sql.NullString{}, sql.NullString{}, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "activo", "fecha_creacion"}))

	crit := model.DuplicateCriteria{
		Name:            "Ana",
		PaternalSurname: "López",
		Phone:           strPtr(" 12345 "),
	}
	ctx := tenant.WithSchema(context.Background(), "public")
	_, err := repo.FindDuplicates(ctx, crit)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsesCallerPagination(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewPatientRepository(gw)

	// Pagination is normalized upstream; the repository takes the values
	// as given.
	expectSearchPath(mock, "public")
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pacientes`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(250))
	mock.ExpectQuery(`SELECT .* FROM pacientes`).
		WithArgs(100, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "activo", "fecha_creacion"}))

	ctx := tenant.WithSchema(context.Background(), "public")
	result, err := repo.List(ctx, &model.PatientFilters{Page: 2, PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 250, result.TotalItems)
	assert.Equal(t, 3, result.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePatientBlockedByDependents(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewPatientRepository(gw)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL search_path`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM pacientes`).
		WithArgs(id).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	ctx := tenant.WithSchema(context.Background(), "public")
	err := repo.Delete(ctx, id)
	assert.True(t, apperrors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPatientNotFound(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewPatientRepository(gw)
	id := uuid.New()

	expectSearchPath(mock, "public")
	mock.ExpectQuery(`SELECT .* FROM pacientes WHERE id`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	ctx := tenant.WithSchema(context.Background(), "public")
	_, err := repo.Get(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
}
