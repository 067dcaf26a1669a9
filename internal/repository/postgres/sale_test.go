package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/tenant"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func captureFixture() *model.Sale {
	saleID := uuid.New()
	patientID := uuid.New()
	return &model.Sale{
		ID:      saleID,
		Total:   dec("1200.00"),
		Balance: dec("700.00"),
		Status:  model.SaleStatusActive,
		Lines: []*model.SaleLine{
			{ID: uuid.New(), SaleID: saleID, PatientID: &patientID},
		},
		Payments: []*model.Payment{
			{ID: uuid.New(), SaleID: saleID, Amount: dec("500.00")},
		},
	}
}

func expectCaptureBegin(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "public", public`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestCreateCaptureCommitsAllRows(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewSaleRepository(gw)
	sale := captureFixture()

	expectCaptureBegin(mock)
	mock.ExpectExec(`INSERT INTO ventas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO detalle_ventas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO abonos`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := tenant.WithSchema(context.Background(), "public")
	require.NoError(t, repo.CreateCapture(ctx, sale))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCaptureRollsBackWhenPaymentFails(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewSaleRepository(gw)
	sale := captureFixture()

	// Header and line succeed; the payment insert fails. Nothing may
	// survive, so the transaction must roll back.
	boom := errors.New("payment insert failed")
	expectCaptureBegin(mock)
	mock.ExpectExec(`INSERT INTO ventas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO detalle_ventas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO abonos`).WillReturnError(boom)
	mock.ExpectRollback()

	ctx := tenant.WithSchema(context.Background(), "public")
	err := repo.CreateCapture(ctx, sale)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCaptureRollsBackWhenLineFails(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewSaleRepository(gw)
	sale := captureFixture()

	boom := errors.New("line insert failed")
	expectCaptureBegin(mock)
	mock.ExpectExec(`INSERT INTO ventas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO detalle_ventas`).WillReturnError(boom)
	mock.ExpectRollback()

	ctx := tenant.WithSchema(context.Background(), "public")
	err := repo.CreateCapture(ctx, sale)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByPatientMatchesBothLinkages(t *testing.T) {
	gw, mock := newTestGateway(t)
	repo := NewSaleRepository(gw)
	patientID := uuid.New()

	expectSearchPath(mock, "public")

	// The query must consider the consultation's patient and any sale
	// line's patient.
	mock.ExpectQuery(`LEFT JOIN consultas c ON c\.id = s\.consulta_id`).
		WithArgs(patientID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "folio_fisico", "fecha", "consulta_id", "total_venta",
			"saldo_pendiente", "estado", "observaciones_generales",
			"motivo_cancelacion", "usuario_id",
		}))

	ctx := tenant.WithSchema(context.Background(), "public")
	sales, err := repo.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.NoError(t, mock.ExpectationsWereMet())
}
