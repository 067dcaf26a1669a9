package sale

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/backend/internal/email"
	"github.com/optica/backend/internal/model"
	apperrors "github.com/optica/backend/pkg/errors"
)

type fakeSaleRepo struct {
	captured *model.Sale
	err      error
}

func (f *fakeSaleRepo) CreateCapture(_ context.Context, sale *model.Sale) error {
	if f.err != nil {
		return f.err
	}
	f.captured = sale
	return nil
}

func (f *fakeSaleRepo) Get(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	if f.captured != nil && f.captured.ID == id {
		return f.captured, nil
	}
	return nil, apperrors.NotFound("sale", nil)
}

func (f *fakeSaleRepo) ListByPatient(context.Context, uuid.UUID) ([]*model.Sale, error) {
	return nil, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(context.Context, *model.Patient) error { return nil }
func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if p, ok := f.patients[id]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("patient", nil)
}
func (f *fakePatientRepo) Update(context.Context, *model.Patient) error { return nil }
func (f *fakePatientRepo) Delete(context.Context, uuid.UUID) error      { return nil }
func (f *fakePatientRepo) List(context.Context, *model.PatientFilters) (*model.PatientPage, error) {
	return nil, nil
}
func (f *fakePatientRepo) FindDuplicates(context.Context, model.DuplicateCriteria) ([]*model.Patient, error) {
	return nil, nil
}

type fakeReceipts struct {
	sentTo []string
	err    error
}

func (f *fakeReceipts) SendReceipt(to string, _ *model.Sale) error {
	f.sentTo = append(f.sentTo, to)
	return f.err
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTestService(repo *fakeSaleRepo, patients *fakePatientRepo, receipts *fakeReceipts) *Service {
	if patients == nil {
		patients = &fakePatientRepo{}
	}
	var sender email.ReceiptSender
	if receipts != nil {
		sender = receipts
	}
	return NewService(repo, patients, sender, zerolog.Nop())
}

func TestCaptureStoresDeclaredBalanceVerbatim(t *testing.T) {
	repo := &fakeSaleRepo{}
	svc := newTestService(repo, nil, nil)

	// Declared balance 300 with total 1000 and a single 500 payment: the
	// arithmetic says 500, the declaration says 300. The declaration wins.
	req := &model.CreateSaleRequest{
		Total:   decPtr("1000"),
		Balance: decPtr("300"),
		Payments: []model.CreatePaymentRequest{
			{Amount: dec("500")},
		},
	}
	sale, err := svc.Capture(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, dec("300").Equal(sale.Balance))
	assert.True(t, dec("300").Equal(repo.captured.Balance))
	assert.False(t, sale.BalanceMatchesDeclared())
}

func TestCaptureDerivesBalanceWhenUndeclared(t *testing.T) {
	repo := &fakeSaleRepo{}
	svc := newTestService(repo, nil, nil)

	req := &model.CreateSaleRequest{
		Total: decPtr("1000"),
		Payments: []model.CreatePaymentRequest{
			{Amount: dec("400")},
		},
	}
	sale, err := svc.Capture(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, dec("600").Equal(sale.Balance))
}

func TestCaptureRejectsNonPositivePayments(t *testing.T) {
	repo := &fakeSaleRepo{}
	svc := newTestService(repo, nil, nil)

	for _, amount := range []string{"0", "-10"} {
		req := &model.CreateSaleRequest{
			Payments: []model.CreatePaymentRequest{
				{Amount: dec(amount)},
			},
		}
		_, err := svc.Capture(context.Background(), req)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
		assert.Nil(t, repo.captured)
	}
}

func TestCapturePaymentFallbacks(t *testing.T) {
	repo := &fakeSaleRepo{}
	svc := newTestService(repo, nil, nil)

	staffID := uuid.New()
	saleDate := &model.FlexTime{Time: time.Date(2020, 1, 15, 9, 0, 0, 0, time.UTC)}
	paymentDate := &model.FlexTime{Time: time.Date(2022, 3, 5, 12, 0, 0, 0, time.UTC)}
	otherStaff := uuid.New()

	req := &model.CreateSaleRequest{
		Date:   saleDate,
		UserID: &staffID,
		Payments: []model.CreatePaymentRequest{
			{Amount: dec("100")},
			{Amount: dec("200"), Date: paymentDate, UserID: &otherStaff},
		},
	}
	sale, err := svc.Capture(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, sale.Payments, 2)

	// A dateless payment on a backdated sale is paid now, not back in
	// 2020; only the staff fallback comes from the sale.
	assert.WithinDuration(t, time.Now(), sale.Payments[0].PaidAt, 5*time.Second)
	assert.Equal(t, staffID, *sale.Payments[0].UserID)

	// Second payment keeps its own values.
	assert.True(t, paymentDate.Time.Equal(sale.Payments[1].PaidAt))
	assert.Equal(t, otherStaff, *sale.Payments[1].UserID)
}

func TestCaptureAlwaysStartsActive(t *testing.T) {
	repo := &fakeSaleRepo{}
	svc := newTestService(repo, nil, nil)

	// Even a fully paid capture persists as Activa; status transitions
	// are a separate concern from historical capture.
	req := &model.CreateSaleRequest{
		Total:   decPtr("500"),
		Balance: decPtr("0"),
		Payments: []model.CreatePaymentRequest{
			{Amount: dec("500")},
		},
	}
	sale, err := svc.Capture(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.SaleStatusActive, sale.Status)
}

func TestCaptureSendsReceiptBestEffort(t *testing.T) {
	patientID := uuid.New()
	email := "cliente@example.com"
	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{
		patientID: {ID: patientID, Email: &email},
	}}
	receipts := &fakeReceipts{err: assert.AnError}
	repo := &fakeSaleRepo{}
	svc := newTestService(repo, patients, receipts)

	req := &model.CreateSaleRequest{
		Total: decPtr("100"),
		Lines: []model.CreateSaleLineRequest{
			{PatientID: &patientID},
		},
		Payments: []model.CreatePaymentRequest{
			{Amount: dec("100")},
		},
	}

	// A failing receipt must not fail the capture.
	sale, err := svc.Capture(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, repo.captured)
	assert.Equal(t, []string{email}, receipts.sentTo)
	assert.NotNil(t, sale)
}
