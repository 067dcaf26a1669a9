// Package sale implements sale capture: the header, its lines and its
// initial payments persisted as one atomic unit. Captures model both
// live counter sales and back-dated paper records, so the declared
// totals and balances are stored verbatim rather than recomputed.
package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/optica/backend/internal/email"
	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

type Service struct {
	sales    repository.SaleRepository
	patients repository.PatientRepository
	receipts email.ReceiptSender
	logger   zerolog.Logger
}

func NewService(
	sales repository.SaleRepository,
	patients repository.PatientRepository,
	receipts email.ReceiptSender,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sales:    sales,
		patients: patients,
		receipts: receipts,
		logger:   logger.With().Str("component", "sale_service").Logger(),
	}
}

// Capture persists a sale with its lines and initial payments. Every
// payment amount must be positive; the declared balance, when given, is
// stored exactly as declared even if it disagrees with the payment
// arithmetic. A mismatch is logged, never rejected.
func (s *Service) Capture(ctx context.Context, req *model.CreateSaleRequest) (*model.Sale, error) {
	for _, p := range req.Payments {
		if !p.Amount.IsPositive() {
			return nil, apperrors.BadRequest("payment amounts must be positive", nil)
		}
	}

	saleID := uuid.New()
	saleDate := normalizeDate(req.Date)

	total := decimal.Zero
	if req.Total != nil {
		total = *req.Total
	}

	sale := &model.Sale{
		ID:             saleID,
		Folio:          req.Folio,
		Date:           saleDate,
		ConsultationID: req.ConsultationID,
		Total:          total,
		Status:         model.SaleStatusActive,
		Notes:          req.Notes,
		UserID:         req.UserID,
	}

	for _, line := range req.Lines {
		sale.Lines = append(sale.Lines, &model.SaleLine{
			ID:             uuid.New(),
			SaleID:         saleID,
			PatientID:      line.PatientID,
			PrescriptionID: line.PrescriptionID,
			PDRight:        line.PDRight,
			PDLeft:         line.PDLeft,
			SegmentHeight:  line.SegmentHeight,
			CatalogID:      line.CatalogID,
			Description:    line.Description,
			Price:          line.Price,
		})
	}

	for _, payment := range req.Payments {
		// A dateless payment is paid now, even on a backdated sale.
		paidAt := normalizeDate(payment.Date)
		staff := payment.UserID
		if staff == nil {
			staff = req.UserID
		}
		sale.Payments = append(sale.Payments, &model.Payment{
			ID:     uuid.New(),
			SaleID: saleID,
			Amount: payment.Amount,
			PaidAt: paidAt,
			Method: payment.Method,
			UserID: staff,
		})
	}

	// The declared balance wins over the derived one. Historical paper
	// records legitimately disagree with their own arithmetic.
	if req.Balance != nil {
		sale.Balance = *req.Balance
	} else {
		sale.Balance = sale.DerivedBalance()
	}

	if err := s.sales.CreateCapture(ctx, sale); err != nil {
		return nil, err
	}

	if !sale.BalanceMatchesDeclared() {
		s.logger.Warn().
			Str("sale_id", sale.ID.String()).
			Str("declared_balance", sale.Balance.String()).
			Str("derived_balance", sale.DerivedBalance().String()).
			Msg("declared balance disagrees with payment arithmetic")
	}
	s.logger.Info().
		Str("sale_id", sale.ID.String()).
		Int("lines", len(sale.Lines)).
		Int("payments", len(sale.Payments)).
		Msg("sale captured")

	s.sendReceipt(ctx, sale)
	return sale, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	return s.sales.Get(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Sale, error) {
	return s.sales.ListByPatient(ctx, patientID)
}

// sendReceipt mails a receipt to the first line patient with an email on
// file. The capture is already committed; a delivery failure only logs.
func (s *Service) sendReceipt(ctx context.Context, sale *model.Sale) {
	if s.receipts == nil || len(sale.Payments) == 0 {
		return
	}
	for _, line := range sale.Lines {
		if line.PatientID == nil {
			continue
		}
		patient, err := s.patients.Get(ctx, *line.PatientID)
		if err != nil || patient.Email == nil {
			continue
		}
		if err := s.receipts.SendReceipt(*patient.Email, sale); err != nil {
			s.logger.Warn().Err(err).
				Str("sale_id", sale.ID.String()).
				Msg("receipt delivery failed")
		}
		return
	}
}

func normalizeDate(t *model.FlexTime) time.Time {
	if t != nil && !t.IsZero() {
		return t.Time
	}
	return time.Now().In(model.StorageZone)
}
