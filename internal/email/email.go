// Package email sends transactional mail. Delivery is best-effort:
// callers fire it after their own work is committed and treat failures
// as log-only events.
package email

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/optica/backend/internal/config"
	"github.com/optica/backend/internal/model"
)

// ReceiptSender delivers a payment receipt for a captured sale.
type ReceiptSender interface {
	SendReceipt(to string, sale *model.Sale) error
}

type Service struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

func NewService(cfg config.SMTPConfig, logger zerolog.Logger) *Service {
	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		logger: logger.With().Str("component", "email").Logger(),
	}
}

func (s *Service) SendReceipt(to string, sale *model.Sale) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Comprobante de venta")
	m.SetBody("text/plain", receiptBody(sale))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send receipt: %w", err)
	}
	s.logger.Info().Str("sale_id", sale.ID.String()).Str("to", to).Msg("receipt sent")
	return nil
}

func receiptBody(sale *model.Sale) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Venta %s\n", sale.ID)
	if sale.Folio != nil {
		fmt.Fprintf(&b, "Folio: %s\n", *sale.Folio)
	}
	fmt.Fprintf(&b, "Fecha: %s\n", sale.Date.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total: %s\n", sale.Total.StringFixed(2))
	for _, p := range sale.Payments {
		method := ""
		if p.Method != nil {
			method = " (" + *p.Method + ")"
		}
		fmt.Fprintf(&b, "Abono: %s%s\n", p.Amount.StringFixed(2), method)
	}
	fmt.Fprintf(&b, "Saldo pendiente: %s\n", sale.Balance.StringFixed(2))
	return b.String()
}
