package printing

import (
	"context"

	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/domain/billing"
	"github.com/pharmacy/pos-backend/internal/infrastructure/config"
	"github.com/pharmacy/pos-backend/internal/infrastructure/printing"
)

// receiptMarginMM is the print margin on thermal roll paper
const receiptMarginMM = 3

// ReceiptService turns a bill into a printable PDF receipt
type ReceiptService struct {
	builder  *printing.ReceiptBuilder
	renderer printing.PDFRenderer
	cfg      config.PrintingConfig
	logger   *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(builder *printing.ReceiptBuilder, renderer printing.PDFRenderer, cfg config.PrintingConfig, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{
		builder:  builder,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger.Named("receipt"),
	}
}

// RenderPDF renders the bill as a receipt PDF. invoiceName may be empty
// for a pre-submission (proforma) print.
func (s *ReceiptService) RenderPDF(ctx context.Context, bill *billing.Bill, invoiceName, operator string) ([]byte, error) {
	html, err := s.builder.Build(bill, invoiceName, operator)
	if err != nil {
		return nil, err
	}

	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:         html,
		PageWidthMM:  s.cfg.PageWidthMM,
		PageHeightMM: s.cfg.PageHeightMM,
		Continuous:   true,
		Margins: printing.Margins{
			Top:    receiptMarginMM,
			Right:  receiptMarginMM,
			Bottom: receiptMarginMM,
			Left:   receiptMarginMM,
		},
		Title:   "Receipt " + invoiceName,
		Timeout: s.cfg.RenderTimeout,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("receipt rendered",
		zap.String("invoice", invoiceName),
		zap.Int("bytes", len(result.PDFData)),
		zap.Duration("duration", result.RenderDuration))
	return result.PDFData, nil
}
