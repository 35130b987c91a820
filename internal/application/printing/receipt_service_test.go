package printing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/pos-backend/internal/domain/billing"
	"github.com/pharmacy/pos-backend/internal/infrastructure/config"
	"github.com/pharmacy/pos-backend/internal/infrastructure/printing"
)

type fakeRenderer struct {
	lastRequest *printing.RenderRequest
	pdf         []byte
	err         error
}

func (f *fakeRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return &printing.RenderResult{PDFData: f.pdf, RenderDuration: time.Millisecond}, nil
}

func (f *fakeRenderer) Close() error { return nil }

var _ printing.PDFRenderer = (*fakeRenderer)(nil)

func TestReceiptService_RenderPDF(t *testing.T) {
	builder, err := printing.NewReceiptBuilder()
	require.NoError(t, err)
	renderer := &fakeRenderer{pdf: []byte("%PDF-1.7 receipt")}

	svc := NewReceiptService(builder, renderer, config.PrintingConfig{
		PageWidthMM:   80,
		PageHeightMM:  297,
		RenderTimeout: 15 * time.Second,
	}, nil)

	bill := billing.NewBill()
	bill.Company = "Hospital Pharmacy"
	bill.Customer = "Walk-in Customer"

	pdf, err := svc.RenderPDF(context.Background(), bill, "ACC-SINV-2026-00042", "cashier@hospital.local")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 receipt"), pdf)

	req := renderer.lastRequest
	require.NotNil(t, req)
	assert.Equal(t, 80.0, req.PageWidthMM)
	assert.True(t, req.Continuous)
	assert.Equal(t, 15*time.Second, req.Timeout)
	assert.Contains(t, req.HTML, "Hospital Pharmacy")
	assert.Contains(t, req.HTML, "ACC-SINV-2026-00042")
}

func TestReceiptService_RendererFailure(t *testing.T) {
	builder, err := printing.NewReceiptBuilder()
	require.NoError(t, err)
	renderer := &fakeRenderer{err: printing.NewRenderError(printing.ErrCodeRenderTimeout, "PDF rendering timed out", nil)}

	svc := NewReceiptService(builder, renderer, config.PrintingConfig{PageWidthMM: 80, PageHeightMM: 297}, nil)

	_, err = svc.RenderPDF(context.Background(), billing.NewBill(), "", "")
	var renderErr *printing.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, printing.ErrCodeRenderTimeout, renderErr.Code)
}
