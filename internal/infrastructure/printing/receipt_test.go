package printing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/pos-backend/internal/domain/billing"
)

func printableBill(t *testing.T) *billing.Bill {
	t.Helper()

	bill := billing.NewBill()
	bill.Company = "Hospital Pharmacy"
	bill.Customer = "Walk-in Customer"
	bill.Warehouse = "Pharmacy Store - HP"
	bill.Department = "Pharmacy - CP"
	bill.PatientID = "PID-0042"
	bill.PatientName = "Asha Verma"
	bill.Doctor = "Dr. Rao"
	bill.TokenNumber = "17"
	bill.PostingDateTime = "2026-08-28T10:30"

	lineID := bill.Lines[0].ID
	require.NoError(t, bill.ApplyCatalogSelection(lineID, billing.CatalogEntry{
		ItemCode: "PARA-500",
		ItemName: "Paracetamol 500mg",
		UOM:      "Nos",
		StockQty: decimal.NewFromInt(120),
		Rate:     decimal.RequireFromString("5.00"),
	}))
	require.NoError(t, bill.UpdateLineField(lineID, billing.FieldSaleQty, "10"))
	require.NoError(t, bill.UpdateLineField(lineID, billing.FieldCGSTPercent, "2.5"))
	require.NoError(t, bill.UpdateLineField(lineID, billing.FieldSGSTPercent, "2.5"))
	require.NoError(t, bill.UpdateLineField(lineID, billing.FieldBatchNo, "B2026-07"))

	bill.ApplyPercentDiscount("10")
	bill.ApplyCashTender("60", "")
	return bill
}

func TestReceiptBuilder_Build(t *testing.T) {
	builder, err := NewReceiptBuilder()
	require.NoError(t, err)

	bill := printableBill(t)
	html, err := builder.Build(bill, "ACC-SINV-2026-00042", "cashier@hospital.local")
	require.NoError(t, err)

	assert.Contains(t, html, "Hospital Pharmacy")
	assert.Contains(t, html, "ACC-SINV-2026-00042")
	assert.Contains(t, html, "Paracetamol 500mg")
	assert.Contains(t, html, "Batch: B2026-07")
	// html/template escapes "+" in text nodes, so the combined GST label
	// arrives at the browser as 2.5&#43;2.5 and renders as 2.5+2.5
	assert.Contains(t, html, "GST 2.5&#43;2.5%")
	assert.Contains(t, html, "Asha Verma")
	assert.Contains(t, html, "2026-08-28 10:30")
	assert.Contains(t, html, "cashier@hospital.local")

	// 10 x 5.00 = 50.00, +2.5% CGST +2.5% SGST = 52.50,
	// 10% document discount on 52.50 = 5.25, grand 47.25
	assert.Contains(t, html, "50.00")
	assert.Contains(t, html, "Discount (10%)")
	assert.Contains(t, html, "5.25")
	assert.Contains(t, html, "47.25")
	// cash 60 against 47.25 leaves 12.75
	assert.Contains(t, html, "12.75")
}

func TestReceiptBuilder_SkipsPlaceholderRows(t *testing.T) {
	bill := printableBill(t)
	bill.AddLine()

	data := buildReceiptData(bill, "", "")
	assert.Len(t, data.Lines, 1)
}

func TestReceiptBuilder_OmitsEmptyOptionalFields(t *testing.T) {
	builder, err := NewReceiptBuilder()
	require.NoError(t, err)

	bill := billing.NewBill()
	bill.Company = "Hospital Pharmacy"
	bill.Customer = "Walk-in Customer"

	html, err := builder.Build(bill, "", "")
	require.NoError(t, err)

	assert.NotContains(t, html, "Invoice:")
	assert.NotContains(t, html, "Patient")
	assert.NotContains(t, html, "Doctor")
	assert.NotContains(t, html, "Token")
}

func TestGSTPercentLabel(t *testing.T) {
	line := billing.BillLine{CGSTPercent: "2.5", SGSTPercent: "2.5"}
	assert.Equal(t, "2.5+2.5", gstPercentLabel(line))

	line = billing.BillLine{CGSTPercent: "9"}
	assert.Equal(t, "9", gstPercentLabel(line))

	line = billing.BillLine{}
	assert.Equal(t, "", gstPercentLabel(line))
}
