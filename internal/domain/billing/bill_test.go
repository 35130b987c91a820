package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/pos-backend/internal/domain/shared"
)

// Test helpers

func fillReferenceLine(t *testing.T, b *Bill, lineID uuid.UUID) {
	t.Helper()
	require.NoError(t, b.ApplyCatalogSelection(lineID, CatalogEntry{
		ItemCode: "PARA-500",
		ItemName: "Paracetamol 500mg",
		UOM:      "Nos",
		StockQty: decimal.NewFromInt(100),
		Rate:     decimal.RequireFromString("5.00"),
	}))
	require.NoError(t, b.UpdateLineField(lineID, FieldSaleQty, "10"))
	require.NoError(t, b.UpdateLineField(lineID, FieldDiscountPercent, "10"))
	require.NoError(t, b.UpdateLineField(lineID, FieldCGSTPercent, "6"))
	require.NoError(t, b.UpdateLineField(lineID, FieldSGSTPercent, "6"))
}

func readyBill(t *testing.T) *Bill {
	t.Helper()
	b := NewBill()
	b.Company = "City Pharmacy Pvt Ltd"
	b.Customer = "Walk-in Customer"
	b.Warehouse = "Main Store - CP"
	b.Department = "Pharmacy - CP"
	b.PostingDateTime = "2026-08-28T10:30"
	fillReferenceLine(t, b, b.Lines[0].ID)
	return b
}

// ============================================
// NewBill Tests
// ============================================

func TestNewBill(t *testing.T) {
	b := NewBill()

	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, TransactionCash, b.TransactionType)
	require.Len(t, b.Lines, 1)
	assert.False(t, b.Lines[0].HasItem())
	assert.True(t, b.Totals.GrandTotal.IsZero())
	assert.True(t, b.Totals.ChangeDue.IsZero())
}

// ============================================
// Totals Tests
// ============================================

func TestBill_Totals(t *testing.T) {
	t.Run("single reference line totals", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		assert.Equal(t, "50", b.Totals.ItemTotal.String())
		assert.Equal(t, "5", b.Totals.LineDiscountTotal.String())
		assert.Equal(t, "2.7", b.Totals.CGSTTotal.String())
		assert.Equal(t, "2.7", b.Totals.SGSTTotal.String())
		assert.Equal(t, "50.4", b.Totals.GrandTotal.String())
	})

	t.Run("two identical lines double every figure", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)
		second := b.AddLine()
		fillReferenceLine(t, b, second.ID)

		assert.Equal(t, "100", b.Totals.ItemTotal.String())
		assert.Equal(t, "10", b.Totals.LineDiscountTotal.String())
		assert.Equal(t, "5.4", b.Totals.CGSTTotal.String())
		assert.Equal(t, "5.4", b.Totals.SGSTTotal.String())
		assert.Equal(t, "100.8", b.Totals.GrandTotal.String())
	})

	t.Run("cash tender and change due", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)
		second := b.AddLine()
		fillReferenceLine(t, b, second.ID)

		b.ApplyCashTender("150", "")
		assert.Equal(t, "150", b.Totals.CashReceived.String())
		assert.Equal(t, "49.2", b.Totals.ChangeDue.String())
	})

	t.Run("advance adds into cash received", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.ApplyCashTender("30", "20.40")
		assert.Equal(t, "50.4", b.Totals.CashReceived.String())
		assert.True(t, b.Totals.ChangeDue.IsZero())
	})

	t.Run("under-tender yields negative change due", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.ApplyCashTender("40", "")
		assert.Equal(t, "-10.4", b.Totals.ChangeDue.String())
	})

	t.Run("empty placeholder rows contribute nothing", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)
		b.AddLine()
		b.AddLine()

		assert.Equal(t, "50.4", b.Totals.GrandTotal.String())
	})
}

// ============================================
// Document discount Tests
// ============================================

func TestBill_ApplyPercentDiscount(t *testing.T) {
	t.Run("discount comes off the line subtotal", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.ApplyPercentDiscount("10")
		// 10% of 50.40 = 5.04
		assert.Equal(t, "5.04", b.Totals.DocumentDiscount.String())
		assert.Equal(t, "45.36", b.Totals.GrandTotal.String())
	})

	t.Run("re-applying replaces instead of compounding", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.ApplyPercentDiscount("10")
		b.ApplyPercentDiscount("10")
		b.ApplyPercentDiscount("10")

		assert.Equal(t, "5.04", b.Totals.DocumentDiscount.String())
		assert.Equal(t, "45.36", b.Totals.GrandTotal.String())
	})

	t.Run("changing the percentage recomputes from scratch", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.ApplyPercentDiscount("10")
		b.ApplyPercentDiscount("20")

		assert.Equal(t, "10.08", b.Totals.DocumentDiscount.String())
		assert.Equal(t, "40.32", b.Totals.GrandTotal.String())
	})

	t.Run("line edits after a discount keep it consistent", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)
		b.ApplyPercentDiscount("10")

		// doubling the quantity doubles the subtotal and the discount
		require.NoError(t, b.UpdateLineField(b.Lines[0].ID, FieldSaleQty, "20"))
		assert.Equal(t, "10.08", b.Totals.DocumentDiscount.String())
		assert.Equal(t, "90.72", b.Totals.GrandTotal.String())
	})

	t.Run("total discount combines line and document discounts", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)
		b.ApplyPercentDiscount("10")

		assert.Equal(t, "10.04", b.Totals.TotalDiscount.String())
	})

	t.Run("unparsable percentage means no document discount", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.ApplyPercentDiscount("ten")
		assert.True(t, b.Totals.DocumentDiscount.IsZero())
		assert.Equal(t, "50.4", b.Totals.GrandTotal.String())
		assert.Equal(t, "ten", b.DiscountPercent)
	})
}

// ============================================
// Line management Tests
// ============================================

func TestBill_RemoveLines(t *testing.T) {
	t.Run("removes selected rows and rebuilds totals", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)
		second := b.AddLine()
		fillReferenceLine(t, b, second.ID)

		b.RemoveLines([]uuid.UUID{second.ID})
		require.Len(t, b.Lines, 1)
		assert.Equal(t, "50.4", b.Totals.GrandTotal.String())
	})

	t.Run("removing every row leaves one empty row", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.RemoveLines([]uuid.UUID{b.Lines[0].ID})
		require.Len(t, b.Lines, 1)
		assert.False(t, b.Lines[0].HasItem())
		assert.True(t, b.Totals.GrandTotal.IsZero())
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		b.RemoveLines([]uuid.UUID{uuid.New()})
		require.Len(t, b.Lines, 1)
		assert.True(t, b.Lines[0].HasItem())
	})
}

func TestBill_Selection(t *testing.T) {
	b := NewBill()
	second := b.AddLine()

	require.NoError(t, b.SetLineSelected(second.ID, true))
	assert.Equal(t, []uuid.UUID{second.ID}, b.SelectedLineIDs())

	b.SetSelectAll(true)
	assert.True(t, b.SelectAll)
	assert.Len(t, b.SelectedLineIDs(), 2)

	// unticking one row clears the select-all flag
	require.NoError(t, b.SetLineSelected(second.ID, false))
	assert.False(t, b.SelectAll)
	assert.Len(t, b.SelectedLineIDs(), 1)

	err := b.SetLineSelected(uuid.New(), true)
	assert.ErrorIs(t, err, shared.ErrLineNotFound)
}

// ============================================
// Stock snapshot Tests
// ============================================

func TestBill_ApplyStockSnapshot(t *testing.T) {
	t.Run("updates only the stock column on matching rows", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)
		before := b.Lines[0]

		b.ApplyStockSnapshot(map[string]decimal.Decimal{
			"PARA-500": decimal.NewFromInt(42),
			"OTHER":    decimal.NewFromInt(7),
		})

		line := b.Lines[0]
		assert.Equal(t, "42", line.StockQty.String())
		assert.Equal(t, before.SaleQty, line.SaleQty)
		assert.Equal(t, before.Rate, line.Rate)
		assert.True(t, line.TotalPayable.Equal(before.TotalPayable))
	})

	t.Run("is idempotent", func(t *testing.T) {
		b := NewBill()
		fillReferenceLine(t, b, b.Lines[0].ID)

		snap := map[string]decimal.Decimal{"PARA-500": decimal.NewFromInt(42)}
		b.ApplyStockSnapshot(snap)
		first := b.Lines[0].StockQty
		b.ApplyStockSnapshot(snap)
		assert.True(t, b.Lines[0].StockQty.Equal(first))
	})

	t.Run("rows without an item are untouched", func(t *testing.T) {
		b := NewBill()
		b.ApplyStockSnapshot(map[string]decimal.Decimal{"": decimal.NewFromInt(9)})
		assert.True(t, b.Lines[0].StockQty.IsZero())
	})
}

// ============================================
// Validation Tests
// ============================================

func TestBill_ValidateForSubmission(t *testing.T) {
	departments := []string{"Pharmacy - CP", "OPD - CP"}

	t.Run("complete bill passes", func(t *testing.T) {
		b := readyBill(t)
		assert.NoError(t, b.ValidateForSubmission(departments))
	})

	t.Run("missing company", func(t *testing.T) {
		b := readyBill(t)
		b.Company = ""
		err := b.ValidateForSubmission(departments)
		requireDomainCode(t, err, "MISSING_FIELD")
		assert.Contains(t, err.Error(), "Company")
	})

	t.Run("missing customer", func(t *testing.T) {
		b := readyBill(t)
		b.Customer = "  "
		err := b.ValidateForSubmission(departments)
		requireDomainCode(t, err, "MISSING_FIELD")
		assert.Contains(t, err.Error(), "Customer")
	})

	t.Run("missing warehouse", func(t *testing.T) {
		b := readyBill(t)
		b.Warehouse = ""
		requireDomainCode(t, b.ValidateForSubmission(departments), "MISSING_FIELD")
	})

	t.Run("empty department is an invalid department, not a missing field", func(t *testing.T) {
		b := readyBill(t)
		b.Department = ""
		requireDomainCode(t, b.ValidateForSubmission(departments), "INVALID_DEPARTMENT")
	})

	t.Run("unknown department", func(t *testing.T) {
		b := readyBill(t)
		b.Department = "Cardiology - CP"
		requireDomainCode(t, b.ValidateForSubmission(departments), "INVALID_DEPARTMENT")
	})

	t.Run("no rows with an item", func(t *testing.T) {
		b := readyBill(t)
		b.RemoveLines([]uuid.UUID{b.Lines[0].ID})
		requireDomainCode(t, b.ValidateForSubmission(departments), "NO_VALID_ITEMS")
	})

	t.Run("missing posting date", func(t *testing.T) {
		b := readyBill(t)
		b.PostingDateTime = ""
		requireDomainCode(t, b.ValidateForSubmission(departments), "MISSING_FIELD")
	})

	t.Run("sale quantity above stock names the item", func(t *testing.T) {
		b := readyBill(t)
		require.NoError(t, b.UpdateLineField(b.Lines[0].ID, FieldSaleQty, "101"))
		err := b.ValidateForSubmission(departments)
		requireDomainCode(t, err, "QUANTITY_EXCEEDS_STOCK")
		assert.Contains(t, err.Error(), "PARA-500")
	})

	t.Run("first failure wins in header order", func(t *testing.T) {
		b := readyBill(t)
		b.Company = ""
		b.Warehouse = ""
		b.Department = ""
		err := b.ValidateForSubmission(departments)
		requireDomainCode(t, err, "MISSING_FIELD")
		assert.Contains(t, err.Error(), "Company")
	})

	t.Run("failed validation leaves the bill untouched", func(t *testing.T) {
		b := readyBill(t)
		require.NoError(t, b.UpdateLineField(b.Lines[0].ID, FieldSaleQty, "101"))
		grand := b.Totals.GrandTotal

		require.Error(t, b.ValidateForSubmission(departments))
		assert.Equal(t, "101", b.Lines[0].SaleQty)
		assert.True(t, b.Totals.GrandTotal.Equal(grand))
	})
}

// ============================================
// Reset and helpers Tests
// ============================================

func TestBill_Reset(t *testing.T) {
	b := readyBill(t)
	b.ApplyPercentDiscount("10")
	b.ApplyCashTender("100", "")
	id := b.ID

	b.Reset()

	assert.Equal(t, id, b.ID)
	assert.Empty(t, b.Company)
	assert.Empty(t, b.DiscountPercent)
	assert.Empty(t, b.CashInRs)
	require.Len(t, b.Lines, 1)
	assert.False(t, b.Lines[0].HasItem())
	assert.True(t, b.Totals.GrandTotal.IsZero())
	assert.Equal(t, TransactionCash, b.TransactionType)
}

func TestBill_PostingDate(t *testing.T) {
	b := NewBill()
	b.PostingDateTime = "2026-08-28T10:30"
	assert.Equal(t, "2026-08-28", b.PostingDate())

	b.PostingDateTime = "2026-08-28"
	assert.Equal(t, "2026-08-28", b.PostingDate())
}

func TestBill_ItemCodes(t *testing.T) {
	b := NewBill()
	fillReferenceLine(t, b, b.Lines[0].ID)
	second := b.AddLine()
	fillReferenceLine(t, b, second.ID)
	b.AddLine() // empty row

	assert.Equal(t, []string{"PARA-500"}, b.ItemCodes())
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}
