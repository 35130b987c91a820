package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineField identifies an editable numeric or free-form column on a bill line.
type LineField string

const (
	FieldOrderedQty      LineField = "ordered_qty"
	FieldAlreadyGivenQty LineField = "already_given_qty"
	FieldSaleQty         LineField = "sale_qty"
	FieldRate            LineField = "rate"
	FieldDiscountPercent LineField = "discount_percent"
	FieldCGSTPercent     LineField = "cgst_percent"
	FieldSGSTPercent     LineField = "sgst_percent"
	FieldBatchNo         LineField = "batch_no"
	FieldExpiryDate      LineField = "expiry_date"
)

// IsValid checks if the field is an editable line field
func (f LineField) IsValid() bool {
	switch f {
	case FieldOrderedQty, FieldAlreadyGivenQty, FieldSaleQty, FieldRate,
		FieldDiscountPercent, FieldCGSTPercent, FieldSGSTPercent,
		FieldBatchNo, FieldExpiryDate:
		return true
	}
	return false
}

// CatalogEntry carries the catalog attributes applied to a line when the
// operator picks an item. Rate is the price-list rate at selection time.
type CatalogEntry struct {
	ItemCode    string
	ItemName    string
	Description string
	HSNCode     string
	ItemGroup   string
	UOM         string
	StockQty    decimal.Decimal
	Rate        decimal.Decimal
}

// BillLine represents one row of the bill grid.
//
// The quantity, rate and percentage columns hold the operator's raw text
// verbatim; the derived amounts are recomputed from them on every edit.
type BillLine struct {
	ID          uuid.UUID
	ItemCode    string
	ItemName    string
	Description string
	HSNCode     string
	ItemGroup   string
	UOM         string
	BatchNo     string
	ExpiryDate  string
	StockQty    decimal.Decimal

	OrderedQty      string
	AlreadyGivenQty string
	SaleQty         string
	Rate            string
	DiscountPercent string
	CGSTPercent     string
	SGSTPercent     string

	Amount         decimal.Decimal
	DiscountAmount decimal.Decimal
	CGSTAmount     decimal.Decimal
	SGSTAmount     decimal.Decimal
	TotalPayable   decimal.Decimal

	Selected  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBillLine creates an empty bill line
func NewBillLine() BillLine {
	now := time.Now()
	return BillLine{
		ID:             uuid.New(),
		StockQty:       decimal.Zero,
		Amount:         decimal.Zero,
		DiscountAmount: decimal.Zero,
		CGSTAmount:     decimal.Zero,
		SGSTAmount:     decimal.Zero,
		TotalPayable:   decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasItem reports whether an item has been selected for this line.
// Lines without an item are placeholder rows and are excluded from
// submission and stock checks.
func (l *BillLine) HasItem() bool {
	return l.ItemCode != ""
}

// SaleQuantity returns the coerced sale quantity
func (l *BillLine) SaleQuantity() decimal.Decimal {
	return parseOrZero(l.SaleQty)
}

// applyCatalogEntry fills the catalog columns and seeds the rate from the
// price list. User-entered quantities and percentages are left alone.
func (l *BillLine) applyCatalogEntry(entry CatalogEntry) {
	l.ItemCode = entry.ItemCode
	l.ItemName = entry.ItemName
	l.Description = entry.Description
	l.HSNCode = entry.HSNCode
	l.ItemGroup = entry.ItemGroup
	l.UOM = entry.UOM
	l.StockQty = entry.StockQty
	l.Rate = entry.Rate.String()
	l.UpdatedAt = time.Now()
	l.recalculate()
}

// setField stores raw input for one column and recomputes the derived amounts
func (l *BillLine) setField(field LineField, raw string) {
	switch field {
	case FieldOrderedQty:
		l.OrderedQty = raw
	case FieldAlreadyGivenQty:
		l.AlreadyGivenQty = raw
	case FieldSaleQty:
		l.SaleQty = raw
	case FieldRate:
		l.Rate = raw
	case FieldDiscountPercent:
		l.DiscountPercent = raw
	case FieldCGSTPercent:
		l.CGSTPercent = raw
	case FieldSGSTPercent:
		l.SGSTPercent = raw
	case FieldBatchNo:
		l.BatchNo = raw
	case FieldExpiryDate:
		l.ExpiryDate = raw
	}
	l.UpdatedAt = time.Now()
	l.recalculate()
}

// recalculate rebuilds the derived amounts from the raw columns.
//
// Each step rounds to 2 decimal places before the next consumes it: the
// rounded discount feeds the GST base, and the payable total sums the
// already-rounded parts. CGST and SGST are computed independently from
// the same base.
func (l *BillLine) recalculate() {
	qty := parseOrZero(l.SaleQty)
	rate := parseOrZero(l.Rate)

	l.Amount = qty.Mul(rate).Round(2)
	l.DiscountAmount = percentOf(parseOrZero(l.DiscountPercent), l.Amount)

	taxableBase := l.Amount.Sub(l.DiscountAmount)
	l.CGSTAmount = percentOf(parseOrZero(l.CGSTPercent), taxableBase)
	l.SGSTAmount = percentOf(parseOrZero(l.SGSTPercent), taxableBase)

	l.TotalPayable = l.Amount.Sub(l.DiscountAmount).
		Add(l.CGSTAmount).
		Add(l.SGSTAmount).
		Round(2)
}
