package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmacy/pos-backend/internal/domain/shared"
)

// TransactionType distinguishes cash sales from credit sales
type TransactionType string

const (
	TransactionCash   TransactionType = "Cash"
	TransactionCredit TransactionType = "Credit"
)

// IsValid checks if the value is a known transaction type
func (t TransactionType) IsValid() bool {
	return t == TransactionCash || t == TransactionCredit
}

// BillTotals holds the document-level figures rebuilt on every change.
// DocumentDiscount is kept apart from the per-line discounts so applying
// a new percentage replaces the old document discount instead of
// compounding on top of it.
type BillTotals struct {
	ItemTotal         decimal.Decimal
	LineDiscountTotal decimal.Decimal
	DocumentDiscount  decimal.Decimal
	TotalDiscount     decimal.Decimal
	CGSTTotal         decimal.Decimal
	SGSTTotal         decimal.Decimal
	GrandTotal        decimal.Decimal
	CashReceived      decimal.Decimal
	ChangeDue         decimal.Decimal
}

// Bill is the aggregate behind one billing screen: header fields, the line
// grid and the running totals. It is not safe for concurrent use; callers
// serialize access (the session service funnels every mutation).
type Bill struct {
	ID              uuid.UUID
	Company         string
	Customer        string
	CustomerAddress string
	Warehouse       string
	Department      string
	PatientID       string
	PatientName     string
	Doctor          string
	TokenNumber     string
	TransactionType TransactionType
	SelfPaying      bool
	PostingDateTime string

	Lines []BillLine

	DiscountPercent string
	CashInRs        string
	CashInAdvance   string

	Totals BillTotals

	SelectAll bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBill creates a fresh bill with a single empty row, the state the
// billing screen starts from and returns to on reset.
func NewBill() *Bill {
	now := time.Now()
	b := &Bill{
		ID:              uuid.New(),
		TransactionType: TransactionCash,
		Lines:           []BillLine{NewBillLine()},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.recalculateTotals()
	return b
}

// AddLine appends an empty row and returns it
func (b *Bill) AddLine() *BillLine {
	b.Lines = append(b.Lines, NewBillLine())
	b.touch()
	return &b.Lines[len(b.Lines)-1]
}

// RemoveLines deletes the given rows. If every row goes, one empty row is
// put back so the grid is never empty. Unknown IDs are ignored.
func (b *Bill) RemoveLines(ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := b.Lines[:0]
	for _, line := range b.Lines {
		if !drop[line.ID] {
			kept = append(kept, line)
		}
	}
	b.Lines = kept
	if len(b.Lines) == 0 {
		b.Lines = []BillLine{NewBillLine()}
	}
	b.SelectAll = false
	b.touch()
}

// SelectedLineIDs returns the IDs of rows the operator has ticked
func (b *Bill) SelectedLineIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0)
	for _, line := range b.Lines {
		if line.Selected {
			ids = append(ids, line.ID)
		}
	}
	return ids
}

// SetLineSelected toggles a row's selection tick
func (b *Bill) SetLineSelected(lineID uuid.UUID, selected bool) error {
	line := b.line(lineID)
	if line == nil {
		return shared.ErrLineNotFound
	}
	line.Selected = selected
	if !selected {
		b.SelectAll = false
	}
	b.UpdatedAt = time.Now()
	return nil
}

// SetSelectAll ticks or clears every row at once
func (b *Bill) SetSelectAll(selected bool) {
	b.SelectAll = selected
	for idx := range b.Lines {
		b.Lines[idx].Selected = selected
	}
	b.UpdatedAt = time.Now()
}

// ApplyCatalogSelection fills a row from the chosen catalog item
func (b *Bill) ApplyCatalogSelection(lineID uuid.UUID, entry CatalogEntry) error {
	if entry.ItemCode == "" {
		return shared.NewDomainError("INVALID_INPUT", "Catalog entry must carry an item code")
	}
	line := b.line(lineID)
	if line == nil {
		return shared.ErrLineNotFound
	}
	line.applyCatalogEntry(entry)
	b.touch()
	return nil
}

// UpdateLineField stores raw input for one editable column on a row and
// rebuilds the line and document totals
func (b *Bill) UpdateLineField(lineID uuid.UUID, field LineField, raw string) error {
	if !field.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown bill line field: "+string(field))
	}
	line := b.line(lineID)
	if line == nil {
		return shared.ErrLineNotFound
	}
	line.setField(field, raw)
	b.touch()
	return nil
}

// ApplyPercentDiscount sets the document-level discount percentage.
// The discount amount is recomputed from the current subtotal every time
// totals rebuild; re-applying a percentage replaces the previous document
// discount rather than stacking another one on top.
func (b *Bill) ApplyPercentDiscount(raw string) {
	b.DiscountPercent = raw
	b.touch()
}

// ApplyCashTender records the cash figures and recomputes change due
func (b *Bill) ApplyCashTender(cashInRs, cashInAdvance string) {
	b.CashInRs = cashInRs
	b.CashInAdvance = cashInAdvance
	b.touch()
}

// ApplyStockSnapshot overlays fresh stock figures onto matching rows.
// Only the read-only stock column changes; quantities, rates and every
// other user-entered column are left exactly as typed. Applying the same
// snapshot twice is a no-op.
func (b *Bill) ApplyStockSnapshot(stock map[string]decimal.Decimal) {
	changed := false
	for idx := range b.Lines {
		line := &b.Lines[idx]
		if !line.HasItem() {
			continue
		}
		qty, ok := stock[line.ItemCode]
		if !ok {
			continue
		}
		if !line.StockQty.Equal(qty) {
			line.StockQty = qty
			line.UpdatedAt = time.Now()
			changed = true
		}
	}
	if changed {
		b.UpdatedAt = time.Now()
	}
}

// ValidLines returns the rows that carry an item code, the ones that make
// it into the submitted invoice
func (b *Bill) ValidLines() []BillLine {
	lines := make([]BillLine, 0, len(b.Lines))
	for _, line := range b.Lines {
		if line.HasItem() {
			lines = append(lines, line)
		}
	}
	return lines
}

// ItemCodes returns the distinct item codes on the bill
func (b *Bill) ItemCodes() []string {
	seen := make(map[string]bool)
	codes := make([]string, 0, len(b.Lines))
	for _, line := range b.Lines {
		if line.HasItem() && !seen[line.ItemCode] {
			seen[line.ItemCode] = true
			codes = append(codes, line.ItemCode)
		}
	}
	return codes
}

// PostingDate returns the date part of the posting timestamp, the value
// ERPNext expects for posting_date
func (b *Bill) PostingDate() string {
	if idx := strings.IndexByte(b.PostingDateTime, 'T'); idx > 0 {
		return b.PostingDateTime[:idx]
	}
	return b.PostingDateTime
}

// ValidateForSubmission checks the bill the way the cashier's submit
// button does: first failure wins, in a fixed order, and the bill state
// is left untouched either way. validDepartments is the department list
// the department must belong to.
func (b *Bill) ValidateForSubmission(validDepartments []string) error {
	if strings.TrimSpace(b.Company) == "" {
		return shared.NewDomainError("MISSING_FIELD", "Company is required")
	}
	if strings.TrimSpace(b.Customer) == "" {
		return shared.NewDomainError("MISSING_FIELD", "Customer is required")
	}
	if strings.TrimSpace(b.Warehouse) == "" {
		return shared.NewDomainError("MISSING_FIELD", "Warehouse is required")
	}
	if !containsString(validDepartments, b.Department) {
		return shared.NewDomainError("INVALID_DEPARTMENT", "Select a valid department")
	}
	if len(b.ValidLines()) == 0 {
		return shared.NewDomainError("NO_VALID_ITEMS", "Add at least one item to the bill")
	}
	if strings.TrimSpace(b.PostingDateTime) == "" {
		return shared.NewDomainError("MISSING_FIELD", "Billing date and time is required")
	}
	for _, line := range b.ValidLines() {
		if line.SaleQuantity().GreaterThan(line.StockQty) {
			return shared.NewDomainError("QUANTITY_EXCEEDS_STOCK",
				"Sale quantity for item "+line.ItemCode+" exceeds available stock")
		}
	}
	return nil
}

// Reset returns the bill to the state a fresh one starts in, keeping its ID
func (b *Bill) Reset() {
	b.Company = ""
	b.Customer = ""
	b.CustomerAddress = ""
	b.Warehouse = ""
	b.Department = ""
	b.PatientID = ""
	b.PatientName = ""
	b.Doctor = ""
	b.TokenNumber = ""
	b.TransactionType = TransactionCash
	b.SelfPaying = false
	b.PostingDateTime = ""
	b.Lines = []BillLine{NewBillLine()}
	b.DiscountPercent = ""
	b.CashInRs = ""
	b.CashInAdvance = ""
	b.SelectAll = false
	b.touch()
}

// line returns the row with the given ID, nil when absent
func (b *Bill) line(lineID uuid.UUID) *BillLine {
	for idx := range b.Lines {
		if b.Lines[idx].ID == lineID {
			return &b.Lines[idx]
		}
	}
	return nil
}

// touch recomputes totals and bumps the update timestamp
func (b *Bill) touch() {
	b.recalculateTotals()
	b.UpdatedAt = time.Now()
}

// recalculateTotals rebuilds every document figure from scratch from the
// current lines. Nothing accumulates across calls: the document discount
// comes freshly from the stored percentage and the current subtotal, so
// repeated recalculation never drifts.
func (b *Bill) recalculateTotals() {
	itemTotal := decimal.Zero
	lineDiscount := decimal.Zero
	cgstTotal := decimal.Zero
	sgstTotal := decimal.Zero
	subtotal := decimal.Zero

	for _, line := range b.Lines {
		itemTotal = itemTotal.Add(line.Amount)
		lineDiscount = lineDiscount.Add(line.DiscountAmount)
		cgstTotal = cgstTotal.Add(line.CGSTAmount)
		sgstTotal = sgstTotal.Add(line.SGSTAmount)
		subtotal = subtotal.Add(line.TotalPayable)
	}

	docDiscount := percentOf(parseOrZero(b.DiscountPercent), subtotal)
	cashReceived := parseOrZero(b.CashInRs).Add(parseOrZero(b.CashInAdvance)).Round(2)
	grandTotal := subtotal.Sub(docDiscount).Round(2)

	b.Totals = BillTotals{
		ItemTotal:         itemTotal,
		LineDiscountTotal: lineDiscount,
		DocumentDiscount:  docDiscount,
		TotalDiscount:     lineDiscount.Add(docDiscount),
		CGSTTotal:         cgstTotal,
		SGSTTotal:         sgstTotal,
		GrandTotal:        grandTotal,
		CashReceived:      cashReceived,
		ChangeDue:         cashReceived.Sub(grandTotal).Round(2),
	}
}

func containsString(list []string, value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
