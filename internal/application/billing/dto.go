package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmacy/pos-backend/internal/domain/billing"
)

// HeaderUpdate carries partial updates to a bill's header fields. Nil
// pointers leave the field untouched, the way the billing screen posts
// only the control the operator changed.
type HeaderUpdate struct {
	Company         *string
	Customer        *string
	CustomerAddress *string
	Warehouse       *string
	Department      *string
	PatientID       *string
	Doctor          *string
	TokenNumber     *string
	TransactionType *string
	SelfPaying      *bool
	PostingDateTime *string
}

// LineView is the JSON shape of one bill row. Raw columns echo the
// operator's text verbatim; derived amounts are decimal strings.
type LineView struct {
	ID          uuid.UUID `json:"id"`
	ItemCode    string    `json:"item_code"`
	ItemName    string    `json:"item_name"`
	Description string    `json:"description"`
	HSNCode     string    `json:"hsn_code"`
	ItemGroup   string    `json:"item_group"`
	UOM         string    `json:"uom"`
	BatchNo     string    `json:"batch_no"`
	ExpiryDate  string    `json:"expiry_date"`
	StockQty    string    `json:"stock_qty"`

	OrderedQty      string `json:"ordered_qty"`
	AlreadyGivenQty string `json:"already_given_qty"`
	SaleQty         string `json:"sale_qty"`
	Rate            string `json:"rate"`
	DiscountPercent string `json:"discount_percent"`
	CGSTPercent     string `json:"cgst_percent"`
	SGSTPercent     string `json:"sgst_percent"`

	Amount         string `json:"amount"`
	DiscountAmount string `json:"discount_amount"`
	CGSTAmount     string `json:"cgst_amount"`
	SGSTAmount     string `json:"sgst_amount"`
	TotalPayable   string `json:"total_payable"`

	Selected bool `json:"selected"`
}

// TotalsView is the JSON shape of the document totals
type TotalsView struct {
	ItemTotal         string `json:"item_total"`
	LineDiscountTotal string `json:"line_discount_total"`
	DocumentDiscount  string `json:"document_discount"`
	TotalDiscount     string `json:"total_discount"`
	CGSTTotal         string `json:"cgst_total"`
	SGSTTotal         string `json:"sgst_total"`
	GrandTotal        string `json:"grand_total"`
	CashReceived      string `json:"cash_received"`
	ChangeDue         string `json:"change_due"`
}

// BillView is the JSON shape of a whole billing session
type BillView struct {
	SessionID       uuid.UUID  `json:"session_id"`
	Company         string     `json:"company"`
	Customer        string     `json:"customer"`
	CustomerAddress string     `json:"customer_address"`
	Warehouse       string     `json:"warehouse"`
	Department      string     `json:"department"`
	PatientID       string     `json:"patient_id"`
	PatientName     string     `json:"patient_name"`
	Doctor          string     `json:"doctor"`
	TokenNumber     string     `json:"token_number"`
	TransactionType string     `json:"transaction_type"`
	SelfPaying      bool       `json:"self_paying"`
	PostingDateTime string     `json:"posting_date_time"`
	Lines           []LineView `json:"lines"`
	DiscountPercent string     `json:"discount_percent"`
	CashInRs        string     `json:"cash_in_rs"`
	CashInAdvance   string     `json:"cash_in_advance"`
	Totals          TotalsView `json:"totals"`
	SelectAll       bool       `json:"select_all"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SubmitResult is returned after a successful invoice submission
type SubmitResult struct {
	InvoiceName string `json:"invoice_name"`
	GrandTotal  string `json:"grand_total"`
	ChangeDue   string `json:"change_due"`
}

// newBillView flattens a bill into its JSON view
func newBillView(sessionID uuid.UUID, bill *billing.Bill) *BillView {
	view := &BillView{
		SessionID:       sessionID,
		Company:         bill.Company,
		Customer:        bill.Customer,
		CustomerAddress: bill.CustomerAddress,
		Warehouse:       bill.Warehouse,
		Department:      bill.Department,
		PatientID:       bill.PatientID,
		PatientName:     bill.PatientName,
		Doctor:          bill.Doctor,
		TokenNumber:     bill.TokenNumber,
		TransactionType: string(bill.TransactionType),
		SelfPaying:      bill.SelfPaying,
		PostingDateTime: bill.PostingDateTime,
		DiscountPercent: bill.DiscountPercent,
		CashInRs:        bill.CashInRs,
		CashInAdvance:   bill.CashInAdvance,
		SelectAll:       bill.SelectAll,
		UpdatedAt:       bill.UpdatedAt,
		Totals: TotalsView{
			ItemTotal:         bill.Totals.ItemTotal.String(),
			LineDiscountTotal: bill.Totals.LineDiscountTotal.String(),
			DocumentDiscount:  bill.Totals.DocumentDiscount.String(),
			TotalDiscount:     bill.Totals.TotalDiscount.String(),
			CGSTTotal:         bill.Totals.CGSTTotal.String(),
			SGSTTotal:         bill.Totals.SGSTTotal.String(),
			GrandTotal:        bill.Totals.GrandTotal.String(),
			CashReceived:      bill.Totals.CashReceived.String(),
			ChangeDue:         bill.Totals.ChangeDue.String(),
		},
	}

	view.Lines = make([]LineView, 0, len(bill.Lines))
	for _, line := range bill.Lines {
		view.Lines = append(view.Lines, LineView{
			ID:              line.ID,
			ItemCode:        line.ItemCode,
			ItemName:        line.ItemName,
			Description:     line.Description,
			HSNCode:         line.HSNCode,
			ItemGroup:       line.ItemGroup,
			UOM:             line.UOM,
			BatchNo:         line.BatchNo,
			ExpiryDate:      line.ExpiryDate,
			StockQty:        line.StockQty.String(),
			OrderedQty:      line.OrderedQty,
			AlreadyGivenQty: line.AlreadyGivenQty,
			SaleQty:         line.SaleQty,
			Rate:            line.Rate,
			DiscountPercent: line.DiscountPercent,
			CGSTPercent:     line.CGSTPercent,
			SGSTPercent:     line.SGSTPercent,
			Amount:          line.Amount.String(),
			DiscountAmount:  line.DiscountAmount.String(),
			CGSTAmount:      line.CGSTAmount.String(),
			SGSTAmount:      line.SGSTAmount.String(),
			TotalPayable:    line.TotalPayable.String(),
			Selected:        line.Selected,
		})
	}
	return view
}
