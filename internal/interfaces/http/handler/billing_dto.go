package handler

import "github.com/google/uuid"

// UpdateHeaderRequest carries partial header updates. Absent fields are
// left unchanged.
type UpdateHeaderRequest struct {
	Company         *string `json:"company"`
	Customer        *string `json:"customer"`
	CustomerAddress *string `json:"customer_address"`
	Warehouse       *string `json:"warehouse"`
	Department      *string `json:"department"`
	PatientID       *string `json:"patient_id"`
	Doctor          *string `json:"doctor"`
	TokenNumber     *string `json:"token_number"`
	TransactionType *string `json:"transaction_type"`
	SelfPaying      *bool   `json:"self_paying"`
	PostingDateTime *string `json:"posting_date_time"`
}

// RemoveLinesRequest names the bill lines to remove
type RemoveLinesRequest struct {
	LineIDs []uuid.UUID `json:"line_ids" binding:"required,min=1"`
}

// SetSelectionRequest toggles a selection checkbox
type SetSelectionRequest struct {
	Selected bool `json:"selected"`
}

// PickItemRequest assigns a catalog item to a bill line
type PickItemRequest struct {
	ItemCode string `json:"item_code" binding:"required"`
}

// UpdateLineFieldRequest carries one edited grid cell. Value is the raw
// operator text and is stored verbatim.
type UpdateLineFieldRequest struct {
	Field string `json:"field" binding:"required,oneof=ordered_qty already_given_qty sale_qty rate discount_percent cgst_percent sgst_percent batch_no expiry_date"`
	Value string `json:"value"`
}

// ApplyDiscountRequest sets the document-level discount percentage
type ApplyDiscountRequest struct {
	Percent string `json:"percent"`
}

// ApplyCashRequest records the cash tendered by the customer
type ApplyCashRequest struct {
	CashInRs      string `json:"cash_in_rs"`
	CashInAdvance string `json:"cash_in_advance"`
}

// SubmissionRecordResponse is one journal entry
type SubmissionRecordResponse struct {
	ID            uuid.UUID `json:"id"`
	BillID        uuid.UUID `json:"bill_id"`
	InvoiceName   string    `json:"invoice_name,omitempty"`
	Status        string    `json:"status"`
	Operator      string    `json:"operator"`
	Company       string    `json:"company"`
	Customer      string    `json:"customer"`
	Department    string    `json:"department"`
	GrandTotal    string    `json:"grand_total"`
	ItemCount     int       `json:"item_count"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     string    `json:"created_at"`
}
