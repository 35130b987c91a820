package erpnext

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// loginResponse is the body ERPNext returns from /api/method/login
type loginResponse struct {
	Message  string `json:"message"`
	FullName string `json:"full_name"`
	HomePage string `json:"home_page"`
}

// listEnvelope wraps every /api/resource list response
type listEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// errorEnvelope carries the error fields ERPNext includes on failures.
// ServerMessages is a JSON-encoded list of JSON-encoded message objects.
type errorEnvelope struct {
	Exception      string `json:"exception"`
	ExcType        string `json:"exc_type"`
	ServerMessages string `json:"_server_messages"`
}

// companyRow and friends mirror the field lists requested from ERPNext

type companyRow struct {
	Name string `json:"name"`
}

type warehouseRow struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}

type departmentRow struct {
	Name string `json:"name"`
}

type customerRow struct {
	Name         string `json:"name"`
	CustomerName string `json:"customer_name"`
}

type addressRow struct {
	Name    string `json:"name"`
	Line1   string `json:"address_line1"`
	Line2   string `json:"address_line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type doctorRow struct {
	Name             string `json:"name"`
	PractitionerName string `json:"practitioner_name"`
}

type itemGroupRow struct {
	Name string `json:"name"`
}

type patientRow struct {
	Name        string `json:"name"`
	PatientName string `json:"patient_name"`
}

type itemRow struct {
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	Description  string          `json:"description"`
	ItemGroup    string          `json:"item_group"`
	GSTHSNCode   string          `json:"gst_hsn_code"`
	StockUOM     string          `json:"stock_uom"`
	StandardRate decimal.Decimal `json:"standard_rate"`
	ActualQty    decimal.Decimal `json:"actual_qty"`
}

type stockRow struct {
	ItemCode  string          `json:"item_code"`
	ActualQty decimal.Decimal `json:"actual_qty"`
}

// salesInvoiceItem is one row of the submitted Sales Invoice
type salesInvoiceItem struct {
	ItemCode              string `json:"item_code"`
	ItemName              string `json:"item_name,omitempty"`
	Description           string `json:"description,omitempty"`
	Qty                   string `json:"qty"`
	Rate                  string `json:"rate"`
	Warehouse             string `json:"warehouse"`
	BatchNo               string `json:"batch_no,omitempty"`
	CustomOrderedQty      string `json:"custom_ordered_qty,omitempty"`
	CustomAlreadyGivenQty string `json:"custom_already_given_qty,omitempty"`
	DiscountPercentage    string `json:"discount_percentage,omitempty"`
	CGSTRate              string `json:"custom_cgst_rate,omitempty"`
	SGSTRate              string `json:"custom_sgst_rate,omitempty"`
}

// salesInvoicePayload is the document POSTed to /api/resource/Sales Invoice.
// update_stock=1 makes ERPNext deduct stock as part of submission.
type salesInvoicePayload struct {
	Company               string             `json:"company"`
	Customer              string             `json:"customer"`
	CustomerAddress       string             `json:"customer_address,omitempty"`
	SetWarehouse          string             `json:"set_warehouse"`
	Department            string             `json:"department"`
	PostingDate           string             `json:"posting_date"`
	PostingTime           string             `json:"posting_time,omitempty"`
	SetPostingTime        int                `json:"set_posting_time"`
	UpdateStock           int                `json:"update_stock"`
	DocStatus             int                `json:"docstatus"`
	Items                 []salesInvoiceItem `json:"items"`
	AdditionalDiscountPct string             `json:"additional_discount_percentage,omitempty"`
	DiscountAmount        string             `json:"discount_amount,omitempty"`
	CustomPatientID       string             `json:"custom_patient_id,omitempty"`
	CustomPatientName     string             `json:"custom_patient_name,omitempty"`
	CustomDoctor          string             `json:"custom_doctor,omitempty"`
	CustomTokenNumber     string             `json:"custom_token_number,omitempty"`
	CustomTransactionType string             `json:"custom_transaction_type,omitempty"`
	CustomSelfPaying      int                `json:"custom_self_paying"`
	CustomCashReceived    string             `json:"custom_cash_received,omitempty"`
	CustomChangeDue       string             `json:"custom_change_due,omitempty"`
	Remarks               string             `json:"remarks,omitempty"`
}

// invoiceCreatedResponse wraps the created document
type invoiceCreatedResponse struct {
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}
