package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pharmacy/pos-backend/internal/domain/billing"
)

// ReceiptData is the view model the receipt template renders
type ReceiptData struct {
	InvoiceName     string
	Company         string
	Customer        string
	CustomerAddress string
	Department      string
	Warehouse       string
	PatientID       string
	PatientName     string
	Doctor          string
	TokenNumber     string
	TransactionType string
	PostingDate     string
	PostingTime     string
	Operator        string

	Lines []ReceiptLine

	ItemTotal        string
	LineDiscount     string
	DocumentDiscount string
	DiscountPercent  string
	CGSTTotal        string
	SGSTTotal        string
	GrandTotal       string
	CashReceived     string
	ChangeDue        string
}

// ReceiptLine is one printed row
type ReceiptLine struct {
	ItemName        string
	ItemCode        string
	HSNCode         string
	BatchNo         string
	Qty             string
	UOM             string
	Rate            string
	DiscountPercent string
	GSTPercent      string
	Total           string
}

// ReceiptBuilder turns a bill into the HTML fragment the PDF renderer
// prints onto receipt paper
type ReceiptBuilder struct {
	tmpl *template.Template
}

// NewReceiptBuilder parses the receipt template
func NewReceiptBuilder() (*ReceiptBuilder, error) {
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"money": formatMoney,
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt template: %w", err)
	}
	return &ReceiptBuilder{tmpl: tmpl}, nil
}

// Build renders the receipt HTML for a bill. invoiceName is the ERPNext
// invoice number returned on submission; operator is the cashier's login.
func (b *ReceiptBuilder) Build(bill *billing.Bill, invoiceName, operator string) (string, error) {
	data := buildReceiptData(bill, invoiceName, operator)

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.String(), nil
}

// buildReceiptData flattens the bill into display strings
func buildReceiptData(bill *billing.Bill, invoiceName, operator string) *ReceiptData {
	postingDate := bill.PostingDate()
	postingTime := ""
	if idx := strings.IndexByte(bill.PostingDateTime, 'T'); idx > 0 {
		postingTime = bill.PostingDateTime[idx+1:]
	}

	data := &ReceiptData{
		InvoiceName:      invoiceName,
		Company:          bill.Company,
		Customer:         bill.Customer,
		CustomerAddress:  bill.CustomerAddress,
		Department:       bill.Department,
		Warehouse:        bill.Warehouse,
		PatientID:        bill.PatientID,
		PatientName:      bill.PatientName,
		Doctor:           bill.Doctor,
		TokenNumber:      bill.TokenNumber,
		TransactionType:  string(bill.TransactionType),
		PostingDate:      postingDate,
		PostingTime:      postingTime,
		Operator:         operator,
		ItemTotal:        formatMoney(bill.Totals.ItemTotal),
		LineDiscount:     formatMoney(bill.Totals.LineDiscountTotal),
		DocumentDiscount: formatMoney(bill.Totals.DocumentDiscount),
		DiscountPercent:  bill.DiscountPercent,
		CGSTTotal:        formatMoney(bill.Totals.CGSTTotal),
		SGSTTotal:        formatMoney(bill.Totals.SGSTTotal),
		GrandTotal:       formatMoney(bill.Totals.GrandTotal),
		CashReceived:     formatMoney(bill.Totals.CashReceived),
		ChangeDue:        formatMoney(bill.Totals.ChangeDue),
	}

	for _, line := range bill.ValidLines() {
		data.Lines = append(data.Lines, ReceiptLine{
			ItemName:        line.ItemName,
			ItemCode:        line.ItemCode,
			HSNCode:         line.HSNCode,
			BatchNo:         line.BatchNo,
			Qty:             line.SaleQuantity().String(),
			UOM:             line.UOM,
			Rate:            formatMoney(parseDecimal(line.Rate)),
			DiscountPercent: line.DiscountPercent,
			GSTPercent:      gstPercentLabel(line),
			Total:           formatMoney(line.TotalPayable),
		})
	}

	return data
}

// gstPercentLabel joins the CGST and SGST percentages for display,
// "2.5+2.5" style, empty when neither is set
func gstPercentLabel(line billing.BillLine) string {
	cgst := strings.TrimSpace(line.CGSTPercent)
	sgst := strings.TrimSpace(line.SGSTPercent)
	switch {
	case cgst != "" && sgst != "":
		return cgst + "+" + sgst
	case cgst != "":
		return cgst
	default:
		return sgst
	}
}

// formatMoney renders a decimal with two fixed places
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// parseDecimal coerces raw text to a decimal, zero on failure
func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// receiptTemplate is the 80mm receipt layout. Monospace, table-based,
// sized for thermal roll paper.
const receiptTemplate = `<div class="receipt">
<style>
  .receipt { font-family: "Courier New", monospace; font-size: 11px; width: 100%; }
  .receipt h1 { font-size: 13px; text-align: center; margin: 0 0 2px 0; }
  .receipt .meta { margin: 4px 0; }
  .receipt .meta div { display: flex; justify-content: space-between; }
  .receipt hr { border: none; border-top: 1px dashed #000; margin: 4px 0; }
  .receipt table { width: 100%; border-collapse: collapse; }
  .receipt th, .receipt td { text-align: left; padding: 1px 2px; vertical-align: top; }
  .receipt th.num, .receipt td.num { text-align: right; }
  .receipt .totals td { padding: 1px 2px; }
  .receipt .grand { font-weight: bold; font-size: 12px; }
</style>
<h1>{{.Company}}</h1>
{{if .InvoiceName}}<div style="text-align:center">Invoice: {{.InvoiceName}}</div>{{end}}
<hr>
<div class="meta">
  <div><span>Date</span><span>{{.PostingDate}} {{.PostingTime}}</span></div>
  <div><span>Customer</span><span>{{.Customer}}</span></div>
  {{if .PatientName}}<div><span>Patient</span><span>{{.PatientName}}{{if .PatientID}} ({{.PatientID}}){{end}}</span></div>{{end}}
  {{if .Doctor}}<div><span>Doctor</span><span>{{.Doctor}}</span></div>{{end}}
  {{if .TokenNumber}}<div><span>Token</span><span>{{.TokenNumber}}</span></div>{{end}}
  {{if .Department}}<div><span>Department</span><span>{{.Department}}</span></div>{{end}}
  <div><span>Mode</span><span>{{.TransactionType}}</span></div>
  {{if .Operator}}<div><span>Cashier</span><span>{{.Operator}}</span></div>{{end}}
</div>
<hr>
<table>
  <thead>
    <tr><th>Item</th><th class="num">Qty</th><th class="num">Rate</th><th class="num">Amt</th></tr>
  </thead>
  <tbody>
    {{range .Lines}}
    <tr>
      <td>{{.ItemName}}{{if .BatchNo}}<br>Batch: {{.BatchNo}}{{end}}{{if .GSTPercent}}<br>GST {{.GSTPercent}}%{{end}}</td>
      <td class="num">{{.Qty}}</td>
      <td class="num">{{.Rate}}</td>
      <td class="num">{{.Total}}</td>
    </tr>
    {{end}}
  </tbody>
</table>
<hr>
<table class="totals">
  <tr><td>Item Total</td><td class="num">{{.ItemTotal}}</td></tr>
  <tr><td>Line Discounts</td><td class="num">{{.LineDiscount}}</td></tr>
  {{if .DiscountPercent}}<tr><td>Discount ({{.DiscountPercent}}%)</td><td class="num">{{.DocumentDiscount}}</td></tr>{{end}}
  <tr><td>CGST</td><td class="num">{{.CGSTTotal}}</td></tr>
  <tr><td>SGST</td><td class="num">{{.SGSTTotal}}</td></tr>
  <tr class="grand"><td>Grand Total</td><td class="num">{{.GrandTotal}}</td></tr>
  <tr><td>Cash Received</td><td class="num">{{.CashReceived}}</td></tr>
  <tr><td>Change Due</td><td class="num">{{.ChangeDue}}</td></tr>
</table>
<hr>
<div style="text-align:center">Thank you. Get well soon.</div>
</div>`
