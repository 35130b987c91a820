package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/domain/billing"
	"github.com/pharmacy/pos-backend/internal/domain/masterdata"
	"github.com/pharmacy/pos-backend/internal/domain/shared"
	"github.com/pharmacy/pos-backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from ERPNext (10MB)
const maxResponseSize = 10 * 1024 * 1024

// listPageLength is the page size requested for every list read. Master
// data sets at a single pharmacy stay well under this.
const listPageLength = 1000

// Client talks to an ERPNext instance over its REST API. It signs in with
// the configured service account and keeps the session cookie in its jar,
// re-authenticating once when ERPNext reports the session gone.
type Client struct {
	baseURL         string
	serviceUser     string
	servicePassword string
	httpClient      *http.Client
	logger          *zap.Logger

	// loginMu serializes re-login so concurrent 403s trigger one attempt
	loginMu sync.Mutex
}

// NewClient creates a new ERPNext client from configuration
func NewClient(cfg config.ERPNextConfig, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("erpnext: failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		serviceUser:     cfg.ServiceUser,
		servicePassword: cfg.ServicePassword,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		logger: logger.Named("erpnext"),
	}, nil
}

// Login signs the service account in and stores the session cookie
func (c *Client) Login(ctx context.Context) error {
	_, err := login(ctx, c.httpClient, c.baseURL, c.serviceUser, c.servicePassword)
	if err != nil {
		return err
	}
	c.logger.Info("service account signed in", zap.String("user", c.serviceUser))
	return nil
}

// VerifyCredentials checks an operator's own ERPNext credentials without
// touching the service session. Returns the full name ERPNext reports.
func (c *Client) VerifyCredentials(ctx context.Context, username, password string) (string, error) {
	// A throwaway jar keeps the operator's session out of the client
	jar, err := cookiejar.New(nil)
	if err != nil {
		return "", fmt.Errorf("erpnext: failed to create cookie jar: %w", err)
	}
	probe := &http.Client{
		Timeout: c.httpClient.Timeout,
		Jar:     jar,
	}

	resp, err := login(ctx, probe, c.baseURL, username, password)
	if err != nil {
		return "", err
	}
	return resp.FullName, nil
}

// login performs /api/method/login with the given credentials
func login(ctx context.Context, client *http.Client, baseURL, username, password string) (*loginResponse, error) {
	values := url.Values{}
	values.Set("usr", username)
	values.Set("pwd", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/api/method/login", strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("erpnext: failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, shared.NewDomainError("EXTERNAL_FAILURE", "ERPNext is unreachable: "+err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("erpnext: failed to read login response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}
	if resp.StatusCode >= 400 {
		return nil, upstreamError(resp.StatusCode, body)
	}

	var loginResp loginResponse
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return nil, fmt.Errorf("erpnext: failed to parse login response: %w", err)
	}
	return &loginResp, nil
}

// relogin re-establishes the service session once
func (c *Client) relogin(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	return c.Login(ctx)
}

// doRequest performs an authenticated request against ERPNext. On a 401 or
// 403 it re-logs the service account in and retries the request once.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	body, status, err := c.roundTrip(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.logger.Warn("session rejected, signing in again", zap.Int("status", status))
		if err := c.relogin(ctx); err != nil {
			return nil, err
		}
		body, status, err = c.roundTrip(ctx, method, path, query, payload)
		if err != nil {
			return nil, err
		}
	}

	if status >= 400 {
		return nil, upstreamError(status, body)
	}
	return body, nil
}

// roundTrip performs one HTTP exchange and returns the raw body and status
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("erpnext: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, shared.NewDomainError("EXTERNAL_FAILURE", "ERPNext is unreachable: "+err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("erpnext: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// getList reads rows of a doctype with the given fields and filters
func (c *Client) getList(ctx context.Context, doctype string, fields []string, filters [][]any, out any) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("erpnext: failed to encode fields: %w", err)
	}

	query := url.Values{}
	query.Set("fields", string(fieldsJSON))
	query.Set("limit_page_length", fmt.Sprintf("%d", listPageLength))
	if len(filters) > 0 {
		filtersJSON, err := json.Marshal(filters)
		if err != nil {
			return fmt.Errorf("erpnext: failed to encode filters: %w", err)
		}
		query.Set("filters", string(filtersJSON))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/api/resource/"+url.PathEscape(doctype), query, nil)
	if err != nil {
		return err
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("erpnext: failed to parse %s list: %w", doctype, err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("erpnext: failed to parse %s rows: %w", doctype, err)
	}
	return nil
}

// upstreamError turns an ERPNext error body into a domain error, keeping
// the upstream message verbatim so the cashier sees what ERPNext said
func upstreamError(status int, body []byte) error {
	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Exception
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = fmt.Sprintf("ERPNext returned HTTP %d", status)
	}
	return shared.NewDomainError("EXTERNAL_FAILURE", message)
}

// ---------------------------------------------------------------------------
// Master data reads
// ---------------------------------------------------------------------------

// Companies lists the billing companies
func (c *Client) Companies(ctx context.Context) ([]masterdata.Company, error) {
	var rows []companyRow
	if err := c.getList(ctx, "Company", []string{"name"}, nil, &rows); err != nil {
		return nil, err
	}
	companies := make([]masterdata.Company, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, masterdata.Company{Name: row.Name})
	}
	return companies, nil
}

// Warehouses lists the warehouses of a company
func (c *Client) Warehouses(ctx context.Context, company string) ([]masterdata.Warehouse, error) {
	var filters [][]any
	if company != "" {
		filters = append(filters, []any{"company", "=", company})
	}
	var rows []warehouseRow
	if err := c.getList(ctx, "Warehouse", []string{"name", "company"}, filters, &rows); err != nil {
		return nil, err
	}
	warehouses := make([]masterdata.Warehouse, 0, len(rows))
	for _, row := range rows {
		warehouses = append(warehouses, masterdata.Warehouse{Name: row.Name, Company: row.Company})
	}
	return warehouses, nil
}

// Departments lists the hospital departments
func (c *Client) Departments(ctx context.Context) ([]masterdata.Department, error) {
	var rows []departmentRow
	if err := c.getList(ctx, "Department", []string{"name"}, nil, &rows); err != nil {
		return nil, err
	}
	departments := make([]masterdata.Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, masterdata.Department{Name: row.Name})
	}
	return departments, nil
}

// Customers lists the billable customers
func (c *Client) Customers(ctx context.Context) ([]masterdata.Customer, error) {
	var rows []customerRow
	if err := c.getList(ctx, "Customer", []string{"name", "customer_name"}, nil, &rows); err != nil {
		return nil, err
	}
	customers := make([]masterdata.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, masterdata.Customer{Name: row.Name, CustomerName: row.CustomerName})
	}
	return customers, nil
}

// CustomerAddresses lists the addresses linked to a customer
func (c *Client) CustomerAddresses(ctx context.Context, customer string) ([]masterdata.Address, error) {
	filters := [][]any{
		{"Dynamic Link", "link_doctype", "=", "Customer"},
		{"Dynamic Link", "link_name", "=", customer},
	}
	fields := []string{"name", "address_line1", "address_line2", "city", "state", "pincode"}

	var rows []addressRow
	if err := c.getList(ctx, "Address", fields, filters, &rows); err != nil {
		return nil, err
	}
	addresses := make([]masterdata.Address, 0, len(rows))
	for _, row := range rows {
		addresses = append(addresses, masterdata.Address{
			Name:     row.Name,
			Line1:    row.Line1,
			Line2:    row.Line2,
			City:     row.City,
			State:    row.State,
			Pincode:  row.Pincode,
			Customer: customer,
		})
	}
	return addresses, nil
}

// Doctors lists the prescribing practitioners
func (c *Client) Doctors(ctx context.Context) ([]masterdata.Doctor, error) {
	var rows []doctorRow
	if err := c.getList(ctx, "Healthcare Practitioner", []string{"name", "practitioner_name"}, nil, &rows); err != nil {
		return nil, err
	}
	doctors := make([]masterdata.Doctor, 0, len(rows))
	for _, row := range rows {
		doctors = append(doctors, masterdata.Doctor{Name: row.Name, DoctorName: row.PractitionerName})
	}
	return doctors, nil
}

// Classifications lists the item groups used to narrow the catalog
func (c *Client) Classifications(ctx context.Context) ([]masterdata.Classification, error) {
	var rows []itemGroupRow
	if err := c.getList(ctx, "Item Group", []string{"name"}, nil, &rows); err != nil {
		return nil, err
	}
	classifications := make([]masterdata.Classification, 0, len(rows))
	for _, row := range rows {
		classifications = append(classifications, masterdata.Classification{Name: row.Name})
	}
	return classifications, nil
}

// Patient looks a patient up by ID
func (c *Client) Patient(ctx context.Context, patientID string) (*masterdata.Patient, error) {
	body, status, err := c.roundTrip(ctx, http.MethodGet,
		"/api/resource/Patient/"+url.PathEscape(patientID), nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, shared.ErrNotFound
	}
	if status >= 400 {
		return nil, upstreamError(status, body)
	}

	var envelope struct {
		Data patientRow `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erpnext: failed to parse patient: %w", err)
	}
	return &masterdata.Patient{
		ID:       envelope.Data.Name,
		FullName: envelope.Data.PatientName,
	}, nil
}

// Items lists the sellable items, optionally narrowed to a classification
func (c *Client) Items(ctx context.Context, classification string) ([]masterdata.CatalogItem, error) {
	fields := []string{
		"item_code", "item_name", "description", "item_group",
		"gst_hsn_code", "stock_uom", "standard_rate", "actual_qty",
	}
	var filters [][]any
	if classification != "" {
		filters = append(filters, []any{"item_group", "=", classification})
	}

	var rows []itemRow
	if err := c.getList(ctx, "Item", fields, filters, &rows); err != nil {
		return nil, err
	}
	items := make([]masterdata.CatalogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, masterdata.CatalogItem{
			ItemCode:    row.ItemCode,
			ItemName:    row.ItemName,
			Description: row.Description,
			ItemGroup:   row.ItemGroup,
			HSNCode:     row.GSTHSNCode,
			UOM:         row.StockUOM,
			Rate:        row.StandardRate,
			StockQty:    row.ActualQty,
		})
	}
	return items, nil
}

// StockLevels reads current stock for the given item codes in one query
func (c *Client) StockLevels(ctx context.Context, itemCodes []string) (map[string]decimal.Decimal, error) {
	levels := make(map[string]decimal.Decimal, len(itemCodes))
	if len(itemCodes) == 0 {
		return levels, nil
	}

	filters := [][]any{{"item_code", "in", itemCodes}}
	var rows []stockRow
	if err := c.getList(ctx, "Item", []string{"item_code", "actual_qty"}, filters, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		levels[row.ItemCode] = row.ActualQty
	}
	return levels, nil
}

// ---------------------------------------------------------------------------
// Invoice submission
// ---------------------------------------------------------------------------

// SubmitInvoice creates and submits a Sales Invoice for the bill and
// returns the invoice name ERPNext assigned. The bill must already have
// passed ValidateForSubmission.
func (c *Client) SubmitInvoice(ctx context.Context, bill *billing.Bill) (string, error) {
	payload := buildInvoicePayload(bill)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("erpnext: failed to encode invoice: %w", err)
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/resource/Sales Invoice", nil, body)
	if err != nil {
		return "", err
	}

	var created invoiceCreatedResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("erpnext: failed to parse invoice response: %w", err)
	}
	if created.Data.Name == "" {
		return "", shared.NewDomainError("EXTERNAL_FAILURE", "ERPNext did not return an invoice name")
	}

	c.logger.Info("sales invoice submitted",
		zap.String("invoice", created.Data.Name),
		zap.String("customer", bill.Customer),
	)
	return created.Data.Name, nil
}

// buildInvoicePayload maps a bill onto the Sales Invoice document
func buildInvoicePayload(bill *billing.Bill) salesInvoicePayload {
	lines := bill.ValidLines()
	items := make([]salesInvoiceItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, salesInvoiceItem{
			ItemCode:              line.ItemCode,
			ItemName:              line.ItemName,
			Description:           line.Description,
			Qty:                   line.SaleQuantity().String(),
			Rate:                  line.Rate,
			Warehouse:             bill.Warehouse,
			BatchNo:               line.BatchNo,
			CustomOrderedQty:      line.OrderedQty,
			CustomAlreadyGivenQty: line.AlreadyGivenQty,
			DiscountPercentage:    line.DiscountPercent,
			CGSTRate:              line.CGSTPercent,
			SGSTRate:              line.SGSTPercent,
		})
	}

	postingTime := ""
	if parts := strings.SplitN(bill.PostingDateTime, "T", 2); len(parts) == 2 {
		postingTime = parts[1]
	}

	selfPaying := 0
	if bill.SelfPaying {
		selfPaying = 1
	}

	return salesInvoicePayload{
		Company:               bill.Company,
		Customer:              bill.Customer,
		CustomerAddress:       bill.CustomerAddress,
		SetWarehouse:          bill.Warehouse,
		Department:            bill.Department,
		PostingDate:           bill.PostingDate(),
		PostingTime:           postingTime,
		SetPostingTime:        1,
		UpdateStock:           1,
		DocStatus:             1,
		Items:                 items,
		AdditionalDiscountPct: bill.DiscountPercent,
		DiscountAmount:        bill.Totals.DocumentDiscount.String(),
		CustomPatientID:       bill.PatientID,
		CustomPatientName:     bill.PatientName,
		CustomDoctor:          bill.Doctor,
		CustomTokenNumber:     bill.TokenNumber,
		CustomTransactionType: string(bill.TransactionType),
		CustomSelfPaying:      selfPaying,
		CustomCashReceived:    bill.Totals.CashReceived.String(),
		CustomChangeDue:       bill.Totals.ChangeDue.String(),
	}
}

// Ensure Client satisfies the ports the application layer depends on
var (
	_ masterdata.Provider      = (*Client)(nil)
	_ masterdata.StockProvider = (*Client)(nil)
)
