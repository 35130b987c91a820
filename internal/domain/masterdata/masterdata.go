package masterdata

import (
	"context"

	"github.com/shopspring/decimal"
)

// Company is a billing company the pharmacy operates under
type Company struct {
	Name string `json:"name"`
}

// Warehouse is a stock location belonging to a company
type Warehouse struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}

// Department is a hospital department a bill is raised against
type Department struct {
	Name string `json:"name"`
}

// Customer is a billable party
type Customer struct {
	Name         string `json:"name"`
	CustomerName string `json:"customer_name"`
}

// Address is a customer address resolved through its links
type Address struct {
	Name     string `json:"name"`
	Line1    string `json:"address_line1"`
	Line2    string `json:"address_line2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Customer string `json:"customer"`
}

// Doctor is a prescribing doctor
type Doctor struct {
	Name       string `json:"name"`
	DoctorName string `json:"doctor_name"`
}

// Classification is an item classification used to narrow the catalog
type Classification struct {
	Name string `json:"name"`
}

// Patient is a registered patient looked up by ID
type Patient struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// CatalogItem is a sellable item with its current price and stock
type CatalogItem struct {
	ItemCode    string          `json:"item_code"`
	ItemName    string          `json:"item_name"`
	Description string          `json:"description"`
	ItemGroup   string          `json:"item_group"`
	HSNCode     string          `json:"gst_hsn_code"`
	UOM         string          `json:"stock_uom"`
	Rate        decimal.Decimal `json:"rate"`
	StockQty    decimal.Decimal `json:"actual_qty"`
}

// Provider reads master data from the ERP system of record
type Provider interface {
	Companies(ctx context.Context) ([]Company, error)
	Warehouses(ctx context.Context, company string) ([]Warehouse, error)
	Departments(ctx context.Context) ([]Department, error)
	Customers(ctx context.Context) ([]Customer, error)
	CustomerAddresses(ctx context.Context, customer string) ([]Address, error)
	Doctors(ctx context.Context) ([]Doctor, error)
	Classifications(ctx context.Context) ([]Classification, error)
	Patient(ctx context.Context, patientID string) (*Patient, error)
	Items(ctx context.Context, classification string) ([]CatalogItem, error)
}

// StockProvider reads current stock levels by item code
type StockProvider interface {
	StockLevels(ctx context.Context, itemCodes []string) (map[string]decimal.Decimal, error)
}
