package handler

import (
	"github.com/gin-gonic/gin"

	appmasterdata "github.com/pharmacy/pos-backend/internal/application/masterdata"
)

// MasterDataHandler serves ERPNext master data lookups used to populate
// the billing screen's dropdowns and item catalog.
type MasterDataHandler struct {
	BaseHandler
	lookup *appmasterdata.LookupService
}

// NewMasterDataHandler creates a new master data handler
func NewMasterDataHandler(lookup *appmasterdata.LookupService) *MasterDataHandler {
	return &MasterDataHandler{lookup: lookup}
}

// ListCompanies returns all companies.
// GET /masterdata/companies
func (h *MasterDataHandler) ListCompanies(c *gin.Context) {
	companies, err := h.lookup.Companies(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, companies, len(companies))
}

// ListWarehouses returns warehouses, optionally filtered by company.
// GET /masterdata/warehouses?company=...
func (h *MasterDataHandler) ListWarehouses(c *gin.Context) {
	company := c.Query("company")
	warehouses, err := h.lookup.Warehouses(c.Request.Context(), company)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, warehouses, len(warehouses))
}

// ListDepartments returns all departments.
// GET /masterdata/departments
func (h *MasterDataHandler) ListDepartments(c *gin.Context) {
	departments, err := h.lookup.Departments(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, departments, len(departments))
}

// ListCustomers returns all customers.
// GET /masterdata/customers
func (h *MasterDataHandler) ListCustomers(c *gin.Context) {
	customers, err := h.lookup.Customers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, customers, len(customers))
}

// ListCustomerAddresses returns addresses linked to a customer.
// GET /masterdata/addresses?customer=...
func (h *MasterDataHandler) ListCustomerAddresses(c *gin.Context) {
	customer := c.Query("customer")
	if customer == "" {
		h.BadRequest(c, "customer query parameter is required")
		return
	}
	addresses, err := h.lookup.CustomerAddresses(c.Request.Context(), customer)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, addresses, len(addresses))
}

// ListDoctors returns all referring doctors.
// GET /masterdata/doctors
func (h *MasterDataHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.lookup.Doctors(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, doctors, len(doctors))
}

// ListClassifications returns all item classifications.
// GET /masterdata/classifications
func (h *MasterDataHandler) ListClassifications(c *gin.Context) {
	classifications, err := h.lookup.Classifications(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, classifications, len(classifications))
}

// ListItems returns the item catalog, optionally filtered by classification.
// GET /masterdata/items?classification=...
func (h *MasterDataHandler) ListItems(c *gin.Context) {
	classification := c.Query("classification")
	items, err := h.lookup.Items(c.Request.Context(), classification)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, len(items))
}

// GetPatient returns a single patient by ID.
// GET /masterdata/patients/:id
func (h *MasterDataHandler) GetPatient(c *gin.Context) {
	patientID := c.Param("id")
	patient, err := h.lookup.Patient(c.Request.Context(), patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, patient)
}
