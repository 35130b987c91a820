package router

import (
	"github.com/pharmacy/pos-backend/internal/interfaces/http/handler"
)

// AuthRoutes wires the operator authentication endpoints
func AuthRoutes(h *handler.AuthHandler) *DomainGroup {
	return NewDomainGroup("/auth").
		POST("/login", h.Login).
		POST("/refresh", h.RefreshToken).
		GET("/session", h.Session).
		POST("/logout", h.Logout)
}

// MasterDataRoutes wires the ERPNext master data lookups
func MasterDataRoutes(h *handler.MasterDataHandler) *DomainGroup {
	return NewDomainGroup("/masterdata").
		GET("/companies", h.ListCompanies).
		GET("/warehouses", h.ListWarehouses).
		GET("/departments", h.ListDepartments).
		GET("/customers", h.ListCustomers).
		GET("/addresses", h.ListCustomerAddresses).
		GET("/doctors", h.ListDoctors).
		GET("/classifications", h.ListClassifications).
		GET("/items", h.ListItems).
		GET("/patients/:id", h.GetPatient)
}

// BillingRoutes wires the billing session endpoints
func BillingRoutes(h *handler.BillingHandler) *DomainGroup {
	return NewDomainGroup("/billing").
		POST("/sessions", h.CreateSession).
		GET("/sessions/:id", h.GetSession).
		DELETE("/sessions/:id", h.CloseSession).
		PUT("/sessions/:id/header", h.UpdateHeader).
		POST("/sessions/:id/lines", h.AddLine).
		DELETE("/sessions/:id/lines", h.RemoveLines).
		DELETE("/sessions/:id/lines/selected", h.RemoveSelectedLines).
		PUT("/sessions/:id/lines/:lineID/selection", h.SetLineSelection).
		PUT("/sessions/:id/lines/:lineID/item", h.PickItem).
		PUT("/sessions/:id/lines/:lineID/field", h.UpdateLineField).
		PUT("/sessions/:id/selection", h.SetSelectAll).
		PUT("/sessions/:id/discount", h.ApplyDiscount).
		PUT("/sessions/:id/cash", h.ApplyCash).
		POST("/sessions/:id/submit", h.Submit).
		POST("/sessions/:id/reset", h.Reset).
		POST("/sessions/:id/refresh-stock", h.RefreshStock).
		GET("/sessions/:id/receipt", h.Receipt).
		GET("/journal", h.ListJournal)
}

// SystemRoutes wires health and system info endpoints
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("/system").
		GET("/health", h.Health).
		GET("/info", h.GetSystemInfo)
}
