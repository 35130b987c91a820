package masterdata

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/domain/masterdata"
	"github.com/pharmacy/pos-backend/internal/domain/shared"
	"github.com/pharmacy/pos-backend/internal/infrastructure/cache"
)

// LookupService serves the billing screen's dropdown data from ERPNext
// through a read-through cache. Master data changes rarely during a shift,
// so each doctype list is cached under its own key for the configured TTL.
type LookupService struct {
	provider masterdata.Provider
	store    cache.Store
	ttl      time.Duration
	logger   *zap.Logger
}

// NewLookupService creates a new LookupService
func NewLookupService(provider masterdata.Provider, store cache.Store, ttl time.Duration, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		provider: provider,
		store:    store,
		ttl:      ttl,
		logger:   logger.Named("masterdata"),
	}
}

// cachedList reads a list through the cache, fetching from the provider on
// a miss. Cache failures degrade to a direct fetch, never to an error.
func cachedList[T any](ctx context.Context, s *LookupService, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if raw, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var values []T
		if err := json.Unmarshal(raw, &values); err == nil {
			return values, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	values, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(values); err == nil {
		if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("failed to cache lookup result", zap.String("key", key), zap.Error(err))
		}
	}
	return values, nil
}

// Companies lists the companies the operator can bill under
func (s *LookupService) Companies(ctx context.Context) ([]masterdata.Company, error) {
	return cachedList(ctx, s, "masterdata:companies", s.provider.Companies)
}

// Warehouses lists warehouses belonging to a company
func (s *LookupService) Warehouses(ctx context.Context, company string) ([]masterdata.Warehouse, error) {
	return cachedList(ctx, s, "masterdata:warehouses:"+company, func(ctx context.Context) ([]masterdata.Warehouse, error) {
		return s.provider.Warehouses(ctx, company)
	})
}

// Departments lists billing departments
func (s *LookupService) Departments(ctx context.Context) ([]masterdata.Department, error) {
	return cachedList(ctx, s, "masterdata:departments", s.provider.Departments)
}

// DepartmentNames returns just the department names, the list bill
// validation checks membership against
func (s *LookupService) DepartmentNames(ctx context.Context) ([]string, error) {
	departments, err := s.Departments(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(departments))
	for _, d := range departments {
		names = append(names, d.Name)
	}
	return names, nil
}

// Customers lists customers
func (s *LookupService) Customers(ctx context.Context) ([]masterdata.Customer, error) {
	return cachedList(ctx, s, "masterdata:customers", s.provider.Customers)
}

// CustomerAddresses lists the addresses linked to a customer
func (s *LookupService) CustomerAddresses(ctx context.Context, customer string) ([]masterdata.Address, error) {
	return cachedList(ctx, s, "masterdata:addresses:"+customer, func(ctx context.Context) ([]masterdata.Address, error) {
		return s.provider.CustomerAddresses(ctx, customer)
	})
}

// Doctors lists prescribing practitioners
func (s *LookupService) Doctors(ctx context.Context) ([]masterdata.Doctor, error) {
	return cachedList(ctx, s, "masterdata:doctors", s.provider.Doctors)
}

// Classifications lists item groups used to narrow the catalog
func (s *LookupService) Classifications(ctx context.Context) ([]masterdata.Classification, error) {
	return cachedList(ctx, s, "masterdata:classifications", s.provider.Classifications)
}

// Items lists catalog items, optionally narrowed to one classification
func (s *LookupService) Items(ctx context.Context, classification string) ([]masterdata.CatalogItem, error) {
	key := "masterdata:items"
	if classification != "" {
		key += ":" + classification
	}
	return cachedList(ctx, s, key, func(ctx context.Context) ([]masterdata.CatalogItem, error) {
		return s.provider.Items(ctx, classification)
	})
}

// Item finds one catalog item by code. The full item list is served from
// cache, so picking an item for a bill line rarely hits ERPNext.
func (s *LookupService) Item(ctx context.Context, itemCode string) (*masterdata.CatalogItem, error) {
	items, err := s.Items(ctx, "")
	if err != nil {
		return nil, err
	}
	for idx := range items {
		if items[idx].ItemCode == itemCode {
			return &items[idx], nil
		}
	}
	return nil, shared.ErrNotFound
}

// Patient resolves a patient ID to the patient master entry. Patient
// lookups are keyed per ID; a miss in ERPNext is not cached.
func (s *LookupService) Patient(ctx context.Context, patientID string) (*masterdata.Patient, error) {
	key := "masterdata:patient:" + patientID
	if raw, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var patient masterdata.Patient
		if err := json.Unmarshal(raw, &patient); err == nil {
			return &patient, nil
		}
	}

	patient, err := s.provider.Patient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(patient); err == nil {
		if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("failed to cache patient", zap.String("key", key), zap.Error(err))
		}
	}
	return patient, nil
}
