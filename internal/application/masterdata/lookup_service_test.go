package masterdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/pos-backend/internal/domain/masterdata"
	"github.com/pharmacy/pos-backend/internal/domain/shared"
	"github.com/pharmacy/pos-backend/internal/infrastructure/cache"
)

type fakeProvider struct {
	calls map[string]int

	departments []masterdata.Department
	items       []masterdata.CatalogItem
	patient     *masterdata.Patient
	err         error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(map[string]int)}
}

func (f *fakeProvider) Companies(ctx context.Context) ([]masterdata.Company, error) {
	f.calls["companies"]++
	return []masterdata.Company{{Name: "Hospital Pharmacy"}}, f.err
}

func (f *fakeProvider) Warehouses(ctx context.Context, company string) ([]masterdata.Warehouse, error) {
	f.calls["warehouses:"+company]++
	return []masterdata.Warehouse{{Name: "Pharmacy Store - HP", Company: company}}, f.err
}

func (f *fakeProvider) Departments(ctx context.Context) ([]masterdata.Department, error) {
	f.calls["departments"]++
	return f.departments, f.err
}

func (f *fakeProvider) Customers(ctx context.Context) ([]masterdata.Customer, error) {
	f.calls["customers"]++
	return []masterdata.Customer{{Name: "CUST-001", CustomerName: "Walk-in Customer"}}, f.err
}

func (f *fakeProvider) CustomerAddresses(ctx context.Context, customer string) ([]masterdata.Address, error) {
	f.calls["addresses:"+customer]++
	return []masterdata.Address{{Name: customer + "-Billing", Customer: customer}}, f.err
}

func (f *fakeProvider) Doctors(ctx context.Context) ([]masterdata.Doctor, error) {
	f.calls["doctors"]++
	return []masterdata.Doctor{{Name: "HLC-PRAC-0001", DoctorName: "Dr. Rao"}}, f.err
}

func (f *fakeProvider) Classifications(ctx context.Context) ([]masterdata.Classification, error) {
	f.calls["classifications"]++
	return []masterdata.Classification{{Name: "Tablets"}}, f.err
}

func (f *fakeProvider) Patient(ctx context.Context, patientID string) (*masterdata.Patient, error) {
	f.calls["patient:"+patientID]++
	if f.patient == nil {
		return nil, shared.ErrNotFound
	}
	return f.patient, f.err
}

func (f *fakeProvider) Items(ctx context.Context, classification string) ([]masterdata.CatalogItem, error) {
	f.calls["items:"+classification]++
	return f.items, f.err
}

var _ masterdata.Provider = (*fakeProvider)(nil)

func newTestService(t *testing.T, provider *fakeProvider) *LookupService {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return NewLookupService(provider, store, time.Minute, nil)
}

func TestLookupService_CachesDoctypeLists(t *testing.T) {
	provider := newFakeProvider()
	provider.departments = []masterdata.Department{{Name: "Pharmacy - CP"}, {Name: "OPD - CP"}}
	svc := newTestService(t, provider)
	ctx := context.Background()

	first, err := svc.Departments(ctx)
	require.NoError(t, err)
	second, err := svc.Departments(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls["departments"], "second read should come from cache")
}

func TestLookupService_DepartmentNames(t *testing.T) {
	provider := newFakeProvider()
	provider.departments = []masterdata.Department{{Name: "Pharmacy - CP"}, {Name: "OPD - CP"}}
	svc := newTestService(t, provider)

	names, err := svc.DepartmentNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Pharmacy - CP", "OPD - CP"}, names)
}

func TestLookupService_WarehousesKeyedByCompany(t *testing.T) {
	provider := newFakeProvider()
	svc := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Warehouses(ctx, "Hospital Pharmacy")
	require.NoError(t, err)
	_, err = svc.Warehouses(ctx, "City Clinic")
	require.NoError(t, err)
	_, err = svc.Warehouses(ctx, "Hospital Pharmacy")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls["warehouses:Hospital Pharmacy"])
	assert.Equal(t, 1, provider.calls["warehouses:City Clinic"])
}

func TestLookupService_ProviderErrorNotCached(t *testing.T) {
	provider := newFakeProvider()
	provider.err = errors.New("erpnext unreachable")
	svc := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Companies(ctx)
	require.Error(t, err)

	provider.err = nil
	companies, err := svc.Companies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 1)
	assert.Equal(t, 2, provider.calls["companies"])
}

func TestLookupService_ItemByCode(t *testing.T) {
	provider := newFakeProvider()
	provider.items = []masterdata.CatalogItem{
		{ItemCode: "PARA-500", ItemName: "Paracetamol 500mg", Rate: decimal.RequireFromString("5.00")},
		{ItemCode: "AMOX-250", ItemName: "Amoxicillin 250mg", Rate: decimal.RequireFromString("12.00")},
	}
	svc := newTestService(t, provider)
	ctx := context.Background()

	item, err := svc.Item(ctx, "AMOX-250")
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin 250mg", item.ItemName)

	_, err = svc.Item(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Both lookups share the single cached item list
	assert.Equal(t, 1, provider.calls["items:"])
}

func TestLookupService_PatientCachedPerID(t *testing.T) {
	provider := newFakeProvider()
	provider.patient = &masterdata.Patient{ID: "PID-0042", FullName: "Asha Verma"}
	svc := newTestService(t, provider)
	ctx := context.Background()

	patient, err := svc.Patient(ctx, "PID-0042")
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", patient.FullName)

	_, err = svc.Patient(ctx, "PID-0042")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls["patient:PID-0042"])
}

func TestLookupService_PatientNotFound(t *testing.T) {
	provider := newFakeProvider()
	svc := newTestService(t, provider)

	_, err := svc.Patient(context.Background(), "PID-MISSING")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
