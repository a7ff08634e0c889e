package usecase

import (
	"context"
	"sync"

	"github.com/allergenapp/backend/internal/domain"
)

// MockStore is a mock implementation of domain.KeyValueStore
type MockStore struct {
	mu          sync.Mutex
	data        map[string][]byte
	lists       map[string][][]byte
	getError    error
	setError    error
	appendError error
	rangeError  error
}

func NewMockStore() *MockStore {
	return &MockStore{
		data:  make(map[string][]byte),
		lists: make(map[string][][]byte),
	}
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrKeyNotFound
}

func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.lists, key)
	return nil
}

func (m *MockStore) Append(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendError != nil {
		return m.appendError
	}
	m.lists[key] = append([][]byte{value}, m.lists[key]...)
	return nil
}

func (m *MockStore) Range(ctx context.Context, key string, limit int) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rangeError != nil {
		return nil, m.rangeError
	}
	items := m.lists[key]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return append([][]byte(nil), items...), nil
}

func (m *MockStore) Close() error { return nil }

// MockSource is a mock implementation of domain.ProductSource
type MockSource struct {
	name      string
	byBarcode map[string]domain.RawProductRecord
	byName    map[string]domain.RawProductRecord
	err       error
	calls     int
	block     chan struct{}
	entered   chan struct{}
}

func NewMockSource(name string) *MockSource {
	return &MockSource{
		name:      name,
		byBarcode: make(map[string]domain.RawProductRecord),
		byName:    make(map[string]domain.RawProductRecord),
	}
}

func (m *MockSource) Name() string { return m.name }

func (m *MockSource) LookupBarcode(ctx context.Context, barcode string) (domain.RawProductRecord, error) {
	m.calls++
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	if record, ok := m.byBarcode[barcode]; ok {
		return record, nil
	}
	return domain.NotFoundRecord(), nil
}

func (m *MockSource) SearchByName(ctx context.Context, query string) (domain.RawProductRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if record, ok := m.byName[query]; ok {
		return record, nil
	}
	return domain.NotFoundRecord(), nil
}

// MockAnalyzer is a mock implementation of domain.LabelAnalyzer
type MockAnalyzer struct {
	response      string
	err           error
	lastAllergens []string
	lastMediaType string
}

func (m *MockAnalyzer) AnalyzeLabel(ctx context.Context, image []byte, mediaType string, userAllergens []string) (string, error) {
	m.lastAllergens = userAllergens
	m.lastMediaType = mediaType
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// MockAlerter records alerts
type MockAlerter struct {
	mu     sync.Mutex
	alerts []domain.Verdict
}

func (m *MockAlerter) Alert(ctx context.Context, userID string, verdict domain.Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, verdict)
}

func (m *MockAlerter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

// MockObserver counts observed scans
type MockObserver struct {
	scans    map[domain.Status]int
	failures int
}

func NewMockObserver() *MockObserver {
	return &MockObserver{scans: make(map[domain.Status]int)}
}

func (m *MockObserver) ObserveScan(mode domain.ScanMode, status domain.Status) {
	m.scans[status]++
}

func (m *MockObserver) ObserveAcquisitionFailure(mode domain.ScanMode) {
	m.failures++
}

// Catalog fixtures
var (
	peanutButter = domain.CatalogRecord{
		Found:       true,
		Barcode:     "123456789",
		Name:        "Peanut Butter Crunch",
		Ingredients: domain.Ingredients{"Peanuts", "Sugar", "Salt", "Palm Oil"},
		Allergens:   []string{"Peanuts"},
	}
	wheatBread = domain.CatalogRecord{
		Found:       true,
		Barcode:     "987654321",
		Name:        "Whole Wheat Bread",
		Ingredients: domain.Ingredients{"Whole Wheat Flour", "Water", "Yeast", "Salt", "Soybean Oil"},
		Allergens:   []string{"Wheat", "Soy"},
	}
	oatMilk = domain.CatalogRecord{
		Found:       true,
		Barcode:     "111222333",
		Name:        "Oat Milk",
		Ingredients: domain.Ingredients{"Oat Base (Water, Oats)", "Rapeseed Oil", "Calcium Carbonate", "Salt"},
		Allergens:   []string{},
	}
)
