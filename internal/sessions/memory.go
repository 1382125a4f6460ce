package sessions

import (
	"context"
	"sync"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// MemoryProvider is an in-memory Provider for tests and local development.
type MemoryProvider struct {
	mu          sync.RWMutex
	records     map[string]*models.AppraisalRecord
	registry    map[string]*models.LandRegistryExtract
	permits     map[string][]models.BuildingPermit
	orders      map[string]*models.SharedBuildingOrder
	extractions map[string][]models.Extraction
	comparables map[string][]models.ComparableSale
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		records:     make(map[string]*models.AppraisalRecord),
		registry:    make(map[string]*models.LandRegistryExtract),
		permits:     make(map[string][]models.BuildingPermit),
		orders:      make(map[string]*models.SharedBuildingOrder),
		extractions: make(map[string][]models.Extraction),
		comparables: make(map[string][]models.ComparableSale),
	}
}

// PutRecord seeds a record with its associated data.
func (p *MemoryProvider) PutRecord(rec *models.AppraisalRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[rec.ID] = rec
}

// PutLandRegistry seeds a land registry extract.
func (p *MemoryProvider) PutLandRegistry(ex *models.LandRegistryExtract) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registry[ex.RecordID] = ex
}

// PutBuildingPermits seeds building permits for a record.
func (p *MemoryProvider) PutBuildingPermits(recordID string, permits []models.BuildingPermit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.permits[recordID] = permits
}

// PutSharedBuildingOrder seeds a shared building order.
func (p *MemoryProvider) PutSharedBuildingOrder(order *models.SharedBuildingOrder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders[order.RecordID] = order
}

// PutExtractions seeds document extractions for a record.
func (p *MemoryProvider) PutExtractions(recordID string, ex []models.Extraction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extractions[recordID] = ex
}

// PutComparableSales seeds comparable sales for a record.
func (p *MemoryProvider) PutComparableSales(recordID string, sales []models.ComparableSale) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comparables[recordID] = sales
}

func (p *MemoryProvider) GetRecord(_ context.Context, recordID string) (*models.AppraisalRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (p *MemoryProvider) GetLandRegistry(_ context.Context, recordID string) (*models.LandRegistryExtract, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ex, ok := p.registry[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *ex
	return &out, nil
}

func (p *MemoryProvider) GetBuildingPermits(_ context.Context, recordID string) ([]models.BuildingPermit, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.BuildingPermit(nil), p.permits[recordID]...), nil
}

func (p *MemoryProvider) GetSharedBuildingOrder(_ context.Context, recordID string) (*models.SharedBuildingOrder, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	order, ok := p.orders[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *order
	return &out, nil
}

func (p *MemoryProvider) GetExtractions(_ context.Context, recordID string) ([]models.Extraction, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.Extraction(nil), p.extractions[recordID]...), nil
}

func (p *MemoryProvider) GetComparableSales(_ context.Context, recordID string) ([]models.ComparableSale, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.ComparableSale(nil), p.comparables[recordID]...), nil
}
