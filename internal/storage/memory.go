package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spigell/lead-scorer/internal/model"
)

// Memory keeps everything in process memory. It is safe for concurrent use
// and lives as long as the process.
type Memory struct {
	mu      sync.RWMutex
	offers  map[string]model.Offer
	order   []string
	leads   map[string]model.Lead
	results map[string][]model.ScoreResult
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		offers:  make(map[string]model.Offer),
		leads:   make(map[string]model.Lead),
		results: make(map[string][]model.ScoreResult),
	}
}

func (m *Memory) CreateOffer(_ context.Context, offer *model.Offer) error {
	if offer.ID == "" {
		offer.ID = NewID()
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.offers[offer.ID]; ok {
		return fmt.Errorf("offer %s already exists", offer.ID)
	}
	m.offers[offer.ID] = cloneOffer(*offer)
	m.order = append(m.order, offer.ID)
	return nil
}

func (m *Memory) GetOffer(_ context.Context, id string) (model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	offer, ok := m.offers[id]
	if !ok {
		return model.Offer{}, fmt.Errorf("offer %s: %w", id, ErrNotFound)
	}
	return cloneOffer(offer), nil
}

func (m *Memory) ListOffers(context.Context) ([]model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	offers := make([]model.Offer, 0, len(m.order))
	for _, id := range m.order {
		offers = append(offers, cloneOffer(m.offers[id]))
	}
	return offers, nil
}

func (m *Memory) CreateLeads(_ context.Context, leads []model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	StampLeads(leads, time.Now().UTC())
	for _, lead := range leads {
		m.leads[lead.ID] = lead
	}
	return nil
}

func (m *Memory) ListLeads(context.Context) ([]model.Lead, error) {
	m.mu.RLock()
	leads := make([]model.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		leads = append(leads, lead)
	}
	m.mu.RUnlock()

	SortLeads(leads)
	return leads, nil
}

func (m *Memory) DeleteScoreResults(_ context.Context, offerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.results, offerID)
	return nil
}

func (m *Memory) CreateScoreResult(_ context.Context, result *model.ScoreResult) error {
	if result.ID == "" {
		result.ID = NewID()
	}
	if result.ScoredAt.IsZero() {
		result.ScoredAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.results[result.OfferID] {
		if existing.LeadID == result.LeadID {
			return fmt.Errorf("result for lead %s and offer %s already exists", result.LeadID, result.OfferID)
		}
	}
	m.results[result.OfferID] = append(m.results[result.OfferID], *result)
	return nil
}

func (m *Memory) ListScoreResults(_ context.Context, offerID string) ([]model.ScoreResult, error) {
	m.mu.RLock()
	results := append([]model.ScoreResult(nil), m.results[offerID]...)
	m.mu.RUnlock()

	SortResults(results)
	return results, nil
}

func (m *Memory) Close(context.Context) error { return nil }

func cloneOffer(o model.Offer) model.Offer {
	o.ValueProps = append([]string(nil), o.ValueProps...)
	o.IdealUseCases = append([]string(nil), o.IdealUseCases...)
	return o
}
