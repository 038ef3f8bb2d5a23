package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Viru154/SEIRA/internal/domain"
)

// MemoryStore implements every repository interface in memory. It backs unit
// tests and database-less runs; semantics mirror the postgres
// implementations, including the all-or-nothing results swap.
type MemoryStore struct {
	mu              sync.RWMutex
	nextTicketID    int64
	tickets         map[int64]domain.Ticket
	analyses        map[int64]domain.Analysis
	metrics         map[string]domain.CategoryMetrics
	recommendations map[string]domain.Recommendation
	runs            map[string]domain.Run
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextTicketID:    1,
		tickets:         make(map[int64]domain.Ticket),
		analyses:        make(map[int64]domain.Analysis),
		metrics:         make(map[string]domain.CategoryMetrics),
		recommendations: make(map[string]domain.Recommendation),
		runs:            make(map[string]domain.Run),
	}
}

var (
	_ TicketRepository   = (*MemoryStore)(nil)
	_ AnalysisRepository = (*MemoryStore)(nil)
	_ ResultsRepository  = (*MemoryStore)(nil)
	_ RunRepository      = (*memoryRunRepository)(nil)
)

// Create assigns an ID and stores the ticket.
func (s *MemoryStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == 0 {
		ticket.ID = s.nextTicketID
		s.nextTicketID++
	} else if ticket.ID >= s.nextTicketID {
		s.nextTicketID = ticket.ID + 1
	}
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (s *MemoryStore) ListPending(_ context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]domain.Ticket, 0, limit)
	for _, ticket := range s.tickets {
		if !ticket.Processed {
			pending = append(pending, ticket)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *MemoryStore) MarkProcessed(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return ErrNotFound
	}
	ticket.Processed = true
	ticket.ProcessedAt = &at
	s.tickets[id] = ticket
	return nil
}

func (s *MemoryStore) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets), nil
}

func (s *MemoryStore) CountPending(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, ticket := range s.tickets {
		if !ticket.Processed {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListProcessed(_ context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var processed []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Processed {
			processed = append(processed, ticket)
		}
	}
	sort.Slice(processed, func(i, j int) bool { return processed[i].ID < processed[j].ID })
	return processed, nil
}

// Upsert replaces the whole analysis record for the ticket.
func (s *MemoryStore) Upsert(_ context.Context, analysis *domain.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.TicketID] = *analysis
	return nil
}

func (s *MemoryStore) GetByTicketID(_ context.Context, ticketID int64) (*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	analysis, ok := s.analyses[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	return &analysis, nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]domain.Analysis, 0, len(s.analyses))
	for _, analysis := range s.analyses {
		all = append(all, analysis)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TicketID < all[j].TicketID })
	return all, nil
}

// ReplaceRun swaps the metrics and recommendation sets under one lock so
// readers never observe a mix of runs.
func (s *MemoryStore) ReplaceRun(_ context.Context, runID string, metrics []domain.CategoryMetrics, recommendations []domain.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = make(map[string]domain.CategoryMetrics, len(metrics))
	for _, m := range metrics {
		s.metrics[m.Category] = m
	}
	s.recommendations = make(map[string]domain.Recommendation, len(recommendations))
	for _, rec := range recommendations {
		s.recommendations[rec.Category] = rec
	}
	return nil
}

func (s *MemoryStore) ListRecommendationsByIAR(_ context.Context) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]domain.Recommendation, 0, len(s.recommendations))
	for _, rec := range s.recommendations {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IARScore != all[j].IARScore {
			return all[i].IARScore > all[j].IARScore
		}
		return all[i].Category < all[j].Category
	})
	return all, nil
}

func (s *MemoryStore) GetRecommendation(_ context.Context, category string) (*domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recommendations[category]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) GetMetrics(_ context.Context, category string) (*domain.CategoryMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[category]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

// Runs exposes the store as a RunRepository. A separate view avoids method
// collisions with the ticket repository on the same struct.
func (s *MemoryStore) Runs() RunRepository {
	return &memoryRunRepository{store: s}
}

type memoryRunRepository struct {
	store *MemoryStore
}

func (r *memoryRunRepository) Create(_ context.Context, run *domain.Run) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.runs[run.ID] = *run
	return nil
}

func (r *memoryRunRepository) Finish(_ context.Context, run *domain.Run) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.runs[run.ID]; !ok {
		return ErrNotFound
	}
	r.store.runs[run.ID] = *run
	return nil
}

func (r *memoryRunRepository) GetByID(_ context.Context, id string) (*domain.Run, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	run, ok := r.store.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}
