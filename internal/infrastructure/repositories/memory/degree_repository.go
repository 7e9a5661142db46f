package memory

import (
	"context"
	"sync"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
)

type MemoryDegreeRepository struct {
	records map[string]domain.DegreeRecord
	mu      sync.RWMutex
}

func NewMemoryDegreeRepository() ports.DegreeRepository {
	return &MemoryDegreeRepository{
		records: make(map[string]domain.DegreeRecord),
	}
}

func (r *MemoryDegreeRepository) Create(ctx context.Context, rec *domain.DegreeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.RollNo]; exists {
		return domain.ErrStudentExists
	}

	r.records[rec.RollNo] = *rec
	return nil
}

func (r *MemoryDegreeRepository) GetByRollNo(ctx context.Context, rollNo string) (*domain.DegreeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[rollNo]
	if !exists {
		return nil, domain.ErrStudentNotFound
	}

	return &rec, nil
}

func (r *MemoryDegreeRepository) List(ctx context.Context) ([]*domain.DegreeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.DegreeRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, &rec)
	}

	return out, nil
}

func (r *MemoryDegreeRepository) Delete(ctx context.Context, rollNo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, rollNo)
	return nil
}
