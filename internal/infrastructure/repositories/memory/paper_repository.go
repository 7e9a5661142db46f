package memory

import (
	"context"
	"sync"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
)

type MemoryPaperRepository struct {
	papers map[string]domain.Paper
	mu     sync.RWMutex
}

func NewMemoryPaperRepository() ports.PaperRepository {
	return &MemoryPaperRepository{
		papers: make(map[string]domain.Paper),
	}
}

func (r *MemoryPaperRepository) Put(ctx context.Context, paper *domain.Paper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.papers[paper.PaperID] = *paper
	return nil
}

func (r *MemoryPaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paper, exists := r.papers[id]
	if !exists {
		return nil, domain.ErrPaperNotFound
	}

	return &paper, nil
}

func (r *MemoryPaperRepository) List(ctx context.Context) ([]*domain.Paper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Paper, 0, len(r.papers))
	for _, p := range r.papers {
		out = append(out, &p)
	}

	return out, nil
}

func (r *MemoryPaperRepository) FindByQPCode(ctx context.Context, qpCode string) ([]*domain.Paper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Paper
	for _, p := range r.papers {
		if p.QPCode == qpCode {
			out = append(out, &p)
		}
	}

	return out, nil
}

func (r *MemoryPaperRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.papers, id)
	return nil
}
