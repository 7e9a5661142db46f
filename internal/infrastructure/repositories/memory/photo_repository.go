package memory

import (
	"context"
	"sync"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
)

type MemoryStudentPhotoRepository struct {
	photos map[string]domain.StudentPhoto
	mu     sync.RWMutex
}

func NewMemoryStudentPhotoRepository() ports.StudentPhotoRepository {
	return &MemoryStudentPhotoRepository{
		photos: make(map[string]domain.StudentPhoto),
	}
}

func (r *MemoryStudentPhotoRepository) Put(ctx context.Context, photo *domain.StudentPhoto) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.photos[photo.RollNumber] = *photo
	return nil
}

func (r *MemoryStudentPhotoRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*domain.StudentPhoto, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	photo, exists := r.photos[rollNumber]
	if !exists {
		return nil, domain.ErrPhotoNotFound
	}

	return &photo, nil
}

func (r *MemoryStudentPhotoRepository) Delete(ctx context.Context, rollNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.photos, rollNumber)
	return nil
}
