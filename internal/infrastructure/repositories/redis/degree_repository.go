package redis

import (
	"context"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisDegreeRepository struct {
	records records[domain.DegreeRecord]
}

func NewRedisDegreeRepository(client *redis.Client, prefix string) ports.DegreeRepository {
	return &RedisDegreeRepository{
		records: records[domain.DegreeRecord]{client: client, keys: newKeyspace(prefix), collection: degreeCollection},
	}
}

func (r *RedisDegreeRepository) Create(ctx context.Context, rec *domain.DegreeRecord) error {
	ok, err := r.records.putNX(ctx, rec.RollNo, rec)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrStudentExists
	}
	return nil
}

func (r *RedisDegreeRepository) GetByRollNo(ctx context.Context, rollNo string) (*domain.DegreeRecord, error) {
	rec, err := r.records.get(ctx, rollNo)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrStudentNotFound
	}
	return rec, nil
}

func (r *RedisDegreeRepository) List(ctx context.Context) ([]*domain.DegreeRecord, error) {
	return r.records.list(ctx)
}

func (r *RedisDegreeRepository) Delete(ctx context.Context, rollNo string) error {
	return r.records.delete(ctx, rollNo)
}

type RedisStudentPhotoRepository struct {
	records records[domain.StudentPhoto]
}

func NewRedisStudentPhotoRepository(client *redis.Client, prefix string) ports.StudentPhotoRepository {
	return &RedisStudentPhotoRepository{
		records: records[domain.StudentPhoto]{client: client, keys: newKeyspace(prefix), collection: photosCollection},
	}
}

func (r *RedisStudentPhotoRepository) Put(ctx context.Context, photo *domain.StudentPhoto) error {
	return r.records.put(ctx, photo.RollNumber, photo)
}

func (r *RedisStudentPhotoRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*domain.StudentPhoto, error) {
	photo, err := r.records.get(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, domain.ErrPhotoNotFound
	}
	return photo, nil
}

func (r *RedisStudentPhotoRepository) Delete(ctx context.Context, rollNumber string) error {
	return r.records.delete(ctx, rollNumber)
}
