package dynamodb

import (
	"context"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
)

const (
	degreeHashKey   = "rollno"
	studentsHashKey = "rollNumber"
)

type DynamoDegreeRepository struct {
	table table[domain.DegreeRecord]
}

func NewDynamoDegreeRepository(api API, tableName string) ports.DegreeRepository {
	return &DynamoDegreeRepository{
		table: table[domain.DegreeRecord]{api: api, name: tableName, hashKey: degreeHashKey},
	}
}

func (r *DynamoDegreeRepository) Create(ctx context.Context, rec *domain.DegreeRecord) error {
	ok, err := r.table.putNew(ctx, rec)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrStudentExists
	}
	return nil
}

func (r *DynamoDegreeRepository) GetByRollNo(ctx context.Context, rollNo string) (*domain.DegreeRecord, error) {
	rec, err := r.table.get(ctx, rollNo)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrStudentNotFound
	}
	return rec, nil
}

func (r *DynamoDegreeRepository) List(ctx context.Context) ([]*domain.DegreeRecord, error) {
	return r.table.scan(ctx, nil)
}

func (r *DynamoDegreeRepository) Delete(ctx context.Context, rollNo string) error {
	return r.table.delete(ctx, rollNo)
}

// DynamoStudentPhotoRepository stores live captures in the Students table.
type DynamoStudentPhotoRepository struct {
	table table[domain.StudentPhoto]
}

func NewDynamoStudentPhotoRepository(api API, tableName string) ports.StudentPhotoRepository {
	return &DynamoStudentPhotoRepository{
		table: table[domain.StudentPhoto]{api: api, name: tableName, hashKey: studentsHashKey},
	}
}

func (r *DynamoStudentPhotoRepository) Put(ctx context.Context, photo *domain.StudentPhoto) error {
	return r.table.put(ctx, photo)
}

func (r *DynamoStudentPhotoRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*domain.StudentPhoto, error) {
	photo, err := r.table.get(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, domain.ErrPhotoNotFound
	}
	return photo, nil
}

func (r *DynamoStudentPhotoRepository) Delete(ctx context.Context, rollNumber string) error {
	return r.table.delete(ctx, rollNumber)
}
