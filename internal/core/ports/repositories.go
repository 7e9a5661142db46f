package ports

import (
	"context"

	"proctorhub/internal/core/domain"
)

// RoomRepository persists rooms. Create must not overwrite an existing room
// and AppendParticipant must be atomic with respect to concurrent appends.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	List(ctx context.Context) ([]*domain.Room, error)
	AppendParticipant(ctx context.Context, id domain.RoomID, p domain.Participant) (*domain.Room, error)
	Delete(ctx context.Context, id domain.RoomID) error
}

type DegreeRepository interface {
	Create(ctx context.Context, rec *domain.DegreeRecord) error
	GetByRollNo(ctx context.Context, rollNo string) (*domain.DegreeRecord, error)
	List(ctx context.Context) ([]*domain.DegreeRecord, error)
	Delete(ctx context.Context, rollNo string) error
}

type StudentPhotoRepository interface {
	Put(ctx context.Context, photo *domain.StudentPhoto) error
	GetByRollNumber(ctx context.Context, rollNumber string) (*domain.StudentPhoto, error)
	Delete(ctx context.Context, rollNumber string) error
}

type PaperRepository interface {
	Put(ctx context.Context, paper *domain.Paper) error
	GetByID(ctx context.Context, id string) (*domain.Paper, error)
	List(ctx context.Context) ([]*domain.Paper, error)
	FindByQPCode(ctx context.Context, qpCode string) ([]*domain.Paper, error)
	Delete(ctx context.Context, id string) error
}
