package ports

import (
	"context"

	"proctorhub/internal/core/domain"
)

type RoomService interface {
	CreateRoom(ctx context.Context, roomName string) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]*domain.Room, error)
	GetRoomDetail(ctx context.Context, roomID domain.RoomID) (*domain.RoomDetail, error)
	ValidateAndAdmit(ctx context.Context, rollNumber string, roomID domain.RoomID) (*domain.Participant, error)
	DeleteRoom(ctx context.Context, roomID domain.RoomID) error
	CheckRoomAlive(ctx context.Context, roomID domain.RoomID) domain.RoomStatus
}

// LogSubscription is a live feed of one room's log entries.
type LogSubscription interface {
	C() <-chan domain.LogEntry
	Close()
}

type LogService interface {
	AppendLog(ctx context.Context, roomID domain.RoomID, rollNumber, message, status string) domain.LogEntry
	Subscribe(roomID domain.RoomID) LogSubscription
	GetLogs(roomID domain.RoomID) []domain.LogEntry
}

type StudentService interface {
	AddStudent(ctx context.Context, rollNo, department, year string, photo *domain.Upload) (*domain.DegreeRecord, error)
	ListStudents(ctx context.Context) ([]*domain.DegreeRecord, error)
	DeleteStudent(ctx context.Context, rollNo string) error
	SubmitPhoto(ctx context.Context, rollNumber string, roomID domain.RoomID, photo *domain.Upload) (string, error)
}

type PaperService interface {
	UploadPaper(ctx context.Context, department, year, subject, qpCode string, file *domain.Upload) (*domain.Paper, error)
	ListPapers(ctx context.Context) ([]*domain.Paper, error)
	DeletePaper(ctx context.Context, paperID string) error
	GetPaperURL(ctx context.Context, qpCode string) (string, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(token string) (*domain.Examiner, error)
}
