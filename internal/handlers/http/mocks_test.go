package http

import (
	"context"

	"proctorhub/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(ctx context.Context, roomName string) (*domain.Room, error) {
	args := m.Called(ctx, roomName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Room), args.Error(1)
}

func (m *MockRoomService) GetRoomDetail(ctx context.Context, roomID domain.RoomID) (*domain.RoomDetail, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoomDetail), args.Error(1)
}

func (m *MockRoomService) ValidateAndAdmit(ctx context.Context, rollNumber string, roomID domain.RoomID) (*domain.Participant, error) {
	args := m.Called(ctx, rollNumber, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockRoomService) DeleteRoom(ctx context.Context, roomID domain.RoomID) error {
	return m.Called(ctx, roomID).Error(0)
}

func (m *MockRoomService) CheckRoomAlive(ctx context.Context, roomID domain.RoomID) domain.RoomStatus {
	return m.Called(ctx, roomID).Get(0).(domain.RoomStatus)
}

type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) AddStudent(ctx context.Context, rollNo, department, year string, photo *domain.Upload) (*domain.DegreeRecord, error) {
	args := m.Called(ctx, rollNo, department, year, photo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DegreeRecord), args.Error(1)
}

func (m *MockStudentService) ListStudents(ctx context.Context) ([]*domain.DegreeRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DegreeRecord), args.Error(1)
}

func (m *MockStudentService) DeleteStudent(ctx context.Context, rollNo string) error {
	return m.Called(ctx, rollNo).Error(0)
}

func (m *MockStudentService) SubmitPhoto(ctx context.Context, rollNumber string, roomID domain.RoomID, photo *domain.Upload) (string, error) {
	args := m.Called(ctx, rollNumber, roomID, photo)
	return args.String(0), args.Error(1)
}

type MockPaperService struct {
	mock.Mock
}

func (m *MockPaperService) UploadPaper(ctx context.Context, department, year, subject, qpCode string, file *domain.Upload) (*domain.Paper, error) {
	args := m.Called(ctx, department, year, subject, qpCode, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Paper), args.Error(1)
}

func (m *MockPaperService) ListPapers(ctx context.Context) ([]*domain.Paper, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Paper), args.Error(1)
}

func (m *MockPaperService) DeletePaper(ctx context.Context, paperID string) error {
	return m.Called(ctx, paperID).Error(0)
}

func (m *MockPaperService) GetPaperURL(ctx context.Context, qpCode string) (string, error) {
	args := m.Called(ctx, qpCode)
	return args.String(0), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(token string) (*domain.Examiner, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Examiner), args.Error(1)
}
