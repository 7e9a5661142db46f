package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
	"proctorhub/internal/infrastructure/repositories/memory"
	apperrors "proctorhub/pkg/errors"
	"proctorhub/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]{5}$`)

func useClock(t *testing.T) *stubClock {
	t.Helper()
	c := &stubClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	prev := utils.Now
	utils.Now = c.Now
	t.Cleanup(func() { utils.Now = prev })
	return c
}

type roomFixture struct {
	svc       *roomService
	rooms     ports.RoomRepository
	degrees   ports.DegreeRepository
	photos    ports.StudentPhotoRepository
	publisher *recordingPublisher
}

func newRoomFixture() *roomFixture {
	f := &roomFixture{
		rooms:     memory.NewMemoryRoomRepository(),
		degrees:   memory.NewMemoryDegreeRepository(),
		photos:    memory.NewMemoryStudentPhotoRepository(),
		publisher: &recordingPublisher{},
	}
	f.svc = NewRoomService(f.rooms, f.degrees, f.photos, nil, 0, f.publisher, nil, testLogger).(*roomService)
	return f
}

func (f *roomFixture) register(t *testing.T, rollNo, dept, year, photo string) {
	t.Helper()
	require.NoError(t, f.degrees.Create(context.Background(), &domain.DegreeRecord{
		RollNo: rollNo, Department: dept, Year: year, PhotoURL: photo,
	}))
}

func TestCreateRoom_GeneratesCodeAndPublishes(t *testing.T) {
	f := newRoomFixture()

	room, err := f.svc.CreateRoom(context.Background(), "Midterm")
	require.NoError(t, err)

	assert.Regexp(t, roomIDPattern, string(room.RoomID))
	assert.Equal(t, "Midterm", room.RoomName)
	assert.NotNil(t, room.Participants)
	assert.Empty(t, room.Participants)

	require.Equal(t, []domain.EventType{domain.EventRoomCreated}, f.publisher.Types())
	var payload domain.RoomCreatedPayload
	require.NoError(t, json.Unmarshal(f.publisher.Last().Data, &payload))
	assert.Equal(t, room.RoomID, payload.Room.RoomID)
	assert.Equal(t, `New classroom "Midterm" has been created`, payload.Message)
}

func TestCreateRoom_CodesAlwaysWellFormed(t *testing.T) {
	f := newRoomFixture()
	for i := 0; i < 200; i++ {
		room, err := f.svc.CreateRoom(context.Background(), "Batch")
		require.NoError(t, err)
		assert.Regexp(t, roomIDPattern, string(room.RoomID))
	}
}

func TestCreateRoom_EmptyName(t *testing.T) {
	f := newRoomFixture()

	_, err := f.svc.CreateRoom(context.Background(), "   ")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	assert.Empty(t, f.publisher.Types())
}

func TestCreateRoom_RedrawsOnCollision(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	require.NoError(t, f.rooms.Create(ctx, domain.NewRoom("AAAAA", "Existing", time.Now())))

	codes := []string{"AAAAA", "AAAAA", "BBBBB"}
	f.svc.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	room, err := f.svc.CreateRoom(ctx, "Fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("BBBBB"), room.RoomID)

	existing, err := f.rooms.GetByID(ctx, "AAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Existing", existing.RoomName)
}

func TestCreateRoom_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	require.NoError(t, f.rooms.Create(ctx, domain.NewRoom("AAAAA", "Existing", time.Now())))
	f.svc.newCode = func() string { return "AAAAA" }

	_, err := f.svc.CreateRoom(ctx, "Fresh")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePersistence))
	assert.Empty(t, f.publisher.Types())
}

func TestCreateRoom_PersistenceError(t *testing.T) {
	repo := new(MockRoomRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("table unavailable"))
	pub := &recordingPublisher{}
	svc := NewRoomService(repo, memory.NewMemoryDegreeRepository(), memory.NewMemoryStudentPhotoRepository(), nil, 0, pub, nil, testLogger)

	room, err := svc.CreateRoom(context.Background(), "Midterm")
	assert.Nil(t, room)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePersistence))
	assert.Empty(t, pub.Types())
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestListRooms_NewestFirst(t *testing.T) {
	clock := useClock(t)
	f := newRoomFixture()
	ctx := context.Background()

	var created []domain.RoomID
	for _, name := range []string{"first", "second", "third"} {
		room, err := f.svc.CreateRoom(ctx, name)
		require.NoError(t, err)
		created = append(created, room.RoomID)
		clock.Advance(time.Minute)
	}

	rooms, err := f.svc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, created[2], rooms[0].RoomID)
	assert.Equal(t, created[1], rooms[1].RoomID)
	assert.Equal(t, created[0], rooms[2].RoomID)
}

func TestListRooms_EmptyIsNonNil(t *testing.T) {
	f := newRoomFixture()
	rooms, err := f.svc.ListRooms(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)
}

func TestGetRoomDetail_EnrichesInParticipantOrder(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, "Midterm")
	require.NoError(t, err)

	f.register(t, "R1", "CSE", "3", "https://photos/r1.png")
	f.register(t, "R2", "ECE", "2", "")
	require.NoError(t, f.photos.Put(ctx, &domain.StudentPhoto{RollNumber: "R1", PhotoURL: "https://live/r1.png"}))
	require.NoError(t, f.photos.Put(ctx, &domain.StudentPhoto{RollNumber: "R2", Image: "https://live/r2-image.png", PhotoURL: "ignored"}))

	for _, r := range []string{"R2", "R1", "R2"} {
		_, err := f.svc.ValidateAndAdmit(ctx, r, room.RoomID)
		require.NoError(t, err)
	}
	// Deregistered after admission, so enrichment must fall back.
	require.NoError(t, f.degrees.Delete(ctx, "R2"))

	detail, err := f.svc.GetRoomDetail(ctx, room.RoomID)
	require.NoError(t, err)
	require.Len(t, detail.Participants, 3)

	assert.Equal(t, "R2", detail.Participants[0].RollNo)
	assert.Equal(t, "R1", detail.Participants[1].RollNo)
	assert.Equal(t, "R2", detail.Participants[2].RollNo)

	r1 := detail.Participants[1]
	require.NotNil(t, r1.DegreeImage)
	require.NotNil(t, r1.LiveImage)
	assert.Equal(t, "https://photos/r1.png", *r1.DegreeImage)
	assert.Equal(t, "https://live/r1.png", *r1.LiveImage)
	assert.Equal(t, "CSE", r1.Department)
	assert.Equal(t, "3", r1.Year)

	r2 := detail.Participants[0]
	assert.Nil(t, r2.DegreeImage)
	assert.Equal(t, domain.NotAvailable, r2.Department)
	assert.Equal(t, domain.NotAvailable, r2.Year)
	require.NotNil(t, r2.LiveImage)
	assert.Equal(t, "https://live/r2-image.png", *r2.LiveImage)
}

func TestGetRoomDetail_SignsPhotoKeys(t *testing.T) {
	rooms := memory.NewMemoryRoomRepository()
	degrees := memory.NewMemoryDegreeRepository()
	photos := memory.NewMemoryStudentPhotoRepository()
	ctx := context.Background()

	room := domain.NewRoom("A3F9K", "Midterm", time.Now())
	room.Participants = []domain.Participant{{RollNo: "R1"}}
	require.NoError(t, rooms.Create(ctx, room))
	require.NoError(t, degrees.Create(ctx, &domain.DegreeRecord{
		RollNo: "R1", Department: "CSE", Year: "3",
		PhotoURL: "http://h/objects/student_photos/1-r1.png", PhotoKey: "student_photos/1-r1.png",
	}))
	require.NoError(t, photos.Put(ctx, &domain.StudentPhoto{
		RollNumber: "R1", PhotoURL: "http://h/objects/student_photos/2-live.png", PhotoKey: "student_photos/2-live.png",
	}))

	store := new(MockObjectStore)
	store.On("SignedURL", mock.Anything, "student_photos/1-r1.png", 15*time.Minute).Return("http://h/objects/student_photos/1-r1.png?sig=d", nil)
	store.On("SignedURL", mock.Anything, "student_photos/2-live.png", 15*time.Minute).Return("http://h/objects/student_photos/2-live.png?sig=l", nil)

	svc := NewRoomService(rooms, degrees, photos, store, 15*time.Minute, nil, nil, testLogger)
	detail, err := svc.GetRoomDetail(ctx, "A3F9K")
	require.NoError(t, err)
	require.Len(t, detail.Participants, 1)

	p := detail.Participants[0]
	require.NotNil(t, p.DegreeImage)
	require.NotNil(t, p.LiveImage)
	assert.Equal(t, "http://h/objects/student_photos/1-r1.png?sig=d", *p.DegreeImage)
	assert.Equal(t, "http://h/objects/student_photos/2-live.png?sig=l", *p.LiveImage)
	store.AssertExpectations(t)
}

func TestGetRoomDetail_EmptyAttributesShowNotAvailable(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, "Midterm")
	require.NoError(t, err)

	f.register(t, "R1", "", "2", "")
	f.register(t, "R2", "ECE", "", "")
	for _, r := range []string{"R1", "R2"} {
		_, err := f.svc.ValidateAndAdmit(ctx, r, room.RoomID)
		require.NoError(t, err)
	}

	detail, err := f.svc.GetRoomDetail(ctx, room.RoomID)
	require.NoError(t, err)
	require.Len(t, detail.Participants, 2)

	cases := []struct {
		dept, year string
	}{
		{domain.NotAvailable, "2"},
		{"ECE", domain.NotAvailable},
	}
	for i, tc := range cases {
		got := detail.Participants[i]
		if got.Department != tc.dept || got.Year != tc.year {
			t.Errorf("participant %d: department=%q year=%q, want %q %q", i, got.Department, got.Year, tc.dept, tc.year)
		}
		assert.Nil(t, got.DegreeImage)
	}
}

func TestGetRoomDetail_LookupFailureDegradesField(t *testing.T) {
	rooms := memory.NewMemoryRoomRepository()
	ctx := context.Background()
	room := domain.NewRoom("A3F9K", "Midterm", time.Now())
	room.Participants = []domain.Participant{{RollNo: "R1"}}
	require.NoError(t, rooms.Create(ctx, room))

	degrees := new(MockDegreeRepository)
	degrees.On("GetByRollNo", mock.Anything, "R1").Return(nil, errors.New("throttled"))

	svc := NewRoomService(rooms, degrees, memory.NewMemoryStudentPhotoRepository(), nil, 0, nil, nil, testLogger)
	detail, err := svc.GetRoomDetail(ctx, "A3F9K")
	require.NoError(t, err)
	require.Len(t, detail.Participants, 1)
	assert.Nil(t, detail.Participants[0].DegreeImage)
	assert.Nil(t, detail.Participants[0].LiveImage)
	assert.Equal(t, domain.NotAvailable, detail.Participants[0].Department)
}

func TestGetRoomDetail_NotFound(t *testing.T) {
	f := newRoomFixture()
	_, err := f.svc.GetRoomDetail(context.Background(), "ZZZZZ")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestValidateAndAdmit_UnknownRoomWritesNothing(t *testing.T) {
	repo := new(MockRoomRepository)
	repo.On("GetByID", mock.Anything, domain.RoomID("ZZZZZ")).Return(nil, domain.ErrRoomNotFound)
	pub := &recordingPublisher{}
	svc := NewRoomService(repo, memory.NewMemoryDegreeRepository(), memory.NewMemoryStudentPhotoRepository(), nil, 0, pub, nil, testLogger)

	_, err := svc.ValidateAndAdmit(context.Background(), "247525", "ZZZZZ")

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	assert.Equal(t, MsgRoomNotFound, appErr.Message)
	repo.AssertNotCalled(t, "AppendParticipant", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, pub.Types())
}

func TestValidateAndAdmit_UnregisteredStudent(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, "Midterm")
	require.NoError(t, err)

	_, err = f.svc.ValidateAndAdmit(ctx, "000000", room.RoomID)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeStudentInvalid, appErr.Code)
	assert.Equal(t, MsgStudentInvalid, appErr.Message)
	assert.Equal(t, 400, appErr.HTTPStatus)

	stored, err := f.rooms.GetByID(ctx, room.RoomID)
	require.NoError(t, err)
	assert.Empty(t, stored.Participants)
	assert.Equal(t, []domain.EventType{domain.EventRoomCreated}, f.publisher.Types())
}

func TestValidateAndAdmit_NoDeduplication(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, "Midterm")
	require.NoError(t, err)
	f.register(t, "247525", "CSE", "3", "")

	for i := 0; i < 2; i++ {
		p, err := f.svc.ValidateAndAdmit(ctx, "247525", room.RoomID)
		require.NoError(t, err)
		assert.Equal(t, "247525", p.RollNo)
	}

	stored, err := f.rooms.GetByID(ctx, room.RoomID)
	require.NoError(t, err)
	require.Len(t, stored.Participants, 2)
	assert.Equal(t, "247525", stored.Participants[0].RollNo)
	assert.Equal(t, "247525", stored.Participants[1].RollNo)

	assert.Equal(t, []domain.EventType{
		domain.EventRoomCreated,
		domain.EventParticipantJoined,
		domain.EventParticipantJoined,
	}, f.publisher.Types())
}

func TestValidateAndAdmit_DegreeStoreErrorIsInternal(t *testing.T) {
	rooms := memory.NewMemoryRoomRepository()
	ctx := context.Background()
	require.NoError(t, rooms.Create(ctx, domain.NewRoom("A3F9K", "Midterm", time.Now())))

	degrees := new(MockDegreeRepository)
	degrees.On("GetByRollNo", mock.Anything, "247525").Return(nil, errors.New("connection reset"))

	svc := NewRoomService(rooms, degrees, memory.NewMemoryStudentPhotoRepository(), nil, 0, nil, nil, testLogger)
	_, err := svc.ValidateAndAdmit(ctx, "247525", "A3F9K")

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeInternal, appErr.Code)
	assert.Equal(t, MsgInternal, appErr.Message)
}

func TestValidateAndAdmit_RoomDeletedBeforeAppend(t *testing.T) {
	repo := new(MockRoomRepository)
	repo.On("GetByID", mock.Anything, domain.RoomID("A3F9K")).Return(domain.NewRoom("A3F9K", "Midterm", time.Now()), nil)
	repo.On("AppendParticipant", mock.Anything, domain.RoomID("A3F9K"), mock.Anything).Return(nil, domain.ErrRoomNotFound)

	degrees := memory.NewMemoryDegreeRepository()
	require.NoError(t, degrees.Create(context.Background(), &domain.DegreeRecord{RollNo: "247525"}))

	svc := NewRoomService(repo, degrees, memory.NewMemoryStudentPhotoRepository(), nil, 0, nil, nil, testLogger)
	_, err := svc.ValidateAndAdmit(context.Background(), "247525", "A3F9K")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestDeleteRoom_IdempotentAndPublishes(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteRoom(ctx, "NEVER"))
	require.Equal(t, []domain.EventType{domain.EventRoomDeleted}, f.publisher.Types())

	var payload domain.RoomDeletedPayload
	require.NoError(t, json.Unmarshal(f.publisher.Last().Data, &payload))
	assert.Equal(t, domain.RoomID("NEVER"), payload.RoomID)
}

func TestDeleteRoom_StoreFailureNoEvent(t *testing.T) {
	repo := new(MockRoomRepository)
	repo.On("Delete", mock.Anything, domain.RoomID("A3F9K")).Return(errors.New("timeout"))
	pub := &recordingPublisher{}
	svc := NewRoomService(repo, nil, nil, nil, 0, pub, nil, testLogger)

	err := svc.DeleteRoom(context.Background(), "A3F9K")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePersistence))
	assert.Empty(t, pub.Types())
}

func TestCheckRoomAlive(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, "Midterm")
	require.NoError(t, err)

	assert.Equal(t, domain.RoomStatus{Alive: true}, f.svc.CheckRoomAlive(ctx, room.RoomID))

	closed := f.svc.CheckRoomAlive(ctx, "NEVER")
	assert.False(t, closed.Alive)
	assert.Equal(t, domain.ActionUnpinExit, closed.Action)
	assert.Equal(t, MsgRoomClosed, closed.Message)
}

func TestCheckRoomAlive_ErrorFailsClosed(t *testing.T) {
	repo := new(MockRoomRepository)
	repo.On("GetByID", mock.Anything, domain.RoomID("A3F9K")).Return(nil, errors.New("unreachable"))
	svc := NewRoomService(repo, nil, nil, nil, 0, nil, nil, testLogger)

	status := svc.CheckRoomAlive(context.Background(), "A3F9K")
	assert.False(t, status.Alive)
	assert.Equal(t, domain.ActionUnpinExit, status.Action)
	assert.Equal(t, MsgRoomCheckFailed, status.Message)
}

func TestRoomLifecycle_EndToEnd(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	f.register(t, "247525", "CSE", "3", "")

	room, err := f.svc.CreateRoom(ctx, "Midterm")
	require.NoError(t, err)

	_, err = f.svc.ValidateAndAdmit(ctx, "247525", room.RoomID)
	require.NoError(t, err)

	stored, err := f.rooms.GetByID(ctx, room.RoomID)
	require.NoError(t, err)
	require.Len(t, stored.Participants, 1)
	assert.Equal(t, "247525", stored.Participants[0].RollNo)
	assert.False(t, stored.Participants[0].JoinTime.IsZero())

	require.NoError(t, f.svc.DeleteRoom(ctx, room.RoomID))
	status := f.svc.CheckRoomAlive(ctx, room.RoomID)
	assert.False(t, status.Alive)
	assert.Equal(t, domain.ActionUnpinExit, status.Action)

	assert.Equal(t, []domain.EventType{
		domain.EventRoomCreated,
		domain.EventParticipantJoined,
		domain.EventRoomDeleted,
	}, f.publisher.Types())
}
