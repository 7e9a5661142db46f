package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
	apperrors "proctorhub/pkg/errors"
	"proctorhub/pkg/tracing"
	"proctorhub/pkg/utils"
	"proctorhub/pkg/validation"

	"go.uber.org/zap"
)

// maxCodeAttempts bounds how many room codes are drawn before giving up on
// a create that keeps colliding.
const maxCodeAttempts = 5

const (
	AdmissionAdmitted       = "admitted"
	AdmissionRoomNotFound   = "room_not_found"
	AdmissionStudentInvalid = "student_invalid"
	AdmissionError          = "error"
)

// User facing messages returned by the admission and liveness paths.
const (
	MsgRoomNotFound        = "Room not found."
	MsgStudentInvalid      = "Invalid roll number. Student validation failed."
	MsgInternal            = "Internal server error."
	MsgParticipantAdmitted = "Participant validated and added successfully."
	MsgRoomClosed          = "Room has been closed by examiner."
	MsgRoomCheckFailed     = "Server error, closing room visibility."
)

type roomService struct {
	rooms     ports.RoomRepository
	degrees   ports.DegreeRepository
	photos    ports.StudentPhotoRepository
	links     photoLinks
	publisher ports.EventPublisher
	metrics   ports.MetricsRecorder
	logger    *zap.SugaredLogger

	newCode func() string
}

// NewRoomService returns the room service. store signs the photo links of
// enriched participants; it may be nil, in which case stored URLs are
// returned as is.
func NewRoomService(
	rooms ports.RoomRepository,
	degrees ports.DegreeRepository,
	photos ports.StudentPhotoRepository,
	store ports.ObjectStore,
	linkTTL time.Duration,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.RoomService {
	if metrics == nil {
		metrics = ports.NopMetrics()
	}
	return &roomService{
		rooms:     rooms,
		degrees:   degrees,
		photos:    photos,
		links:     newPhotoLinks(store, linkTTL, logger),
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		newCode:   utils.GenerateRoomCode,
	}
}

func (s *roomService) CreateRoom(ctx context.Context, roomName string) (*domain.Room, error) {
	if err := validation.ValidateRoomName(roomName); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	roomName = strings.TrimSpace(roomName)

	ctx, span := tracing.TraceRoomOperation(ctx, "create", "")
	var err error
	defer func() { tracing.End(span, err) }()

	var room *domain.Room
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		room = domain.NewRoom(domain.RoomID(s.newCode()), roomName, utils.Now())
		err = s.rooms.Create(ctx, room)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrRoomExists) {
			s.logger.Errorw("failed to create room", "room_name", roomName, "error", err)
			return nil, apperrors.NewPersistenceError("failed to create room", err)
		}
		s.logger.Warnw("room code collision, drawing a new code", "room_id", room.RoomID, "attempt", attempt)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("could not allocate a free room code", err)
	}

	tracing.AddSpanAttributes(ctx, tracing.RoomIDKey.String(string(room.RoomID)))
	s.metrics.RecordRoomCreated()
	s.logger.Infow("room created", "room_id", room.RoomID, "room_name", room.RoomName)

	s.publish(ctx, domain.EventRoomCreated, domain.RoomCreatedPayload{
		Room:    room.Clone(),
		Message: domain.RoomCreatedMessage(room.RoomName),
	})

	return room, nil
}

func (s *roomService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		s.logger.Errorw("failed to list rooms", "error", err)
		return nil, apperrors.NewPersistenceError("failed to list rooms", err)
	}
	if rooms == nil {
		rooms = []*domain.Room{}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *roomService) GetRoomDetail(ctx context.Context, roomID domain.RoomID) (*domain.RoomDetail, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, apperrors.NewNotFoundError(MsgRoomNotFound).WithCause(err)
		}
		s.logger.Errorw("failed to fetch room", "room_id", roomID, "error", err)
		return nil, apperrors.NewPersistenceError("failed to fetch room", err)
	}

	enriched := make([]domain.EnrichedParticipant, len(room.Participants))
	var wg sync.WaitGroup
	for i, p := range room.Participants {
		wg.Add(1)
		go func(i int, p domain.Participant) {
			defer wg.Done()
			enriched[i] = s.enrich(ctx, p)
		}(i, p)
	}
	wg.Wait()

	return &domain.RoomDetail{Room: room, Participants: enriched}, nil
}

// enrich resolves registry and live photo data for p. Lookup failures leave
// the defaults in place.
func (s *roomService) enrich(ctx context.Context, p domain.Participant) domain.EnrichedParticipant {
	out := domain.EnrichedParticipant{
		RollNo:     p.RollNo,
		JoinTime:   p.JoinTime,
		Department: domain.NotAvailable,
		Year:       domain.NotAvailable,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rec, err := s.degrees.GetByRollNo(ctx, p.RollNo)
		if err != nil {
			if !errors.Is(err, domain.ErrStudentNotFound) {
				s.logger.Warnw("degree lookup failed", "roll_no", p.RollNo, "error", err)
			}
			return
		}
		if img := s.links.resolve(ctx, rec.PhotoKey, rec.PhotoURL); img != "" {
			out.DegreeImage = &img
		}
		if rec.Department != "" {
			out.Department = rec.Department
		}
		if rec.Year != "" {
			out.Year = rec.Year
		}
	}()
	go func() {
		defer wg.Done()
		photo, err := s.photos.GetByRollNumber(ctx, p.RollNo)
		if err != nil {
			if !errors.Is(err, domain.ErrPhotoNotFound) {
				s.logger.Warnw("live photo lookup failed", "roll_no", p.RollNo, "error", err)
			}
			return
		}
		if photo.Image == "" {
			photo.PhotoURL = s.links.resolve(ctx, photo.PhotoKey, photo.PhotoURL)
		}
		if img := photo.LiveImage(); img != "" {
			out.LiveImage = &img
		}
	}()
	wg.Wait()

	return out
}

func (s *roomService) ValidateAndAdmit(ctx context.Context, rollNumber string, roomID domain.RoomID) (*domain.Participant, error) {
	ctx, span := tracing.TraceRoomOperation(ctx, "admit", string(roomID))
	tracing.AddSpanAttributes(ctx, tracing.RollNumberKey.String(rollNumber))

	participant, outcome, err := s.admit(ctx, strings.TrimSpace(rollNumber), roomID)
	tracing.End(span, err)
	s.metrics.RecordAdmission(outcome)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("participant admitted", "room_id", roomID, "roll_no", participant.RollNo)
	s.publish(ctx, domain.EventParticipantJoined, domain.ParticipantJoinedPayload{
		RoomID:      roomID,
		Participant: *participant,
	})
	return participant, nil
}

func (s *roomService) admit(ctx context.Context, rollNumber string, roomID domain.RoomID) (*domain.Participant, string, error) {
	if rollNumber == "" || roomID == "" {
		return nil, AdmissionError, apperrors.NewInvalidInputError("rollno and roomId are required")
	}

	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, AdmissionRoomNotFound, apperrors.NewNotFoundError(MsgRoomNotFound).WithCause(err)
		}
		s.logger.Errorw("room lookup failed during admission", "room_id", roomID, "error", err)
		return nil, AdmissionError, apperrors.NewInternalError(MsgInternal).WithCause(err)
	}

	if _, err := s.degrees.GetByRollNo(ctx, rollNumber); err != nil {
		if errors.Is(err, domain.ErrStudentNotFound) {
			return nil, AdmissionStudentInvalid, apperrors.NewStudentInvalidError(MsgStudentInvalid).WithCause(err)
		}
		s.logger.Errorw("degree lookup failed during admission", "roll_no", rollNumber, "error", err)
		return nil, AdmissionError, apperrors.NewInternalError(MsgInternal).WithCause(err)
	}

	participant := domain.Participant{RollNo: rollNumber, JoinTime: utils.Now()}
	if _, err := s.rooms.AppendParticipant(ctx, roomID, participant); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, AdmissionRoomNotFound, apperrors.NewNotFoundError(MsgRoomNotFound).WithCause(err)
		}
		s.logger.Errorw("failed to append participant", "room_id", roomID, "roll_no", rollNumber, "error", err)
		return nil, AdmissionError, apperrors.NewInternalError(MsgInternal).WithCause(err)
	}

	return &participant, AdmissionAdmitted, nil
}

func (s *roomService) DeleteRoom(ctx context.Context, roomID domain.RoomID) error {
	ctx, span := tracing.TraceRoomOperation(ctx, "delete", string(roomID))
	err := s.rooms.Delete(ctx, roomID)
	tracing.End(span, err)
	if err != nil {
		s.logger.Errorw("failed to delete room", "room_id", roomID, "error", err)
		return apperrors.NewPersistenceError("failed to delete room", err)
	}

	s.metrics.RecordRoomDeleted()
	s.logger.Infow("room deleted", "room_id", roomID)
	s.publish(ctx, domain.EventRoomDeleted, domain.RoomDeletedPayload{RoomID: roomID})
	return nil
}

func (s *roomService) CheckRoomAlive(ctx context.Context, roomID domain.RoomID) domain.RoomStatus {
	_, err := s.rooms.GetByID(ctx, roomID)
	switch {
	case err == nil:
		return domain.RoomStatus{Alive: true}
	case errors.Is(err, domain.ErrRoomNotFound):
		return domain.RoomStatus{Action: domain.ActionUnpinExit, Message: MsgRoomClosed}
	default:
		s.logger.Warnw("room check failed, telling client to exit", "room_id", roomID, "error", err)
		return domain.RoomStatus{Action: domain.ActionUnpinExit, Message: MsgRoomCheckFailed}
	}
}

// publish emits a lifecycle event. Delivery failures are logged and do not
// fail the operation that caused them.
func (s *roomService) publish(ctx context.Context, t domain.EventType, payload any) {
	if s.publisher == nil {
		return
	}
	event, err := domain.NewEvent(t, payload, utils.Now())
	if err != nil {
		s.logger.Errorw("failed to build event", "event", t, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warnw("failed to publish event", "event", t, "error", err)
	}
}
