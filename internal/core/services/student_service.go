package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
	apperrors "proctorhub/pkg/errors"
	"proctorhub/pkg/utils"
	"proctorhub/pkg/validation"

	"go.uber.org/zap"
)

// Photos from both the registry and live capture share this folder.
const studentPhotoFolder = "student_photos"

const (
	MsgRollNumberExists = "Roll number already exists."
	MsgMissingPhoto     = "Missing fields or photo."
)

type studentService struct {
	degrees ports.DegreeRepository
	photos  ports.StudentPhotoRepository
	store   ports.ObjectStore
	links   photoLinks
	logger  *zap.SugaredLogger
}

// NewStudentService returns the registry and live capture service. Photo
// links it hands out are signed against store for linkTTL.
func NewStudentService(
	degrees ports.DegreeRepository,
	photos ports.StudentPhotoRepository,
	store ports.ObjectStore,
	linkTTL time.Duration,
	logger *zap.SugaredLogger,
) ports.StudentService {
	return &studentService{
		degrees: degrees,
		photos:  photos,
		store:   store,
		links:   newPhotoLinks(store, linkTTL, logger),
		logger:  logger,
	}
}

func (s *studentService) AddStudent(ctx context.Context, rollNo, department, year string, photo *domain.Upload) (*domain.DegreeRecord, error) {
	rollNo, department, year = strings.TrimSpace(rollNo), strings.TrimSpace(department), strings.TrimSpace(year)
	if rollNo == "" || department == "" || year == "" || photo == nil {
		return nil, apperrors.NewInvalidInputError("rollno, department, year and photo are required")
	}
	if err := validation.ValidateRollNumber(rollNo); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateContentType(photo.ContentType, validation.ImageContentTypes); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	switch _, err := s.degrees.GetByRollNo(ctx, rollNo); {
	case err == nil:
		return nil, apperrors.NewConflictError(MsgRollNumberExists)
	case !errors.Is(err, domain.ErrStudentNotFound):
		return nil, apperrors.NewPersistenceError("failed to check roll number", err)
	}

	key, location, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}

	rec := &domain.DegreeRecord{
		RollNo:     rollNo,
		StudentID:  utils.GenerateUUID(),
		Department: department,
		Year:       year,
		PhotoURL:   location,
		PhotoKey:   key,
		CreatedAt:  utils.Now(),
	}
	if err := s.degrees.Create(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrStudentExists) {
			return nil, apperrors.NewConflictError(MsgRollNumberExists)
		}
		s.logger.Errorw("failed to save degree record", "roll_no", rollNo, "error", err)
		return nil, apperrors.NewPersistenceError("failed to save student", err)
	}

	s.logger.Infow("student registered", "roll_no", rollNo, "student_id", rec.StudentID)
	out := *rec
	out.PhotoURL = s.links.resolve(ctx, key, location)
	return &out, nil
}

func (s *studentService) ListStudents(ctx context.Context) ([]*domain.DegreeRecord, error) {
	recs, err := s.degrees.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list students", err)
	}
	if recs == nil {
		recs = []*domain.DegreeRecord{}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RollNo < recs[j].RollNo })
	for i, rec := range recs {
		if rec.PhotoKey == "" {
			continue
		}
		signed := *rec
		signed.PhotoURL = s.links.resolve(ctx, rec.PhotoKey, rec.PhotoURL)
		recs[i] = &signed
	}
	return recs, nil
}

func (s *studentService) DeleteStudent(ctx context.Context, rollNo string) error {
	if strings.TrimSpace(rollNo) == "" {
		return apperrors.NewInvalidInputError("roll number is required")
	}
	if err := s.degrees.Delete(ctx, rollNo); err != nil {
		s.logger.Errorw("failed to delete student", "roll_no", rollNo, "error", err)
		return apperrors.NewPersistenceError("failed to delete student", err)
	}
	s.logger.Infow("student deleted", "roll_no", rollNo)
	return nil
}

func (s *studentService) SubmitPhoto(ctx context.Context, rollNumber string, roomID domain.RoomID, photo *domain.Upload) (string, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if rollNumber == "" || strings.TrimSpace(string(roomID)) == "" || photo == nil {
		return "", apperrors.NewInvalidInputError(MsgMissingPhoto)
	}
	if err := validation.ValidateContentType(photo.ContentType, validation.ImageContentTypes); err != nil {
		return "", apperrors.NewInvalidInputError(err.Error())
	}

	key, location, err := s.upload(ctx, photo)
	if err != nil {
		return "", err
	}

	rec := &domain.StudentPhoto{
		RollNumber: rollNumber,
		RoomID:     roomID,
		PhotoURL:   location,
		PhotoKey:   key,
		CreatedAt:  utils.Now(),
	}
	if err := s.photos.Put(ctx, rec); err != nil {
		s.logger.Errorw("failed to save student photo", "roll_no", rollNumber, "room_id", roomID, "error", err)
		return "", apperrors.NewPersistenceError("failed to save photo", err)
	}

	s.logger.Infow("live photo captured", "roll_no", rollNumber, "room_id", roomID)
	return s.links.resolve(ctx, key, location), nil
}

func (s *studentService) upload(ctx context.Context, photo *domain.Upload) (key, location string, err error) {
	key = utils.ObjectKey(studentPhotoFolder, validation.SanitizeFilename(photo.Filename), utils.Now())
	location, err = s.store.Upload(ctx, key, photo.Body, photo.Size, photo.ContentType)
	if err != nil {
		s.logger.Errorw("photo upload failed", "key", key, "error", err)
		return "", "", apperrors.NewStorageError("failed to upload photo", err)
	}
	return key, location, nil
}
