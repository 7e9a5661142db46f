package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
	"proctorhub/pkg/cache"
	apperrors "proctorhub/pkg/errors"
	"proctorhub/pkg/utils"
	"proctorhub/pkg/validation"

	"go.uber.org/zap"
)

const (
	MsgQPCodeRequired = "QP Code is required"
	MsgPaperNotFound  = "Paper not found"
)

type paperService struct {
	papers ports.PaperRepository
	store  ports.ObjectStore
	ttl    time.Duration
	urls   *cache.Cache[string]
	logger *zap.SugaredLogger
}

// NewPaperService returns the paper service. Signed URLs are valid for ttl
// and reused for half of it. The returned func stops the URL cache.
func NewPaperService(
	papers ports.PaperRepository,
	store ports.ObjectStore,
	ttl time.Duration,
	logger *zap.SugaredLogger,
) (ports.PaperService, func()) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &paperService{
		papers: papers,
		store:  store,
		ttl:    ttl,
		urls:   cache.New[string](ttl / 2),
		logger: logger,
	}
	return s, s.urls.Stop
}

func (s *paperService) UploadPaper(ctx context.Context, department, year, subject, qpCode string, file *domain.Upload) (*domain.Paper, error) {
	department, year = strings.TrimSpace(department), strings.TrimSpace(year)
	subject, qpCode = strings.TrimSpace(subject), strings.TrimSpace(qpCode)
	if department == "" || year == "" || subject == "" || qpCode == "" || file == nil {
		return nil, apperrors.NewInvalidInputError("department, year, subject, qpCode and file are required")
	}
	if err := validation.ValidateQPCode(qpCode); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateContentType(file.ContentType, validation.PaperContentTypes); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	now := utils.Now()
	key := utils.ObjectKey("", validation.SanitizeFilename(file.Filename), now)
	if _, err := s.store.Upload(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		s.logger.Errorw("paper upload failed", "key", key, "error", err)
		return nil, apperrors.NewStorageError("failed to upload paper", err)
	}

	url, err := s.store.SignedURL(ctx, key, s.ttl)
	if err != nil {
		s.logger.Errorw("failed to sign paper url", "key", key, "error", err)
		return nil, apperrors.NewStorageError("failed to sign paper url", err)
	}

	paper := &domain.Paper{
		PaperID:    utils.GenerateUUID(),
		Department: department,
		Year:       year,
		Subject:    subject,
		QPCode:     qpCode,
		FileKey:    key,
		FileURL:    url,
		UploadedAt: now,
	}
	if err := s.papers.Put(ctx, paper); err != nil {
		s.logger.Errorw("failed to save paper", "paper_id", paper.PaperID, "error", err)
		return nil, apperrors.NewPersistenceError("failed to save paper", err)
	}

	s.logger.Infow("paper uploaded", "paper_id", paper.PaperID, "qp_code", qpCode, "key", key)
	return paper, nil
}

func (s *paperService) ListPapers(ctx context.Context) ([]*domain.Paper, error) {
	papers, err := s.papers.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list papers", err)
	}
	if papers == nil {
		papers = []*domain.Paper{}
	}
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].UploadedAt.After(papers[j].UploadedAt)
	})
	return papers, nil
}

func (s *paperService) DeletePaper(ctx context.Context, paperID string) error {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, domain.ErrPaperNotFound) {
			return nil
		}
		return apperrors.NewPersistenceError("failed to fetch paper", err)
	}

	if err := s.papers.Delete(ctx, paperID); err != nil {
		s.logger.Errorw("failed to delete paper", "paper_id", paperID, "error", err)
		return apperrors.NewPersistenceError("failed to delete paper", err)
	}
	s.urls.Invalidate(paper.QPCode + "\x00")

	if paper.FileKey != "" {
		if err := s.store.Delete(ctx, paper.FileKey); err != nil {
			s.logger.Warnw("paper object left behind", "paper_id", paperID, "key", paper.FileKey, "error", err)
		}
	}

	s.logger.Infow("paper deleted", "paper_id", paperID)
	return nil
}

func (s *paperService) GetPaperURL(ctx context.Context, qpCode string) (string, error) {
	qpCode = strings.TrimSpace(qpCode)
	if qpCode == "" {
		return "", apperrors.NewInvalidInputError(MsgQPCodeRequired)
	}

	papers, err := s.papers.FindByQPCode(ctx, qpCode)
	if err != nil {
		s.logger.Errorw("paper lookup failed", "qp_code", qpCode, "error", err)
		return "", apperrors.NewPersistenceError("failed to look up paper", err)
	}
	if len(papers) == 0 {
		return "", apperrors.NewNotFoundError(MsgPaperNotFound).WithCause(domain.ErrPaperNotFound)
	}

	// Several papers may share a code; the latest upload wins.
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].UploadedAt.After(papers[j].UploadedAt)
	})
	paper := papers[0]
	return s.urls.GetOrSet(ctx, qpCode+"\x00"+paper.FileKey, s.ttl/2, func(ctx context.Context) (string, error) {
		url, err := s.store.SignedURL(ctx, paper.FileKey, s.ttl)
		if err != nil {
			return "", apperrors.NewStorageError("failed to sign paper url", err)
		}
		return url, nil
	})
}
