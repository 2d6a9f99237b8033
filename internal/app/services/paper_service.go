package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/filestorage"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// PaperService defines the interface for paper upload and tracking.
type PaperService interface {
	Upload(ctx context.Context, userID int64, req *dto.UploadPaperRequest, file *multipart.FileHeader) (*dto.UploadPaperResponse, error)
	List(ctx context.Context, filters map[string]interface{}, page, pageSize int) (*dto.PaperListResponse, error)
	GetDetail(ctx context.Context, id int64) (*dto.PaperDetailResponse, error)
}

// paperServiceImpl implements PaperService
type paperServiceImpl struct {
	paperRepo      paperStore
	courseRepo     courseStore
	jobRepo        ingestQueue
	extractionRepo extractionStore
	storage        filestorage.FileStorage
	maxUploadBytes int64
	jobMaxAttempts int
	logger         zerolog.Logger
}

// NewPaperService creates a new PaperService
func NewPaperService(
	repos *repositories.Repositories,
	storage filestorage.FileStorage,
	maxUploadBytes int64,
	jobMaxAttempts int,
) PaperService {
	return &paperServiceImpl{
		paperRepo:      repos.PaperRepository,
		courseRepo:     repos.CourseRepository,
		jobRepo:        repos.IngestJobRepository,
		extractionRepo: repos.ExtractionRepository,
		storage:        storage,
		maxUploadBytes: maxUploadBytes,
		jobMaxAttempts: jobMaxAttempts,
		logger:         logger.WithComponent("paper_service"),
	}
}

// Upload validates and stores a question paper PDF, records it and queues
// an ingest job. The file is written before the row so a failed insert can
// clean up after itself instead of leaving an orphan row.
func (s *paperServiceImpl) Upload(ctx context.Context, userID int64, req *dto.UploadPaperRequest, file *multipart.FileHeader) (*dto.UploadPaperResponse, error) {
	if err := s.validateUpload(file); err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(req.CourseCode)))
	if err != nil {
		return nil, err
	}

	storedPath, err := s.storage.SaveFile(file, "papers")
	if err != nil {
		return nil, fmt.Errorf("error storing paper file: %w", err)
	}

	paper := &models.Paper{
		CourseID:         course.ID,
		ExamType:         models.ExamType(req.ExamType),
		ExamYear:         req.ExamYear,
		Semester:         req.Semester,
		FilePath:         storedPath,
		OriginalFilename: file.Filename,
		FileSize:         file.Size,
		Status:           models.PaperStatusUploaded,
		UploadedBy:       userID,
	}

	paperID, err := s.paperRepo.Create(ctx, paper)
	if err != nil {
		if delErr := s.storage.DeleteFile(storedPath); delErr != nil {
			s.logger.Error().Err(delErr).Str("path", storedPath).Msg("Failed to remove stored file after insert failure")
		}
		return nil, err
	}

	job, err := s.jobRepo.Enqueue(ctx, paperID, s.jobMaxAttempts)
	if err != nil {
		if markErr := s.paperRepo.MarkFailed(ctx, paperID, "failed to enqueue ingest job"); markErr != nil {
			s.logger.Error().Err(markErr).Int64("paperID", paperID).Msg("Failed to mark paper failed")
		}
		return nil, fmt.Errorf("error queueing ingest job: %w", err)
	}

	s.logger.Info().
		Int64("paperID", paperID).
		Str("jobID", job.ID.String()).
		Str("course", course.Code).
		Str("filename", file.Filename).
		Msg("Paper uploaded")

	return &dto.UploadPaperResponse{
		PaperID: paperID,
		JobID:   job.ID.String(),
		Status:  string(models.PaperStatusUploaded),
	}, nil
}

// List returns papers matching the filters, newest first.
func (s *paperServiceImpl) List(ctx context.Context, filters map[string]interface{}, page, pageSize int) (*dto.PaperListResponse, error) {
	papers, total, err := s.paperRepo.List(ctx, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing papers: %w", err)
	}

	out := make([]dto.PaperResponse, 0, len(papers))
	for _, paper := range papers {
		out = append(out, dto.FromPaper(paper))
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	return &dto.PaperListResponse{
		Papers: out,
		Pagination: dto.PaginationInfo{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  total,
			TotalPages:  int(totalPages),
		},
	}, nil
}

// GetDetail returns one paper with a summary of its extraction document
// when extraction has completed.
func (s *paperServiceImpl) GetDetail(ctx context.Context, id int64) (*dto.PaperDetailResponse, error) {
	paper, err := s.paperRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.PaperDetailResponse{Paper: dto.FromPaper(paper)}

	if paper.ExtractionID != nil {
		extraction, err := s.extractionRepo.GetByID(ctx, *paper.ExtractionID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, fmt.Errorf("error loading extraction: %w", err)
			}
			s.logger.Warn().Int64("paperID", id).Str("extractionID", *paper.ExtractionID).Msg("Extraction document missing")
		} else {
			resp.Extraction = summarizeExtraction(extraction)
		}
	}

	return resp, nil
}

// validateUpload enforces the PDF content type and the size limit.
func (s *paperServiceImpl) validateUpload(file *multipart.FileHeader) error {
	if file == nil || file.Size == 0 {
		return fmt.Errorf("%w: file is required", apperrors.ErrValidationFailed)
	}

	if s.maxUploadBytes > 0 && file.Size > s.maxUploadBytes {
		return apperrors.ErrExtractionTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if contentType != "application/pdf" && contentType != "application/x-pdf" && ext != ".pdf" {
		return apperrors.ErrUnsupportedFile
	}

	return nil
}

// summarizeExtraction condenses the raw Mongo document for the admin view.
func summarizeExtraction(extraction *models.Extraction) *dto.ExtractionSummary {
	blocks := 0
	for _, page := range extraction.Pages {
		blocks += len(page.Blocks)
	}

	return &dto.ExtractionSummary{
		Extractor:      extraction.Extractor,
		Pages:          len(extraction.Pages),
		Blocks:         blocks,
		DroppedBlocks:  extraction.DroppedBlocks,
		MeanConfidence: extraction.MeanConfidence,
	}
}
