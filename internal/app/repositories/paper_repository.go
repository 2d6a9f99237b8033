package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/dberrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

const paperColumns = `p.id, p.course_id, p.exam_type, p.exam_year, p.semester, p.file_path,
	p.original_filename, p.file_size, p.status, p.page_count, p.question_count,
	p.extraction_id, p.error, p.uploaded_by, p.created_at, p.updated_at, c.code`

// PaperRepository handles paper database operations
type PaperRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPaperRepository creates a new PaperRepository
func NewPaperRepository(db *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new paper row and returns its ID
func (r *PaperRepository) Create(ctx context.Context, paper *models.Paper) (int64, error) {
	sql, args, err := r.sb.Insert("papers").
		Columns("course_id", "exam_type", "exam_year", "semester", "file_path",
			"original_filename", "file_size", "status", "uploaded_by").
		Values(paper.CourseID, paper.ExamType, paper.ExamYear, paper.Semester, paper.FilePath,
			paper.OriginalFilename, paper.FileSize, paper.Status, paper.UploadedBy).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create paper SQL")
		return 0, fmt.Errorf("failed to build create paper query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "papers_course_id_exam_type_exam_year_key") {
			return 0, apperrors.ErrPaperAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", paper.CourseID).Msg("Error executing create paper query")
		return 0, fmt.Errorf("error creating paper: %w", err)
	}

	return id, nil
}

// GetByID retrieves a paper by ID
func (r *PaperRepository) GetByID(ctx context.Context, id int64) (*models.Paper, error) {
	sql, args, err := r.paperSelect().
		Where(squirrel.Eq{"p.id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get paper query: %w", err)
	}

	paper, err := r.scanPaper(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaperNotFound
		}
		logger.Error().Err(err).Int64("paperID", id).Msg("Error scanning paper row")
		return nil, fmt.Errorf("error retrieving paper: %w", err)
	}

	return paper, nil
}

// List retrieves papers with optional filters and pagination, newest first.
// Supported filters: courseCode, status, examType, examYear.
func (r *PaperRepository) List(ctx context.Context, filters map[string]interface{}, page, pageSize int) ([]*models.Paper, int64, error) {
	conditions := squirrel.And{}

	if courseCode, ok := filters["courseCode"].(string); ok && courseCode != "" {
		conditions = append(conditions, squirrel.Eq{"c.code": courseCode})
	}
	if status, ok := filters["status"].(models.PaperStatus); ok && status != "" {
		conditions = append(conditions, squirrel.Eq{"p.status": status})
	}
	if examType, ok := filters["examType"].(models.ExamType); ok && examType != "" {
		conditions = append(conditions, squirrel.Eq{"p.exam_type": examType})
	}
	if examYear, ok := filters["examYear"].(int); ok && examYear > 0 {
		conditions = append(conditions, squirrel.Eq{"p.exam_year": examYear})
	}

	countBuilder := r.sb.Select("COUNT(*)").
		From("papers p").
		Join("courses c ON c.id = p.course_id")
	if len(conditions) > 0 {
		countBuilder = countBuilder.Where(conditions)
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count papers query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		logger.Error().Err(err).Msg("Error counting papers")
		return nil, 0, fmt.Errorf("error counting papers: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	queryBuilder := r.paperSelect().
		OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(limit)).
		Offset(offset)
	if len(conditions) > 0 {
		queryBuilder = queryBuilder.Where(conditions)
	}

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list papers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list papers query")
		return nil, 0, fmt.Errorf("error listing papers: %w", err)
	}
	defer rows.Close()

	papers := make([]*models.Paper, 0)
	for rows.Next() {
		paper, err := r.scanPaper(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning paper row: %w", err)
		}
		papers = append(papers, paper)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating paper rows: %w", err)
	}

	return papers, totalCount, nil
}

// UpdateStatus moves a paper through its extraction lifecycle
func (r *PaperRepository) UpdateStatus(ctx context.Context, id int64, status models.PaperStatus) error {
	sql, args, err := r.sb.Update("papers").
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build update paper status query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("paperID", id).Msg("Error executing update paper status query")
		return fmt.Errorf("error updating paper status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPaperNotFound
	}

	return nil
}

// MarkExtracted records a successful extraction run
func (r *PaperRepository) MarkExtracted(ctx context.Context, id int64, extractionID string, pageCount, questionCount int) error {
	sql, args, err := r.sb.Update("papers").
		Set("status", models.PaperStatusExtracted).
		Set("extraction_id", extractionID).
		Set("page_count", pageCount).
		Set("question_count", questionCount).
		Set("error", nil).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build mark extracted query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("paperID", id).Msg("Error executing mark extracted query")
		return fmt.Errorf("error marking paper extracted: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPaperNotFound
	}

	return nil
}

// MarkFailed records a terminal extraction failure
func (r *PaperRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	sql, args, err := r.sb.Update("papers").
		Set("status", models.PaperStatusFailed).
		Set("error", reason).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build mark failed query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("paperID", id).Msg("Error executing mark failed query")
		return fmt.Errorf("error marking paper failed: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPaperNotFound
	}

	return nil
}

// Count counts all papers
func (r *PaperRepository) Count(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("papers").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count papers query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting papers: %w", err)
	}

	return count, nil
}

func (r *PaperRepository) paperSelect() squirrel.SelectBuilder {
	return r.sb.Select(paperColumns).
		From("papers p").
		Join("courses c ON c.id = p.course_id")
}

func (r *PaperRepository) scanPaper(row pgx.Row) (*models.Paper, error) {
	paper := &models.Paper{}
	var extractionID, extractionErr sql.NullString

	err := row.Scan(
		&paper.ID, &paper.CourseID, &paper.ExamType, &paper.ExamYear, &paper.Semester,
		&paper.FilePath, &paper.OriginalFilename, &paper.FileSize, &paper.Status,
		&paper.PageCount, &paper.QuestionCount, &extractionID, &extractionErr,
		&paper.UploadedBy, &paper.CreatedAt, &paper.UpdatedAt, &paper.CourseCode,
	)
	if err != nil {
		return nil, err
	}

	paper.ExtractionID = helpers.NullStringPtr(extractionID)
	paper.Error = helpers.NullStringPtr(extractionErr)

	return paper, nil
}
