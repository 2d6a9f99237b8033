package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
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

// questionColumns is the joined projection every question read uses: the
// course code and unit number ride along so responses never need a second
// round trip.
const questionColumns = `q.id, q.course_id, q.unit_id, q.paper_id, q.text, q.marks, q.bloom_level,
	q.exam_type, q.exam_year, q.review_status, q.ocr_confidence,
	q.variant_group_id, q.variant_count, q.is_deleted, q.created_at, q.updated_at,
	c.code, u.unit_number`

// QuestionRepository handles question database operations
type QuestionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewQuestionRepository creates a new QuestionRepository
func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new question and returns its ID
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) (int64, error) {
	sql, args, err := r.sb.Insert("questions").
		Columns("course_id", "unit_id", "paper_id", "text", "marks", "bloom_level",
			"exam_type", "exam_year", "review_status", "ocr_confidence",
			"variant_group_id", "variant_count").
		Values(question.CourseID,
			helpers.GetNullInt64Ptr(question.UnitID),
			helpers.GetNullInt64Ptr(question.PaperID),
			question.Text, question.Marks, question.BloomLevel,
			question.ExamType, question.ExamYear, question.ReviewStatus, question.OCRConfidence,
			helpers.GetNullInt64Ptr(question.VariantGroupID),
			question.VariantCount).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create question SQL")
		return 0, fmt.Errorf("failed to build create question query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", question.CourseID).Msg("Error executing create question query")
		return 0, fmt.Errorf("error creating question: %w", err)
	}

	return id, nil
}

// GetByID retrieves a live question by ID
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	sql, args, err := r.questionSelect().
		Where(squirrel.Eq{"q.id": id, "q.is_deleted": false}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get question query: %w", err)
	}

	question, err := scanQuestion(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuestionNotFound
		}
		logger.Error().Err(err).Int64("questionID", id).Msg("Error scanning question row")
		return nil, fmt.Errorf("error retrieving question: %w", err)
	}

	return question, nil
}

// Update modifies the editable fields of a question
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	sql, args, err := r.sb.Update("questions").
		Set("unit_id", helpers.GetNullInt64Ptr(question.UnitID)).
		Set("text", question.Text).
		Set("marks", question.Marks).
		Set("bloom_level", question.BloomLevel).
		Set("exam_type", question.ExamType).
		Set("exam_year", question.ExamYear).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": question.ID, "is_deleted": false}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build update question query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("questionID", question.ID).Msg("Error executing update question query")
		return fmt.Errorf("error updating question: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrQuestionNotFound
	}

	return nil
}

// SoftDelete hides a question from every read path
func (r *QuestionRepository) SoftDelete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("questions").
		Set("is_deleted", true).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "is_deleted": false}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build soft delete question query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("questionID", id).Msg("Error executing soft delete question query")
		return fmt.Errorf("error deleting question: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrQuestionNotFound
	}

	return nil
}

// Search retrieves APPROVED questions matching the filter, newest first.
// The sort is stable across pages (created_at, then id) so paginated
// clients never see duplicates between pages.
func (r *QuestionRepository) Search(ctx context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error) {
	conditions := searchConditions(filter)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("questions q").
		Join("courses c ON c.id = q.course_id").
		LeftJoin("units u ON u.id = q.unit_id").
		Where(conditions).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count questions query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		logger.Error().Err(err).Msg("Error counting questions")
		return nil, 0, fmt.Errorf("error counting questions: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	sql, args, err := r.questionSelect().
		Where(conditions).
		OrderBy("q.created_at DESC", "q.id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build search questions query: %w", err)
	}

	questions, err := r.queryQuestions(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}

	return questions, totalCount, nil
}

// ListPending retrieves the review queue oldest first
func (r *QuestionRepository) ListPending(ctx context.Context, page, pageSize int) ([]*models.Question, int64, error) {
	conditions := squirrel.Eq{"q.is_deleted": false, "q.review_status": models.ReviewStatusPending}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("questions q").
		Where(conditions).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count pending questions query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		logger.Error().Err(err).Msg("Error counting pending questions")
		return nil, 0, fmt.Errorf("error counting pending questions: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	sql, args, err := r.questionSelect().
		Where(conditions).
		OrderBy("q.created_at ASC", "q.id ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list pending questions query: %w", err)
	}

	questions, err := r.queryQuestions(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}

	return questions, totalCount, nil
}

// UpdateReviewStatus transitions a PENDING question to the given status.
// Non-pending questions do not transition.
func (r *QuestionRepository) UpdateReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) error {
	sql, args, err := r.sb.Update("questions").
		Set("review_status", status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "review_status": models.ReviewStatusPending, "is_deleted": false}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build review transition query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("questionID", id).Msg("Error executing review transition query")
		return fmt.Errorf("error updating review status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Zero rows means either the question is gone or it already left
		// PENDING; a second read tells the two apart.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrQuestionNotPending
	}

	return nil
}

// Random uniformly samples up to count APPROVED questions matching the
// filter, with at most one question per variant group.
func (r *QuestionRepository) Random(ctx context.Context, filter models.QuestionFilter, count int) ([]*models.Question, error) {
	// One random member per variant group first, then a random draw over
	// the groups. Placeholders are numbered once on the outer builder.
	inner := squirrel.Select(questionColumns).
		Options("DISTINCT ON (COALESCE(q.variant_group_id, q.id))").
		From("questions q").
		Join("courses c ON c.id = q.course_id").
		LeftJoin("units u ON u.id = q.unit_id").
		Where(searchConditions(filter)).
		OrderBy("COALESCE(q.variant_group_id, q.id)", "RANDOM()")

	sql, args, err := squirrel.Select("*").
		FromSelect(inner, "picks").
		OrderBy("RANDOM()").
		Limit(uint64(count)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build random questions query: %w", err)
	}

	return r.queryQuestions(ctx, sql, args...)
}

// ListVariantCandidates retrieves the live PENDING/APPROVED questions of a
// course for similarity matching. excludeID skips the question being matched.
func (r *QuestionRepository) ListVariantCandidates(ctx context.Context, courseID, excludeID int64) ([]models.VariantCandidate, error) {
	builder := r.sb.Select("id", "text", "variant_group_id").
		From("questions").
		Where(squirrel.Eq{
			"course_id":     courseID,
			"is_deleted":    false,
			"review_status": []models.ReviewStatus{models.ReviewStatusPending, models.ReviewStatusApproved},
		})
	if excludeID > 0 {
		builder = builder.Where(squirrel.NotEq{"id": excludeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build variant candidates query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing variant candidates query")
		return nil, fmt.Errorf("error listing variant candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.VariantCandidate, 0)
	for rows.Next() {
		var candidate models.VariantCandidate
		var groupID sql.NullInt64
		if err := rows.Scan(&candidate.ID, &candidate.Text, &groupID); err != nil {
			return nil, fmt.Errorf("error scanning variant candidate row: %w", err)
		}
		candidate.VariantGroupID = helpers.NullInt64Ptr(groupID)
		candidates = append(candidates, candidate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant candidate rows: %w", err)
	}

	return candidates, nil
}

// AssignVariantGroup places a question into an existing variant group
func (r *QuestionRepository) AssignVariantGroup(ctx context.Context, questionID, groupID int64) error {
	sql, args, err := r.sb.Update("questions").
		Set("variant_group_id", groupID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": questionID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build assign variant group query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("questionID", questionID).Int64("groupID", groupID).Msg("Error assigning variant group")
		return fmt.Errorf("error assigning variant group: %w", err)
	}

	return nil
}

// InitVariantGroup makes a question the sole member of its own group
func (r *QuestionRepository) InitVariantGroup(ctx context.Context, questionID int64) error {
	sql, args, err := r.sb.Update("questions").
		Set("variant_group_id", squirrel.Expr("id")).
		Set("variant_count", 1).
		Where(squirrel.Eq{"id": questionID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build init variant group query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("questionID", questionID).Msg("Error initializing variant group")
		return fmt.Errorf("error initializing variant group: %w", err)
	}

	return nil
}

// DetachFromVariantGroup moves a question back into a singleton group.
// Used when review rejects a question that had joined a group.
func (r *QuestionRepository) DetachFromVariantGroup(ctx context.Context, questionID int64) error {
	return r.InitVariantGroup(ctx, questionID)
}

// RefreshVariantCount recomputes the denormalized member count for every
// live question in a group.
func (r *QuestionRepository) RefreshVariantCount(ctx context.Context, groupID int64) error {
	query := `
		UPDATE questions SET variant_count = sub.cnt
		FROM (
			SELECT COUNT(*) AS cnt FROM questions
			WHERE variant_group_id = $1 AND is_deleted = false
		) sub
		WHERE variant_group_id = $1`

	if _, err := r.db.Exec(ctx, query, groupID); err != nil {
		logger.Error().Err(err).Int64("groupID", groupID).Msg("Error refreshing variant count")
		return fmt.Errorf("error refreshing variant count: %w", err)
	}

	return nil
}

// DeleteDraftsByPaper hard-deletes the PENDING questions a previous pipeline
// run derived from a paper, so re-ingesting replaces drafts instead of
// accumulating duplicates. Returns the variant groups the drafts belonged to
// so the caller can refresh their member counts.
func (r *QuestionRepository) DeleteDraftsByPaper(ctx context.Context, paperID int64) ([]int64, error) {
	query := `
		DELETE FROM questions
		WHERE paper_id = $1 AND review_status = 'PENDING'
		RETURNING COALESCE(variant_group_id, 0)`

	rows, err := r.db.Query(ctx, query, paperID)
	if err != nil {
		logger.Error().Err(err).Int64("paperID", paperID).Msg("Error deleting draft questions")
		return nil, fmt.Errorf("error deleting draft questions: %w", err)
	}
	defer rows.Close()

	seen := make(map[int64]struct{})
	groups := make([]int64, 0)
	for rows.Next() {
		var groupID int64
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("error scanning deleted draft group: %w", err)
		}
		if groupID == 0 {
			continue
		}
		if _, ok := seen[groupID]; ok {
			continue
		}
		seen[groupID] = struct{}{}
		groups = append(groups, groupID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deleted draft rows: %w", err)
	}

	return groups, nil
}

// CountLive counts all non-deleted questions
func (r *QuestionRepository) CountLive(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("questions").
		Where(squirrel.Eq{"is_deleted": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count questions query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting questions: %w", err)
	}

	return count, nil
}

// CountByCourse groups live question counts by course code
func (r *QuestionRepository) CountByCourse(ctx context.Context) ([]models.StatBucket, error) {
	sql, args, err := r.sb.Select("c.code", "COUNT(*)").
		From("questions q").
		Join("courses c ON c.id = q.course_id").
		Where(squirrel.Eq{"q.is_deleted": false}).
		GroupBy("c.code").
		OrderBy("COUNT(*) DESC", "c.code ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by course query: %w", err)
	}

	return r.queryBuckets(ctx, sql, args...)
}

// CountByBloomLevel groups live question counts by Bloom level
func (r *QuestionRepository) CountByBloomLevel(ctx context.Context) ([]models.StatBucket, error) {
	sql, args, err := r.sb.Select("bloom_level", "COUNT(*)").
		From("questions").
		Where(squirrel.Eq{"is_deleted": false}).
		GroupBy("bloom_level").
		OrderBy("bloom_level ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by bloom level query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing count by bloom level query")
		return nil, fmt.Errorf("error counting by bloom level: %w", err)
	}
	defer rows.Close()

	buckets := make([]models.StatBucket, 0)
	for rows.Next() {
		var level int
		var count int64
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("error scanning bloom level bucket: %w", err)
		}
		buckets = append(buckets, models.StatBucket{Key: strconv.Itoa(level), Count: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bloom level buckets: %w", err)
	}

	return buckets, nil
}

// CountByReviewStatus groups live question counts by review status
func (r *QuestionRepository) CountByReviewStatus(ctx context.Context) ([]models.StatBucket, error) {
	sql, args, err := r.sb.Select("review_status", "COUNT(*)").
		From("questions").
		Where(squirrel.Eq{"is_deleted": false}).
		GroupBy("review_status").
		OrderBy("review_status ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by review status query: %w", err)
	}

	return r.queryBuckets(ctx, sql, args...)
}

func (r *QuestionRepository) queryBuckets(ctx context.Context, sql string, args ...interface{}) ([]models.StatBucket, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing stats query")
		return nil, fmt.Errorf("error querying stats: %w", err)
	}
	defer rows.Close()

	buckets := make([]models.StatBucket, 0)
	for rows.Next() {
		var bucket models.StatBucket
		if err := rows.Scan(&bucket.Key, &bucket.Count); err != nil {
			return nil, fmt.Errorf("error scanning stats bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats buckets: %w", err)
	}

	return buckets, nil
}

func (r *QuestionRepository) questionSelect() squirrel.SelectBuilder {
	return r.sb.Select(questionColumns).
		From("questions q").
		Join("courses c ON c.id = q.course_id").
		LeftJoin("units u ON u.id = q.unit_id")
}

// searchConditions translates a filter into WHERE conditions. Search paths
// only ever see live APPROVED questions.
func searchConditions(filter models.QuestionFilter) squirrel.And {
	conditions := squirrel.And{
		squirrel.Eq{"q.is_deleted": false},
		squirrel.Eq{"q.review_status": models.ReviewStatusApproved},
	}

	if filter.Query != "" {
		conditions = append(conditions, squirrel.ILike{"q.text": "%" + filter.Query + "%"})
	}
	if filter.CourseCode != "" {
		conditions = append(conditions, squirrel.Eq{"c.code": filter.CourseCode})
	}
	if len(filter.CourseIDs) > 0 {
		conditions = append(conditions, squirrel.Eq{"q.course_id": filter.CourseIDs})
	}
	if filter.UnitNumber > 0 {
		conditions = append(conditions, squirrel.Eq{"u.unit_number": filter.UnitNumber})
	}
	if filter.BloomLevel > 0 {
		conditions = append(conditions, squirrel.Eq{"q.bloom_level": filter.BloomLevel})
	}
	if filter.Marks > 0 {
		conditions = append(conditions, squirrel.Eq{"q.marks": filter.Marks})
	}
	if filter.ExamType != "" {
		conditions = append(conditions, squirrel.Eq{"q.exam_type": filter.ExamType})
	}
	if filter.ExamYear > 0 {
		conditions = append(conditions, squirrel.Eq{"q.exam_year": filter.ExamYear})
	}

	return conditions
}

func (r *QuestionRepository) queryQuestions(ctx context.Context, sql string, args ...interface{}) ([]*models.Question, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing questions query")
		return nil, fmt.Errorf("error querying questions: %w", err)
	}
	defer rows.Close()

	questions := make([]*models.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning question row: %w", err)
		}
		questions = append(questions, question)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}

	return questions, nil
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	question := &models.Question{}
	var unitID, paperID, variantGroupID, unitNumber sql.NullInt64

	err := row.Scan(
		&question.ID, &question.CourseID, &unitID, &paperID, &question.Text,
		&question.Marks, &question.BloomLevel, &question.ExamType, &question.ExamYear,
		&question.ReviewStatus, &question.OCRConfidence, &variantGroupID,
		&question.VariantCount, &question.IsDeleted, &question.CreatedAt, &question.UpdatedAt,
		&question.CourseCode, &unitNumber,
	)
	if err != nil {
		return nil, err
	}

	question.UnitID = helpers.NullInt64Ptr(unitID)
	question.PaperID = helpers.NullInt64Ptr(paperID)
	question.VariantGroupID = helpers.NullInt64Ptr(variantGroupID)
	if unitNumber.Valid {
		n := int(unitNumber.Int64)
		question.UnitNumber = &n
	}

	return question, nil
}
