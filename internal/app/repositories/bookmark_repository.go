package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/dberrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// BookmarkRepository handles bookmark database operations
type BookmarkRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBookmarkRepository creates a new BookmarkRepository
func NewBookmarkRepository(db *pgxpool.Pool) *BookmarkRepository {
	return &BookmarkRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Exists reports whether the user has bookmarked the question
func (r *BookmarkRepository) Exists(ctx context.Context, userID, questionID int64) (bool, error) {
	inner := r.sb.Select("1").
		From("bookmarks").
		Where(squirrel.Eq{"user_id": userID, "question_id": questionID})

	sql, args, err := inner.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build bookmark exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Int64("questionID", questionID).Msg("Error checking bookmark existence")
		return false, fmt.Errorf("error checking bookmark existence: %w", err)
	}

	return exists, nil
}

// Insert adds a bookmark. A concurrent duplicate insert is not an error;
// the toggle endpoint lands on the same final state either way.
func (r *BookmarkRepository) Insert(ctx context.Context, userID, questionID int64) error {
	sql, args, err := r.sb.Insert("bookmarks").
		Columns("user_id", "question_id").
		Values(userID, questionID).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build insert bookmark query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "bookmarks_user_id_question_id_key") {
			return nil
		}
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrQuestionNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Int64("questionID", questionID).Msg("Error inserting bookmark")
		return fmt.Errorf("error inserting bookmark: %w", err)
	}

	return nil
}

// Delete removes a bookmark
func (r *BookmarkRepository) Delete(ctx context.Context, userID, questionID int64) error {
	sql, args, err := r.sb.Delete("bookmarks").
		Where(squirrel.Eq{"user_id": userID, "question_id": questionID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build delete bookmark query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Int64("questionID", questionID).Msg("Error deleting bookmark")
		return fmt.Errorf("error deleting bookmark: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrBookmarkNotFound
	}

	return nil
}

// CountByUser counts a user's bookmarks on live questions
func (r *BookmarkRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("bookmarks b").
		Join("questions q ON q.id = b.question_id").
		Where(squirrel.Eq{"b.user_id": userID, "q.is_deleted": false}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("failed to build count bookmarks query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error counting bookmarks")
		return 0, fmt.Errorf("error counting bookmarks: %w", err)
	}

	return count, nil
}

// ListQuestionsByUser retrieves the user's bookmarked questions, most
// recently bookmarked first. Soft-deleted questions drop out of the list.
func (r *BookmarkRepository) ListQuestionsByUser(ctx context.Context, userID int64, page, pageSize int) ([]*models.Question, int64, error) {
	totalCount, err := r.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	sql, args, err := r.sb.Select(questionColumns).
		From("bookmarks b").
		Join("questions q ON q.id = b.question_id").
		Join("courses c ON c.id = q.course_id").
		LeftJoin("units u ON u.id = q.unit_id").
		Where(squirrel.Eq{"b.user_id": userID, "q.is_deleted": false}).
		OrderBy("b.created_at DESC", "b.id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()

	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list bookmarks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing list bookmarks query")
		return nil, 0, fmt.Errorf("error listing bookmarks: %w", err)
	}
	defer rows.Close()

	questions := make([]*models.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning bookmarked question: %w", err)
		}
		questions = append(questions, question)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating bookmark rows: %w", err)
	}

	return questions, totalCount, nil
}

// BookmarkedSet reports which of the given question IDs the user has
// bookmarked. Search responses use it to decorate results.
func (r *BookmarkRepository) BookmarkedSet(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error) {
	bookmarked := make(map[int64]bool, len(questionIDs))
	if len(questionIDs) == 0 {
		return bookmarked, nil
	}

	sql, args, err := r.sb.Select("question_id").
		From("bookmarks").
		Where(squirrel.Eq{"user_id": userID, "question_id": questionIDs}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build bookmarked set query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing bookmarked set query")
		return nil, fmt.Errorf("error querying bookmarked set: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID int64
		if err := rows.Scan(&questionID); err != nil {
			return nil, fmt.Errorf("error scanning bookmarked question ID: %w", err)
		}
		bookmarked[questionID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmarked set rows: %w", err)
	}

	return bookmarked, nil
}
