package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// EnrollmentRepository handles student course selection persistence
type EnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ReplaceSelection swaps the student's entire course selection in one
// transaction. Either the whole new set lands or nothing changes.
func (r *EnrollmentRepository) ReplaceSelection(ctx context.Context, userID int64, courseIDs []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin selection transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleteSQL, deleteArgs, err := r.sb.Delete("student_courses").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build clear selection query: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error clearing course selection")
		return fmt.Errorf("error clearing course selection: %w", err)
	}

	if len(courseIDs) > 0 {
		insertBuilder := r.sb.Insert("student_courses").Columns("user_id", "course_id")
		for _, courseID := range courseIDs {
			insertBuilder = insertBuilder.Values(userID, courseID)
		}

		insertSQL, insertArgs, err := insertBuilder.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert selection query: %w", err)
		}

		if _, err := tx.Exec(ctx, insertSQL, insertArgs...); err != nil {
			logger.Error().Err(err).Int64("userID", userID).Msg("Error inserting course selection")
			return fmt.Errorf("error inserting course selection: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit selection transaction: %w", err)
	}

	return nil
}

// ListByUser retrieves the student's selected courses with course details
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID int64) ([]*models.StudentCourse, error) {
	sql, args, err := r.sb.Select(
		"sc.id", "sc.user_id", "sc.course_id", "sc.selected_at",
		"c.id", "c.code", "c.name", "c.credits", "c.course_type", "c.semester",
		"c.is_active", "c.created_at", "c.updated_at").
		From("student_courses sc").
		Join("courses c ON c.id = sc.course_id").
		Where(squirrel.Eq{"sc.user_id": userID}).
		OrderBy("c.code ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build list selection query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing list selection query")
		return nil, fmt.Errorf("error listing course selection: %w", err)
	}
	defer rows.Close()

	selections := make([]*models.StudentCourse, 0)
	for rows.Next() {
		selection := &models.StudentCourse{Course: &models.Course{}}
		err := rows.Scan(
			&selection.ID, &selection.UserID, &selection.CourseID, &selection.SelectedAt,
			&selection.Course.ID, &selection.Course.Code, &selection.Course.Name,
			&selection.Course.Credits, &selection.Course.CourseType, &selection.Course.Semester,
			&selection.Course.IsActive, &selection.Course.CreatedAt, &selection.Course.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning selection row: %w", err)
		}
		selections = append(selections, selection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selection rows: %w", err)
	}

	return selections, nil
}

// ListCourseIDsByUser retrieves just the course IDs of a student's selection
func (r *EnrollmentRepository) ListCourseIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	sql, args, err := r.sb.Select("course_id").
		From("student_courses").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("course_id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build list selection IDs query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing list selection IDs query")
		return nil, fmt.Errorf("error listing selection IDs: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning selection ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selection IDs: %w", err)
	}

	return ids, nil
}

// ListCodesByUser retrieves the course codes of a student's selection
func (r *EnrollmentRepository) ListCodesByUser(ctx context.Context, userID int64) ([]string, error) {
	sql, args, err := r.sb.Select("c.code").
		From("student_courses sc").
		Join("courses c ON c.id = sc.course_id").
		Where(squirrel.Eq{"sc.user_id": userID}).
		OrderBy("c.code ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build list selection codes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing list selection codes query")
		return nil, fmt.Errorf("error listing selection codes: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("error scanning selection code: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selection codes: %w", err)
	}

	return codes, nil
}
