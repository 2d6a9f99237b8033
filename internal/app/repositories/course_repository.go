package repositories

import (
	"context"
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

const courseColumns = "id, code, name, credits, course_type, semester, is_active, created_at, updated_at"

// CourseRepository handles course and unit database operations
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new course and returns its ID
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (int64, error) {
	sql, args, err := r.sb.Insert("courses").
		Columns("code", "name", "credits", "course_type", "semester", "is_active").
		Values(course.Code, course.Name, course.Credits, course.CourseType, course.Semester, course.IsActive).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return 0, fmt.Errorf("failed to build create course query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_code_key") {
			return 0, apperrors.ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Str("code", course.Code).Msg("Error executing create course query")
		return 0, fmt.Errorf("error creating course: %w", err)
	}

	return id, nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := r.scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	return course, nil
}

// GetByCode retrieves a course by its code
func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		Where(squirrel.Eq{"code": code}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get course by code query: %w", err)
	}

	course, err := r.scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("code", code).Msg("Error scanning course row")
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	return course, nil
}

// GetByCodes retrieves courses for a set of codes. Missing codes are simply
// absent from the result; the caller decides whether that is an error.
func (r *CourseRepository) GetByCodes(ctx context.Context, codes []string) ([]*models.Course, error) {
	if len(codes) == 0 {
		return []*models.Course{}, nil
	}

	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		Where(squirrel.Eq{"code": codes}).
		OrderBy("code ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get courses by codes query: %w", err)
	}

	return r.queryCourses(ctx, sql, args...)
}

// ListActive retrieves all active courses ordered by code
func (r *CourseRepository) ListActive(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("code ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build list active courses query: %w", err)
	}

	return r.queryCourses(ctx, sql, args...)
}

// List retrieves courses with optional filters and pagination.
// Supported filters: courseType, semester, isActive, search (ILIKE on code and name).
func (r *CourseRepository) List(ctx context.Context, filters map[string]interface{}, page, pageSize int) ([]*models.Course, int64, error) {
	conditions := squirrel.And{}

	if courseType, ok := filters["courseType"].(models.CourseType); ok && courseType != "" {
		conditions = append(conditions, squirrel.Eq{"course_type": courseType})
	}
	if semester, ok := filters["semester"].(int); ok && semester > 0 {
		conditions = append(conditions, squirrel.Eq{"semester": semester})
	}
	if isActive, ok := filters["isActive"].(bool); ok {
		conditions = append(conditions, squirrel.Eq{"is_active": isActive})
	}
	if search, ok := filters["search"].(string); ok && search != "" {
		pattern := "%" + search + "%"
		conditions = append(conditions, squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	countBuilder := r.sb.Select("COUNT(*)").From("courses")
	if len(conditions) > 0 {
		countBuilder = countBuilder.Where(conditions)
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		logger.Error().Err(err).Msg("Error counting courses")
		return nil, 0, fmt.Errorf("error counting courses: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	queryBuilder := r.sb.Select(courseColumns).
		From("courses").
		OrderBy("code ASC").
		Limit(uint64(limit)).
		Offset(offset)
	if len(conditions) > 0 {
		queryBuilder = queryBuilder.Where(conditions)
	}

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list courses query: %w", err)
	}

	courses, err := r.queryCourses(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}

	return courses, totalCount, nil
}

// Update modifies an existing course
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		Set("code", course.Code).
		Set("name", course.Name).
		Set("credits", course.Credits).
		Set("course_type", course.CourseType).
		Set("semester", course.Semester).
		Set("is_active", course.IsActive).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_code_key") {
			return apperrors.ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// Deactivate soft-deletes a course by flipping is_active off
func (r *CourseRepository) Deactivate(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("courses").
		Set("is_active", false).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build deactivate course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error executing deactivate course query")
		return fmt.Errorf("error deactivating course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// HasQuestions reports whether any live questions reference the course
func (r *CourseRepository) HasQuestions(ctx context.Context, courseID int64) (bool, error) {
	inner := r.sb.Select("1").
		From("questions").
		Where(squirrel.Eq{"course_id": courseID, "is_deleted": false})

	sql, args, err := inner.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build has questions query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error checking course questions")
		return false, fmt.Errorf("error checking course questions: %w", err)
	}

	return exists, nil
}

// CreateUnit inserts a unit for a course and returns its ID
func (r *CourseRepository) CreateUnit(ctx context.Context, unit *models.Unit) (int64, error) {
	sql, args, err := r.sb.Insert("units").
		Columns("course_id", "unit_number", "title").
		Values(unit.CourseID, unit.UnitNumber, unit.Title).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("failed to build create unit query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "units_course_id_unit_number_key") {
			return 0, apperrors.NewConflictError(fmt.Sprintf("unit %d already exists for this course", unit.UnitNumber))
		}
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", unit.CourseID).Msg("Error executing create unit query")
		return 0, fmt.Errorf("error creating unit: %w", err)
	}

	return id, nil
}

// GetUnitByID retrieves a unit by ID
func (r *CourseRepository) GetUnitByID(ctx context.Context, id int64) (*models.Unit, error) {
	sql, args, err := r.sb.Select("id", "course_id", "unit_number", "title", "created_at").
		From("units").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get unit query: %w", err)
	}

	unit := &models.Unit{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&unit.ID, &unit.CourseID, &unit.UnitNumber, &unit.Title, &unit.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnitNotFound
		}
		return nil, fmt.Errorf("error retrieving unit: %w", err)
	}

	return unit, nil
}

// GetUnitByCourseAndNumber retrieves a unit by its course and ordinal.
// The ingest pipeline maps "UNIT-III" headings through this lookup.
func (r *CourseRepository) GetUnitByCourseAndNumber(ctx context.Context, courseID int64, unitNumber int) (*models.Unit, error) {
	sql, args, err := r.sb.Select("id", "course_id", "unit_number", "title", "created_at").
		From("units").
		Where(squirrel.Eq{"course_id": courseID, "unit_number": unitNumber}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get unit by number query: %w", err)
	}

	unit := &models.Unit{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&unit.ID, &unit.CourseID, &unit.UnitNumber, &unit.Title, &unit.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnitNotFound
		}
		return nil, fmt.Errorf("error retrieving unit: %w", err)
	}

	return unit, nil
}

// ListUnitsByCourse retrieves all units of a course ordered by unit number
func (r *CourseRepository) ListUnitsByCourse(ctx context.Context, courseID int64) ([]*models.Unit, error) {
	sql, args, err := r.sb.Select("id", "course_id", "unit_number", "title", "created_at").
		From("units").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("unit_number ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build list units query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing list units query")
		return nil, fmt.Errorf("error listing units: %w", err)
	}
	defer rows.Close()

	units := make([]*models.Unit, 0)
	for rows.Next() {
		unit := &models.Unit{}
		if err := rows.Scan(&unit.ID, &unit.CourseID, &unit.UnitNumber, &unit.Title, &unit.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning unit row: %w", err)
		}
		units = append(units, unit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unit rows: %w", err)
	}

	return units, nil
}

// Count counts all courses
func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("courses").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count courses query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting courses: %w", err)
	}

	return count, nil
}

func (r *CourseRepository) queryCourses(ctx context.Context, sql string, args ...interface{}) ([]*models.Course, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		course, err := r.scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}

func (r *CourseRepository) scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	err := row.Scan(
		&course.ID, &course.Code, &course.Name, &course.Credits,
		&course.CourseType, &course.Semester, &course.IsActive,
		&course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return course, nil
}
