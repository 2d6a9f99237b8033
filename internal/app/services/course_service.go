package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/cache"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
	"github.com/qpaperai/qpaper-api/internal/pkg/validation"
)

const cacheKeyCoursesAll = "courses:all"

func unitsCacheKey(code string) string {
	return fmt.Sprintf("courses:%s:units", code)
}

// CourseService handles catalog operations. Read paths are cache-aside;
// admin writes invalidate the affected keys.
type CourseService struct {
	courseRepo courseStore
	cache      *cache.Cache
	logger     zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(repos *repositories.Repositories, cache *cache.Cache) *CourseService {
	return &CourseService{
		courseRepo: repos.CourseRepository,
		cache:      cache,
		logger:     logger.WithComponent("course_service"),
	}
}

// ListActive returns all active courses in code order.
func (s *CourseService) ListActive(ctx context.Context) (*dto.CourseListResponse, error) {
	var cached dto.CourseListResponse
	if s.cache.Get(ctx, cacheKeyCoursesAll, &cached) {
		return &cached, nil
	}

	courses, err := s.courseRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}

	resp := &dto.CourseListResponse{Courses: make([]dto.CourseResponse, 0, len(courses))}
	for _, course := range courses {
		resp.Courses = append(resp.Courses, dto.FromCourse(course))
	}

	s.cache.Set(ctx, cacheKeyCoursesAll, resp)
	return resp, nil
}

// GetUnits returns the syllabus units of a course identified by code.
func (s *CourseService) GetUnits(ctx context.Context, code string) (*dto.UnitListResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	key := unitsCacheKey(code)
	var cached dto.UnitListResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	course, err := s.courseRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	units, err := s.courseRepo.ListUnitsByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing units: %w", err)
	}

	resp := &dto.UnitListResponse{CourseCode: course.Code, Units: make([]dto.UnitResponse, 0, len(units))}
	for _, unit := range units {
		resp.Units = append(resp.Units, dto.FromUnit(unit))
	}

	s.cache.Set(ctx, key, resp)
	return resp, nil
}

// Create adds a new course to the catalog.
func (s *CourseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !validation.CompiledPatterns.CourseCode.MatchString(code) {
		return nil, fmt.Errorf("%w: course code must look like CS301", apperrors.ErrValidationFailed)
	}

	course := &models.Course{
		Code:       code,
		Name:       strings.TrimSpace(req.Name),
		Credits:    req.Credits,
		CourseType: models.CourseType(req.CourseType),
		Semester:   req.Semester,
		IsActive:   true,
	}

	id, err := s.courseRepo.Create(ctx, course)
	if err != nil {
		return nil, err
	}
	course.ID = id

	s.cache.Delete(ctx, cacheKeyCoursesAll)
	s.logger.Info().Int64("courseID", id).Str("code", course.Code).Msg("Created course")

	resp := dto.FromCourse(course)
	return &resp, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Name = strings.TrimSpace(req.Name)
	course.Credits = req.Credits
	course.CourseType = models.CourseType(req.CourseType)
	course.Semester = req.Semester
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cacheKeyCoursesAll, unitsCacheKey(course.Code))

	resp := dto.FromCourse(course)
	return &resp, nil
}

// Delete deactivates a course. Courses that still have live questions are
// protected unless force is set.
func (s *CourseService) Delete(ctx context.Context, id int64, force bool) error {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !force {
		hasQuestions, err := s.courseRepo.HasQuestions(ctx, id)
		if err != nil {
			return fmt.Errorf("error checking course questions: %w", err)
		}
		if hasQuestions {
			return apperrors.ErrCourseHasQuestions
		}
	}

	if err := s.courseRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(ctx, cacheKeyCoursesAll, unitsCacheKey(course.Code))
	s.logger.Info().Int64("courseID", id).Str("code", course.Code).Bool("force", force).Msg("Deactivated course")

	return nil
}

// CreateUnit adds a syllabus unit to a course.
func (s *CourseService) CreateUnit(ctx context.Context, courseID int64, req *dto.CreateUnitRequest) (*dto.UnitResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	unit := &models.Unit{
		CourseID:   courseID,
		UnitNumber: req.UnitNumber,
		Title:      strings.TrimSpace(req.Title),
	}

	id, err := s.courseRepo.CreateUnit(ctx, unit)
	if err != nil {
		return nil, err
	}
	unit.ID = id

	s.cache.Delete(ctx, unitsCacheKey(course.Code))

	resp := dto.FromUnit(unit)
	return &resp, nil
}
