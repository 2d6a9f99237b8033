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
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// StudentService defines the interface for the student dashboard: course
// selection and bookmarks.
type StudentService interface {
	SelectCourses(ctx context.Context, userID int64, req *dto.SelectCoursesRequest) (*dto.MyCoursesResponse, error)
	MyCourses(ctx context.Context, userID int64) (*dto.MyCoursesResponse, error)
	ToggleBookmark(ctx context.Context, userID, questionID int64) (*dto.BookmarkToggleResponse, error)
	ListBookmarks(ctx context.Context, userID int64, page, pageSize int) (*dto.QuestionListResponse, error)
}

// studentServiceImpl implements StudentService
type studentServiceImpl struct {
	courseRepo   courseStore
	enrollRepo   enrollmentStore
	questionRepo questionStore
	bookmarkRepo bookmarkStore
	logger       zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(repos *repositories.Repositories) StudentService {
	return &studentServiceImpl{
		courseRepo:   repos.CourseRepository,
		enrollRepo:   repos.EnrollmentRepository,
		questionRepo: repos.QuestionRepository,
		bookmarkRepo: repos.BookmarkRepository,
		logger:       logger.WithComponent("student_service"),
	}
}

// SelectCourses replaces the student's entire course selection. A single
// unknown or inactive code rejects the whole request and the previous
// selection survives untouched.
func (s *studentServiceImpl) SelectCourses(ctx context.Context, userID int64, req *dto.SelectCoursesRequest) (*dto.MyCoursesResponse, error) {
	codes := normalizeCodes(req.CourseCodes)
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: at least one course code is required", apperrors.ErrValidationFailed)
	}

	courses, err := s.courseRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("error resolving course codes: %w", err)
	}

	byCode := make(map[string]*models.Course, len(courses))
	for _, course := range courses {
		byCode[course.Code] = course
	}

	var missing, inactive []string
	for _, code := range codes {
		course, ok := byCode[code]
		switch {
		case !ok:
			missing = append(missing, code)
		case !course.IsActive:
			inactive = append(inactive, code)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown course codes: %s", strings.Join(missing, ", ")))
	}
	if len(inactive) > 0 {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("inactive course codes: %s", strings.Join(inactive, ", ")))
	}

	courseIDs := make([]int64, 0, len(codes))
	for _, code := range codes {
		courseIDs = append(courseIDs, byCode[code].ID)
	}

	if err := s.enrollRepo.ReplaceSelection(ctx, userID, courseIDs); err != nil {
		return nil, fmt.Errorf("error replacing course selection: %w", err)
	}

	s.logger.Info().Int64("userID", userID).Strs("codes", codes).Msg("Replaced course selection")

	resp := &dto.MyCoursesResponse{Courses: make([]dto.CourseResponse, 0, len(codes))}
	for _, code := range codes {
		resp.Courses = append(resp.Courses, dto.FromCourse(byCode[code]))
	}
	return resp, nil
}

// MyCourses lists the student's selected courses.
func (s *studentServiceImpl) MyCourses(ctx context.Context, userID int64) (*dto.MyCoursesResponse, error) {
	selections, err := s.enrollRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing selected courses: %w", err)
	}

	resp := &dto.MyCoursesResponse{Courses: make([]dto.CourseResponse, 0, len(selections))}
	for _, sel := range selections {
		resp.Courses = append(resp.Courses, dto.FromCourse(sel.Course))
	}
	return resp, nil
}

// ToggleBookmark flips the bookmark state of an approved question. Unknown,
// deleted and unapproved questions all read as not found.
func (s *studentServiceImpl) ToggleBookmark(ctx context.Context, userID, questionID int64) (*dto.BookmarkToggleResponse, error) {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.ReviewStatus != models.ReviewStatusApproved {
		return nil, apperrors.ErrQuestionNotFound
	}

	exists, err := s.bookmarkRepo.Exists(ctx, userID, questionID)
	if err != nil {
		return nil, fmt.Errorf("error checking bookmark: %w", err)
	}

	if exists {
		if err := s.bookmarkRepo.Delete(ctx, userID, questionID); err != nil {
			return nil, err
		}
	} else {
		if err := s.bookmarkRepo.Insert(ctx, userID, questionID); err != nil {
			return nil, err
		}
	}

	return &dto.BookmarkToggleResponse{
		QuestionID: questionID,
		Bookmarked: !exists,
	}, nil
}

// ListBookmarks returns the student's bookmarked questions, newest bookmark
// first.
func (s *studentServiceImpl) ListBookmarks(ctx context.Context, userID int64, page, pageSize int) (*dto.QuestionListResponse, error) {
	questions, total, err := s.bookmarkRepo.ListQuestionsByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing bookmarks: %w", err)
	}

	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		resp := dto.FromQuestion(q)
		marked := true
		resp.Bookmarked = &marked
		out = append(out, resp)
	}

	return &dto.QuestionListResponse{
		Questions:  out,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// normalizeCodes uppercases, trims and dedupes course codes preserving the
// request order.
func normalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
