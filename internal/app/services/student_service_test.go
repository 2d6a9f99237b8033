package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
)

func testCourse(id int64, code string, active bool) *models.Course {
	return &models.Course{
		ID:         id,
		Code:       code,
		Name:       code + " course",
		Credits:    4,
		CourseType: models.CourseTypeCore,
		Semester:   5,
		IsActive:   active,
	}
}

func catalogStore(courses ...*models.Course) *fakeCourseStore {
	return &fakeCourseStore{
		getByCodes: func(_ context.Context, codes []string) ([]*models.Course, error) {
			var out []*models.Course
			for _, course := range courses {
				for _, code := range codes {
					if course.Code == code {
						out = append(out, course)
					}
				}
			}
			return out, nil
		},
	}
}

func TestSelectCourses_ReplacesSelection(t *testing.T) {
	ctx := context.Background()

	var replacedWith []int64
	enroll := &fakeEnrollmentStore{
		replaceSelection: func(_ context.Context, userID int64, courseIDs []int64) error {
			replacedWith = courseIDs
			return nil
		},
	}
	svc := &studentServiceImpl{
		courseRepo: catalogStore(testCourse(1, "CS301", true), testCourse(2, "CS405", true)),
		enrollRepo: enroll,
		logger:     zerolog.Nop(),
	}

	// Codes arrive in mixed case with a duplicate.
	resp, err := svc.SelectCourses(ctx, 7, &dto.SelectCoursesRequest{
		CourseCodes: []string{"cs405", " CS301 ", "CS405"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 1}, replacedWith, "selection must follow request order, deduplicated")
	require.Len(t, resp.Courses, 2)
	assert.Equal(t, "CS405", resp.Courses[0].Code)
	assert.Equal(t, "CS301", resp.Courses[1].Code)
}

func TestSelectCourses_AllOrNothing(t *testing.T) {
	ctx := context.Background()

	replaceCalled := false
	enroll := &fakeEnrollmentStore{
		replaceSelection: func(_ context.Context, userID int64, courseIDs []int64) error {
			replaceCalled = true
			return nil
		},
	}
	svc := &studentServiceImpl{
		courseRepo: catalogStore(testCourse(1, "CS301", true), testCourse(3, "CS999", false)),
		enrollRepo: enroll,
		logger:     zerolog.Nop(),
	}

	// One unknown code rejects the whole request.
	_, err := svc.SelectCourses(ctx, 7, &dto.SelectCoursesRequest{
		CourseCodes: []string{"CS301", "ZZ111"},
	})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Contains(t, err.Error(), "ZZ111", "error must name the unknown code")

	// So does one inactive code.
	_, err = svc.SelectCourses(ctx, 7, &dto.SelectCoursesRequest{
		CourseCodes: []string{"CS301", "CS999"},
	})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Contains(t, err.Error(), "CS999", "error must name the inactive code")

	assert.False(t, replaceCalled, "selection must not change on a rejected request")
}

func TestSelectCourses_EmptyAfterNormalization(t *testing.T) {
	svc := &studentServiceImpl{logger: zerolog.Nop()}

	_, err := svc.SelectCourses(context.Background(), 7, &dto.SelectCoursesRequest{
		CourseCodes: []string{"  ", ""},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestMyCourses(t *testing.T) {
	enroll := &fakeEnrollmentStore{
		listByUser: func(_ context.Context, userID int64) ([]*models.StudentCourse, error) {
			return []*models.StudentCourse{
				{UserID: userID, CourseID: 1, Course: testCourse(1, "CS301", true)},
				{UserID: userID, CourseID: 2, Course: testCourse(2, "CS405", true)},
			}, nil
		},
	}
	svc := &studentServiceImpl{enrollRepo: enroll, logger: zerolog.Nop()}

	resp, err := svc.MyCourses(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, resp.Courses, 2)
	assert.Equal(t, "CS405", resp.Courses[1].Code)
}

func TestToggleBookmark(t *testing.T) {
	ctx := context.Background()
	approved := &models.Question{ID: 11, ReviewStatus: models.ReviewStatusApproved}

	bookmarked := false
	var inserted, deleted int
	questions := &fakeQuestionStore{
		getByID: func(_ context.Context, id int64) (*models.Question, error) {
			if id != 11 {
				return nil, apperrors.ErrQuestionNotFound
			}
			return approved, nil
		},
	}
	bookmarks := &fakeBookmarkStore{
		exists: func(_ context.Context, userID, questionID int64) (bool, error) {
			return bookmarked, nil
		},
		insert: func(_ context.Context, userID, questionID int64) error {
			bookmarked = true
			inserted++
			return nil
		},
		deleteFn: func(_ context.Context, userID, questionID int64) error {
			bookmarked = false
			deleted++
			return nil
		},
	}
	svc := &studentServiceImpl{
		questionRepo: questions,
		bookmarkRepo: bookmarks,
		logger:       zerolog.Nop(),
	}

	// First toggle bookmarks.
	resp, err := svc.ToggleBookmark(ctx, 7, 11)
	require.NoError(t, err)
	assert.True(t, resp.Bookmarked)
	assert.Equal(t, int64(11), resp.QuestionID)

	// Second toggle removes it.
	resp, err = svc.ToggleBookmark(ctx, 7, 11)
	require.NoError(t, err)
	assert.False(t, resp.Bookmarked)

	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, deleted)
}

func TestToggleBookmark_UnknownOrUnapprovedIs404(t *testing.T) {
	ctx := context.Background()
	pending := &models.Question{ID: 12, ReviewStatus: models.ReviewStatusPending}

	questions := &fakeQuestionStore{
		getByID: func(_ context.Context, id int64) (*models.Question, error) {
			if id == 12 {
				return pending, nil
			}
			return nil, apperrors.ErrQuestionNotFound
		},
	}
	svc := &studentServiceImpl{questionRepo: questions, logger: zerolog.Nop()}

	_, err := svc.ToggleBookmark(ctx, 7, 999)
	assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)

	// A pending question is invisible to students even if the id is real.
	_, err = svc.ToggleBookmark(ctx, 7, 12)
	assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)
}

func TestListBookmarks_FlagsEveryQuestion(t *testing.T) {
	bookmarks := &fakeBookmarkStore{
		listQuestionsByUser: func(_ context.Context, userID int64, page, pageSize int) ([]*models.Question, int64, error) {
			return []*models.Question{
				{ID: 1, ReviewStatus: models.ReviewStatusApproved},
				{ID: 2, ReviewStatus: models.ReviewStatusApproved},
			}, 2, nil
		},
	}
	svc := &studentServiceImpl{bookmarkRepo: bookmarks, logger: zerolog.Nop()}

	resp, err := svc.ListBookmarks(context.Background(), 7, 1, 20)
	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	for _, q := range resp.Questions {
		require.NotNil(t, q.Bookmarked, "question %d missing bookmarked flag", q.ID)
		assert.True(t, *q.Bookmarked)
	}
	assert.Equal(t, int64(2), resp.Pagination.TotalItems)
}
