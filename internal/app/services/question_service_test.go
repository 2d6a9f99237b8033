package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/observability"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/cache"
)

func newTestQuestionService(q questionStore, c courseStore, e enrollmentStore, b bookmarkStore) *questionServiceImpl {
	return &questionServiceImpl{
		questionRepo:        q,
		courseRepo:          c,
		enrollRepo:          e,
		bookmarkRepo:        b,
		cache:               cache.New(nil, time.Minute),
		prom:                observability.NewProm(),
		similarityThreshold: 0.82,
		logger:              zerolog.Nop(),
	}
}

func TestRandomQuestions_CountBounds(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		requested int
		wantCount int
	}{
		{"zero gets the default", 0, 10},
		{"negative gets the default", -3, 10},
		{"plain value passes through", 20, 20},
		{"above maximum clamps", 500, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sampled int
			questions := &fakeQuestionStore{
				random: func(_ context.Context, filter models.QuestionFilter, count int) ([]*models.Question, error) {
					sampled = count
					out := make([]*models.Question, 0, 3)
					for i := int64(1); i <= 3; i++ {
						out = append(out, &models.Question{ID: i, ReviewStatus: models.ReviewStatusApproved})
					}
					return out, nil
				},
			}
			svc := newTestQuestionService(questions, nil, nil, nil)

			resp, err := svc.RandomQuestions(ctx, models.QuestionFilter{}, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, sampled, "sample size passed to the repository")
			assert.Equal(t, len(resp.Questions), resp.Count)
		})
	}
}

func TestPublicSearch_PassesFilterAndPaginates(t *testing.T) {
	ctx := context.Background()

	var gotFilter models.QuestionFilter
	var gotPage, gotSize int
	questions := &fakeQuestionStore{
		search: func(_ context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error) {
			gotFilter, gotPage, gotSize = filter, page, pageSize
			return []*models.Question{
				{ID: 1, CourseCode: "CS301"},
				{ID: 2, CourseCode: "CS301"},
			}, 45, nil
		},
	}
	svc := newTestQuestionService(questions, nil, nil, nil)

	filter := models.QuestionFilter{CourseCode: "CS301", BloomLevel: 2}
	resp, err := svc.PublicSearch(ctx, filter, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, filter, gotFilter)
	assert.Equal(t, 1, gotPage)
	assert.Equal(t, 20, gotSize)
	assert.Len(t, resp.Questions, 2)
	assert.Equal(t, int64(45), resp.Pagination.TotalItems)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	// Public search carries no personal bookmark flags.
	assert.Nil(t, resp.Questions[0].Bookmarked)
}

func TestStudentSearch_FlagsBookmarks(t *testing.T) {
	ctx := context.Background()

	questions := &fakeQuestionStore{
		search: func(_ context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error) {
			return []*models.Question{{ID: 1}, {ID: 2}}, 2, nil
		},
	}
	bookmarks := &fakeBookmarkStore{
		bookmarkedSet: func(_ context.Context, userID int64, questionIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{1: true}, nil
		},
	}
	svc := newTestQuestionService(questions, nil, nil, bookmarks)

	resp, err := svc.StudentSearch(ctx, 7, models.QuestionFilter{}, false, 1, 20)
	require.NoError(t, err)

	require.NotNil(t, resp.Questions[0].Bookmarked)
	assert.True(t, *resp.Questions[0].Bookmarked)
	require.NotNil(t, resp.Questions[1].Bookmarked)
	assert.False(t, *resp.Questions[1].Bookmarked)
}

func TestStudentSearch_MyCoursesScope(t *testing.T) {
	ctx := context.Background()

	var gotFilter models.QuestionFilter
	questions := &fakeQuestionStore{
		search: func(_ context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error) {
			gotFilter = filter
			return nil, 0, nil
		},
	}
	bookmarks := &fakeBookmarkStore{
		bookmarkedSet: func(_ context.Context, userID int64, questionIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{}, nil
		},
	}
	enroll := &fakeEnrollmentStore{
		listCourseIDsByUser: func(_ context.Context, userID int64) ([]int64, error) {
			return []int64{4, 9}, nil
		},
	}
	svc := newTestQuestionService(questions, nil, enroll, bookmarks)

	_, err := svc.StudentSearch(ctx, 7, models.QuestionFilter{}, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 9}, gotFilter.CourseIDs)
}

func TestStudentSearch_EmptySelectionShortCircuits(t *testing.T) {
	ctx := context.Background()

	questions := &fakeQuestionStore{
		search: func(_ context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error) {
			t.Error("search ran despite an empty course selection")
			return nil, 0, nil
		},
	}
	enroll := &fakeEnrollmentStore{
		listCourseIDsByUser: func(_ context.Context, userID int64) ([]int64, error) {
			return nil, nil
		},
	}
	svc := newTestQuestionService(questions, nil, enroll, nil)

	resp, err := svc.StudentSearch(ctx, 7, models.QuestionFilter{}, true, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, resp.Questions)
	assert.Zero(t, resp.Pagination.TotalItems)
}

func TestCreateQuestion_JoinsVariantGroup(t *testing.T) {
	ctx := context.Background()

	group := int64(50)
	stored := make(map[int64]*models.Question)
	var assignedQuestion, assignedGroup int64
	var refreshed []int64

	questions := &fakeQuestionStore{
		create: func(_ context.Context, question *models.Question) (int64, error) {
			question.ID = 100
			stored[100] = question
			return 100, nil
		},
		getByID: func(_ context.Context, id int64) (*models.Question, error) {
			q, ok := stored[id]
			if !ok {
				return nil, apperrors.ErrQuestionNotFound
			}
			return q, nil
		},
		listVariantCandidates: func(_ context.Context, courseID, excludeID int64) ([]models.VariantCandidate, error) {
			return []models.VariantCandidate{
				{ID: 51, Text: "Explain the two phase locking protocol with one example", VariantGroupID: &group},
				{ID: 60, Text: "Describe the architecture of a compiler", VariantGroupID: nil},
			}, nil
		},
		assignVariantGroup: func(_ context.Context, questionID, groupID int64) error {
			assignedQuestion, assignedGroup = questionID, groupID
			return nil
		},
		refreshVariantCount: func(_ context.Context, groupID int64) error {
			refreshed = append(refreshed, groupID)
			return nil
		},
	}
	courses := &fakeCourseStore{
		getByCode: func(_ context.Context, code string) (*models.Course, error) {
			if code != "CS301" {
				return nil, apperrors.ErrCourseNotFound
			}
			return testCourse(1, "CS301", true), nil
		},
	}
	svc := newTestQuestionService(questions, courses, nil, nil)

	resp, err := svc.Create(ctx, &dto.CreateQuestionRequest{
		CourseCode: "cs301",
		Text:       "Explain the two phase locking protocol with an example",
		Marks:      10,
		BloomLevel: 2,
		ExamType:   "SEE",
		ExamYear:   2024,
	})
	require.NoError(t, err)

	created := stored[100]
	assert.Equal(t, models.ReviewStatusApproved, created.ReviewStatus, "curated entries skip review")
	assert.Equal(t, 1.0, created.OCRConfidence)
	assert.Equal(t, int64(1), created.CourseID)

	// The near-duplicate wording joins the existing variant group.
	assert.Equal(t, int64(100), assignedQuestion)
	assert.Equal(t, int64(50), assignedGroup)
	assert.Equal(t, []int64{50}, refreshed)
	assert.Equal(t, int64(100), resp.ID)
}

func TestCreateQuestion_NoMatchStartsOwnGroup(t *testing.T) {
	ctx := context.Background()

	stored := make(map[int64]*models.Question)
	var initialized int64
	questions := &fakeQuestionStore{
		create: func(_ context.Context, question *models.Question) (int64, error) {
			question.ID = 100
			stored[100] = question
			return 100, nil
		},
		getByID: func(_ context.Context, id int64) (*models.Question, error) {
			return stored[id], nil
		},
		listVariantCandidates: func(_ context.Context, courseID, excludeID int64) ([]models.VariantCandidate, error) {
			return []models.VariantCandidate{
				{ID: 60, Text: "Describe the architecture of a compiler"},
			}, nil
		},
		initVariantGroup: func(_ context.Context, questionID int64) error {
			initialized = questionID
			return nil
		},
	}
	courses := &fakeCourseStore{
		getByCode: func(_ context.Context, code string) (*models.Course, error) {
			return testCourse(1, "CS301", true), nil
		},
	}
	svc := newTestQuestionService(questions, courses, nil, nil)

	_, err := svc.Create(ctx, &dto.CreateQuestionRequest{
		CourseCode: "CS301",
		Text:       "Explain demand paging with a neat diagram",
		Marks:      10,
		BloomLevel: 2,
		ExamType:   "SEE",
		ExamYear:   2024,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), initialized, "unmatched question must start its own group")
}

func TestReview_Approve(t *testing.T) {
	ctx := context.Background()

	pending := &models.Question{
		ID:           100,
		CourseID:     1,
		Text:         "Explain demand paging with a neat diagram",
		ReviewStatus: models.ReviewStatusPending,
	}

	var statusSet models.ReviewStatus
	var initialized int64
	questions := &fakeQuestionStore{
		getByID: func(_ context.Context, id int64) (*models.Question, error) { return pending, nil },
		updateReviewStatus: func(_ context.Context, id int64, status models.ReviewStatus) error {
			statusSet = status
			return nil
		},
		listVariantCandidates: func(_ context.Context, courseID, excludeID int64) ([]models.VariantCandidate, error) {
			return nil, nil
		},
		initVariantGroup: func(_ context.Context, questionID int64) error {
			initialized = questionID
			return nil
		},
	}
	svc := newTestQuestionService(questions, nil, nil, nil)

	_, err := svc.Review(ctx, 100, "approve")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, statusSet)
	assert.Equal(t, int64(100), initialized, "approval must regroup the question")
}

func TestReview_RejectDetachesFromGroup(t *testing.T) {
	ctx := context.Background()

	group := int64(50)
	question := &models.Question{
		ID:             100,
		CourseID:       1,
		Text:           "Explain demand paging with a neat diagram",
		ReviewStatus:   models.ReviewStatusPending,
		VariantGroupID: &group,
	}

	var statusSet models.ReviewStatus
	var detached int64
	var refreshed []int64
	questions := &fakeQuestionStore{
		getByID: func(_ context.Context, id int64) (*models.Question, error) { return question, nil },
		updateReviewStatus: func(_ context.Context, id int64, status models.ReviewStatus) error {
			statusSet = status
			return nil
		},
		detachFromVariantGroup: func(_ context.Context, questionID int64) error {
			detached = questionID
			return nil
		},
		refreshVariantCount: func(_ context.Context, groupID int64) error {
			refreshed = append(refreshed, groupID)
			return nil
		},
	}
	svc := newTestQuestionService(questions, nil, nil, nil)

	_, err := svc.Review(ctx, 100, "reject")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusRejected, statusSet)
	assert.Equal(t, int64(100), detached)
	assert.Equal(t, []int64{50}, refreshed, "the old group must shrink")
}

func TestReview_InvalidAction(t *testing.T) {
	questions := &fakeQuestionStore{
		getByID: func(_ context.Context, id int64) (*models.Question, error) {
			return &models.Question{ID: 100}, nil
		},
	}
	svc := newTestQuestionService(questions, nil, nil, nil)

	_, err := svc.Review(context.Background(), 100, "promote")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestDeleteQuestion_ShrinksVariantGroup(t *testing.T) {
	ctx := context.Background()

	group := int64(50)
	var softDeleted int64
	var refreshed []int64
	questions := &fakeQuestionStore{
		getByID: func(_ context.Context, id int64) (*models.Question, error) {
			return &models.Question{ID: 100, VariantGroupID: &group}, nil
		},
		softDelete: func(_ context.Context, id int64) error {
			softDeleted = id
			return nil
		},
		refreshVariantCount: func(_ context.Context, groupID int64) error {
			refreshed = append(refreshed, groupID)
			return nil
		},
	}
	svc := newTestQuestionService(questions, nil, nil, nil)

	require.NoError(t, svc.Delete(ctx, 100))
	assert.Equal(t, int64(100), softDeleted)
	assert.Equal(t, []int64{50}, refreshed)
}
