package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/ingest"
	"github.com/qpaperai/qpaper-api/internal/observability"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/cache"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

const (
	randomCountDefault = 10
	randomCountMax     = 50
)

// QuestionService defines the interface for question search, practice
// sampling and admin curation.
type QuestionService interface {
	PublicSearch(ctx context.Context, filter models.QuestionFilter, page, pageSize int) (*dto.QuestionListResponse, error)
	StudentSearch(ctx context.Context, userID int64, filter models.QuestionFilter, onlyMyCourses bool, page, pageSize int) (*dto.QuestionListResponse, error)
	RandomQuestions(ctx context.Context, filter models.QuestionFilter, count int) (*dto.RandomQuestionsResponse, error)
	Create(ctx context.Context, req *dto.CreateQuestionRequest) (*dto.QuestionResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateQuestionRequest) (*dto.QuestionResponse, error)
	Delete(ctx context.Context, id int64) error
	ListPending(ctx context.Context, page, pageSize int) (*dto.QuestionListResponse, error)
	Review(ctx context.Context, id int64, action string) (*dto.QuestionResponse, error)
}

// questionServiceImpl implements QuestionService
type questionServiceImpl struct {
	questionRepo        questionStore
	courseRepo          courseStore
	enrollRepo          enrollmentStore
	bookmarkRepo        bookmarkStore
	cache               *cache.Cache
	prom                *observability.Prom
	similarityThreshold float64
	logger              zerolog.Logger
}

// NewQuestionService creates a new QuestionService
func NewQuestionService(
	repos *repositories.Repositories,
	cache *cache.Cache,
	prom *observability.Prom,
	similarityThreshold float64,
) QuestionService {
	return &questionServiceImpl{
		questionRepo:        repos.QuestionRepository,
		courseRepo:          repos.CourseRepository,
		enrollRepo:          repos.EnrollmentRepository,
		bookmarkRepo:        repos.BookmarkRepository,
		cache:               cache,
		prom:                prom,
		similarityThreshold: similarityThreshold,
		logger:              logger.WithComponent("question_service"),
	}
}

// searchCacheKey derives a stable cache key from the filter and page. The
// filter struct marshals deterministically, so equal searches share a key.
func searchCacheKey(filter models.QuestionFilter, page, pageSize int) string {
	payload, _ := json.Marshal(struct {
		Filter models.QuestionFilter `json:"filter"`
		Page   int                   `json:"page"`
		Size   int                   `json:"size"`
	}{filter, page, pageSize})

	sum := sha256.Sum256(payload)
	return "search:" + hex.EncodeToString(sum[:8])
}

// PublicSearch returns approved questions matching the filter, newest first.
// Results are cached per filter+page.
func (s *questionServiceImpl) PublicSearch(ctx context.Context, filter models.QuestionFilter, page, pageSize int) (*dto.QuestionListResponse, error) {
	key := searchCacheKey(filter, page, pageSize)

	var cached dto.QuestionListResponse
	if s.cache.Get(ctx, key, &cached) {
		s.prom.ObserveCache("search", true)
		return &cached, nil
	}
	s.prom.ObserveCache("search", false)

	questions, total, err := s.search(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := s.buildListResponse(questions, total, page, pageSize)
	s.cache.Set(ctx, key, resp)
	return resp, nil
}

// StudentSearch is the public search plus the student's own scope: an
// only-my-courses toggle and a bookmarked flag on every question. Results
// are personal, so they bypass the cache.
func (s *questionServiceImpl) StudentSearch(ctx context.Context, userID int64, filter models.QuestionFilter, onlyMyCourses bool, page, pageSize int) (*dto.QuestionListResponse, error) {
	if onlyMyCourses {
		courseIDs, err := s.enrollRepo.ListCourseIDsByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("error loading course selection: %w", err)
		}
		if len(courseIDs) == 0 {
			return s.buildListResponse(nil, 0, page, pageSize), nil
		}
		filter.CourseIDs = courseIDs
	}

	questions, total, err := s.search(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := s.buildListResponse(questions, total, page, pageSize)

	ids := make([]int64, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	bookmarked, err := s.bookmarkRepo.BookmarkedSet(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading bookmark flags: %w", err)
	}
	for i := range resp.Questions {
		flag := bookmarked[resp.Questions[i].ID]
		resp.Questions[i].Bookmarked = &flag
	}

	return resp, nil
}

// RandomQuestions samples approved questions for practice mode. At most one
// member of each variant group appears per batch.
func (s *questionServiceImpl) RandomQuestions(ctx context.Context, filter models.QuestionFilter, count int) (*dto.RandomQuestionsResponse, error) {
	if count <= 0 {
		count = randomCountDefault
	}
	if count > randomCountMax {
		count = randomCountMax
	}

	var questions []*models.Question
	err := s.prom.ObserveDB("questions.random", func() error {
		var err error
		questions, err = s.questionRepo.Random(ctx, filter, count)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error sampling questions: %w", err)
	}

	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, dto.FromQuestion(q))
	}

	return &dto.RandomQuestionsResponse{Questions: out, Count: len(out)}, nil
}

// Create adds a hand-entered question. Curated entries skip the review
// queue and are grouped against existing variants immediately.
func (s *questionServiceImpl) Create(ctx context.Context, req *dto.CreateQuestionRequest) (*dto.QuestionResponse, error) {
	course, err := s.courseRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(req.CourseCode)))
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		CourseID:      course.ID,
		Text:          strings.TrimSpace(req.Text),
		Marks:         req.Marks,
		BloomLevel:    req.BloomLevel,
		ExamType:      models.ExamType(req.ExamType),
		ExamYear:      req.ExamYear,
		ReviewStatus:  models.ReviewStatusApproved,
		OCRConfidence: 1.0,
	}

	if req.UnitNumber != nil {
		unit, err := s.courseRepo.GetUnitByCourseAndNumber(ctx, course.ID, *req.UnitNumber)
		if err != nil {
			return nil, err
		}
		question.UnitID = &unit.ID
	}

	id, err := s.questionRepo.Create(ctx, question)
	if err != nil {
		return nil, err
	}
	question.ID = id

	if err := s.regroup(ctx, question); err != nil {
		return nil, err
	}

	s.invalidateSearch(ctx)
	s.logger.Info().Int64("questionID", id).Str("course", course.Code).Msg("Created question")

	return s.respond(ctx, id)
}

// Update modifies a question's curated fields. Variant grouping is left
// alone; it is recomputed on review transitions.
func (s *questionServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateQuestionRequest) (*dto.QuestionResponse, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	question.Text = strings.TrimSpace(req.Text)
	question.Marks = req.Marks
	question.BloomLevel = req.BloomLevel
	question.ExamType = models.ExamType(req.ExamType)
	question.ExamYear = req.ExamYear

	if req.UnitNumber != nil {
		unit, err := s.courseRepo.GetUnitByCourseAndNumber(ctx, question.CourseID, *req.UnitNumber)
		if err != nil {
			return nil, err
		}
		question.UnitID = &unit.ID
	} else {
		question.UnitID = nil
	}

	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, err
	}

	s.invalidateSearch(ctx)

	return s.respond(ctx, id)
}

// Delete soft-deletes a question and shrinks its variant group.
func (s *questionServiceImpl) Delete(ctx context.Context, id int64) error {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.questionRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	if question.VariantGroupID != nil {
		if err := s.questionRepo.RefreshVariantCount(ctx, *question.VariantGroupID); err != nil {
			s.logger.Error().Err(err).Int64("groupID", *question.VariantGroupID).Msg("Failed to refresh variant count after delete")
		}
	}

	s.invalidateSearch(ctx)
	s.logger.Info().Int64("questionID", id).Msg("Soft-deleted question")

	return nil
}

// ListPending returns the review queue, oldest first.
func (s *questionServiceImpl) ListPending(ctx context.Context, page, pageSize int) (*dto.QuestionListResponse, error) {
	questions, total, err := s.questionRepo.ListPending(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing pending questions: %w", err)
	}

	return s.buildListResponse(questions, total, page, pageSize), nil
}

// Review moves a PENDING question to APPROVED or REJECTED. Approval
// recomputes variant grouping; rejection detaches the question from its
// group so counts only reflect live members.
func (s *questionServiceImpl) Review(ctx context.Context, id int64, action string) (*dto.QuestionResponse, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(action) {
	case "approve":
		if err := s.questionRepo.UpdateReviewStatus(ctx, id, models.ReviewStatusApproved); err != nil {
			return nil, err
		}
		if err := s.regroup(ctx, question); err != nil {
			return nil, err
		}

	case "reject":
		if err := s.questionRepo.UpdateReviewStatus(ctx, id, models.ReviewStatusRejected); err != nil {
			return nil, err
		}
		if err := s.questionRepo.DetachFromVariantGroup(ctx, id); err != nil {
			return nil, err
		}
		if question.VariantGroupID != nil && *question.VariantGroupID != id {
			if err := s.questionRepo.RefreshVariantCount(ctx, *question.VariantGroupID); err != nil {
				return nil, err
			}
		}

	default:
		return nil, fmt.Errorf("%w: action must be approve or reject", apperrors.ErrValidationFailed)
	}

	s.invalidateSearch(ctx)
	s.logger.Info().Int64("questionID", id).Str("action", action).Msg("Reviewed question")

	return s.respond(ctx, id)
}

// search runs the repository query under the DB duration metric.
func (s *questionServiceImpl) search(ctx context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error) {
	var (
		questions []*models.Question
		total     int64
	)
	err := s.prom.ObserveDB("questions.search", func() error {
		var err error
		questions, total, err = s.questionRepo.Search(ctx, filter, page, pageSize)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error searching questions: %w", err)
	}
	return questions, total, nil
}

// regroup recomputes which variant group a question belongs to by comparing
// it against live questions of the same course.
func (s *questionServiceImpl) regroup(ctx context.Context, question *models.Question) error {
	candidates, err := s.questionRepo.ListVariantCandidates(ctx, question.CourseID, question.ID)
	if err != nil {
		return fmt.Errorf("error loading variant candidates: %w", err)
	}

	var oldGroup int64
	if question.VariantGroupID != nil {
		oldGroup = *question.VariantGroupID
	}

	match, _ := ingest.BestMatch(question.Text, candidates, s.similarityThreshold)
	if match == nil {
		if err := s.questionRepo.InitVariantGroup(ctx, question.ID); err != nil {
			return err
		}
		if oldGroup != 0 && oldGroup != question.ID {
			return s.questionRepo.RefreshVariantCount(ctx, oldGroup)
		}
		return nil
	}

	groupID := match.ID
	if match.VariantGroupID != nil {
		groupID = *match.VariantGroupID
	}

	if err := s.questionRepo.AssignVariantGroup(ctx, question.ID, groupID); err != nil {
		return err
	}
	if err := s.questionRepo.RefreshVariantCount(ctx, groupID); err != nil {
		return err
	}
	if oldGroup != 0 && oldGroup != groupID {
		return s.questionRepo.RefreshVariantCount(ctx, oldGroup)
	}
	return nil
}

// respond reloads a question so the response carries fresh denormalized
// fields (variant count, unit number).
func (s *questionServiceImpl) respond(ctx context.Context, id int64) (*dto.QuestionResponse, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromQuestion(question)
	return &resp, nil
}

func (s *questionServiceImpl) buildListResponse(questions []*models.Question, total int64, page, pageSize int) *dto.QuestionListResponse {
	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, dto.FromQuestion(q))
	}
	return &dto.QuestionListResponse{
		Questions:  out,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}
}

// invalidateSearch drops every cached search page. Admin writes are rare
// next to reads, so wholesale invalidation is fine.
func (s *questionServiceImpl) invalidateSearch(ctx context.Context) {
	s.cache.DeleteByPrefix(ctx, "search:")
}
