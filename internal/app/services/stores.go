package services

import (
	"context"
	"time"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
)

// Store interfaces consumed by the services. The repositories package
// provides the production implementations; tests substitute fakes.

type userStore interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	SetActive(ctx context.Context, userID int64, isActive bool) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	List(ctx context.Context, filters map[string]interface{}, page, pageSize int) ([]*models.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type tokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (int64, time.Time, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

type courseStore interface {
	Create(ctx context.Context, course *models.Course) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	GetByCode(ctx context.Context, code string) (*models.Course, error)
	GetByCodes(ctx context.Context, codes []string) ([]*models.Course, error)
	ListActive(ctx context.Context) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id int64) error
	HasQuestions(ctx context.Context, courseID int64) (bool, error)
	CreateUnit(ctx context.Context, unit *models.Unit) (int64, error)
	ListUnitsByCourse(ctx context.Context, courseID int64) ([]*models.Unit, error)
	GetUnitByCourseAndNumber(ctx context.Context, courseID int64, unitNumber int) (*models.Unit, error)
	Count(ctx context.Context) (int64, error)
}

type questionStore interface {
	Create(ctx context.Context, question *models.Question) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	SoftDelete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error)
	ListPending(ctx context.Context, page, pageSize int) ([]*models.Question, int64, error)
	UpdateReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) error
	Random(ctx context.Context, filter models.QuestionFilter, count int) ([]*models.Question, error)
	ListVariantCandidates(ctx context.Context, courseID, excludeID int64) ([]models.VariantCandidate, error)
	AssignVariantGroup(ctx context.Context, questionID, groupID int64) error
	InitVariantGroup(ctx context.Context, questionID int64) error
	DetachFromVariantGroup(ctx context.Context, questionID int64) error
	RefreshVariantCount(ctx context.Context, groupID int64) error
	CountLive(ctx context.Context) (int64, error)
	CountByCourse(ctx context.Context) ([]models.StatBucket, error)
	CountByBloomLevel(ctx context.Context) ([]models.StatBucket, error)
	CountByReviewStatus(ctx context.Context) ([]models.StatBucket, error)
}

type enrollmentStore interface {
	ReplaceSelection(ctx context.Context, userID int64, courseIDs []int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.StudentCourse, error)
	ListCourseIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	ListCodesByUser(ctx context.Context, userID int64) ([]string, error)
}

type bookmarkStore interface {
	Exists(ctx context.Context, userID, questionID int64) (bool, error)
	Insert(ctx context.Context, userID, questionID int64) error
	Delete(ctx context.Context, userID, questionID int64) error
	CountByUser(ctx context.Context, userID int64) (int64, error)
	ListQuestionsByUser(ctx context.Context, userID int64, page, pageSize int) ([]*models.Question, int64, error)
	BookmarkedSet(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error)
}

type paperStore interface {
	Create(ctx context.Context, paper *models.Paper) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Paper, error)
	List(ctx context.Context, filters map[string]interface{}, page, pageSize int) ([]*models.Paper, int64, error)
	MarkFailed(ctx context.Context, id int64, reason string) error
	Count(ctx context.Context) (int64, error)
}

type ingestQueue interface {
	Enqueue(ctx context.Context, paperID int64, maxAttempts int) (*models.IngestJob, error)
}

type extractionStore interface {
	GetByID(ctx context.Context, hexID string) (*models.Extraction, error)
}

// compile-time checks that the repositories satisfy the store interfaces
var (
	_ userStore       = (*repositories.UserRepository)(nil)
	_ tokenStore      = (*repositories.TokenRepository)(nil)
	_ courseStore     = (*repositories.CourseRepository)(nil)
	_ questionStore   = (*repositories.QuestionRepository)(nil)
	_ enrollmentStore = (*repositories.EnrollmentRepository)(nil)
	_ bookmarkStore   = (*repositories.BookmarkRepository)(nil)
	_ paperStore      = (*repositories.PaperRepository)(nil)
	_ ingestQueue     = (*repositories.IngestJobRepository)(nil)
	_ extractionStore = (*repositories.ExtractionRepository)(nil)
)
