package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       *UserRepository
	TokenRepository      *TokenRepository
	CourseRepository     *CourseRepository
	QuestionRepository   *QuestionRepository
	PaperRepository      *PaperRepository
	EnrollmentRepository *EnrollmentRepository
	BookmarkRepository   *BookmarkRepository
	IngestJobRepository  *IngestJobRepository
	ExtractionRepository *ExtractionRepository
}

// NewRepositories initializes all repositories. Postgres backs everything
// except raw extraction documents, which live in MongoDB.
func NewRepositories(db *pgxpool.Pool, mongoDatabase *mongo.Database) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(db),
		TokenRepository:      NewTokenRepository(db),
		CourseRepository:     NewCourseRepository(db),
		QuestionRepository:   NewQuestionRepository(db),
		PaperRepository:      NewPaperRepository(db),
		EnrollmentRepository: NewEnrollmentRepository(db),
		BookmarkRepository:   NewBookmarkRepository(db),
		IngestJobRepository:  NewIngestJobRepository(db),
		ExtractionRepository: NewExtractionRepository(mongoDatabase),
	}
}
