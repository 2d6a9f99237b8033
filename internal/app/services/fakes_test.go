package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
)

// Function-field fakes for the store interfaces. Each fake embeds its
// interface, so a test only wires the methods its code path reaches; an
// unwired call panics and points at the missing stub.

type fakeUserStore struct {
	userStore
	create               func(ctx context.Context, user *models.User) (int64, error)
	getByID              func(ctx context.Context, id int64) (*models.User, error)
	getByUsernameOrEmail func(ctx context.Context, identifier string) (*models.User, error)
	usernameExists       func(ctx context.Context, username string) (bool, error)
	emailExists          func(ctx context.Context, email string) (bool, error)
	updateLastLogin      func(ctx context.Context, userID int64) error
	updatePassword       func(ctx context.Context, userID int64, passwordHash string) error
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) (int64, error) {
	return f.create(ctx, user)
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return f.getByID(ctx, id)
}

func (f *fakeUserStore) GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	return f.getByUsernameOrEmail(ctx, identifier)
}

func (f *fakeUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return f.usernameExists(ctx, username)
}

func (f *fakeUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return f.emailExists(ctx, email)
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, userID int64) error {
	return f.updateLastLogin(ctx, userID)
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return f.updatePassword(ctx, userID, passwordHash)
}

// fakeTokenStore is an in-memory refresh token table with the repository's
// semantics: revoked and expired tokens are rejected on lookup.
type fakeTokenStore struct {
	records map[string]*tokenRecord
	created []string
}

type tokenRecord struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{records: make(map[string]*tokenRecord)}
}

func (f *fakeTokenStore) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	f.records[token] = &tokenRecord{userID: userID, expiry: expiryDate}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeTokenStore) GetTokenByValue(ctx context.Context, token string) (int64, time.Time, error) {
	rec, ok := f.records[token]
	if !ok {
		return 0, time.Time{}, apperrors.ErrTokenNotFound
	}
	if rec.revoked {
		return 0, time.Time{}, apperrors.ErrTokenRevoked
	}
	if rec.expiry.Before(time.Now()) {
		return 0, time.Time{}, apperrors.ErrTokenExpired
	}
	return rec.userID, rec.expiry, nil
}

func (f *fakeTokenStore) RevokeToken(ctx context.Context, token string) error {
	rec, ok := f.records[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	rec.revoked = true
	return nil
}

func (f *fakeTokenStore) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	for _, rec := range f.records {
		if rec.userID == userID {
			rec.revoked = true
		}
	}
	return nil
}

type fakeCourseStore struct {
	courseStore
	create                   func(ctx context.Context, course *models.Course) (int64, error)
	getByID                  func(ctx context.Context, id int64) (*models.Course, error)
	getByCode                func(ctx context.Context, code string) (*models.Course, error)
	getByCodes               func(ctx context.Context, codes []string) ([]*models.Course, error)
	listActive               func(ctx context.Context) ([]*models.Course, error)
	deactivate               func(ctx context.Context, id int64) error
	hasQuestions             func(ctx context.Context, courseID int64) (bool, error)
	listUnitsByCourse        func(ctx context.Context, courseID int64) ([]*models.Unit, error)
	getUnitByCourseAndNumber func(ctx context.Context, courseID int64, unitNumber int) (*models.Unit, error)
}

func (f *fakeCourseStore) Create(ctx context.Context, course *models.Course) (int64, error) {
	return f.create(ctx, course)
}

func (f *fakeCourseStore) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	return f.getByID(ctx, id)
}

func (f *fakeCourseStore) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	return f.getByCode(ctx, code)
}

func (f *fakeCourseStore) GetByCodes(ctx context.Context, codes []string) ([]*models.Course, error) {
	return f.getByCodes(ctx, codes)
}

func (f *fakeCourseStore) ListActive(ctx context.Context) ([]*models.Course, error) {
	return f.listActive(ctx)
}

func (f *fakeCourseStore) Deactivate(ctx context.Context, id int64) error {
	return f.deactivate(ctx, id)
}

func (f *fakeCourseStore) HasQuestions(ctx context.Context, courseID int64) (bool, error) {
	return f.hasQuestions(ctx, courseID)
}

func (f *fakeCourseStore) ListUnitsByCourse(ctx context.Context, courseID int64) ([]*models.Unit, error) {
	return f.listUnitsByCourse(ctx, courseID)
}

func (f *fakeCourseStore) GetUnitByCourseAndNumber(ctx context.Context, courseID int64, unitNumber int) (*models.Unit, error) {
	return f.getUnitByCourseAndNumber(ctx, courseID, unitNumber)
}

type fakeQuestionStore struct {
	questionStore
	create                 func(ctx context.Context, question *models.Question) (int64, error)
	getByID                func(ctx context.Context, id int64) (*models.Question, error)
	update                 func(ctx context.Context, question *models.Question) error
	softDelete             func(ctx context.Context, id int64) error
	search                 func(ctx context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error)
	listPending            func(ctx context.Context, page, pageSize int) ([]*models.Question, int64, error)
	updateReviewStatus     func(ctx context.Context, id int64, status models.ReviewStatus) error
	random                 func(ctx context.Context, filter models.QuestionFilter, count int) ([]*models.Question, error)
	listVariantCandidates  func(ctx context.Context, courseID, excludeID int64) ([]models.VariantCandidate, error)
	assignVariantGroup     func(ctx context.Context, questionID, groupID int64) error
	initVariantGroup       func(ctx context.Context, questionID int64) error
	detachFromVariantGroup func(ctx context.Context, questionID int64) error
	refreshVariantCount    func(ctx context.Context, groupID int64) error
}

func (f *fakeQuestionStore) Create(ctx context.Context, question *models.Question) (int64, error) {
	return f.create(ctx, question)
}

func (f *fakeQuestionStore) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	return f.getByID(ctx, id)
}

func (f *fakeQuestionStore) Update(ctx context.Context, question *models.Question) error {
	return f.update(ctx, question)
}

func (f *fakeQuestionStore) SoftDelete(ctx context.Context, id int64) error {
	return f.softDelete(ctx, id)
}

func (f *fakeQuestionStore) Search(ctx context.Context, filter models.QuestionFilter, page, pageSize int) ([]*models.Question, int64, error) {
	return f.search(ctx, filter, page, pageSize)
}

func (f *fakeQuestionStore) ListPending(ctx context.Context, page, pageSize int) ([]*models.Question, int64, error) {
	return f.listPending(ctx, page, pageSize)
}

func (f *fakeQuestionStore) UpdateReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) error {
	return f.updateReviewStatus(ctx, id, status)
}

func (f *fakeQuestionStore) Random(ctx context.Context, filter models.QuestionFilter, count int) ([]*models.Question, error) {
	return f.random(ctx, filter, count)
}

func (f *fakeQuestionStore) ListVariantCandidates(ctx context.Context, courseID, excludeID int64) ([]models.VariantCandidate, error) {
	return f.listVariantCandidates(ctx, courseID, excludeID)
}

func (f *fakeQuestionStore) AssignVariantGroup(ctx context.Context, questionID, groupID int64) error {
	return f.assignVariantGroup(ctx, questionID, groupID)
}

func (f *fakeQuestionStore) InitVariantGroup(ctx context.Context, questionID int64) error {
	return f.initVariantGroup(ctx, questionID)
}

func (f *fakeQuestionStore) DetachFromVariantGroup(ctx context.Context, questionID int64) error {
	return f.detachFromVariantGroup(ctx, questionID)
}

func (f *fakeQuestionStore) RefreshVariantCount(ctx context.Context, groupID int64) error {
	return f.refreshVariantCount(ctx, groupID)
}

type fakeEnrollmentStore struct {
	enrollmentStore
	replaceSelection    func(ctx context.Context, userID int64, courseIDs []int64) error
	listByUser          func(ctx context.Context, userID int64) ([]*models.StudentCourse, error)
	listCourseIDsByUser func(ctx context.Context, userID int64) ([]int64, error)
	listCodesByUser     func(ctx context.Context, userID int64) ([]string, error)
}

func (f *fakeEnrollmentStore) ReplaceSelection(ctx context.Context, userID int64, courseIDs []int64) error {
	return f.replaceSelection(ctx, userID, courseIDs)
}

func (f *fakeEnrollmentStore) ListByUser(ctx context.Context, userID int64) ([]*models.StudentCourse, error) {
	return f.listByUser(ctx, userID)
}

func (f *fakeEnrollmentStore) ListCourseIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return f.listCourseIDsByUser(ctx, userID)
}

func (f *fakeEnrollmentStore) ListCodesByUser(ctx context.Context, userID int64) ([]string, error) {
	return f.listCodesByUser(ctx, userID)
}

type fakeBookmarkStore struct {
	bookmarkStore
	exists              func(ctx context.Context, userID, questionID int64) (bool, error)
	insert              func(ctx context.Context, userID, questionID int64) error
	deleteFn            func(ctx context.Context, userID, questionID int64) error
	countByUser         func(ctx context.Context, userID int64) (int64, error)
	listQuestionsByUser func(ctx context.Context, userID int64, page, pageSize int) ([]*models.Question, int64, error)
	bookmarkedSet       func(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error)
}

func (f *fakeBookmarkStore) Exists(ctx context.Context, userID, questionID int64) (bool, error) {
	return f.exists(ctx, userID, questionID)
}

func (f *fakeBookmarkStore) Insert(ctx context.Context, userID, questionID int64) error {
	return f.insert(ctx, userID, questionID)
}

func (f *fakeBookmarkStore) Delete(ctx context.Context, userID, questionID int64) error {
	return f.deleteFn(ctx, userID, questionID)
}

func (f *fakeBookmarkStore) CountByUser(ctx context.Context, userID int64) (int64, error) {
	return f.countByUser(ctx, userID)
}

func (f *fakeBookmarkStore) ListQuestionsByUser(ctx context.Context, userID int64, page, pageSize int) ([]*models.Question, int64, error) {
	return f.listQuestionsByUser(ctx, userID, page, pageSize)
}

func (f *fakeBookmarkStore) BookmarkedSet(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error) {
	return f.bookmarkedSet(ctx, userID, questionIDs)
}

type fakePaperStore struct {
	paperStore
	create     func(ctx context.Context, paper *models.Paper) (int64, error)
	getByID    func(ctx context.Context, id int64) (*models.Paper, error)
	markFailed func(ctx context.Context, id int64, reason string) error
}

func (f *fakePaperStore) Create(ctx context.Context, paper *models.Paper) (int64, error) {
	return f.create(ctx, paper)
}

func (f *fakePaperStore) GetByID(ctx context.Context, id int64) (*models.Paper, error) {
	return f.getByID(ctx, id)
}

func (f *fakePaperStore) MarkFailed(ctx context.Context, id int64, reason string) error {
	return f.markFailed(ctx, id, reason)
}

type fakeIngestQueue struct {
	enqueue func(ctx context.Context, paperID int64, maxAttempts int) (*models.IngestJob, error)
}

func (f *fakeIngestQueue) Enqueue(ctx context.Context, paperID int64, maxAttempts int) (*models.IngestJob, error) {
	return f.enqueue(ctx, paperID, maxAttempts)
}

type fakeExtractionStore struct {
	getByID func(ctx context.Context, hexID string) (*models.Extraction, error)
}

func (f *fakeExtractionStore) GetByID(ctx context.Context, hexID string) (*models.Extraction, error) {
	return f.getByID(ctx, hexID)
}

// fakeFileStorage records saves and deletes without touching the disk.
type fakeFileStorage struct {
	savedPath string
	saveErr   error
	saved     []string
	deleted   []string
}

func (f *fakeFileStorage) SaveFile(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, f.savedPath)
	return f.savedPath, nil
}

func (f *fakeFileStorage) DeleteFile(filePath string) error {
	f.deleted = append(f.deleted, filePath)
	return nil
}

func (f *fakeFileStorage) GetFullPath(filePath string) string {
	return filePath
}
