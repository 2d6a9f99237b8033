package services

import (
	"context"
	"fmt"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
)

// StatsService aggregates catalog counts for the admin dashboard.
type StatsService struct {
	questionRepo questionStore
	courseRepo   courseStore
	paperRepo    paperStore
	userRepo     userStore
}

// NewStatsService creates a new StatsService
func NewStatsService(repos *repositories.Repositories) *StatsService {
	return &StatsService{
		questionRepo: repos.QuestionRepository,
		courseRepo:   repos.CourseRepository,
		paperRepo:    repos.PaperRepository,
		userRepo:     repos.UserRepository,
	}
}

// GetStats returns totals and grouped question counts.
func (s *StatsService) GetStats(ctx context.Context) (*dto.StatsResponse, error) {
	totalQuestions, err := s.questionRepo.CountLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting questions: %w", err)
	}
	totalCourses, err := s.courseRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting courses: %w", err)
	}
	totalPapers, err := s.paperRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting papers: %w", err)
	}
	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}

	byCourse, err := s.questionRepo.CountByCourse(ctx)
	if err != nil {
		return nil, fmt.Errorf("error grouping by course: %w", err)
	}
	byBloom, err := s.questionRepo.CountByBloomLevel(ctx)
	if err != nil {
		return nil, fmt.Errorf("error grouping by bloom level: %w", err)
	}
	byStatus, err := s.questionRepo.CountByReviewStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("error grouping by review status: %w", err)
	}

	return &dto.StatsResponse{
		TotalQuestions: totalQuestions,
		TotalCourses:   totalCourses,
		TotalPapers:    totalPapers,
		TotalUsers:     totalUsers,
		ByCourse:       toStatsBuckets(byCourse),
		ByBloomLevel:   toStatsBuckets(byBloom),
		ByReviewStatus: toStatsBuckets(byStatus),
	}, nil
}

func toStatsBuckets(buckets []models.StatBucket) []dto.StatsBucket {
	out := make([]dto.StatsBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, dto.StatsBucket{Key: b.Key, Count: b.Count})
	}
	return out
}
