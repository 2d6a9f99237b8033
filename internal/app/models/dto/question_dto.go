package dto

import "github.com/qpaperai/qpaper-api/internal/app/models"

// CreateQuestionRequest represents a hand-entered question
type CreateQuestionRequest struct {
	CourseCode string `json:"courseCode" binding:"required"`
	UnitNumber *int   `json:"unitNumber,omitempty" binding:"omitempty,min=1,max=8"`
	Text       string `json:"text" binding:"required,min=10"`
	Marks      int    `json:"marks" binding:"required,min=1,max=20"`
	BloomLevel int    `json:"bloomLevel" binding:"required,min=1,max=6"`
	ExamType   string `json:"examType" binding:"required,oneof=CIE SEE"`
	ExamYear   int    `json:"examYear" binding:"required,min=2000,max=2100"`
}

// UpdateQuestionRequest represents the request to update a question
type UpdateQuestionRequest struct {
	UnitNumber *int   `json:"unitNumber,omitempty" binding:"omitempty,min=1,max=8"`
	Text       string `json:"text" binding:"required,min=10"`
	Marks      int    `json:"marks" binding:"required,min=1,max=20"`
	BloomLevel int    `json:"bloomLevel" binding:"required,min=1,max=6"`
	ExamType   string `json:"examType" binding:"required,oneof=CIE SEE"`
	ExamYear   int    `json:"examYear" binding:"required,min=2000,max=2100"`
}

// ReviewQuestionRequest moves a pending question through moderation
type ReviewQuestionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

// QuestionResponse represents a question in API responses
type QuestionResponse struct {
	ID            int64   `json:"id"`
	CourseCode    string  `json:"courseCode"`
	UnitNumber    *int    `json:"unitNumber,omitempty"`
	Text          string  `json:"text"`
	Marks         int     `json:"marks"`
	BloomLevel    int     `json:"bloomLevel"`
	ExamType      string  `json:"examType"`
	ExamYear      int     `json:"examYear"`
	ReviewStatus  string  `json:"reviewStatus,omitempty"`
	OCRConfidence float64 `json:"ocrConfidence,omitempty"`
	VariantCount  int     `json:"variantCount"`
	Bookmarked    *bool   `json:"bookmarked,omitempty"` // Set on student search only
}

// QuestionListResponse represents a page of questions with pagination
type QuestionListResponse struct {
	Questions  []QuestionResponse `json:"questions"`
	Pagination PaginationInfo     `json:"pagination"`
}

// RandomQuestionsResponse backs the practice mode endpoint
type RandomQuestionsResponse struct {
	Questions []QuestionResponse `json:"questions"`
	Count     int                `json:"count"`
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
}

// FromQuestion converts a models.Question to a QuestionResponse
func FromQuestion(q *models.Question) QuestionResponse {
	if q == nil {
		return QuestionResponse{}
	}
	return QuestionResponse{
		ID:            q.ID,
		CourseCode:    q.CourseCode,
		UnitNumber:    q.UnitNumber,
		Text:          q.Text,
		Marks:         q.Marks,
		BloomLevel:    q.BloomLevel,
		ExamType:      string(q.ExamType),
		ExamYear:      q.ExamYear,
		ReviewStatus:  string(q.ReviewStatus),
		OCRConfidence: q.OCRConfidence,
		VariantCount:  q.VariantCount,
	}
}

// FromQuestions converts a slice of questions
func FromQuestions(questions []models.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, FromQuestion(&questions[i]))
	}
	return out
}
