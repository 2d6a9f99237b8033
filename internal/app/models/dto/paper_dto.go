package dto

import "github.com/qpaperai/qpaper-api/internal/app/models"

// UploadPaperRequest carries the multipart form fields of a paper upload
type UploadPaperRequest struct {
	CourseCode string `form:"courseCode" binding:"required"`
	ExamType   string `form:"examType" binding:"required,oneof=CIE SEE"`
	ExamYear   int    `form:"examYear" binding:"required,min=2000,max=2100"`
	Semester   int    `form:"semester" binding:"required,min=1,max=8"`
}

// UploadPaperResponse is returned with 202 Accepted after a paper upload
type UploadPaperResponse struct {
	PaperID int64  `json:"paperId"`
	JobID   string `json:"jobId"`
	Status  string `json:"status" example:"UPLOADED"`
}

// PaperResponse represents an uploaded paper in API responses
type PaperResponse struct {
	ID               int64   `json:"id"`
	CourseCode       string  `json:"courseCode"`
	ExamType         string  `json:"examType"`
	ExamYear         int     `json:"examYear"`
	Semester         int     `json:"semester"`
	OriginalFilename string  `json:"originalFilename"`
	FileSize         int64   `json:"fileSize"`
	Status           string  `json:"status"`
	PageCount        int     `json:"pageCount"`
	QuestionCount    int     `json:"questionCount"`
	Error            *string `json:"error,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

// PaperListResponse represents a page of papers with pagination
type PaperListResponse struct {
	Papers     []PaperResponse `json:"papers"`
	Pagination PaginationInfo  `json:"pagination"`
}

// ExtractionSummary condenses the raw Mongo extraction for the admin UI
type ExtractionSummary struct {
	Extractor      string  `json:"extractor"`
	Pages          int     `json:"pages"`
	Blocks         int     `json:"blocks"`
	DroppedBlocks  int     `json:"droppedBlocks"`
	MeanConfidence float64 `json:"meanConfidence"`
}

// PaperDetailResponse is the admin paper view with its extraction, if any
type PaperDetailResponse struct {
	Paper      PaperResponse      `json:"paper"`
	Extraction *ExtractionSummary `json:"extraction,omitempty"`
}

// FromPaper converts a models.Paper to a PaperResponse
func FromPaper(p *models.Paper) PaperResponse {
	if p == nil {
		return PaperResponse{}
	}
	return PaperResponse{
		ID:               p.ID,
		CourseCode:       p.CourseCode,
		ExamType:         string(p.ExamType),
		ExamYear:         p.ExamYear,
		Semester:         p.Semester,
		OriginalFilename: p.OriginalFilename,
		FileSize:         p.FileSize,
		Status:           string(p.Status),
		PageCount:        p.PageCount,
		QuestionCount:    p.QuestionCount,
		Error:            p.Error,
		CreatedAt:        p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
