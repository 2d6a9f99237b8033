package models

import "time"

// Paper represents an uploaded question paper file and its extraction
// lifecycle. The raw extraction document lives in MongoDB; ExtractionID
// holds its hex object id once extraction succeeds.
type Paper struct {
	ID               int64       `json:"id" db:"id"`
	CourseID         int64       `json:"courseId" db:"course_id"`
	ExamType         ExamType    `json:"examType" db:"exam_type"`
	ExamYear         int         `json:"examYear" db:"exam_year"`
	Semester         int         `json:"semester" db:"semester"`
	FilePath         string      `json:"-" db:"file_path"`
	OriginalFilename string      `json:"originalFilename" db:"original_filename"`
	FileSize         int64       `json:"fileSize" db:"file_size"`
	Status           PaperStatus `json:"status" db:"status"`
	PageCount        int         `json:"pageCount" db:"page_count"`
	QuestionCount    int         `json:"questionCount" db:"question_count"`
	ExtractionID     *string     `json:"extractionId,omitempty" db:"extraction_id"`
	Error            *string     `json:"error,omitempty" db:"error"`
	UploadedBy       int64       `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt        time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time   `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	CourseCode string `json:"courseCode,omitempty" db:"course_code"`
}
