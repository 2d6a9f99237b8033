package models

import "time"

// Question represents a single exam question extracted from a paper or
// entered by hand. Questions enter the catalog as PENDING and become
// publicly searchable once APPROVED.
type Question struct {
	ID             int64        `json:"id" db:"id"`
	CourseID       int64        `json:"courseId" db:"course_id"`
	UnitID         *int64       `json:"unitId,omitempty" db:"unit_id"`   // Nullable, set when a unit heading was detected
	PaperID        *int64       `json:"paperId,omitempty" db:"paper_id"` // Nullable, null for hand-entered questions
	Text           string       `json:"text" db:"text"`
	Marks          int          `json:"marks" db:"marks"`
	BloomLevel     int          `json:"bloomLevel" db:"bloom_level"` // 1..6
	ExamType       ExamType     `json:"examType" db:"exam_type"`
	ExamYear       int          `json:"examYear" db:"exam_year"`
	ReviewStatus   ReviewStatus `json:"reviewStatus" db:"review_status"`
	OCRConfidence  float64      `json:"ocrConfidence" db:"ocr_confidence"` // 0..1, 1 for hand-entered
	VariantGroupID *int64       `json:"variantGroupId,omitempty" db:"variant_group_id"`
	VariantCount   int          `json:"variantCount" db:"variant_count"` // Members of the variant group, denormalized
	IsDeleted      bool         `json:"-" db:"is_deleted"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	CourseCode string `json:"courseCode,omitempty" db:"course_code"`
	UnitNumber *int   `json:"unitNumber,omitempty" db:"unit_number"`
}

// QuestionFilter narrows question searches. Zero values mean "any".
// The same struct drives public/student search and random sampling, which
// keeps cache keys derivable from a single value.
type QuestionFilter struct {
	Query      string   `json:"query,omitempty"`
	CourseCode string   `json:"courseCode,omitempty"`
	CourseIDs  []int64  `json:"courseIds,omitempty"` // Restrict to these courses (student my-courses scope)
	UnitNumber int      `json:"unitNumber,omitempty"`
	BloomLevel int      `json:"bloomLevel,omitempty"`
	Marks      int      `json:"marks,omitempty"`
	ExamType   ExamType `json:"examType,omitempty"`
	ExamYear   int      `json:"examYear,omitempty"`
}

// VariantCandidate is the slim projection used for similarity matching.
type VariantCandidate struct {
	ID             int64
	Text           string
	VariantGroupID *int64
}

// StatBucket is a single grouped count used by the stats endpoint.
type StatBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}
