package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin   RoleType = "ADMIN"
	RoleFaculty RoleType = "FACULTY"
	RoleStudent RoleType = "STUDENT"
)

// ExamType labels a question or paper as internal or external assessment.
type ExamType string

const (
	ExamTypeCIE ExamType = "CIE" // Continuous Internal Evaluation
	ExamTypeSEE ExamType = "SEE" // Semester End Examination
)

// CourseType distinguishes mandatory and elective courses.
type CourseType string

const (
	CourseTypeCore     CourseType = "CORE"
	CourseTypeElective CourseType = "ELECTIVE"
)

// ReviewStatus tracks a question through the moderation queue.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "PENDING"
	ReviewStatusApproved ReviewStatus = "APPROVED"
	ReviewStatusRejected ReviewStatus = "REJECTED"
)

// PaperStatus tracks an uploaded question paper through extraction.
type PaperStatus string

const (
	PaperStatusUploaded   PaperStatus = "UPLOADED"
	PaperStatusProcessing PaperStatus = "PROCESSING"
	PaperStatusExtracted  PaperStatus = "EXTRACTED"
	PaperStatusFailed     PaperStatus = "FAILED"
)

// Bloom taxonomy bounds for question classification.
const (
	BloomLevelMin = 1
	BloomLevelMax = 6
)
