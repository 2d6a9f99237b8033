package dto

import "github.com/qpaperai/qpaper-api/internal/app/models"

// CreateCourseRequest represents the request to create a course
type CreateCourseRequest struct {
	Code       string `json:"code" binding:"required,min=2,max=16"`
	Name       string `json:"name" binding:"required"`
	Credits    int    `json:"credits" binding:"required,min=1,max=10"`
	CourseType string `json:"courseType" binding:"required,oneof=CORE ELECTIVE"`
	Semester   int    `json:"semester" binding:"required,min=1,max=8"`
}

// UpdateCourseRequest represents the request to update a course
type UpdateCourseRequest struct {
	Name       string `json:"name" binding:"required"`
	Credits    int    `json:"credits" binding:"required,min=1,max=10"`
	CourseType string `json:"courseType" binding:"required,oneof=CORE ELECTIVE"`
	Semester   int    `json:"semester" binding:"required,min=1,max=8"`
	IsActive   *bool  `json:"isActive,omitempty"`
}

// CreateUnitRequest adds a syllabus unit to a course
type CreateUnitRequest struct {
	UnitNumber int    `json:"unitNumber" binding:"required,min=1,max=8"`
	Title      string `json:"title" binding:"required"`
}

// CourseResponse represents a course in API responses
type CourseResponse struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Credits    int    `json:"credits"`
	CourseType string `json:"courseType"`
	Semester   int    `json:"semester"`
	IsActive   bool   `json:"isActive"`
}

// UnitResponse represents a syllabus unit in API responses
type UnitResponse struct {
	ID         int64  `json:"id"`
	UnitNumber int    `json:"unitNumber"`
	Title      string `json:"title"`
}

// CourseListResponse represents a list of courses
type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
}

// UnitListResponse represents the units of one course
type UnitListResponse struct {
	CourseCode string         `json:"courseCode"`
	Units      []UnitResponse `json:"units"`
}

// FromCourse converts a models.Course to a CourseResponse
func FromCourse(course *models.Course) CourseResponse {
	if course == nil {
		return CourseResponse{}
	}
	return CourseResponse{
		ID:         course.ID,
		Code:       course.Code,
		Name:       course.Name,
		Credits:    course.Credits,
		CourseType: string(course.CourseType),
		Semester:   course.Semester,
		IsActive:   course.IsActive,
	}
}

// FromUnit converts a models.Unit to a UnitResponse
func FromUnit(unit *models.Unit) UnitResponse {
	if unit == nil {
		return UnitResponse{}
	}
	return UnitResponse{
		ID:         unit.ID,
		UnitNumber: unit.UnitNumber,
		Title:      unit.Title,
	}
}
