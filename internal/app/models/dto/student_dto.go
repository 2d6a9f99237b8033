package dto

// SelectCoursesRequest replaces the student's entire course selection.
// Unknown or inactive codes reject the whole request.
type SelectCoursesRequest struct {
	CourseCodes []string `json:"courseCodes" binding:"required,min=1,max=12,dive,required"`
}

// MyCoursesResponse lists the student's selected courses
type MyCoursesResponse struct {
	Courses []CourseResponse `json:"courses"`
}

// BookmarkToggleResponse reports the bookmark state after a toggle
type BookmarkToggleResponse struct {
	QuestionID int64 `json:"questionId"`
	Bookmarked bool  `json:"bookmarked"`
}
