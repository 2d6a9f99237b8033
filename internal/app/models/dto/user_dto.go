package dto

// UserFilterRequest represents user filtering parameters for the admin list
type UserFilterRequest struct {
	Role     *string `form:"role,omitempty"`
	Search   *string `form:"search,omitempty"` // Matches username, email or full name
	Page     int     `form:"page,default=1" binding:"min=1"`
	PageSize int     `form:"pageSize,default=10" binding:"min=1,max=100"`
}

// UserListResponse represents a list of users with pagination
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// SetUserActiveRequest enables or disables an account
type SetUserActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}
