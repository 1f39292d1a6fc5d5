package students

import "time"

type CreateStudentRequest struct {
	UserID     int64      `json:"user_id" validate:"required,gt=0"`
	FirstName  string     `json:"first_name" validate:"required,max=100"`
	LastName   string     `json:"last_name" validate:"required,max=100"`
	Email      string     `json:"email" validate:"required,email"`
	GroupName  string     `json:"group_name" validate:"max=100"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
}

type UpdateStudentRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	GroupName *string `json:"group_name,omitempty" validate:"omitempty,max=100"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type ListStudentsRequest struct {
	Search  *string `json:"search,omitempty"`
	Group   *string `json:"group,omitempty"`
	Page    int     `json:"page" validate:"gte=0"`
	PerPage int     `json:"per_page" validate:"gte=0,lte=200"`
}
