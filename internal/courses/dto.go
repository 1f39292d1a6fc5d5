package courses

type CreateCourseRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	TeacherID   int64  `json:"teacher_id" validate:"required,gt=0"`
	Credits     int    `json:"credits" validate:"required,gte=1,lte=30"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Credits     *int    `json:"credits,omitempty" validate:"omitempty,gte=1,lte=30"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListCoursesRequest struct {
	Search    *string `json:"search,omitempty"`
	TeacherID *int64  `json:"teacher_id,omitempty"`
	Page      int     `json:"page" validate:"gte=0"`
	PerPage   int     `json:"per_page" validate:"gte=0,lte=200"`
}
