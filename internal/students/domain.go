package students

import "time"

// Student represents an enrolled student record. UserID links the record
// to the owning principal for ownership-based authorization.
type Student struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	GroupName  string     `json:"group_name"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
