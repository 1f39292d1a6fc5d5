// Package courses manages the course catalog. Each course is owned by the
// teacher assigned to it, which drives record-level access decisions.
package courses

import "time"

// Course is a catalog entry taught by a single teacher.
type Course struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TeacherID   int64     `json:"teacher_id"`
	Credits     int       `json:"credits"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
