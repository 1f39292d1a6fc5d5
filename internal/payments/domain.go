// Package payments records tuition payments made by students. A payment is
// owned by the paying student's user account, which drives record-level
// access decisions.
package payments

import "time"

// Payment statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusVoided    = "voided"
)

// Payment is a tuition payment linked to a student. Amounts are stored in
// minor units to avoid floating point rounding.
type Payment struct {
	ID          int64      `json:"id"`
	StudentID   int64      `json:"student_id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	Reference   string     `json:"reference,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
