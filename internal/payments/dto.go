package payments

type CreatePaymentRequest struct {
	StudentID   int64  `json:"student_id" validate:"required,gt=0"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3,uppercase"`
	Reference   string `json:"reference" validate:"max=100"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed voided"`
}

type ListPaymentsRequest struct {
	StudentID *int64  `json:"student_id,omitempty"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=pending completed voided"`
	Page      int     `json:"page" validate:"gte=0"`
	PerPage   int     `json:"per_page" validate:"gte=0,lte=200"`
}
