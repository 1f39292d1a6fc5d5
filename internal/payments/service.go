package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/academia-erp/academia-erp/internal/platform/httpx"
	"github.com/academia-erp/academia-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error)
	Get(ctx context.Context, id int64) (Payment, error)
	Create(ctx context.Context, req CreatePaymentRequest) (Payment, error)
	UpdateStatus(ctx context.Context, id int64, status string) (Payment, error)
}

// Service implements payment use cases.
type Service struct {
	repo        RepositoryPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs a Service. The idempotency store may be nil, in
// which case duplicate submission protection is skipped.
func NewService(repo RepositoryPort, idempotency *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, idempotency: idempotency}
}

// ListResult bundles a page of payments with pagination metadata.
type ListResult struct {
	Payments   []Payment         `json:"payments"`
	Pagination shared.Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, req ListPaymentsRequest) (ListResult, error) {
	payments, total, err := s.repo.List(ctx, req)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Payments:   payments,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	return s.repo.Get(ctx, id)
}

// Create records a payment. When an idempotency key is supplied, a repeat
// submission with the same key is rejected instead of double-charging.
func (s *Service) Create(ctx context.Context, req CreatePaymentRequest, idempotencyKey string) (Payment, error) {
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "payments"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Payment{}, fmt.Errorf("%w: idempotency key already used", httpx.ErrDuplicate)
			}
			return Payment{}, err
		}
	}
	payment, err := s.repo.Create(ctx, req)
	if err != nil && idempotencyKey != "" && s.idempotency != nil {
		_ = s.idempotency.Delete(ctx, idempotencyKey)
	}
	return payment, err
}

// UpdateStatus transitions a payment. Voided payments are terminal.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (Payment, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if current.Status == StatusVoided {
		return Payment{}, fmt.Errorf("%w: payment %d is voided", httpx.ErrValidation, id)
	}
	if current.Status == status {
		return current, nil
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
