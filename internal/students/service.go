package students

import (
	"context"

	"github.com/academia-erp/academia-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	List(ctx context.Context, req ListStudentsRequest) ([]Student, int, error)
	Get(ctx context.Context, id int64) (Student, error)
	Create(ctx context.Context, req CreateStudentRequest) (Student, error)
	Update(ctx context.Context, id int64, req UpdateStudentRequest) (Student, error)
	Delete(ctx context.Context, id int64) error
}

// Service implements student management use cases.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListResult bundles a page of students with pagination metadata.
type ListResult struct {
	Students   []Student         `json:"students"`
	Pagination shared.Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, req ListStudentsRequest) (ListResult, error) {
	students, total, err := s.repo.List(ctx, req)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Students:   students,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Student, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateStudentRequest) (Student, error) {
	return s.repo.Create(ctx, req)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateStudentRequest) (Student, error) {
	return s.repo.Update(ctx, id, req)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
