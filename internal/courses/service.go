package courses

import (
	"context"

	"github.com/academia-erp/academia-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	List(ctx context.Context, req ListCoursesRequest) ([]Course, int, error)
	Get(ctx context.Context, id int64) (Course, error)
	Create(ctx context.Context, req CreateCourseRequest) (Course, error)
	Update(ctx context.Context, id int64, req UpdateCourseRequest) (Course, error)
}

// Service implements course catalog use cases.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListResult bundles a page of courses with pagination metadata.
type ListResult struct {
	Courses    []Course          `json:"courses"`
	Pagination shared.Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, req ListCoursesRequest) (ListResult, error) {
	courses, total, err := s.repo.List(ctx, req)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Courses:    courses,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Course, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateCourseRequest) (Course, error) {
	return s.repo.Create(ctx, req)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCourseRequest) (Course, error) {
	return s.repo.Update(ctx, id, req)
}
