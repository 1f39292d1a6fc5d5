package students

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/academia-erp/academia-erp/internal/platform/httpx"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Student
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, rows: map[int64]Student{}}
}

func (m *memRepo) List(_ context.Context, req ListStudentsRequest) ([]Student, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Student
	for _, s := range m.rows {
		if req.Group != nil && s.GroupName != *req.Group {
			continue
		}
		if req.Search != nil && !strings.Contains(strings.ToLower(s.LastName), strings.ToLower(*req.Search)) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return Student{}, httpx.ErrNotFound
	}
	return s, nil
}

func (m *memRepo) Create(_ context.Context, req CreateStudentRequest) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.Email == req.Email {
			return Student{}, fmt.Errorf("%w: email %s", httpx.ErrDuplicate, req.Email)
		}
	}
	now := time.Now()
	s := Student{
		ID:        m.nextID,
		UserID:    req.UserID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		GroupName: req.GroupName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.nextID++
	m.rows[s.ID] = s
	return s, nil
}

func (m *memRepo) Update(_ context.Context, id int64, req UpdateStudentRequest) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return Student{}, httpx.ErrNotFound
	}
	if req.FirstName != nil {
		s.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		s.LastName = *req.LastName
	}
	if req.GroupName != nil {
		s.GroupName = *req.GroupName
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	s.UpdatedAt = time.Now()
	m.rows[id] = s
	return s, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestServiceCreateAndGet(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateStudentRequest{
		UserID:    10,
		FirstName: "Lena",
		LastName:  "Koval",
		Email:     "lena.koval@example.edu",
		GroupName: "CS-21",
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Email, got.Email)
}

func TestServiceCreateRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	req := CreateStudentRequest{UserID: 10, FirstName: "Lena", LastName: "Koval", Email: "lena@example.edu"}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	req.UserID = 11
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestServiceListFiltersByGroup(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	for i, group := range []string{"CS-21", "CS-21", "MA-19"} {
		_, err := svc.Create(ctx, CreateStudentRequest{
			UserID:    int64(i + 1),
			FirstName: "Student",
			LastName:  fmt.Sprintf("Number%d", i),
			Email:     fmt.Sprintf("s%d@example.edu", i),
			GroupName: group,
		})
		require.NoError(t, err)
	}

	group := "CS-21"
	result, err := svc.List(ctx, ListStudentsRequest{Group: &group})
	require.NoError(t, err)
	require.Len(t, result.Students, 2)
	require.Equal(t, 2, result.Pagination.Total)
}

func TestServiceUpdateMissingStudent(t *testing.T) {
	svc := NewService(newMemRepo())
	name := "Renamed"
	_, err := svc.Update(context.Background(), 404, UpdateStudentRequest{FirstName: &name})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestServiceDeleteRemovesStudent(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateStudentRequest{UserID: 1, FirstName: "A", LastName: "B", Email: "a@example.edu"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID), httpx.ErrNotFound)
}
