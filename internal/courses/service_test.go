package courses

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/academia-erp/academia-erp/internal/platform/httpx"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Course
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, rows: map[int64]Course{}}
}

func (m *memRepo) List(_ context.Context, req ListCoursesRequest) ([]Course, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Course
	for _, c := range m.rows {
		if req.TeacherID != nil && c.TeacherID != *req.TeacherID {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return Course{}, httpx.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) Create(_ context.Context, req CreateCourseRequest) (Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Code == req.Code {
			return Course{}, fmt.Errorf("%w: code %s", httpx.ErrDuplicate, req.Code)
		}
	}
	now := time.Now()
	c := Course{
		ID:          m.nextID,
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		TeacherID:   req.TeacherID,
		Credits:     req.Credits,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextID++
	m.rows[c.ID] = c
	return c, nil
}

func (m *memRepo) Update(_ context.Context, id int64, req UpdateCourseRequest) (Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return Course{}, httpx.ErrNotFound
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Credits != nil {
		c.Credits = *req.Credits
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	c.UpdatedAt = time.Now()
	m.rows[id] = c
	return c, nil
}

func TestServiceCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	req := CreateCourseRequest{Code: "CS101", Title: "Intro", TeacherID: 7, Credits: 6}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestServiceListFiltersByTeacher(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	for i, teacherID := range []int64{7, 7, 9} {
		_, err := svc.Create(ctx, CreateCourseRequest{
			Code:      fmt.Sprintf("CS10%d", i),
			Title:     "Course",
			TeacherID: teacherID,
			Credits:   4,
		})
		require.NoError(t, err)
	}

	teacherID := int64(7)
	result, err := svc.List(ctx, ListCoursesRequest{TeacherID: &teacherID})
	require.NoError(t, err)
	require.Len(t, result.Courses, 2)
}

func TestServiceUpdateAppliesPartialChanges(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCourseRequest{Code: "CS101", Title: "Intro", TeacherID: 7, Credits: 6})
	require.NoError(t, err)

	title := "Introduction to Programming"
	updated, err := svc.Update(ctx, created.ID, UpdateCourseRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, created.Credits, updated.Credits)

	_, err = svc.Update(ctx, 404, UpdateCourseRequest{Title: &title})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
