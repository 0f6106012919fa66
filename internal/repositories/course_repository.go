package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
)

type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := r.db.QueryRowContext(ctx, `SELECT id, title FROM courses WHERE id = $1`, id).Scan(&course.ID, &course.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &course, nil
}
