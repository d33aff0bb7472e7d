package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liveclass-backend/internal/models"
)

// CourseRepo covers courses, their checkpoints, and enrollments. It backs
// both the engine's CourseStore contract and the HTTP progress overview.
type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, instructor_id, created_at
		FROM courses
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Title, &c.InstructorID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepo) GetCheckpoint(ctx context.Context, id uuid.UUID) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, title, order_num, is_deleted, created_at
		FROM checkpoints
		WHERE id = $1 AND is_deleted = FALSE
	`, id).Scan(&cp.ID, &cp.CourseID, &cp.Title, &cp.OrderNum, &cp.IsDeleted, &cp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *CourseRepo) ListCheckpoints(ctx context.Context, courseID uuid.UUID) ([]models.Checkpoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, title, order_num, is_deleted, created_at
		FROM checkpoints
		WHERE course_id = $1 AND is_deleted = FALSE
		ORDER BY order_num
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []models.Checkpoint
	for rows.Next() {
		var cp models.Checkpoint
		if err := rows.Scan(&cp.ID, &cp.CourseID, &cp.Title, &cp.OrderNum, &cp.IsDeleted, &cp.CreatedAt); err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}

func (r *CourseRepo) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM enrollments
			WHERE user_id = $1 AND course_id = $2 AND status = 'active'
		)
	`, userID, courseID).Scan(&enrolled)
	return enrolled, err
}

func (r *CourseRepo) CountEnrollments(ctx context.Context, courseID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM enrollments
		WHERE course_id = $1 AND status = 'active'
	`, courseID).Scan(&count)
	return count, err
}

// ListEnrolledStudents returns the students of a course for the instructor's
// progress matrix.
func (r *CourseRepo) ListEnrolledStudents(ctx context.Context, courseID uuid.UUID) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.nickname, u.role, u.is_active, u.created_at, u.last_login_at
		FROM users u
		JOIN enrollments e ON e.user_id = u.id
		WHERE e.course_id = $1 AND e.status = 'active'
		ORDER BY u.full_name
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Nickname, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt); err != nil {
			return nil, err
		}
		students = append(students, u)
	}
	return students, rows.Err()
}
