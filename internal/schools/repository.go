package schools

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/school-dashboard/backend/internal/models"
)

// Repository handles school, class and student persistence. Onboarding
// writes to classes and students happen inside the onboarding transaction;
// this repository covers directory management and reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a schools repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSchool creates a school.
func (r *Repository) CreateSchool(ctx context.Context, s *models.School) error {
	const q = `INSERT INTO schools (name) VALUES ($1) RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.Name).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetSchool returns a school by id.
func (r *Repository) GetSchool(ctx context.Context, id uuid.UUID) (*models.School, error) {
	const q = `SELECT id, name, created_at, updated_at FROM schools WHERE id = $1`
	var s models.School
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSchools returns all schools ordered by name.
func (r *Repository) ListSchools(ctx context.Context) ([]*models.School, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.School
	for rows.Next() {
		var s models.School
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// CreateClass creates a class in a school.
func (r *Repository) CreateClass(ctx context.Context, cl *models.Class) error {
	const q = `INSERT INTO classes (school_id, name) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, cl.SchoolID, cl.Name).Scan(&cl.ID, &cl.CreatedAt, &cl.UpdatedAt)
}

// GetClass returns a class by id.
func (r *Repository) GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	const q = `SELECT id, school_id, name, class_teacher_id, created_at, updated_at FROM classes WHERE id = $1`
	var cl models.Class
	err := r.pool.QueryRow(ctx, q, id).Scan(&cl.ID, &cl.SchoolID, &cl.Name, &cl.ClassTeacherID, &cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// ListClasses returns a school's classes ordered by name.
func (r *Repository) ListClasses(ctx context.Context, schoolID uuid.UUID) ([]*models.Class, error) {
	const q = `SELECT id, school_id, name, class_teacher_id, created_at, updated_at
		FROM classes WHERE school_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, q, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Class
	for rows.Next() {
		var cl models.Class
		if err := rows.Scan(&cl.ID, &cl.SchoolID, &cl.Name, &cl.ClassTeacherID, &cl.CreatedAt, &cl.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &cl)
	}
	return list, rows.Err()
}

// CreateStudent creates a student in a school.
func (r *Repository) CreateStudent(ctx context.Context, st *models.Student) error {
	const q = `INSERT INTO students (school_id, full_name) VALUES ($1, $2) RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, st.SchoolID, st.FullName).Scan(&st.ID, &st.CreatedAt)
}

// GetStudent returns a student by id.
func (r *Repository) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	const q = `SELECT id, school_id, full_name, parent_uid, created_at FROM students WHERE id = $1`
	var st models.Student
	err := r.pool.QueryRow(ctx, q, id).Scan(&st.ID, &st.SchoolID, &st.FullName, &st.ParentUID, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStudents returns a school's students ordered by name.
func (r *Repository) ListStudents(ctx context.Context, schoolID uuid.UUID) ([]*models.Student, error) {
	const q = `SELECT id, school_id, full_name, parent_uid, created_at
		FROM students WHERE school_id = $1 ORDER BY full_name`
	rows, err := r.pool.Query(ctx, q, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Student
	for rows.Next() {
		var st models.Student
		if err := rows.Scan(&st.ID, &st.SchoolID, &st.FullName, &st.ParentUID, &st.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &st)
	}
	return list, rows.Err()
}

// GetTeacherProfile returns the teacher profile created during onboarding.
func (r *Repository) GetTeacherProfile(ctx context.Context, uid uuid.UUID) (*models.TeacherProfile, error) {
	const q = `SELECT uid, email, name, school_id, subjects, status, created_at FROM teachers WHERE uid = $1`
	var tp models.TeacherProfile
	err := r.pool.QueryRow(ctx, q, uid).Scan(&tp.UID, &tp.Email, &tp.Name, &tp.SchoolID, &tp.Subjects, &tp.Status, &tp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}
