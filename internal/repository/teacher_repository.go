package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/direct-system/labdesk-api/internal/models"
)

const teacherColumns = `id::text AS id, first_name, middle_name, last_name, suffix, emp_no, contact, address, dob, subject_taught, years_teaching_subject, tesda_qualifications, position, education_bs, education_ma, education_phd, years_in_service, created_at`

// TeacherRepository manages persistence for teacher records.
type TeacherRepository struct {
	gw *Gateway
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(gw *Gateway) *TeacherRepository {
	return &TeacherRepository{gw: gw}
}

// List returns all teachers ordered by last name ascending.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers ORDER BY last_name ASC", teacherColumns)
	teachers := make([]models.Teacher, 0)
	if err := r.gw.Select(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id::text = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.gw.Get(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByEmpNo checks whether an employee number is already taken.
func (r *TeacherRepository) ExistsByEmpNo(ctx context.Context, empNo string) (bool, error) {
	var exists int
	err := r.gw.Get(ctx, &exists, "SELECT 1 FROM teachers WHERE emp_no = $1 LIMIT 1", empNo)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher emp_no: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher record and fills in the assigned identifier.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	query := fmt.Sprintf(`INSERT INTO teachers (
		first_name, middle_name, last_name, suffix, emp_no, contact, address, dob,
		subject_taught, years_teaching_subject, tesda_qualifications, position,
		education_bs, education_ma, education_phd, years_in_service, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING %s`, teacherColumns)

	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}

	if err := r.gw.Get(ctx, teacher, query,
		teacher.FirstName,
		teacher.MiddleName,
		teacher.LastName,
		teacher.Suffix,
		teacher.EmpNo,
		teacher.Contact,
		teacher.Address,
		teacher.DOB,
		teacher.SubjectTaught,
		teacher.YearsTeachingSubject,
		teacher.TesdaQualifications,
		teacher.Position,
		teacher.EducationBS,
		teacher.EducationMA,
		teacher.EducationPhD,
		teacher.YearsInService,
		teacher.CreatedAt,
	); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Delete permanently removes a teacher record.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	res, err := r.gw.Exec(ctx, "DELETE FROM teachers WHERE id::text = $1", id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
