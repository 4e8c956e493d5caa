package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmpNo(ctx context.Context, empNo string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// CreateTeacherRequest represents payload for registering faculty records.
type CreateTeacherRequest struct {
	FirstName            string    `json:"firstName" validate:"required,max=100"`
	MiddleName           string    `json:"middleName" validate:"max=100"`
	LastName             string    `json:"lastName" validate:"required,max=100"`
	Suffix               *string   `json:"suffix" validate:"omitempty,max=20"`
	EmpNo                string    `json:"empNo" validate:"required,max=50"`
	Contact              string    `json:"contact" validate:"required,max=50"`
	Address              string    `json:"address" validate:"required,max=500"`
	DOB                  time.Time `json:"dob" validate:"required"`
	SubjectTaught        string    `json:"subjectTaught" validate:"required,max=200"`
	YearsTeachingSubject int       `json:"yearsTeachingSubject" validate:"gte=0"`
	TesdaQualifications  []string  `json:"tesdaQualifications" validate:"dive,max=200"`
	Position             string    `json:"position" validate:"required,max=100"`
	EducationBS          string    `json:"educationBS" validate:"required,max=200"`
	EducationMA          *string   `json:"educationMA" validate:"omitempty,max=200"`
	EducationPhD         *string   `json:"educationPhD" validate:"omitempty,max=200"`
	YearsInService       int       `json:"yearsInService" validate:"gte=0"`
}

// TeacherService orchestrates faculty record operations. Records are
// immutable once created; corrections go through delete and re-create.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns all faculty records ordered by last name.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return teachers, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.FromError(err)
	}
	return teacher, nil
}

// Create registers a new faculty record. Employee numbers are unique.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	empNo := strings.TrimSpace(req.EmpNo)
	exists, err := s.repo.ExistsByEmpNo(ctx, empNo)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "employee number already registered")
	}

	teacher := &models.Teacher{
		FirstName:            strings.TrimSpace(req.FirstName),
		MiddleName:           strings.TrimSpace(req.MiddleName),
		LastName:             strings.TrimSpace(req.LastName),
		Suffix:               normalizeOptional(req.Suffix),
		EmpNo:                empNo,
		Contact:              strings.TrimSpace(req.Contact),
		Address:              strings.TrimSpace(req.Address),
		DOB:                  req.DOB,
		SubjectTaught:        strings.TrimSpace(req.SubjectTaught),
		YearsTeachingSubject: req.YearsTeachingSubject,
		TesdaQualifications:  pq.StringArray(req.TesdaQualifications),
		Position:             strings.TrimSpace(req.Position),
		EducationBS:          strings.TrimSpace(req.EducationBS),
		EducationMA:          normalizeOptional(req.EducationMA),
		EducationPhD:         normalizeOptional(req.EducationPhD),
		YearsInService:       req.YearsInService,
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("teacher registered", zap.String("teacher_id", teacher.ID), zap.String("emp_no", teacher.EmpNo))
	return teacher, nil
}

// Delete removes a faculty record.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.FromError(err)
	}
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
