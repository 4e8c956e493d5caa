package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	UpdateStatus(ctx context.Context, id, status string) (*models.Task, error)
}

// CreateTaskRequest represents payload for filing administrative tasks.
type CreateTaskRequest struct {
	Title      string    `json:"title" validate:"required,max=300"`
	AssignedTo string    `json:"assignedTo" validate:"required,max=200"`
	Deadline   time.Time `json:"deadline" validate:"required"`
	Status     string    `json:"status" validate:"omitempty,oneof=Pending Done"`
}

// TaskService orchestrates administrative task operations.
type TaskService struct {
	repo      taskRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskRepository, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, validator: validate, logger: logger}
}

// List returns all tasks ordered by deadline.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return tasks, nil
}

// Create files a new task. Status defaults to Pending.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task := &models.Task{
		Title:      strings.TrimSpace(req.Title),
		AssignedTo: strings.TrimSpace(req.AssignedTo),
		Deadline:   req.Deadline,
		Status:     req.Status,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.FromError(err)
	}
	return task, nil
}

// SetStatus persists a status value and returns the authoritative row.
func (s *TaskService) SetStatus(ctx context.Context, id, status string) (*models.Task, error) {
	if status != models.TaskStatusPending && status != models.TaskStatusDone {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown task status")
	}
	task, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.FromError(err)
	}
	return task, nil
}
