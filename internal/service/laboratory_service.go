package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type laboratoryRepository interface {
	List(ctx context.Context) ([]models.Laboratory, error)
	Create(ctx context.Context, lab *models.Laboratory) error
	CountOwned(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// CreateLaboratoryRequest represents payload for registering lab rooms.
type CreateLaboratoryRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Building  string `json:"building" validate:"required,max=100"`
	Floor     string `json:"floor" validate:"required,max=50"`
	Condition string `json:"condition" validate:"required,oneof=Functional Maintenance Closed"`
	Status    string `json:"status" validate:"required,oneof=Available Occupied Reserved"`
}

// LaboratoryService orchestrates lab room operations.
type LaboratoryService struct {
	repo      laboratoryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLaboratoryService constructs a LaboratoryService.
func NewLaboratoryService(repo laboratoryRepository, validate *validator.Validate, logger *zap.Logger) *LaboratoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LaboratoryService{repo: repo, validator: validate, logger: logger}
}

// List returns all laboratories ordered by name.
func (s *LaboratoryService) List(ctx context.Context) ([]models.Laboratory, error) {
	labs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return labs, nil
}

// Create registers a new laboratory.
func (s *LaboratoryService) Create(ctx context.Context, req CreateLaboratoryRequest) (*models.Laboratory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid laboratory payload")
	}

	lab := &models.Laboratory{
		Name:      strings.TrimSpace(req.Name),
		Building:  strings.TrimSpace(req.Building),
		Floor:     strings.TrimSpace(req.Floor),
		Condition: req.Condition,
		Status:    req.Status,
	}
	if err := s.repo.Create(ctx, lab); err != nil {
		return nil, appErrors.FromError(err)
	}
	return lab, nil
}

// Delete removes a laboratory. Rooms still owning tools or consumables
// cannot be removed.
func (s *LaboratoryService) Delete(ctx context.Context, id string) error {
	owned, err := s.repo.CountOwned(ctx, id)
	if err != nil {
		return appErrors.FromError(err)
	}
	if owned > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "laboratory still owns inventory items")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "laboratory not found")
		}
		return appErrors.FromError(err)
	}
	s.logger.Info("laboratory deleted", zap.String("lab_id", id))
	return nil
}
