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

type toolRepository interface {
	List(ctx context.Context) ([]models.ToolItem, error)
	Create(ctx context.Context, tool *models.ToolItem) error
	UpdateCondition(ctx context.Context, id, condition string, borrower *string) (*models.ToolItem, error)
}

type consumableRepository interface {
	List(ctx context.Context) ([]models.LabConsumable, error)
	Create(ctx context.Context, c *models.LabConsumable) error
	UpdateQuantity(ctx context.Context, id string, quantity int) (*models.LabConsumable, error)
}

// CreateToolRequest represents payload for registering discrete lab assets.
type CreateToolRequest struct {
	LabID        string `json:"labId" validate:"required"`
	Name         string `json:"name" validate:"required,max=200"`
	SerialNumber string `json:"serialNumber" validate:"required,max=100"`
	Condition    string `json:"condition" validate:"required,oneof=Good Fair Defective 'Under Maintenance'"`
}

// CreateConsumableRequest represents payload for registering counted supplies.
type CreateConsumableRequest struct {
	LabID      string     `json:"labId" validate:"required"`
	Name       string     `json:"name" validate:"required,max=200"`
	Quantity   int        `json:"quantity" validate:"gte=0"`
	Unit       string     `json:"unit" validate:"required,max=50"`
	ExpiryDate *time.Time `json:"expiryDate"`
	Location   string     `json:"location" validate:"max=200"`
}

// InventoryService orchestrates tool and consumable operations.
type InventoryService struct {
	tools       toolRepository
	consumables consumableRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewInventoryService constructs an InventoryService.
func NewInventoryService(tools toolRepository, consumables consumableRepository, validate *validator.Validate, logger *zap.Logger) *InventoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{tools: tools, consumables: consumables, validator: validate, logger: logger}
}

// ListTools returns all tools ordered by name.
func (s *InventoryService) ListTools(ctx context.Context) ([]models.ToolItem, error) {
	tools, err := s.tools.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return tools, nil
}

// CreateTool registers a discrete lab asset.
func (s *InventoryService) CreateTool(ctx context.Context, req CreateToolRequest) (*models.ToolItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tool payload")
	}

	tool := &models.ToolItem{
		LabID:        req.LabID,
		Name:         strings.TrimSpace(req.Name),
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		Condition:    req.Condition,
	}
	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, appErrors.FromError(err)
	}
	return tool, nil
}

// SetToolCondition persists a condition and borrower change, returning the
// authoritative row. Assigning a borrower stamps the borrow time in the
// store.
func (s *InventoryService) SetToolCondition(ctx context.Context, id, condition string, borrower *string) (*models.ToolItem, error) {
	switch condition {
	case models.ToolConditionGood, models.ToolConditionFair, models.ToolConditionDefective, models.ToolConditionMaintenance:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown tool condition")
	}
	tool, err := s.tools.UpdateCondition(ctx, id, condition, normalizeOptional(borrower))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tool not found")
		}
		return nil, appErrors.FromError(err)
	}
	return tool, nil
}

// ListConsumables returns all consumables ordered by name.
func (s *InventoryService) ListConsumables(ctx context.Context) ([]models.LabConsumable, error) {
	consumables, err := s.consumables.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return consumables, nil
}

// CreateConsumable registers a counted supply.
func (s *InventoryService) CreateConsumable(ctx context.Context, req CreateConsumableRequest) (*models.LabConsumable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid consumable payload")
	}

	consumable := &models.LabConsumable{
		LabID:      req.LabID,
		Name:       strings.TrimSpace(req.Name),
		Quantity:   req.Quantity,
		Unit:       strings.TrimSpace(req.Unit),
		ExpiryDate: req.ExpiryDate,
		Location:   strings.TrimSpace(req.Location),
	}
	if err := s.consumables.Create(ctx, consumable); err != nil {
		return nil, appErrors.FromError(err)
	}
	return consumable, nil
}

// SetConsumableQuantity persists an absolute quantity, clamped at zero, and
// returns the authoritative row.
func (s *InventoryService) SetConsumableQuantity(ctx context.Context, id string, quantity int) (*models.LabConsumable, error) {
	if quantity < 0 {
		quantity = 0
	}
	consumable, err := s.consumables.UpdateQuantity(ctx, id, quantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consumable not found")
		}
		return nil, appErrors.FromError(err)
	}
	return consumable, nil
}
