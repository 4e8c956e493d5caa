package repository

import (
	"context"
	"fmt"

	"github.com/direct-system/labdesk-api/internal/models"
)

const consumableColumns = `id::text AS id, lab_id::text AS lab_id, name, quantity, unit, expiry_date, location`

// ConsumableRepository manages persistence for counted lab supplies.
type ConsumableRepository struct {
	gw *Gateway
}

// NewConsumableRepository constructs a ConsumableRepository.
func NewConsumableRepository(gw *Gateway) *ConsumableRepository {
	return &ConsumableRepository{gw: gw}
}

// List returns all consumables ordered by name ascending.
func (r *ConsumableRepository) List(ctx context.Context) ([]models.LabConsumable, error) {
	query := fmt.Sprintf("SELECT %s FROM consumables ORDER BY name ASC", consumableColumns)
	consumables := make([]models.LabConsumable, 0)
	if err := r.gw.Select(ctx, &consumables, query); err != nil {
		return nil, fmt.Errorf("list consumables: %w", err)
	}
	return consumables, nil
}

// Create inserts a new consumable and fills in the assigned identifier.
func (r *ConsumableRepository) Create(ctx context.Context, c *models.LabConsumable) error {
	query := fmt.Sprintf(`INSERT INTO consumables (lab_id, name, quantity, unit, expiry_date, location)
		VALUES ($1::int, $2, GREATEST($3, 0), $4, $5, $6) RETURNING %s`, consumableColumns)
	if err := r.gw.Get(ctx, c, query,
		c.LabID, c.Name, c.Quantity, c.Unit, c.ExpiryDate, c.Location,
	); err != nil {
		return fmt.Errorf("create consumable: %w", err)
	}
	return nil
}

// UpdateQuantity persists an absolute quantity, clamped to zero at the
// store layer so no writer can drive it negative. Returns the
// authoritative row; sql.ErrNoRows surfaces when the item is gone.
func (r *ConsumableRepository) UpdateQuantity(ctx context.Context, id string, quantity int) (*models.LabConsumable, error) {
	query := fmt.Sprintf(`UPDATE consumables SET quantity = GREATEST($2, 0) WHERE id::text = $1 RETURNING %s`, consumableColumns)
	var c models.LabConsumable
	if err := r.gw.Get(ctx, &c, query, id, quantity); err != nil {
		return nil, err
	}
	return &c, nil
}
