package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/direct-system/labdesk-api/internal/models"
)

const laboratoryColumns = `id::text AS id, name, building, floor, condition, status`

// LaboratoryRepository manages persistence for laboratory rooms.
type LaboratoryRepository struct {
	gw *Gateway
}

// NewLaboratoryRepository constructs a LaboratoryRepository.
func NewLaboratoryRepository(gw *Gateway) *LaboratoryRepository {
	return &LaboratoryRepository{gw: gw}
}

// List returns all laboratories ordered by name ascending.
func (r *LaboratoryRepository) List(ctx context.Context) ([]models.Laboratory, error) {
	query := fmt.Sprintf("SELECT %s FROM laboratories ORDER BY name ASC", laboratoryColumns)
	labs := make([]models.Laboratory, 0)
	if err := r.gw.Select(ctx, &labs, query); err != nil {
		return nil, fmt.Errorf("list laboratories: %w", err)
	}
	return labs, nil
}

// Create inserts a new laboratory and fills in the assigned identifier.
func (r *LaboratoryRepository) Create(ctx context.Context, lab *models.Laboratory) error {
	query := fmt.Sprintf(`INSERT INTO laboratories (name, building, floor, condition, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING %s`, laboratoryColumns)
	if err := r.gw.Get(ctx, lab, query, lab.Name, lab.Building, lab.Floor, lab.Condition, lab.Status); err != nil {
		return fmt.Errorf("create laboratory: %w", err)
	}
	return nil
}

// CountOwned reports how many tools and consumables reference the lab.
func (r *LaboratoryRepository) CountOwned(ctx context.Context, id string) (int, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM tools WHERE lab_id::text = $1) +
		(SELECT COUNT(*) FROM consumables WHERE lab_id::text = $1)`
	var count int
	if err := r.gw.Get(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count owned inventory: %w", err)
	}
	return count, nil
}

// Delete removes a laboratory that owns no inventory rows.
func (r *LaboratoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.gw.Exec(ctx, "DELETE FROM laboratories WHERE id::text = $1", id)
	if err != nil {
		return fmt.Errorf("delete laboratory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete laboratory: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
