package repository

import (
	"context"
	"fmt"

	"github.com/direct-system/labdesk-api/internal/models"
)

const toolColumns = `id::text AS id, lab_id::text AS lab_id, name, serial_number, condition, borrower, last_borrowed`

// ToolRepository manages persistence for discrete lab assets.
type ToolRepository struct {
	gw *Gateway
}

// NewToolRepository constructs a ToolRepository.
func NewToolRepository(gw *Gateway) *ToolRepository {
	return &ToolRepository{gw: gw}
}

// List returns all tools ordered by name ascending.
func (r *ToolRepository) List(ctx context.Context) ([]models.ToolItem, error) {
	query := fmt.Sprintf("SELECT %s FROM tools ORDER BY name ASC", toolColumns)
	tools := make([]models.ToolItem, 0)
	if err := r.gw.Select(ctx, &tools, query); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return tools, nil
}

// Create inserts a new tool and fills in the assigned identifier.
func (r *ToolRepository) Create(ctx context.Context, tool *models.ToolItem) error {
	query := fmt.Sprintf(`INSERT INTO tools (lab_id, name, serial_number, condition, borrower, last_borrowed)
		VALUES ($1::int, $2, $3, $4, $5, $6) RETURNING %s`, toolColumns)
	if err := r.gw.Get(ctx, tool, query,
		tool.LabID, tool.Name, tool.SerialNumber, tool.Condition, tool.Borrower, tool.LastBorrowed,
	); err != nil {
		return fmt.Errorf("create tool: %w", err)
	}
	return nil
}

// UpdateCondition persists a condition/borrower change and returns the
// authoritative row. The borrow timestamp advances whenever a borrower is
// recorded. sql.ErrNoRows surfaces when the tool no longer exists.
func (r *ToolRepository) UpdateCondition(ctx context.Context, id, condition string, borrower *string) (*models.ToolItem, error) {
	query := fmt.Sprintf(`UPDATE tools
		SET condition = $2,
		    borrower = $3,
		    last_borrowed = CASE WHEN $3::text IS NOT NULL THEN NOW() ELSE last_borrowed END
		WHERE id::text = $1 RETURNING %s`, toolColumns)
	var tool models.ToolItem
	if err := r.gw.Get(ctx, &tool, query, id, condition, borrower); err != nil {
		return nil, err
	}
	return &tool, nil
}
