package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/direct-system/labdesk-api/internal/models"
)

const analysisColumns = `id::text AS id, grade_level, specialization, quarter, total_questions, responses, created_at`

// analysisRow mirrors the stored shape; responses stay encoded until the
// repository boundary.
type analysisRow struct {
	ID             string         `db:"id"`
	GradeLevel     int            `db:"grade_level"`
	Specialization string         `db:"specialization"`
	Quarter        int            `db:"quarter"`
	TotalQuestions int            `db:"total_questions"`
	Responses      types.JSONText `db:"responses"`
	CreatedAt      time.Time      `db:"created_at"`
}

// AnalysisRepository manages the append-only item-analysis log.
type AnalysisRepository struct {
	gw *Gateway
}

// NewAnalysisRepository constructs an AnalysisRepository.
func NewAnalysisRepository(gw *Gateway) *AnalysisRepository {
	return &AnalysisRepository{gw: gw}
}

// List returns all analyses ordered by creation time descending.
func (r *AnalysisRepository) List(ctx context.Context) ([]models.ItemAnalysis, error) {
	query := fmt.Sprintf("SELECT %s FROM analyses ORDER BY created_at DESC", analysisColumns)
	rows := make([]analysisRow, 0)
	if err := r.gw.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	analyses := make([]models.ItemAnalysis, 0, len(rows))
	for _, row := range rows {
		analysis, err := row.decode()
		if err != nil {
			return nil, fmt.Errorf("decode analysis %s: %w", row.ID, err)
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// FindByID fetches a single analysis with decoded responses.
func (r *AnalysisRepository) FindByID(ctx context.Context, id string) (*models.ItemAnalysis, error) {
	query := fmt.Sprintf("SELECT %s FROM analyses WHERE id::text = $1", analysisColumns)
	var row analysisRow
	if err := r.gw.Get(ctx, &row, query, id); err != nil {
		return nil, err
	}
	analysis, err := row.decode()
	if err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", row.ID, err)
	}
	return &analysis, nil
}

// Create appends a new analysis, encoding responses for storage, and
// fills in the assigned identifier and creation time.
func (r *AnalysisRepository) Create(ctx context.Context, analysis *models.ItemAnalysis) error {
	encoded, err := json.Marshal(analysis.Responses)
	if err != nil {
		return fmt.Errorf("encode analysis responses: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO analyses (grade_level, specialization, quarter, total_questions, responses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING %s`, analysisColumns)

	createdAt := analysis.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var row analysisRow
	if err := r.gw.Get(ctx, &row, query,
		analysis.GradeLevel,
		analysis.Specialization,
		analysis.Quarter,
		analysis.TotalQuestions,
		types.JSONText(encoded),
		createdAt,
	); err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}

	decoded, err := row.decode()
	if err != nil {
		return fmt.Errorf("decode analysis %s: %w", row.ID, err)
	}
	*analysis = decoded
	return nil
}

func (row analysisRow) decode() (models.ItemAnalysis, error) {
	analysis := models.ItemAnalysis{
		ID:             row.ID,
		GradeLevel:     row.GradeLevel,
		Specialization: row.Specialization,
		Quarter:        row.Quarter,
		TotalQuestions: row.TotalQuestions,
		CreatedAt:      row.CreatedAt,
	}
	if len(row.Responses) > 0 {
		if err := json.Unmarshal(row.Responses, &analysis.Responses); err != nil {
			return models.ItemAnalysis{}, err
		}
	}
	return analysis, nil
}
