package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
	"github.com/direct-system/labdesk-api/pkg/export"
	"github.com/direct-system/labdesk-api/pkg/storage"
)

type analysisRepository interface {
	List(ctx context.Context) ([]models.ItemAnalysis, error)
	FindByID(ctx context.Context, id string) (*models.ItemAnalysis, error)
	Create(ctx context.Context, analysis *models.ItemAnalysis) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats for rendered item-analysis reports.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// CreateAnalysisRequest represents payload for filing an item-analysis
// report. Reports are append-only.
type CreateAnalysisRequest struct {
	GradeLevel     int                       `json:"gradeLevel" validate:"gte=7,lte=12"`
	Specialization string                    `json:"specialization" validate:"required,max=200"`
	Quarter        int                       `json:"quarter" validate:"gte=1,lte=4"`
	TotalQuestions int                       `json:"totalQuestions" validate:"gt=0,lte=500"`
	Responses      []models.QuestionResponse `json:"responses" validate:"required,min=1,dive"`
}

// SimulateAnalysisRequest parameterizes randomized report generation.
type SimulateAnalysisRequest struct {
	GradeLevel     int    `json:"gradeLevel" validate:"gte=7,lte=12"`
	Specialization string `json:"specialization" validate:"required,max=200"`
	Quarter        int    `json:"quarter" validate:"gte=1,lte=4"`
	TotalQuestions int    `json:"totalQuestions" validate:"gt=0,lte=500"`
	TotalExaminees int    `json:"totalExaminees" validate:"gt=0,lte=1000"`
}

// AnalysisExportConfig tunes export behaviour.
type AnalysisExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful export generation metadata.
type ExportResult struct {
	RelativePath string    `json:"-"`
	Token        string    `json:"token"`
	URL          string    `json:"url"`
	Format       string    `json:"format"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AnalysisService orchestrates exam item-analysis reports, including
// rendered CSV/PDF exports served through time-limited signed URLs.
type AnalysisService struct {
	repo      analysisRepository
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	cfg       AnalysisExportConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnalysisService constructs an AnalysisService. Storage and signer may
// be nil when exports are not configured.
func NewAnalysisService(repo analysisRepository, store fileStorage, signer *storage.SignedURLSigner, cfg AnalysisExportConfig, validate *validator.Validate, logger *zap.Logger) *AnalysisService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &AnalysisService{
		repo:      repo,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
	}
}

// List returns all reports, newest first.
func (s *AnalysisService) List(ctx context.Context) ([]models.ItemAnalysis, error) {
	analyses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return analyses, nil
}

// Get returns a report by id.
func (s *AnalysisService) Get(ctx context.Context, id string) (*models.ItemAnalysis, error) {
	analysis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis not found")
		}
		return nil, appErrors.FromError(err)
	}
	return analysis, nil
}

// Create files a new report. Per-question counts must stay within the
// declared question range and examinee totals.
func (s *AnalysisService) Create(ctx context.Context, req CreateAnalysisRequest) (*models.ItemAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload")
	}
	for _, resp := range req.Responses {
		if resp.QuestionNo < 1 || resp.QuestionNo > req.TotalQuestions {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d outside declared range", resp.QuestionNo))
		}
		if resp.CorrectCount < 0 || resp.TotalExaminees <= 0 || resp.CorrectCount > resp.TotalExaminees {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d has inconsistent counts", resp.QuestionNo))
		}
	}

	analysis := &models.ItemAnalysis{
		GradeLevel:     req.GradeLevel,
		Specialization: strings.TrimSpace(req.Specialization),
		Quarter:        req.Quarter,
		TotalQuestions: req.TotalQuestions,
		Responses:      req.Responses,
	}
	if err := s.repo.Create(ctx, analysis); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("analysis filed",
		zap.String("analysis_id", analysis.ID),
		zap.Int("grade_level", analysis.GradeLevel),
		zap.Int("quarter", analysis.Quarter))
	return analysis, nil
}

// Simulate files a report with randomized per-question results, used to
// seed demonstration data.
func (s *AnalysisService) Simulate(ctx context.Context, req SimulateAnalysisRequest) (*models.ItemAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid simulation payload")
	}

	responses := make([]models.QuestionResponse, 0, req.TotalQuestions)
	for q := 1; q <= req.TotalQuestions; q++ {
		floor := req.TotalExaminees * 3 / 10
		correct := floor + rand.Intn(req.TotalExaminees-floor+1)
		responses = append(responses, models.QuestionResponse{
			QuestionNo:     q,
			CorrectCount:   correct,
			TotalExaminees: req.TotalExaminees,
		})
	}

	return s.Create(ctx, CreateAnalysisRequest{
		GradeLevel:     req.GradeLevel,
		Specialization: req.Specialization,
		Quarter:        req.Quarter,
		TotalQuestions: req.TotalQuestions,
		Responses:      responses,
	})
}

// Export renders a stored report to the requested format, persists the
// file, and returns a signed download token.
func (s *AnalysisService) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exports are not configured")
	}

	analysis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dataset, title := buildAnalysisDataset(analysis)

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	filename := fmt.Sprintf("analysis_%s_q%d_%s.%s", sanitizeFilename(analysis.Specialization), analysis.Quarter, time.Now().UTC().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	token, expiresAt, err := s.signer.Generate(analysis.ID, relPath)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/analyses/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *AnalysisService) ParseToken(token string, allowExpired bool) (analysisID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to a stored export file.
func (s *AnalysisService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes export files older than ttl (configured ResultTTL when
// ttl <= 0).
func (s *AnalysisService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func buildAnalysisDataset(analysis *models.ItemAnalysis) (export.Dataset, string) {
	rows := make([]map[string]string, 0, len(analysis.Responses))
	for _, resp := range analysis.Responses {
		difficulty := float64(resp.CorrectCount) / float64(resp.TotalExaminees)
		rows = append(rows, map[string]string{
			"Question":       fmt.Sprintf("%d", resp.QuestionNo),
			"Correct":        fmt.Sprintf("%d", resp.CorrectCount),
			"Examinees":      fmt.Sprintf("%d", resp.TotalExaminees),
			"Difficulty":     fmt.Sprintf("%.2f", difficulty),
			"Interpretation": interpretDifficulty(difficulty),
		})
	}
	dataset := export.Dataset{
		Headers:  []string{"Question", "Correct", "Examinees", "Difficulty", "Interpretation"},
		Subtitle: fmt.Sprintf("Grade %d %s, Quarter %d", analysis.GradeLevel, analysis.Specialization, analysis.Quarter),
		Rows:     rows,
	}
	title := fmt.Sprintf("Item Analysis Report Q%d", analysis.Quarter)
	return dataset, title
}

// interpretDifficulty buckets the difficulty index the way the guidance
// counselors read it: the index is the share of examinees answering
// correctly, so low values mean hard items.
func interpretDifficulty(index float64) string {
	switch {
	case index < 0.25:
		return "Difficult"
	case index < 0.75:
		return "Moderate"
	default:
		return "Easy"
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(strings.ToLower(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
