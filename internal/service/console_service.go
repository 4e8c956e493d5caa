package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type rawExecutor interface {
	Raw(ctx context.Context, stmt string) ([]map[string]interface{}, error)
}

// ConsoleResult carries the outcome of one console statement.
type ConsoleResult struct {
	Rows      []map[string]interface{} `json:"rows"`
	RowCount  int                      `json:"rowCount"`
	ElapsedMs int64                    `json:"elapsedMs"`
}

// ConsoleService executes operator-supplied SQL verbatim. It exists for
// the trusted single admin and is disabled unless explicitly enabled in
// configuration; it never goes through the entity repositories.
type ConsoleService struct {
	gw      rawExecutor
	enabled bool
	logger  *zap.Logger
}

// NewConsoleService constructs a ConsoleService.
func NewConsoleService(gw rawExecutor, enabled bool, logger *zap.Logger) *ConsoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleService{gw: gw, enabled: enabled, logger: logger}
}

// Enabled reports whether the console capability is switched on.
func (s *ConsoleService) Enabled() bool {
	return s.enabled
}

// Execute runs one statement and returns its rows. Store rejections come
// back as QueryError carrying the store's code and message; an empty
// result set is a success.
func (s *ConsoleService) Execute(ctx context.Context, stmt string) (*ConsoleResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "console is not enabled")
	}
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty statement")
	}

	start := time.Now()
	rows, err := s.gw.Raw(ctx, stmt)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("console statement rejected", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, appErrors.FromError(err)
	}

	s.logger.Info("console statement executed", zap.Int("rows", len(rows)), zap.Duration("elapsed", elapsed))
	return &ConsoleResult{Rows: rows, RowCount: len(rows), ElapsedMs: elapsed.Milliseconds()}, nil
}
