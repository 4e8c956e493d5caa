package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type mockRawExecutor struct {
	rows       []map[string]interface{}
	err        error
	statements []string
}

func (m *mockRawExecutor) Raw(ctx context.Context, stmt string) ([]map[string]interface{}, error) {
	m.statements = append(m.statements, stmt)
	return m.rows, m.err
}

func TestConsoleExecute(t *testing.T) {
	gw := &mockRawExecutor{rows: []map[string]interface{}{{"count": int64(12)}}}
	svc := NewConsoleService(gw, true, nil)

	result, err := svc.Execute(context.Background(), "  SELECT COUNT(*) AS count FROM teachers  ")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, int64(12), result.Rows[0]["count"])
	assert.Equal(t, []string{"SELECT COUNT(*) AS count FROM teachers"}, gw.statements)
}

func TestConsoleExecuteEmptyResultIsSuccess(t *testing.T) {
	gw := &mockRawExecutor{rows: []map[string]interface{}{}}
	svc := NewConsoleService(gw, true, nil)

	result, err := svc.Execute(context.Background(), "DELETE FROM tasks WHERE status = 'Done'")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RowCount)
}

func TestConsoleExecuteStoreRejection(t *testing.T) {
	gw := &mockRawExecutor{err: appErrors.Clone(appErrors.ErrQuery, "42P01: relation \"studnets\" does not exist")}
	svc := NewConsoleService(gw, true, nil)

	_, err := svc.Execute(context.Background(), "SELECT * FROM studnets")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrQuery))
	assert.Contains(t, err.Error(), "42P01")
}

func TestConsoleExecuteDisabled(t *testing.T) {
	gw := &mockRawExecutor{}
	svc := NewConsoleService(gw, false, nil)

	_, err := svc.Execute(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, gw.statements)
}

func TestConsoleExecuteEmptyStatement(t *testing.T) {
	svc := NewConsoleService(&mockRawExecutor{}, true, nil)

	_, err := svc.Execute(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
