package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toolTestColumns = []string{"id", "lab_id", "name", "serial_number", "condition", "borrower", "last_borrowed"}

func TestToolRepositoryListOrdersByName(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()
	repo := NewToolRepository(gw)

	rows := sqlmock.NewRows(toolTestColumns).
		AddRow("1", "1", "Multimeter", "SN-001", "Good", nil, nil).
		AddRow("2", "1", "Soldering Iron", "SN-002", "Fair", "J. Cruz", time.Now())
	mock.ExpectQuery("SELECT id::text AS id, .+ FROM tools ORDER BY name ASC").
		WillReturnRows(rows)

	tools, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "Multimeter", tools[0].Name)
	assert.Nil(t, tools[0].Borrower)
	require.NotNil(t, tools[1].Borrower)
	assert.Equal(t, "J. Cruz", *tools[1].Borrower)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToolRepositoryUpdateCondition(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()
	repo := NewToolRepository(gw)

	mock.ExpectQuery("UPDATE tools").
		WithArgs("1", "Defective", nil).
		WillReturnRows(sqlmock.NewRows(toolTestColumns).
			AddRow("1", "1", "Multimeter", "SN-001", "Defective", nil, nil))

	tool, err := repo.UpdateCondition(context.Background(), "1", "Defective", nil)
	require.NoError(t, err)
	assert.Equal(t, "Defective", tool.Condition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
