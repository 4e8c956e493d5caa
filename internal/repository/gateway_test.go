package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

func TestGatewayRawReturnsRowMappings(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT name, quantity FROM consumables").
		WillReturnRows(sqlmock.NewRows([]string{"name", "quantity"}).
			AddRow([]byte("Ethanol"), 10).
			AddRow([]byte("Acetone"), 4))

	rows, err := gw.Raw(context.Background(), "SELECT name, quantity FROM consumables")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ethanol", rows[0]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayRawZeroRowsIsSuccess(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()

	mock.ExpectQuery("DELETE FROM tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := gw.Raw(context.Background(), "DELETE FROM tasks WHERE false RETURNING id")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGatewayRawClassifiesStoreRejection(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()

	mock.ExpectQuery("SELEC nothing").
		WillReturnError(&pq.Error{Code: "42601", Message: "syntax error at or near \"SELEC\""})

	_, err := gw.Raw(context.Background(), "SELEC nothing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrQuery.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "42601")
}

func TestGatewaySetObserverSeesOperations(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()

	var ops []string
	gw.SetObserver(func(op string, _ time.Duration) {
		ops = append(ops, op)
	})

	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	var one int
	require.NoError(t, gw.Get(context.Background(), &one, "SELECT 1"))
	assert.Equal(t, []string{"select"}, ops)
}
