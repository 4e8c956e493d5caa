package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/direct-system/labdesk-api/internal/models"
)

var consumableTestColumns = []string{"id", "lab_id", "name", "quantity", "unit", "expiry_date", "location"}

func TestConsumableRepositoryListOrdersByName(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()
	repo := NewConsumableRepository(gw)

	expiry := time.Now().Add(5 * 24 * time.Hour)
	rows := sqlmock.NewRows(consumableTestColumns).
		AddRow("1", "1", "Acetone", 4, "L", nil, "Shelf A").
		AddRow("2", "1", "Ethanol", 10, "L", expiry, "Shelf B")
	mock.ExpectQuery("SELECT id::text AS id, .+ FROM consumables ORDER BY name ASC").
		WillReturnRows(rows)

	consumables, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, consumables, 2)
	assert.Equal(t, "Acetone", consumables[0].Name)
	assert.Nil(t, consumables[0].ExpiryDate)
	require.NotNil(t, consumables[1].ExpiryDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumableRepositoryUpdateQuantityClampsAtStore(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()
	repo := NewConsumableRepository(gw)

	// The statement itself clamps with GREATEST so a negative write can
	// never land, whatever the caller computed.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE consumables SET quantity = GREATEST($2, 0) WHERE id::text = $1 RETURNING")).
		WithArgs("2", -10).
		WillReturnRows(sqlmock.NewRows(consumableTestColumns).
			AddRow("2", "1", "Ethanol", 0, "L", nil, "Shelf B"))

	c, err := repo.UpdateQuantity(context.Background(), "2", -10)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumableRepositoryCreate(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()
	repo := NewConsumableRepository(gw)

	mock.ExpectQuery("INSERT INTO consumables").
		WillReturnRows(sqlmock.NewRows(consumableTestColumns).
			AddRow("3", "1", "Ethanol", 10, "L", nil, "Shelf B"))

	c := models.LabConsumable{LabID: "1", Name: "Ethanol", Quantity: 10, Unit: "L", Location: "Shelf B"}
	require.NoError(t, repo.Create(context.Background(), &c))
	assert.Equal(t, "3", c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
