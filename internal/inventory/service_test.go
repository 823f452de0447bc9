package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	inventories := `
CREATE TABLE IF NOT EXISTS inventories (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity_available INTEGER NOT NULL DEFAULT 0,
  quantity_reserved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	movements := `
CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  inventory_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reason TEXT NOT NULL,
  order_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(inventories).Error)
	require.NoError(t, db.Exec(movements).Error)
	return db
}

func seedPool(t *testing.T, db *gorm.DB, variantID uuid.UUID, available, reserved int) models.Inventory {
	t.Helper()
	pool := models.Inventory{
		ID:                uuid.New(),
		VariantID:         variantID,
		LocationID:        uuid.New(),
		QuantityAvailable: available,
		QuantityReserved:  reserved,
	}
	require.NoError(t, db.Create(&pool).Error)
	return pool
}

func newService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	return svc
}

func TestReserveDrainsSmallestPoolsFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	variant := uuid.New()

	small := seedPool(t, db, variant, 2, 0)
	large := seedPool(t, db, variant, 10, 0)

	require.NoError(t, svc.Reserve(ctx, db, variant, 5, nil))

	var gotSmall, gotLarge models.Inventory
	require.NoError(t, db.First(&gotSmall, "id = ?", small.ID).Error)
	require.NoError(t, db.First(&gotLarge, "id = ?", large.ID).Error)

	assert.Equal(t, 0, gotSmall.QuantityAvailable)
	assert.Equal(t, 2, gotSmall.QuantityReserved)
	assert.Equal(t, 7, gotLarge.QuantityAvailable)
	assert.Equal(t, 3, gotLarge.QuantityReserved)

	var moves []models.StockMovement
	require.NoError(t, db.Order("quantity ASC").Find(&moves).Error)
	require.Len(t, moves, 2)
	for _, move := range moves {
		assert.Equal(t, enums.StockMovementReserve, move.Type)
		assert.Negative(t, move.Quantity)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	variant := uuid.New()

	seedPool(t, db, variant, 3, 0)

	err := svc.Reserve(ctx, db, variant, 4, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// No partial reservation happened.
	var pool models.Inventory
	require.NoError(t, db.First(&pool, "variant_id = ?", variant).Error)
	assert.Equal(t, 3, pool.QuantityAvailable)
	assert.Equal(t, 0, pool.QuantityReserved)
}

func TestReleaseReturnsReservedUnits(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	variant := uuid.New()

	pool := seedPool(t, db, variant, 1, 4)

	require.NoError(t, svc.Release(ctx, db, variant, 3, nil))

	var got models.Inventory
	require.NoError(t, db.First(&got, "id = ?", pool.ID).Error)
	assert.Equal(t, 4, got.QuantityAvailable)
	assert.Equal(t, 1, got.QuantityReserved)
}

func TestReleaseExceedingReservedFails(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	variant := uuid.New()

	seedPool(t, db, variant, 1, 2)

	err := svc.Release(ctx, db, variant, 3, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestConfirmBurnsReservedStock(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	variant := uuid.New()

	pool := seedPool(t, db, variant, 5, 3)

	require.NoError(t, svc.Confirm(ctx, db, variant, 3, nil))

	var got models.Inventory
	require.NoError(t, db.First(&got, "id = ?", pool.ID).Error)
	assert.Equal(t, 5, got.QuantityAvailable)
	assert.Equal(t, 0, got.QuantityReserved)

	var move models.StockMovement
	require.NoError(t, db.First(&move, "inventory_id = ?", pool.ID).Error)
	assert.Equal(t, enums.StockMovementConfirm, move.Type)
	assert.Equal(t, -3, move.Quantity)
}

func TestRestockRefillsEmptiestPool(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	variant := uuid.New()

	empty := seedPool(t, db, variant, 0, 0)
	full := seedPool(t, db, variant, 9, 0)

	require.NoError(t, svc.Restock(ctx, db, variant, 4, nil))

	var gotEmpty, gotFull models.Inventory
	require.NoError(t, db.First(&gotEmpty, "id = ?", empty.ID).Error)
	require.NoError(t, db.First(&gotFull, "id = ?", full.ID).Error)
	assert.Equal(t, 4, gotEmpty.QuantityAvailable)
	assert.Equal(t, 9, gotFull.QuantityAvailable)
}

func TestRestockWithoutPoolFails(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	err := svc.Restock(context.Background(), db, uuid.New(), 1, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	variant := uuid.New()

	pool := seedPool(t, db, variant, 2, 0)

	err := svc.Adjust(ctx, db, pool.ID, -3, "damage writeoff")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	require.NoError(t, svc.Adjust(ctx, db, pool.ID, -2, "damage writeoff"))
	var got models.Inventory
	require.NoError(t, db.First(&got, "id = ?", pool.ID).Error)
	assert.Equal(t, 0, got.QuantityAvailable)
}

func TestValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	ctx := context.Background()

	err := svc.Reserve(ctx, db, uuid.Nil, 1, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = svc.Reserve(ctx, db, uuid.New(), 0, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = svc.Reserve(ctx, nil, uuid.New(), 1, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.As(err).Code())
}
