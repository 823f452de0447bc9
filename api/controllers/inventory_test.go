package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/internal/inventory"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
)

type testRunner struct {
	db *gorm.DB
}

func (r testRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:controllers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS inventories (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity_available INTEGER NOT NULL DEFAULT 0,
  quantity_reserved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  inventory_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reason TEXT NOT NULL,
  order_id TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestInventoryAdjustAppliesDelta(t *testing.T) {
	db := newInventoryTestDB(t)
	svc, err := inventory.NewService(inventory.NewRepository(db), nil)
	require.NoError(t, err)

	pool := models.Inventory{ID: uuid.New(), VariantID: uuid.New(), LocationID: uuid.New(), QuantityAvailable: 5}
	require.NoError(t, db.Create(&pool).Error)

	handler := InventoryAdjust(svc, testRunner{db: db}, nil)
	w := postJSON(t, handler, "/api/admin/v1/inventory/adjust", map[string]any{
		"inventory_id": pool.ID,
		"delta":        -2,
		"reason":       "damage writeoff",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Inventory
	require.NoError(t, db.First(&got, "id = ?", pool.ID).Error)
	assert.Equal(t, 3, got.QuantityAvailable)

	var movements int64
	require.NoError(t, db.Model(&models.StockMovement{}).Where("inventory_id = ?", pool.ID).Count(&movements).Error)
	assert.EqualValues(t, 1, movements)
}

func TestInventoryAdjustRequiresReason(t *testing.T) {
	db := newInventoryTestDB(t)
	svc, err := inventory.NewService(inventory.NewRepository(db), nil)
	require.NoError(t, err)

	handler := InventoryAdjust(svc, testRunner{db: db}, nil)
	w := postJSON(t, handler, "/api/admin/v1/inventory/adjust", map[string]any{
		"inventory_id": uuid.New(),
		"delta":        1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryRestockRefillsVariant(t *testing.T) {
	db := newInventoryTestDB(t)
	svc, err := inventory.NewService(inventory.NewRepository(db), nil)
	require.NoError(t, err)

	variantID := uuid.New()
	pool := models.Inventory{ID: uuid.New(), VariantID: variantID, LocationID: uuid.New(), QuantityAvailable: 1}
	require.NoError(t, db.Create(&pool).Error)

	handler := InventoryRestock(svc, testRunner{db: db}, nil)
	w := postJSON(t, handler, "/api/admin/v1/inventory/restock", map[string]any{
		"variant_id": variantID,
		"quantity":   4,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Inventory
	require.NoError(t, db.First(&got, "id = ?", pool.ID).Error)
	assert.Equal(t, 5, got.QuantityAvailable)
}
