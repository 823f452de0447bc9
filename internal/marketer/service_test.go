package marketer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	dsn := "file:marketer_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS marketer_contracts (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  marketer_id TEXT NOT NULL,
  commission_rate NUMERIC NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  starts_at DATETIME,
  ends_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS marketer_contract_products (
  id TEXT PRIMARY KEY,
  contract_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (contract_id, product_id)
);`,
		`CREATE TABLE IF NOT EXISTS marketer_commissions (
  id TEXT PRIMARY KEY,
  contract_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL UNIQUE,
  rate NUMERIC NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type contractOption func(*models.MarketerContract)

func seedContract(t *testing.T, db *gorm.DB, shopID, productID uuid.UUID, rate decimal.Decimal, opts ...contractOption) models.MarketerContract {
	t.Helper()
	contract := models.MarketerContract{
		ID:             uuid.New(),
		ShopID:         shopID,
		MarketerID:     uuid.New(),
		CommissionRate: rate,
		IsActive:       true,
	}
	for _, opt := range opts {
		opt(&contract)
	}
	require.NoError(t, db.Create(&contract).Error)
	link := models.MarketerContractProduct{ID: uuid.New(), ContractID: contract.ID, ProductID: productID}
	require.NoError(t, db.Create(&link).Error)
	return contract
}

func TestNormalizeRate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.05", "0.05"},
		{"1", "1"},
		{"5", "0.05"},
		{"100", "1"},
		{"250", "1"},
		{"0", "0"},
	}
	for _, tc := range cases {
		in := decimal.RequireFromString(tc.in)
		want := decimal.RequireFromString(tc.want)
		got := NormalizeRate(in)
		assert.True(t, got.Equal(want), "NormalizeRate(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestValidateContract(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	ctx := context.Background()

	shopID := uuid.New()
	productID := uuid.New()
	contract := seedContract(t, db, shopID, productID, decimal.NewFromFloat(0.05))

	got, err := svc.ValidateContract(ctx, db, contract.ID, shopID, productID)
	require.NoError(t, err)
	assert.Equal(t, contract.ID, got.ID)

	_, err = svc.ValidateContract(ctx, db, uuid.New(), shopID, productID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.ValidateContract(ctx, db, contract.ID, uuid.New(), productID)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.ValidateContract(ctx, db, contract.ID, shopID, uuid.New())
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestValidateContractWindow(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	ctx := context.Background()

	shopID := uuid.New()
	productID := uuid.New()

	future := time.Now().Add(24 * time.Hour)
	notStarted := seedContract(t, db, shopID, productID, decimal.NewFromFloat(0.05), func(c *models.MarketerContract) {
		c.StartsAt = &future
	})
	_, err = svc.ValidateContract(ctx, db, notStarted.ID, shopID, productID)
	requireCode(t, err, pkgerrors.CodeValidation)

	past := time.Now().Add(-24 * time.Hour)
	expired := seedContract(t, db, shopID, uuid.New(), decimal.NewFromFloat(0.05), func(c *models.MarketerContract) {
		c.EndsAt = &past
	})
	_, err = svc.ValidateContract(ctx, db, expired.ID, shopID, productID)
	requireCode(t, err, pkgerrors.CodeValidation)

	inactive := seedContract(t, db, shopID, uuid.New(), decimal.NewFromFloat(0.05), func(c *models.MarketerContract) {
		c.IsActive = false
	})
	_, err = svc.ValidateContract(ctx, db, inactive.ID, shopID, productID)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestCreatePendingForItemNormalizesPercentRate(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	ctx := context.Background()

	// Rate 5 reads as 5 percent.
	contract := seedContract(t, db, uuid.New(), uuid.New(), decimal.NewFromInt(5))
	item := &models.OrderItem{
		ID:       uuid.New(),
		OrderID:  uuid.New(),
		Quantity: 2,
		Total:    decimal.NewFromInt(1200),
	}
	require.NoError(t, svc.CreatePendingForItem(ctx, db, &contract, item))

	var commission models.MarketerCommission
	require.NoError(t, db.First(&commission, "order_item_id = ?", item.ID).Error)
	assert.Equal(t, enums.CommissionStatusPending, commission.Status)
	assert.True(t, commission.Rate.Equal(decimal.NewFromFloat(0.05)), "rate %s", commission.Rate)
	assert.True(t, commission.Amount.Equal(decimal.NewFromInt(60)), "amount %s", commission.Amount)
}

func TestApproveForOrder(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	ctx := context.Background()

	contract := seedContract(t, db, uuid.New(), uuid.New(), decimal.NewFromFloat(0.10))
	orderID := uuid.New()
	for i := 0; i < 2; i++ {
		item := &models.OrderItem{ID: uuid.New(), OrderID: orderID, Quantity: 1, Total: decimal.NewFromInt(500)}
		require.NoError(t, svc.CreatePendingForItem(ctx, db, &contract, item))
	}

	approved, err := svc.ApproveForOrder(ctx, db, orderID)
	require.NoError(t, err)
	assert.Equal(t, 2, approved)

	var commissions []models.MarketerCommission
	require.NoError(t, db.Where("order_id = ?", orderID).Find(&commissions).Error)
	for _, commission := range commissions {
		assert.Equal(t, enums.CommissionStatusApproved, commission.Status)
	}

	// Replaying the delivery event finds nothing pending.
	approved, err = svc.ApproveForOrder(ctx, db, orderID)
	require.NoError(t, err)
	assert.Zero(t, approved)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
}
