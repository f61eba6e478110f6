package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"
)

func TestMergeLinesCommutative(t *testing.T) {
	forward := []dto.CartLine{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 3},
	}
	backward := []dto.CartLine{
		{ProductID: "a", Quantity: 3},
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
	}

	left, err := MergeLines(forward)
	require.NoError(t, err)
	right, err := MergeLines(backward)
	require.NoError(t, err)

	assert.Equal(t, left, right)
	assert.Equal(t, 5, left["a"])
	assert.Equal(t, 1, left["b"])
}

func TestMergeLinesRejectsBadQuantities(t *testing.T) {
	_, err := MergeLines([]dto.CartLine{{ProductID: "a", Quantity: 0}})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = MergeLines([]dto.CartLine{{ProductID: "a", Quantity: -1}})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = MergeLines(nil)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func newCartService(t *testing.T) (CartService, *gorm.DB, repository.CartRepository) {
	t.Helper()
	db := newTestDB(t)
	carts := repository.NewCartRepository(db)
	products := repository.NewProductRepository(db)
	return NewCartService(db, carts, products, testLogger()), db, carts
}

func TestAddItemsMergesDuplicateLines(t *testing.T) {
	svc, db, _ := newCartService(t)
	ctx := context.Background()

	category := seedCategory(t, db)
	product := seedProduct(t, db, category.ID, "vendor-1", 10, "100.00", 0)

	resp, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{
		{ProductID: product.ID, Quantity: 2},
		{ProductID: product.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "500.00", resp.TotalAmount)

	var item model.CartItem
	require.NoError(t, db.Where("product_id = ?", product.ID).First(&item).Error)
	assert.Equal(t, 5, item.ItemQuantity)
}

func TestAddItemsUsesDiscountedUnitPrice(t *testing.T) {
	svc, db, _ := newCartService(t)
	ctx := context.Background()

	category := seedCategory(t, db)
	product := seedProduct(t, db, category.ID, "vendor-1", 10, "100.00", 10)

	resp, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{
		{ProductID: product.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "180.00", resp.TotalAmount)
}

func TestAddItemsRejectsWholeBatchOnInsufficientStock(t *testing.T) {
	svc, db, _ := newCartService(t)
	ctx := context.Background()

	category := seedCategory(t, db)
	plenty := seedProduct(t, db, category.ID, "vendor-1", 10, "50.00", 0)
	scarce := seedProduct(t, db, category.ID, "vendor-1", 1, "80.00", 0)

	_, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{
		{ProductID: plenty.ID, Quantity: 2},
		{ProductID: scarce.ID, Quantity: 5},
	})
	require.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	// nothing from the batch landed
	var count int64
	require.NoError(t, db.Model(&model.CartItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddItemsUnknownProduct(t *testing.T) {
	svc, _, _ := newCartService(t)

	_, err := svc.AddItems(context.Background(), "customer-1", []dto.CartLine{
		{ProductID: "no-such-product", Quantity: 1},
	})
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)
}

func TestAddItemsReusesSingleUnpaidCart(t *testing.T) {
	svc, db, _ := newCartService(t)
	ctx := context.Background()

	category := seedCategory(t, db)
	product := seedProduct(t, db, category.ID, "vendor-1", 10, "10.00", 0)

	first, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)
	second, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, first.CartID, second.CartID)

	var count int64
	require.NoError(t, db.Model(&model.Cart{}).
		Where("customer_id = ? AND status = ?", "customer-1", model.CartUnpaid).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateUnpaidConvergesWhenLosingTheRace(t *testing.T) {
	_, db, carts := newCartService(t)
	ctx := context.Background()

	// slip the winner's cart in between the miss and the create, so the
	// create hits the unpaid_owner unique index
	winnerID := "cart-winner"
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("simulate_lost_race", func(tx *gorm.DB) {
			if raced || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "carts" {
				return
			}
			raced = true
			require.NoError(t, db.Exec(
				"INSERT INTO carts (id, customer_id, status, unpaid_owner) VALUES (?, ?, ?, ?)",
				winnerID, "customer-1", model.CartUnpaid, "customer-1").Error)
		}))

	cart, err := carts.GetOrCreateUnpaid(ctx, nil, "customer-1")
	require.NoError(t, err)
	assert.True(t, raced)
	assert.Equal(t, winnerID, cart.ID)

	var count int64
	require.NoError(t, db.Model(&model.Cart{}).
		Where("customer_id = ? AND status = ?", "customer-1", model.CartUnpaid).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddItemsOpensFreshCartAfterPayment(t *testing.T) {
	svc, db, carts := newCartService(t)
	ctx := context.Background()

	category := seedCategory(t, db)
	product := seedProduct(t, db, category.ID, "vendor-1", 10, "10.00", 0)

	first, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, carts.MarkPaid(ctx, db, first.CartID))

	second, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.NotEqual(t, first.CartID, second.CartID)
}

func TestUpdateItemsReplacesQuantity(t *testing.T) {
	svc, db, _ := newCartService(t)
	ctx := context.Background()

	category := seedCategory(t, db)
	product := seedProduct(t, db, category.ID, "vendor-1", 10, "20.00", 0)

	_, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{{ProductID: product.ID, Quantity: 4}})
	require.NoError(t, err)

	resp, err := svc.UpdateItems(ctx, "customer-1", []dto.CartLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, "40.00", resp.TotalAmount)

	var item model.CartItem
	require.NoError(t, db.Where("product_id = ?", product.ID).First(&item).Error)
	assert.Equal(t, 2, item.ItemQuantity)
}

func TestRemoveItemsMissingPairingFailsBatch(t *testing.T) {
	svc, db, _ := newCartService(t)
	ctx := context.Background()

	category := seedCategory(t, db)
	inCart := seedProduct(t, db, category.ID, "vendor-1", 10, "20.00", 0)
	notInCart := seedProduct(t, db, category.ID, "vendor-1", 10, "30.00", 0)

	_, err := svc.AddItems(ctx, "customer-1", []dto.CartLine{{ProductID: inCart.ID, Quantity: 1}})
	require.NoError(t, err)

	err = svc.RemoveItems(ctx, "customer-1", []dto.CartLine{
		{ProductID: inCart.ID},
		{ProductID: notInCart.ID},
	})
	require.ErrorIs(t, err, apperrors.ErrCartItemNotFound)

	// the batch rolled back: the in-cart line survived
	var count int64
	require.NoError(t, db.Model(&model.CartItem{}).
		Where("product_id = ?", inCart.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRemoveItemsWithoutCart(t *testing.T) {
	svc, _, _ := newCartService(t)

	err := svc.RemoveItems(context.Background(), "customer-1", []dto.CartLine{{ProductID: "p"}})
	assert.ErrorIs(t, err, apperrors.ErrCartNotFound)
}
