package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"
)

type CartService interface {
	// AddItems merges the lines by product, validates stock and increments
	// the customer's cart in one transaction. The returned total is the
	// whole cart's amount after the merge.
	AddItems(ctx context.Context, customerID string, lines []dto.CartLine) (*dto.CartResponse, error)
	// UpdateItems replaces quantities instead of incrementing.
	UpdateItems(ctx context.Context, customerID string, lines []dto.CartLine) (*dto.CartResponse, error)
	// RemoveItems drops the named products; a pairing that is not in the
	// cart fails the whole batch.
	RemoveItems(ctx context.Context, customerID string, lines []dto.CartLine) error
}

type cartServiceImpl struct {
	db       *gorm.DB
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(
	db *gorm.DB,
	carts repository.CartRepository,
	products repository.ProductRepository,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{
		db:       db,
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// MergeLines collapses duplicate product references into one summed quantity
// per product. The merge is commutative, so input order never matters.
func MergeLines(lines []dto.CartLine) (map[string]int, error) {
	if len(lines) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "no cart items supplied")
	}
	merged := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, apperrors.New(apperrors.KindValidation, "missing product id")
		}
		if line.Quantity <= 0 {
			return nil, apperrors.New(apperrors.KindValidation, "item quantity must be positive")
		}
		merged[line.ProductID] += line.Quantity
	}
	return merged, nil
}

func (s *cartServiceImpl) AddItems(ctx context.Context, customerID string, lines []dto.CartLine) (*dto.CartResponse, error) {
	return s.applyLines(ctx, customerID, lines, false)
}

func (s *cartServiceImpl) UpdateItems(ctx context.Context, customerID string, lines []dto.CartLine) (*dto.CartResponse, error) {
	return s.applyLines(ctx, customerID, lines, true)
}

func (s *cartServiceImpl) applyLines(ctx context.Context, customerID string, lines []dto.CartLine, replace bool) (*dto.CartResponse, error) {
	merged, err := MergeLines(lines)
	if err != nil {
		return nil, err
	}

	var resp *dto.CartResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.carts.GetOrCreateUnpaid(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("resolve unpaid cart: %w", err)
		}

		for productID, quantity := range merged {
			if err := s.upsertLine(ctx, tx, cart, productID, quantity, replace); err != nil {
				// any line failure rolls back the whole batch
				return err
			}
		}

		total, err := s.cartTotal(ctx, tx, cart.ID)
		if err != nil {
			return err
		}
		resp = &dto.CartResponse{CartID: cart.ID, TotalAmount: total.StringFixed(2)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart updated",
		zap.String("customer_id", customerID),
		zap.Int("merged_lines", len(merged)),
		zap.String("total", resp.TotalAmount))
	return resp, nil
}

func (s *cartServiceImpl) upsertLine(ctx context.Context, tx *gorm.DB, cart *model.Cart, productID string, quantity int, replace bool) error {
	product, err := s.products.FindPurchasable(ctx, tx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.ErrProductNotFound
		}
		return fmt.Errorf("load product: %w", err)
	}

	item, err := s.carts.FindItem(ctx, tx, cart.ID, productID)
	switch {
	case err == nil:
		newQuantity := quantity
		if !replace {
			newQuantity = item.ItemQuantity + quantity
		}
		// this re-read of stock is an optimistic early reject; verification
		// re-checks atomically before any deduction
		if product.Stock < newQuantity {
			return apperrors.ErrInsufficientStock
		}
		item.ItemQuantity = newQuantity
		item.TotalAmount = lineAmount(product, newQuantity)
		return s.carts.SaveItem(ctx, tx, item)
	case repository.IsNotFound(err):
		if product.Stock < quantity {
			return apperrors.ErrInsufficientStock
		}
		return s.carts.CreateItem(ctx, tx, &model.CartItem{
			CartID:       cart.ID,
			ProductID:    productID,
			ItemQuantity: quantity,
			TotalAmount:  lineAmount(product, quantity),
		})
	default:
		return fmt.Errorf("load cart item: %w", err)
	}
}

func (s *cartServiceImpl) RemoveItems(ctx context.Context, customerID string, lines []dto.CartLine) error {
	merged := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return apperrors.New(apperrors.KindValidation, "missing product id")
		}
		merged[line.ProductID] = struct{}{}
	}
	if len(merged) == 0 {
		return apperrors.New(apperrors.KindValidation, "no cart items supplied")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.carts.FindUnpaidByCustomer(ctx, tx, customerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.ErrCartNotFound
			}
			return fmt.Errorf("resolve unpaid cart: %w", err)
		}

		for productID := range merged {
			removed, err := s.carts.DeleteItems(ctx, tx, cart.ID, productID)
			if err != nil {
				return fmt.Errorf("remove cart item: %w", err)
			}
			if removed == 0 {
				return apperrors.ErrCartItemNotFound
			}
		}
		return nil
	})
}

func (s *cartServiceImpl) cartTotal(ctx context.Context, tx *gorm.DB, cartID string) (decimal.Decimal, error) {
	items, err := s.carts.ListItems(ctx, tx, cartID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list cart items: %w", err)
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalAmount)
	}
	return total, nil
}

func lineAmount(product *model.Product, quantity int) decimal.Decimal {
	return product.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
