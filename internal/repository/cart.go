package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"marketplace-backend/internal/model"
)

type CartRepository interface {
	// GetOrCreateUnpaid resolves the customer's single unpaid cart, creating
	// it when absent. Race-safe: the unique unpaid_owner index plus a
	// retry-on-conflict makes concurrent creates converge on one row.
	GetOrCreateUnpaid(ctx context.Context, tx *gorm.DB, customerID string) (*model.Cart, error)
	FindUnpaidByCustomer(ctx context.Context, tx *gorm.DB, customerID string) (*model.Cart, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, cartID string) error
	FindByID(ctx context.Context, tx *gorm.DB, cartID string) (*model.Cart, error)

	FindItem(ctx context.Context, tx *gorm.DB, cartID, productID string) (*model.CartItem, error)
	CreateItem(ctx context.Context, tx *gorm.DB, item *model.CartItem) error
	SaveItem(ctx context.Context, tx *gorm.DB, item *model.CartItem) error
	DeleteItems(ctx context.Context, tx *gorm.DB, cartID, productID string) (int64, error)
	ListItems(ctx context.Context, tx *gorm.DB, cartID string) ([]*model.CartItem, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{db: db}
}

func (r *cartRepoImpl) orDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *cartRepoImpl) GetOrCreateUnpaid(ctx context.Context, tx *gorm.DB, customerID string) (*model.Cart, error) {
	cart, err := r.FindUnpaidByCustomer(ctx, tx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	owner := customerID
	fresh := &model.Cart{
		CustomerID:  customerID,
		Status:      model.CartUnpaid,
		UnpaidOwner: &owner,
	}
	err = r.orDB(tx).WithContext(ctx).Create(fresh).Error
	if err == nil {
		return fresh, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race; the winner's cart is the customer's cart
		return r.FindUnpaidByCustomer(ctx, tx, customerID)
	}
	return nil, err
}

func (r *cartRepoImpl) FindUnpaidByCustomer(ctx context.Context, tx *gorm.DB, customerID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.orDB(tx).WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, model.CartUnpaid).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, cartID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.orDB(tx).WithContext(ctx).
		Where("id = ?", cartID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// MarkPaid flips the status and releases the unpaid_owner slot so the
// customer can open a new cart.
func (r *cartRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, cartID string) error {
	result := r.orDB(tx).WithContext(ctx).Model(&model.Cart{}).
		Where("id = ? AND status = ?", cartID, model.CartUnpaid).
		Updates(map[string]interface{}{
			"status":       model.CartPaid,
			"unpaid_owner": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepoImpl) FindItem(ctx context.Context, tx *gorm.DB, cartID, productID string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.orDB(tx).WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepoImpl) CreateItem(ctx context.Context, tx *gorm.DB, item *model.CartItem) error {
	return r.orDB(tx).WithContext(ctx).Create(item).Error
}

func (r *cartRepoImpl) SaveItem(ctx context.Context, tx *gorm.DB, item *model.CartItem) error {
	return r.orDB(tx).WithContext(ctx).Save(item).Error
}

func (r *cartRepoImpl) DeleteItems(ctx context.Context, tx *gorm.DB, cartID, productID string) (int64, error) {
	result := r.orDB(tx).WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartItem{})
	return result.RowsAffected, result.Error
}

func (r *cartRepoImpl) ListItems(ctx context.Context, tx *gorm.DB, cartID string) ([]*model.CartItem, error) {
	var items []*model.CartItem
	err := r.orDB(tx).WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
