package repository

import (
	"context"

	"gorm.io/gorm"

	"marketplace-backend/internal/model"
)

type BankAccountRepository interface {
	Create(ctx context.Context, account *model.BankAccount) error
	FindByVendor(ctx context.Context, vendorID string) (*model.BankAccount, error)
	// FindVerifiedByVendor only returns accounts usable for payouts.
	FindVerifiedByVendor(ctx context.Context, vendorID string) (*model.BankAccount, error)
	Delete(ctx context.Context, id string) error
	MarkVerified(ctx context.Context, tx *gorm.DB, id string) error
	SaveSplit(ctx context.Context, tx *gorm.DB, split *model.TransactionSplit) error
}

type bankRepoImpl struct {
	db *gorm.DB
}

func NewBankAccountRepository(db *gorm.DB) BankAccountRepository {
	return &bankRepoImpl{db: db}
}

func (r *bankRepoImpl) orDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bankRepoImpl) Create(ctx context.Context, account *model.BankAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *bankRepoImpl) FindByVendor(ctx context.Context, vendorID string) (*model.BankAccount, error) {
	var account model.BankAccount
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *bankRepoImpl) FindVerifiedByVendor(ctx context.Context, vendorID string) (*model.BankAccount, error) {
	var account model.BankAccount
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND verified = ?", vendorID, true).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *bankRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.BankAccount{}, "id = ?", id).Error
}

func (r *bankRepoImpl) MarkVerified(ctx context.Context, tx *gorm.DB, id string) error {
	result := r.orDB(tx).WithContext(ctx).Model(&model.BankAccount{}).
		Where("id = ?", id).
		Update("verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bankRepoImpl) SaveSplit(ctx context.Context, tx *gorm.DB, split *model.TransactionSplit) error {
	return r.orDB(tx).WithContext(ctx).Create(split).Error
}
