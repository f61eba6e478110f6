package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace-backend/internal/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByReference(ctx context.Context, reference string) (*model.Payment, error)
	// FindByReferenceForUpdate takes a row lock so two concurrent verify
	// calls for the same reference serialize on the payment row.
	FindByReferenceForUpdate(ctx context.Context, tx *gorm.DB, reference string) (*model.Payment, error)
	MarkVerified(ctx context.Context, tx *gorm.DB, id string, amount decimal.Decimal, method string) error
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{db: db}
}

func (r *paymentRepoImpl) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByReference(ctx context.Context, reference string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepoImpl) FindByReferenceForUpdate(ctx context.Context, tx *gorm.DB, reference string) (*model.Payment, error) {
	q := tx.WithContext(ctx)
	// sqlite has no row locks; its single-writer model serializes anyway
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var payment model.Payment
	err := q.
		Where("reference = ?", reference).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkVerified performs the single pending->verified transition; a payment
// already verified matches zero rows.
func (r *paymentRepoImpl) MarkVerified(ctx context.Context, tx *gorm.DB, id string, amount decimal.Decimal, method string) error {
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentPending).
		Updates(map[string]interface{}{
			"status": model.PaymentVerified,
			"amount": amount,
			"method": method,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
