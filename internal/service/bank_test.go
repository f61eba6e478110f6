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

type bankFixture struct {
	svc    BankService
	db     *gorm.DB
	vendor *model.User
}

func newBankFixture(t *testing.T) *bankFixture {
	t.Helper()
	db := newTestDB(t)
	banks := repository.NewBankAccountRepository(db)
	users := repository.NewUserRepository(db)

	return &bankFixture{
		svc:    NewBankService(db, banks, users, &fakeGateway{}, 90, testLogger()),
		db:     db,
		vendor: seedUser(t, db, model.RoleVendor),
	}
}

func validAccountReq() *dto.BankAccountRequest {
	return &dto.BankAccountRequest{AccountNumber: "0123456789", BankName: "Test Bank"}
}

func TestSubmitAccountStoresUnverified(t *testing.T) {
	f := newBankFixture(t)

	resp, err := f.svc.SubmitAccount(context.Background(), f.vendor.ID, validAccountReq())
	require.NoError(t, err)
	assert.Equal(t, "SUB_test", resp.SubaccountCode)
	assert.Equal(t, "TEST HOLDER", resp.AccountName)
	assert.False(t, resp.Verified)

	var account model.BankAccount
	require.NoError(t, f.db.First(&account, "vendor_id = ?", f.vendor.ID).Error)
	assert.Equal(t, "058", account.BankCode)
	assert.False(t, account.Verified)
}

func TestSubmitAccountValidation(t *testing.T) {
	f := newBankFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAccount(ctx, f.vendor.ID, &dto.BankAccountRequest{
		AccountNumber: "123", BankName: "Test Bank",
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.svc.SubmitAccount(ctx, f.vendor.ID, &dto.BankAccountRequest{
		AccountNumber: "0123456789",
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestSubmitAccountRejectsNonVendor(t *testing.T) {
	f := newBankFixture(t)
	customer := seedUser(t, f.db, model.RoleCustomer)

	_, err := f.svc.SubmitAccount(context.Background(), customer.ID, validAccountReq())
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestSubmitAccountOnlyOnce(t *testing.T) {
	f := newBankFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAccount(ctx, f.vendor.ID, validAccountReq())
	require.NoError(t, err)

	_, err = f.svc.SubmitAccount(ctx, f.vendor.ID, validAccountReq())
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestConfirmAccountAcceptedRegistersSplit(t *testing.T) {
	f := newBankFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAccount(ctx, f.vendor.ID, validAccountReq())
	require.NoError(t, err)

	resp, err := f.svc.ConfirmAccount(ctx, f.vendor.ID, true)
	require.NoError(t, err)
	assert.True(t, resp.Verified)

	var account model.BankAccount
	require.NoError(t, f.db.First(&account, "vendor_id = ?", f.vendor.ID).Error)
	assert.True(t, account.Verified)

	var split model.TransactionSplit
	require.NoError(t, f.db.First(&split, "vendor_id = ?", f.vendor.ID).Error)
	assert.Equal(t, "SPL_test", split.SplitCode)
}

func TestConfirmAccountRejectedDeletesRecord(t *testing.T) {
	f := newBankFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAccount(ctx, f.vendor.ID, validAccountReq())
	require.NoError(t, err)

	_, err = f.svc.ConfirmAccount(ctx, f.vendor.ID, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	var count int64
	require.NoError(t, f.db.Model(&model.BankAccount{}).
		Where("vendor_id = ?", f.vendor.ID).Count(&count).Error)
	assert.Zero(t, count)

	// the vendor can now resubmit
	_, err = f.svc.SubmitAccount(ctx, f.vendor.ID, validAccountReq())
	assert.NoError(t, err)
}

func TestConfirmAccountFailedSplitStoreRollsBackVerification(t *testing.T) {
	f := newBankFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAccount(ctx, f.vendor.ID, validAccountReq())
	require.NoError(t, err)

	// occupy the vendor's split slot so SaveSplit hits the unique index
	require.NoError(t, f.db.Create(&model.TransactionSplit{
		VendorID:  f.vendor.ID,
		SplitCode: "SPL_stale",
	}).Error)

	_, err = f.svc.ConfirmAccount(ctx, f.vendor.ID, true)
	require.Error(t, err)

	// the verification rolled back with the split store
	var account model.BankAccount
	require.NoError(t, f.db.First(&account, "vendor_id = ?", f.vendor.ID).Error)
	assert.False(t, account.Verified)
}

func TestConfirmAccountWithoutSubmission(t *testing.T) {
	f := newBankFixture(t)

	_, err := f.svc.ConfirmAccount(context.Background(), f.vendor.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrBankNotFound)
}

func TestConfirmAccountTwice(t *testing.T) {
	f := newBankFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAccount(ctx, f.vendor.ID, validAccountReq())
	require.NoError(t, err)
	_, err = f.svc.ConfirmAccount(ctx, f.vendor.ID, true)
	require.NoError(t, err)

	_, err = f.svc.ConfirmAccount(ctx, f.vendor.ID, true)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}
