package service

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/client"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"
)

var accountNumberPattern = regexp.MustCompile(`^\d{10}$`)

type BankService interface {
	// SubmitAccount resolves the bank code, creates the gateway subaccount and
	// stores it unverified, pending the vendor's name confirmation.
	SubmitAccount(ctx context.Context, vendorID string, req *dto.BankAccountRequest) (*dto.BankAccountResponse, error)
	// ConfirmAccount finishes onboarding: a rejected holder name deletes the
	// record, an accepted one registers the payout split and marks it usable.
	ConfirmAccount(ctx context.Context, vendorID string, confirmed bool) (*dto.BankAccountResponse, error)
	GetAccount(ctx context.Context, vendorID string) (*dto.BankAccountResponse, error)
}

type bankServiceImpl struct {
	db            *gorm.DB
	banks         repository.BankAccountRepository
	users         repository.UserRepository
	gateway       client.Gateway
	vendorPercent int
	logger        *zap.Logger
}

func NewBankService(
	db *gorm.DB,
	banks repository.BankAccountRepository,
	users repository.UserRepository,
	gateway client.Gateway,
	vendorPercent int,
	logger *zap.Logger,
) BankService {
	return &bankServiceImpl{
		db:            db,
		banks:         banks,
		users:         users,
		gateway:       gateway,
		vendorPercent: vendorPercent,
		logger:        logger,
	}
}

func (s *bankServiceImpl) SubmitAccount(ctx context.Context, vendorID string, req *dto.BankAccountRequest) (*dto.BankAccountResponse, error) {
	if !accountNumberPattern.MatchString(req.AccountNumber) {
		return nil, apperrors.New(apperrors.KindValidation, "account number must be 10 digits")
	}
	if req.BankName == "" {
		return nil, apperrors.New(apperrors.KindValidation, "bank name is required")
	}

	vendor, err := s.users.FindByID(ctx, vendorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindAuth, "unknown vendor")
		}
		return nil, fmt.Errorf("load vendor: %w", err)
	}
	if vendor.Role != model.RoleVendor {
		return nil, apperrors.New(apperrors.KindAuth, "only vendors can register payout accounts")
	}
	if existing, err := s.banks.FindByVendor(ctx, vendorID); err == nil && existing != nil {
		return nil, apperrors.New(apperrors.KindConflict, "bank account already submitted")
	} else if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	bankCode, err := s.gateway.ResolveBankCode(ctx, req.BankName)
	if err != nil {
		return nil, err
	}

	sub, err := s.gateway.CreateSubaccount(ctx, vendor.BusinessName, bankCode, req.AccountNumber)
	if err != nil {
		return nil, err
	}

	account := &model.BankAccount{
		VendorID:       vendorID,
		AccountNumber:  req.AccountNumber,
		AccountName:    sub.AccountName,
		BankName:       req.BankName,
		BankCode:       bankCode,
		SubaccountCode: sub.SubaccountCode,
	}
	if err := s.banks.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("store bank account: %w", err)
	}

	s.logger.Info("bank account submitted",
		zap.String("vendor_id", vendorID),
		zap.String("subaccount_code", account.SubaccountCode))

	return &dto.BankAccountResponse{
		SubaccountCode: account.SubaccountCode,
		AccountName:    account.AccountName,
		Verified:       false,
	}, nil
}

func (s *bankServiceImpl) ConfirmAccount(ctx context.Context, vendorID string, confirmed bool) (*dto.BankAccountResponse, error) {
	account, err := s.banks.FindByVendor(ctx, vendorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrBankNotFound
		}
		return nil, fmt.Errorf("load bank account: %w", err)
	}
	if account.Verified {
		return nil, apperrors.New(apperrors.KindConflict, "bank account already verified")
	}

	if !confirmed {
		// wrong holder name; drop the record so the vendor can resubmit
		if err := s.banks.Delete(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("delete rejected account: %w", err)
		}
		s.logger.Info("bank account rejected by vendor", zap.String("vendor_id", vendorID))
		return nil, apperrors.New(apperrors.KindValidation, "account rejected, submit the correct details")
	}

	splitCode, err := s.gateway.CreateSplit(ctx,
		fmt.Sprintf("split-%s", vendorID), account.SubaccountCode, s.vendorPercent)
	if err != nil {
		return nil, err
	}

	// one transaction: a verified account without a stored split code would
	// be unusable at checkout
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.banks.MarkVerified(ctx, tx, account.ID); err != nil {
			return fmt.Errorf("mark account verified: %w", err)
		}
		if err := s.banks.SaveSplit(ctx, tx, &model.TransactionSplit{
			VendorID:  vendorID,
			SplitCode: splitCode,
		}); err != nil {
			return fmt.Errorf("store split: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bank account verified",
		zap.String("vendor_id", vendorID),
		zap.String("split_code", splitCode))

	return &dto.BankAccountResponse{
		SubaccountCode: account.SubaccountCode,
		AccountName:    account.AccountName,
		Verified:       true,
	}, nil
}

func (s *bankServiceImpl) GetAccount(ctx context.Context, vendorID string) (*dto.BankAccountResponse, error) {
	account, err := s.banks.FindByVendor(ctx, vendorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrBankNotFound
		}
		return nil, fmt.Errorf("load bank account: %w", err)
	}
	return &dto.BankAccountResponse{
		SubaccountCode: account.SubaccountCode,
		AccountName:    account.AccountName,
		Verified:       account.Verified,
	}, nil
}
