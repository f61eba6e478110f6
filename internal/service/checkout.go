package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/client"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/money"
	"marketplace-backend/internal/repository"
)

type CheckoutService interface {
	// Initialize opens gateway transactions for every vendor represented in
	// the customer's unpaid cart. All-or-nothing: if any vendor's init fails,
	// no payment record is created.
	Initialize(ctx context.Context, customerID string) (*dto.CheckoutResponse, error)
	// Verify confirms a gateway reference, deducts stock and finalizes the
	// order atomically. Idempotent: repeat calls return the same order.
	Verify(ctx context.Context, reference string) (*dto.VerifyResponse, error)
}

type checkoutServiceImpl struct {
	db       *gorm.DB
	carts    repository.CartRepository
	products repository.ProductRepository
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	banks    repository.BankAccountRepository
	users    repository.UserRepository
	gateway  client.Gateway
	mailer   client.Mailer
	calc     money.Calculator
	logger   *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	carts repository.CartRepository,
	products repository.ProductRepository,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	banks repository.BankAccountRepository,
	users repository.UserRepository,
	gateway client.Gateway,
	mailer client.Mailer,
	calc money.Calculator,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:       db,
		carts:    carts,
		products: products,
		payments: payments,
		orders:   orders,
		banks:    banks,
		users:    users,
		gateway:  gateway,
		mailer:   mailer,
		calc:     calc,
		logger:   logger,
	}
}

// vendorCharge accumulates the payout owed to one vendor across cart lines.
type vendorCharge struct {
	subaccountCode string
	amount         decimal.Decimal
}

func (s *checkoutServiceImpl) Initialize(ctx context.Context, customerID string) (*dto.CheckoutResponse, error) {
	customer, err := s.users.FindByID(ctx, customerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindAuth, "unknown customer")
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}

	cart, err := s.carts.FindUnpaidByCustomer(ctx, nil, customerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrCartNotFound
		}
		return nil, fmt.Errorf("resolve unpaid cart: %w", err)
	}

	items, err := s.carts.ListItems(ctx, nil, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "cart is empty")
	}

	charges, cartTotal, err := s.chargesByVendor(ctx, items)
	if err != nil {
		return nil, err
	}

	// one gateway init per vendor subaccount; any failure aborts the whole
	// checkout before a payment row exists
	var last *client.InitializeResult
	for vendorID, charge := range charges {
		result, err := s.gateway.InitializeTransaction(ctx, charge.amount, customer.Email, charge.subaccountCode)
		if err != nil {
			s.logger.Warn("checkout init aborted",
				zap.String("cart_id", cart.ID),
				zap.String("vendor_id", vendorID),
				zap.Error(err))
			return nil, err
		}
		last = result
	}

	payment := &model.Payment{
		CartID:    cart.ID,
		Reference: last.Reference,
		Amount:    cartTotal,
		Status:    model.PaymentPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.logger.Info("checkout initialized",
		zap.String("cart_id", cart.ID),
		zap.String("reference", payment.Reference),
		zap.Int("vendors", len(charges)),
		zap.String("amount", cartTotal.StringFixed(2)))

	return &dto.CheckoutResponse{
		Reference:        payment.Reference,
		AuthorizationURL: last.AuthorizationURL,
		Amount:           cartTotal.StringFixed(2),
	}, nil
}

// chargesByVendor groups the cart lines by vendor, pricing each vendor's
// share with the payout calculator. A vendor without a verified payout
// account blocks the whole checkout.
func (s *checkoutServiceImpl) chargesByVendor(ctx context.Context, items []*model.CartItem) (map[string]*vendorCharge, decimal.Decimal, error) {
	charges := make(map[string]*vendorCharge)
	cartTotal := decimal.Zero

	for _, item := range items {
		product := item.Product
		cartTotal = cartTotal.Add(item.TotalAmount)

		charge, ok := charges[product.VendorID]
		if !ok {
			account, err := s.banks.FindVerifiedByVendor(ctx, product.VendorID)
			if err != nil {
				if repository.IsNotFound(err) {
					return nil, decimal.Zero, apperrors.ErrNoVendorAccount
				}
				return nil, decimal.Zero, fmt.Errorf("load vendor account: %w", err)
			}
			charge = &vendorCharge{subaccountCode: account.SubaccountCode}
			charges[product.VendorID] = charge
		}

		unitPayout := s.calc.VendorPayout(product.OriginalPrice, product.DiscountPercent)
		quantity := decimal.NewFromInt(int64(item.ItemQuantity))
		charge.amount = charge.amount.Add(unitPayout.Mul(quantity)).Round(2)
	}
	return charges, cartTotal, nil
}

func (s *checkoutServiceImpl) Verify(ctx context.Context, reference string) (*dto.VerifyResponse, error) {
	payment, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	// fast path for replays; no gateway round trip, no lock
	if payment.Status == model.PaymentVerified {
		return s.verifiedResponse(ctx, payment.ID)
	}

	result, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	if result.Status != "success" {
		return nil, apperrors.New(apperrors.KindValidation,
			fmt.Sprintf("transaction not successful: %s", result.Status))
	}

	var resp *dto.VerifyResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.payments.FindByReferenceForUpdate(ctx, tx, reference)
		if err != nil {
			return fmt.Errorf("lock payment: %w", err)
		}
		// a concurrent verify may have finished while we waited on the lock
		if locked.Status == model.PaymentVerified {
			resp, err = s.verifiedResponse(ctx, locked.ID)
			return err
		}

		items, err := s.carts.ListItems(ctx, tx, locked.CartID)
		if err != nil {
			return fmt.Errorf("list cart items: %w", err)
		}
		for _, item := range items {
			if err := s.products.DeductStock(ctx, tx, item.ProductID, item.ItemQuantity); err != nil {
				if repository.IsNotFound(err) {
					// floor check failed; roll everything back and leave the
					// payment pending so the verify can be retried
					return apperrors.ErrInsufficientStock
				}
				return fmt.Errorf("deduct stock: %w", err)
			}
		}

		if err := s.payments.MarkVerified(ctx, tx, locked.ID, result.Amount, result.Channel); err != nil {
			return fmt.Errorf("mark payment verified: %w", err)
		}
		if err := s.carts.MarkPaid(ctx, tx, locked.CartID); err != nil {
			return fmt.Errorf("mark cart paid: %w", err)
		}

		order := &model.Order{
			PaymentID:     locked.ID,
			PaymentStatus: model.PaymentVerified,
			Status:        model.OrderHold,
		}
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		resp = &dto.VerifyResponse{
			OrderID:       order.ID,
			OrderStatus:   order.Status,
			PaymentStatus: model.PaymentVerified,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment verified",
		zap.String("reference", reference),
		zap.String("order_id", resp.OrderID))
	s.notifyCustomer(ctx, payment.CartID, reference)
	return resp, nil
}

// verifiedResponse rebuilds the idempotent reply for an already-verified
// payment from its existing order.
func (s *checkoutServiceImpl) verifiedResponse(ctx context.Context, paymentID string) (*dto.VerifyResponse, error) {
	order, err := s.orders.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load order for verified payment: %w", err)
	}
	return &dto.VerifyResponse{
		OrderID:       order.ID,
		OrderStatus:   order.Status,
		PaymentStatus: model.PaymentVerified,
	}, nil
}

func (s *checkoutServiceImpl) notifyCustomer(ctx context.Context, cartID, reference string) {
	if s.mailer == nil {
		return
	}
	cart, err := s.carts.FindByID(ctx, nil, cartID)
	if err != nil {
		s.logger.Warn("skip order mail", zap.String("cart_id", cartID), zap.Error(err))
		return
	}
	customer, err := s.users.FindByID(ctx, cart.CustomerID)
	if err != nil {
		s.logger.Warn("skip order mail", zap.String("cart_id", cartID), zap.Error(err))
		return
	}
	text := fmt.Sprintf("Hi %s, your payment %s was confirmed and your order is being processed.",
		customer.FirstName, reference)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your payment <b>%s</b> was confirmed and your order is being processed.</p>",
		customer.FirstName, reference)
	s.mailer.Send("Order confirmed", text, html, customer.Email)
}
