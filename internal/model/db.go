package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"

	CartUnpaid = "unpaid"
	CartPaid   = "paid"

	PaymentPending  = "pending"
	PaymentVerified = "verified"

	OrderHold = "hold"
)

type User struct {
	ID              string `gorm:"primaryKey;size:36"`
	FirstName       string `gorm:"size:50;not null"`
	LastName        string `gorm:"size:50;not null"`
	Email           string `gorm:"size:255;uniqueIndex;not null"`
	PhoneNumber     string `gorm:"size:20;uniqueIndex;not null"`
	Address         string
	BusinessAddress string
	BusinessName    string `gorm:"size:100"`
	Role            string `gorm:"size:8;not null;default:customer"`
	PasswordHash    string `gorm:"size:128;not null"`
	EmailVerified   bool   `gorm:"not null;default:false"`
	// ResetPassword/TimeReset form the reset-eligibility window consumed by
	// SetPassword; the flag alone is never enough.
	ResetPassword bool `gorm:"not null;default:false"`
	TimeReset     *time.Time
	IsActive      bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Category struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:200;uniqueIndex;not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Product struct {
	ID          string `gorm:"primaryKey;size:36"`
	CategoryID  string `gorm:"size:36;index;not null"`
	VendorID    string `gorm:"size:36;index;not null"`
	Name        string `gorm:"size:200;not null"`
	Description string
	// Stock never goes negative; every mutator decrements with a floor check.
	Stock           int             `gorm:"not null;default:0"`
	OriginalPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPercent int             `gorm:"not null;default:0"` // 0-70
	// DiscountAmount is the discounted unit price, recomputed whenever
	// OriginalPrice or DiscountPercent changes.
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2)"`
	ImagePublicID  string          `gorm:"size:255"`
	ImageURL       string          `gorm:"size:512"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// EffectiveUnitPrice is what one unit costs the customer right now.
func (p *Product) EffectiveUnitPrice() decimal.Decimal {
	if p.DiscountPercent != 0 {
		return p.DiscountAmount
	}
	return p.OriginalPrice
}

type Cart struct {
	ID         string `gorm:"primaryKey;size:36"`
	CustomerID string `gorm:"size:36;index;not null"`
	Status     string `gorm:"size:8;not null;default:unpaid"`
	// UnpaidOwner holds the customer id while the cart is unpaid and is
	// cleared on payment. The unique index is the store-level guarantee that
	// a customer has at most one unpaid cart (NULLs do not collide).
	UnpaidOwner *string `gorm:"size:36;uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []CartItem `gorm:"constraint:OnDelete:CASCADE"`
}

func (c *Cart) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CartItem struct {
	ID           string `gorm:"primaryKey;size:36"`
	CartID       string `gorm:"size:36;uniqueIndex:idx_cart_product;not null"`
	ProductID    string `gorm:"size:36;uniqueIndex:idx_cart_product;not null"`
	ItemQuantity int    `gorm:"not null"`
	// TotalAmount = quantity x effective unit price, recomputed on every
	// quantity change; never stored stale.
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Product Product `gorm:"constraint:OnDelete:CASCADE"`
}

func (c *CartItem) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type BankAccount struct {
	ID            string `gorm:"primaryKey;size:36"`
	VendorID      string `gorm:"size:36;uniqueIndex;not null"`
	AccountNumber string `gorm:"size:20;not null"`
	// AccountName is the holder name the gateway resolved for the account;
	// the vendor must confirm it before the subaccount becomes usable.
	AccountName    string `gorm:"size:200"`
	BankName       string `gorm:"size:200;not null"`
	BankCode       string `gorm:"size:10;not null"`
	SubaccountCode string `gorm:"size:64;uniqueIndex;not null"`
	Verified       bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (b *BankAccount) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type TransactionSplit struct {
	ID        string `gorm:"primaryKey;size:36"`
	VendorID  string `gorm:"size:36;uniqueIndex;not null"`
	SplitCode string `gorm:"size:64;not null"`
	CreatedAt time.Time
}

func (t *TransactionSplit) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Payment struct {
	ID     string `gorm:"primaryKey;size:36"`
	CartID string `gorm:"size:36;index;not null"`
	// Reference is the gateway transaction reference; verification is keyed
	// and deduplicated by it.
	Reference string          `gorm:"size:64;uniqueIndex;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Method    string          `gorm:"size:8;not null;default:card"`
	Status    string          `gorm:"size:10;not null;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Order is append-only: one row per verified payment, never mutated after
// creation apart from the hold-state transition.
type Order struct {
	ID            string `gorm:"primaryKey;size:36"`
	PaymentID     string `gorm:"size:36;uniqueIndex;not null"`
	PaymentStatus string `gorm:"size:10;not null"`
	Status        string `gorm:"size:8;not null;default:hold"`
	CreatedAt     time.Time
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// IssuedToken records every access/refresh token handed out so a user's
// whole outstanding set can be revoked on refresh or password change.
type IssuedToken struct {
	JTI       string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;index;not null"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

// BlacklistedToken is the persistent invalidation set checked on every
// authenticated request; it survives process restarts.
type BlacklistedToken struct {
	JTI       string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
}
