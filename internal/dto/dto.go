package dto

import "encoding/json"

// CartLine is one (product, quantity) pair; batched requests may repeat a
// product id and are merged downstream.
type CartLine struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"item_quantity"`
}

// NormalizeCartBody accepts either a single line or a list and always hands
// the service a sequence, so nothing downstream branches on cardinality.
func NormalizeCartBody(raw []byte) ([]CartLine, error) {
	var many []CartLine
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one CartLine
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []CartLine{one}, nil
}

type RegisterRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Address         string `json:"address"`
	BusinessAddress string `json:"business_address"`
	BusinessName    string `json:"business_name"`
	Password        string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type ConfirmResetRequest struct {
	Token string `json:"token"`
}

type SetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type BankAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
}

type BankAccountResponse struct {
	SubaccountCode string `json:"subaccount_code"`
	AccountName    string `json:"account_name"`
	Verified       bool   `json:"verified"`
}

type ConfirmBankRequest struct {
	Confirmation bool `json:"confirmation"`
}

type CartResponse struct {
	CartID      string `json:"cart_id"`
	TotalAmount string `json:"total_amount"`
}

type CheckoutResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	Amount           string `json:"amount"`
}

type VerifyResponse struct {
	OrderID       string `json:"order_id"`
	OrderStatus   string `json:"order_status"`
	PaymentStatus string `json:"payment_status"`
}

type ProductRequest struct {
	CategoryID      string `json:"category"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Stock           int    `json:"stock"`
	OriginalPrice   string `json:"original_price"`
	DiscountPercent int    `json:"discount_percent"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}
