package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/config"
)

// Gateway is the payment processor the orchestrator talks to. Every call
// carries the bearer secret and a bounded timeout; non-2xx or transport
// errors surface as upstream failures with no retry implied here.
type Gateway interface {
	ResolveBankCode(ctx context.Context, bankName string) (string, error)
	CreateSubaccount(ctx context.Context, businessName, bankCode, accountNumber string) (*SubaccountResult, error)
	CreateSplit(ctx context.Context, name, subaccountCode string, sharePercent int) (string, error)
	InitializeTransaction(ctx context.Context, amount decimal.Decimal, email, subaccountCode string) (*InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error)
}

type SubaccountResult struct {
	SubaccountCode string
	AccountName    string
}

type InitializeResult struct {
	Reference        string
	AuthorizationURL string
}

type VerifyResult struct {
	Status  string
	Amount  decimal.Decimal
	Channel string
}

type paystackClientImpl struct {
	httpClient      *http.Client
	baseApiURL      string
	secretKey       string
	platformPercent int
}

func NewPaystackClient(cfg *config.Paystack, platformPercent int) Gateway {
	return &paystackClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:      cfg.BaseApiURL,
		secretKey:       cfg.SecretKey,
		platformPercent: platformPercent,
	}
}

// envelope is the gateway's uniform response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *paystackClientImpl) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Upstream("payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return apperrors.Upstream("payment gateway error",
			fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperrors.Upstream("decode gateway response", err)
	}
	if !env.Status {
		return apperrors.Upstream("payment gateway rejected request",
			fmt.Errorf("message=%s", env.Message))
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperrors.Upstream("decode gateway response data", err)
		}
	}
	return nil
}

func (c *paystackClientImpl) ResolveBankCode(ctx context.Context, bankName string) (string, error) {
	var banks []struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodGet, "/bank", nil, &banks); err != nil {
		return "", err
	}

	for _, b := range banks {
		if b.Name == bankName {
			return b.Code, nil
		}
	}
	return "", apperrors.New(apperrors.KindValidation, "unknown bank name")
}

func (c *paystackClientImpl) CreateSubaccount(ctx context.Context, businessName, bankCode, accountNumber string) (*SubaccountResult, error) {
	payload := map[string]any{
		"business_name":     businessName,
		"settlement_bank":   bankCode,
		"account_number":    accountNumber,
		"percentage_charge": c.platformPercent,
	}

	var data struct {
		SubaccountCode string `json:"subaccount_code"`
		AccountName    string `json:"account_name"`
	}
	if err := c.do(ctx, http.MethodPost, "/subaccount", payload, &data); err != nil {
		return nil, err
	}

	return &SubaccountResult{
		SubaccountCode: data.SubaccountCode,
		AccountName:    data.AccountName,
	}, nil
}

func (c *paystackClientImpl) CreateSplit(ctx context.Context, name, subaccountCode string, sharePercent int) (string, error) {
	payload := map[string]any{
		"name":     name,
		"type":     "percentage",
		"currency": "NGN",
		"subaccounts": []map[string]any{
			{
				"subaccount": subaccountCode,
				"share":      sharePercent,
			},
		},
	}

	var data struct {
		SplitCode string `json:"split_code"`
	}
	if err := c.do(ctx, http.MethodPost, "/split", payload, &data); err != nil {
		return "", err
	}
	return data.SplitCode, nil
}

func (c *paystackClientImpl) InitializeTransaction(ctx context.Context, amount decimal.Decimal, email, subaccountCode string) (*InitializeResult, error) {
	payload := map[string]any{
		// gateway amounts are in subunits
		"amount":     amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"email":      email,
		"subaccount": subaccountCode,
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}

	return &InitializeResult{
		Reference:        data.Reference,
		AuthorizationURL: data.AuthorizationURL,
	}, nil
}

func (c *paystackClientImpl) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	var data struct {
		Status  string `json:"status"`
		Amount  int64  `json:"amount"`
		Channel string `json:"channel"`
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}

	return &VerifyResult{
		Status:  data.Status,
		Amount:  decimal.NewFromInt(data.Amount).Div(decimal.NewFromInt(100)).Round(2),
		Channel: data.Channel,
	}, nil
}
