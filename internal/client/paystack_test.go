package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/config"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPaystackClient(&config.Paystack{BaseApiURL: srv.URL, SecretKey: "sk_test"}, 10)
}

func TestResolveBankCodeMatchesByName(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": []map[string]string{
				{"name": "First Bank", "code": "011"},
				{"name": "GTBank", "code": "058"},
			},
		})
	})

	code, err := gw.ResolveBankCode(context.Background(), "GTBank")
	require.NoError(t, err)
	assert.Equal(t, "058", code)

	_, err = gw.ResolveBankCode(context.Background(), "No Such Bank")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestInitializeSendsSubunits(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		// 1234.50 NGN travels as 123450 kobo
		assert.EqualValues(t, 123450, payload["amount"])
		assert.Equal(t, "SUB_x", payload["subaccount"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]string{
				"reference":         "ref-1",
				"authorization_url": "https://checkout.example/ref-1",
			},
		})
	})

	result, err := gw.InitializeTransaction(context.Background(),
		decimal.RequireFromString("1234.50"), "a@example.com", "SUB_x")
	require.NoError(t, err)
	assert.Equal(t, "ref-1", result.Reference)
	assert.Equal(t, "https://checkout.example/ref-1", result.AuthorizationURL)
}

func TestVerifyConvertsSubunitsBack(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"status":  "success",
				"amount":  123450,
				"channel": "card",
			},
		})
	})

	result, err := gw.VerifyTransaction(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.True(t, decimal.RequireFromString("1234.50").Equal(result.Amount))
	assert.Equal(t, "card", result.Channel)
}

func TestGatewayErrorsAreUpstream(t *testing.T) {
	byStatus := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := byStatus.VerifyTransaction(context.Background(), "ref-1")
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))

	byEnvelope := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "no"})
	})
	_, err = byEnvelope.VerifyTransaction(context.Background(), "ref-1")
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
}

func TestCreateSubaccountCarriesPlatformCharge(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subaccount", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.EqualValues(t, 10, payload["percentage_charge"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]string{
				"subaccount_code": "SUB_new",
				"account_name":    "ADA OBI",
			},
		})
	})

	result, err := gw.CreateSubaccount(context.Background(), "Ada Stores", "058", "0123456789")
	require.NoError(t, err)
	assert.Equal(t, "SUB_new", result.SubaccountCode)
	assert.Equal(t, "ADA OBI", result.AccountName)
}
