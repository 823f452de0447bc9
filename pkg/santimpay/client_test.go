package santimpay

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sooqly/sooqly-backend/pkg/config"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
)

func testKeyPEM(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	block := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return string(block), key
}

func newTestClient(t *testing.T, baseURL string) (*Client, *ecdsa.PrivateKey) {
	t.Helper()
	keyPEM, key := testKeyPEM(t)
	client, err := NewClient(context.Background(), config.SantimPayConfig{
		BaseURL:        baseURL,
		MerchantID:     "merchant-1",
		PrivateKeyPEM:  keyPEM,
		RequestTimeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client, key
}

func TestNewClientValidatesConfig(t *testing.T) {
	keyPEM, _ := testKeyPEM(t)

	_, err := NewClient(context.Background(), config.SantimPayConfig{
		MerchantID:    "m",
		PrivateKeyPEM: keyPEM,
	}, nil)
	assert.Error(t, err)

	_, err = NewClient(context.Background(), config.SantimPayConfig{
		BaseURL:       "https://example.com",
		PrivateKeyPEM: keyPEM,
	}, nil)
	assert.Error(t, err)

	_, err = NewClient(context.Background(), config.SantimPayConfig{
		BaseURL:    "https://example.com",
		MerchantID: "m",
	}, nil)
	assert.Error(t, err)
}

func TestGeneratePaymentURLSignsToken(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/initiate-payment", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"url": "https://pay.example.com/cko"})
	}))
	defer server.Close()

	client, key := newTestClient(t, server.URL)

	url, err := client.GeneratePaymentURL(context.Background(), CheckoutRequest{
		TransactionID: "pay-1",
		Amount:        decimal.NewFromFloat(150.50),
		Reason:        "order ORD-abc",
		SuccessURL:    "https://app/success",
		FailureURL:    "https://app/failure",
		NotifyURL:     "https://app/webhook",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cko", url)

	assert.Equal(t, "pay-1", captured["id"])
	assert.Equal(t, "merchant-1", captured["merchantId"])

	signed, _ := captured["signedToken"].(string)
	require.NotEmpty(t, signed)
	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "order ORD-abc", claims["paymentReason"])
	assert.InDelta(t, 150.50, claims["amount"], 0.001)
}

func TestGeneratePaymentURLMissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	_, err := client.GeneratePaymentURL(context.Background(), CheckoutRequest{
		TransactionID: "pay-1",
		Amount:        decimal.NewFromInt(10),
		Reason:        "r",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeGateway, typed.Code())
}

func TestPostMapsNon2xxToGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	_, err := client.CheckTransactionStatus(context.Background(), "tx-9")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeGateway, typed.Code())
}

func TestCheckTransactionStatusParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fetch-transaction-status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"txnId":  "tx-9",
			"Status": "COMPLETED",
			"refId":  "ref-1",
		})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	result, err := client.CheckTransactionStatus(context.Background(), "tx-9")
	require.NoError(t, err)
	assert.Equal(t, "tx-9", result.TransactionID)
	assert.Equal(t, "COMPLETED", result.Status)
	assert.Equal(t, "ref-1", result.RefID)
}

func TestSendToCustomerPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payout-transfer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"txnId": "po-1", "Status": "PROCESSING"})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	result, err := client.SendToCustomer(context.Background(), TransferRequest{
		TransactionID: "po-1",
		Amount:        decimal.NewFromInt(90),
		Reason:        "payout",
		AccountNumber: "0911000000",
		PaymentMethod: "TELEBIRR",
	})
	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", result.Status)
	assert.Equal(t, "0911000000", captured["receiverAccountNumber"])
	assert.Equal(t, "po-1", captured["clientReference"])
}
