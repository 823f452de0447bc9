// Package santimpay wraps the SantimPay gateway API. Requests carry an
// ES256-signed token over the business fields, matching the gateway's
// official SDKs.
package santimpay

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/config"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

const ProviderName = "santimpay"

var (
	errBaseURLRequired    = errors.New("santimpay base url is required")
	errMerchantIDRequired = errors.New("santimpay merchant id is required")
	errPrivateKeyRequired = errors.New("santimpay private key is required")
)

// Client talks to the SantimPay gateway over HTTPS.
type Client struct {
	baseURL    string
	merchantID string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
	now        func() time.Time
}

// CheckoutRequest asks the gateway for a hosted payment page.
type CheckoutRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Reason        string
	SuccessURL    string
	FailureURL    string
	CancelURL     string
	NotifyURL     string
	PhoneNumber   string
}

// DirectPaymentRequest charges a wallet without the hosted page.
type DirectPaymentRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Reason        string
	PhoneNumber   string
	PaymentMethod string
	NotifyURL     string
}

// TransferRequest pushes funds out to a beneficiary account.
type TransferRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Reason        string
	AccountNumber string
	PaymentMethod string
	NotifyURL     string
}

// TransactionResult is the gateway's view of one transaction.
type TransactionResult struct {
	TransactionID string `json:"txnId"`
	Status        string `json:"Status"`
	RefID         string `json:"refId"`
	Message       string `json:"message"`
	Raw           map[string]any
}

// NewClient validates the config and parses the signing key.
func NewClient(ctx context.Context, cfg config.SantimPayConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}
	keyPEM := strings.TrimSpace(cfg.PrivateKeyPEM)
	if keyPEM == "" {
		return nil, errPrivateKeyRequired
	}
	privateKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("parsing santimpay private key: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, "santimpay client initialized")
	}

	return &Client{
		baseURL:    baseURL,
		merchantID: merchantID,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}, nil
}

// GeneratePaymentURL initiates a hosted checkout and returns the redirect URL.
func (c *Client) GeneratePaymentURL(ctx context.Context, req CheckoutRequest) (string, error) {
	token, err := c.signToken(map[string]any{
		"amount":        req.Amount.InexactFloat64(),
		"paymentReason": req.Reason,
		"merchantId":    c.merchantID,
		"generated":     c.now().Unix(),
	})
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"id":                 req.TransactionID,
		"amount":             req.Amount.InexactFloat64(),
		"reason":             req.Reason,
		"merchantId":         c.merchantID,
		"signedToken":        token,
		"successRedirectUrl": req.SuccessURL,
		"failureRedirectUrl": req.FailureURL,
		"notifyUrl":          req.NotifyURL,
		"cancelRedirectUrl":  req.CancelURL,
	}
	if req.PhoneNumber != "" {
		payload["phoneNumber"] = req.PhoneNumber
	}

	body, err := c.post(ctx, "initiate-payment", payload)
	if err != nil {
		return "", err
	}
	url, _ := body["url"].(string)
	if url == "" {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "gateway response missing payment url")
	}
	return url, nil
}

// DirectPayment charges the given wallet directly.
func (c *Client) DirectPayment(ctx context.Context, req DirectPaymentRequest) (TransactionResult, error) {
	token, err := c.signToken(map[string]any{
		"amount":        req.Amount.InexactFloat64(),
		"paymentReason": req.Reason,
		"paymentMethod": req.PaymentMethod,
		"phoneNumber":   req.PhoneNumber,
		"merchantId":    c.merchantID,
		"generated":     c.now().Unix(),
	})
	if err != nil {
		return TransactionResult{}, err
	}

	payload := map[string]any{
		"id":            req.TransactionID,
		"amount":        req.Amount.InexactFloat64(),
		"reason":        req.Reason,
		"merchantId":    c.merchantID,
		"signedToken":   token,
		"phoneNumber":   req.PhoneNumber,
		"paymentMethod": req.PaymentMethod,
		"notifyUrl":     req.NotifyURL,
	}

	body, err := c.post(ctx, "direct-payment", payload)
	if err != nil {
		return TransactionResult{}, err
	}
	return resultFromBody(body), nil
}

// SendToCustomer executes a B2C transfer (payouts, refund disbursements).
func (c *Client) SendToCustomer(ctx context.Context, req TransferRequest) (TransactionResult, error) {
	token, err := c.signToken(map[string]any{
		"amount":        req.Amount.InexactFloat64(),
		"paymentReason": req.Reason,
		"paymentMethod": req.PaymentMethod,
		"phoneNumber":   req.AccountNumber,
		"merchantId":    c.merchantID,
		"generated":     c.now().Unix(),
	})
	if err != nil {
		return TransactionResult{}, err
	}

	payload := map[string]any{
		"id":                    req.TransactionID,
		"clientReference":       req.TransactionID,
		"amount":                req.Amount.InexactFloat64(),
		"reason":                req.Reason,
		"merchantId":            c.merchantID,
		"signedToken":           token,
		"receiverAccountNumber": req.AccountNumber,
		"notifyUrl":             req.NotifyURL,
		"paymentMethod":         req.PaymentMethod,
	}

	body, err := c.post(ctx, "payout-transfer", payload)
	if err != nil {
		return TransactionResult{}, err
	}
	return resultFromBody(body), nil
}

// CheckTransactionStatus queries the gateway for a transaction's state.
func (c *Client) CheckTransactionStatus(ctx context.Context, txID string) (TransactionResult, error) {
	token, err := c.signToken(map[string]any{
		"id":         txID,
		"merId":      c.merchantID,
		"merchantId": c.merchantID,
		"generated":  c.now().Unix(),
	})
	if err != nil {
		return TransactionResult{}, err
	}

	payload := map[string]any{
		"id":          txID,
		"merchantId":  c.merchantID,
		"signedToken": token,
	}

	body, err := c.post(ctx, "fetch-transaction-status", payload)
	if err != nil {
		return TransactionResult{}, err
	}
	return resultFromBody(body), nil
}

func (c *Client) signToken(claims map[string]any) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims(claims))
	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing gateway token: %w", err)
	}
	return signed, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway request failed")
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "reading gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeGateway,
			fmt.Sprintf("gateway %s returned %d", endpoint, resp.StatusCode)).
			WithDetails(map[string]any{"body": string(bodyBytes)})
	}

	var body map[string]any
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decoding gateway response")
	}
	return body, nil
}

func resultFromBody(body map[string]any) TransactionResult {
	result := TransactionResult{Raw: body}
	if v, ok := body["txnId"].(string); ok {
		result.TransactionID = v
	}
	if v, ok := body["Status"].(string); ok {
		result.Status = v
	} else if v, ok := body["status"].(string); ok {
		result.Status = v
	}
	if v, ok := body["refId"].(string); ok {
		result.RefID = v
	}
	if v, ok := body["message"].(string); ok {
		result.Message = v
	}
	return result
}
