package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/nivedithavs/trendora-backend/pkg/config"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// GatewayOrder is the subset of the Razorpay order response the pipeline needs.
type GatewayOrder struct {
	ID          string
	AmountCents int64
	Currency    string
	Receipt     string
	Status      string
}

// Client wraps the Razorpay SDK with centralized logging, timeouts, and error mapping.
type Client struct {
	sdk       *razorpay.Client
	keyID     string
	keySecret string
	timeout   time.Duration
	logger    *logger.Logger
}

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	c := &Client{
		sdk:       razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
		timeout:   cfg.Timeout,
		logger:    logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the configured public key, safe to hand to frontends.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// CreateOrder registers a gateway order for the given amount. The receipt doubles
// as the gateway-side idempotency handle, so callers pass the checkout id.
func (c *Client) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*GatewayOrder, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order amount must be positive")
	}

	data := map[string]interface{}{
		"amount":   amountCents,
		"currency": currency,
		"receipt":  receipt,
	}
	c.log(ctx, "request", "create_order", map[string]any{
		"amount":   amountCents,
		"currency": currency,
		"receipt":  receipt,
	})

	raw, err := c.callOrderCreate(ctx, data)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	order := parseOrder(raw)
	c.log(ctx, "response", "create_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return order, nil
}

// VerifyPaymentSignature recomputes HMAC-SHA256 over "orderID|paymentID" with the
// key secret and compares it to the submitted signature in constant time.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")
	}

	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")
	}
	return nil
}

// callOrderCreate bounds the SDK call with the configured timeout; the SDK
// itself does not accept a context.
func (c *Client) callOrderCreate(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := c.orderAPI().Create(data, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "razorpay create order timed out")
	case res := <-done:
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.err, "razorpay create order failed")
		}
		return res.body, nil
	}
}

func (c *Client) orderAPI() orderCreator {
	return c.sdk.Order
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func parseOrder(raw map[string]interface{}) *GatewayOrder {
	order := &GatewayOrder{
		ID:       stringValue(raw["id"]),
		Currency: stringValue(raw["currency"]),
		Receipt:  stringValue(raw["receipt"]),
		Status:   stringValue(raw["status"]),
	}
	switch v := raw["amount"].(type) {
	case float64:
		order.AmountCents = int64(v)
	case int64:
		order.AmountCents = v
	case int:
		order.AmountCents = int64(v)
	}
	return order
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
