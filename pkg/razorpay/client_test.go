package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/nivedithavs/trendora-backend/pkg/config"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		Timeout:   time.Second,
	}, logg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestNewClientValidatesCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeySecret: "s"}, logg); err == nil {
		t.Fatal("expected key id error")
	}
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "k"}, logg); err == nil {
		t.Fatal("expected key secret error")
	}
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "k", KeySecret: "s"}, nil); err == nil {
		t.Fatal("expected logger error")
	}
}

func TestVerifyPaymentSignatureAcceptsValid(t *testing.T) {
	client := testClient(t)
	sig := sign("rzp_test_secret", "order_abc", "pay_def")
	if err := client.VerifyPaymentSignature("order_abc", "pay_def", sig); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyPaymentSignatureRejectsAlteredByte(t *testing.T) {
	client := testClient(t)
	sig := []byte(sign("rzp_test_secret", "order_abc", "pay_def"))
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}

	err := client.VerifyPaymentSignature("order_abc", "pay_def", string(sig))
	if err == nil {
		t.Fatal("expected altered signature to be rejected")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeSignature {
		t.Fatalf("expected signature error code, got %v", err)
	}
}

func TestVerifyPaymentSignatureRejectsEmptyInputs(t *testing.T) {
	client := testClient(t)
	if err := client.VerifyPaymentSignature("", "pay_def", "sig"); err == nil {
		t.Fatal("expected empty order id to be rejected")
	}
	if err := client.VerifyPaymentSignature("order_abc", "pay_def", ""); err == nil {
		t.Fatal("expected empty signature to be rejected")
	}
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client := testClient(t)
	if _, err := client.CreateOrder(context.Background(), 0, "INR", "chk-1"); err == nil {
		t.Fatal("expected amount validation error")
	}
}

func TestParseOrderReadsSDKShape(t *testing.T) {
	order := parseOrder(map[string]interface{}{
		"id":       "order_xyz",
		"amount":   float64(20000),
		"currency": "INR",
		"receipt":  "chk-9",
		"status":   "created",
	})
	if order.ID != "order_xyz" || order.AmountCents != 20000 || order.Receipt != "chk-9" {
		t.Fatalf("unexpected parse result: %+v", order)
	}
}
