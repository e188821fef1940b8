package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/payments"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestContext() *config.AppContext {
	paymentStore := payments.NewMemoryPaymentStore()
	invoiceStore := payments.NewMemoryInvoiceStore()
	return &config.AppContext{
		Payments: payments.NewPaymentProcessor(paymentStore),
		Invoices: payments.NewInvoiceManager(invoiceStore, paymentStore),
	}
}

func clientRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	userData := map[string]interface{}{
		"ID":       7,
		"IsAdmin":  false,
		"IsClient": true,
		"IsAPI":    false,
		"Roles":    []int{2},
		"Email":    "client@example.com",
	}
	return r.WithContext(context.WithValue(r.Context(), string("user"), userData))
}

func TestChargePayment(t *testing.T) {
	ctx := newTestContext()

	recorder := httptest.NewRecorder()
	r := clientRequest(t, http.MethodPost, "/payment/charge", map[string]interface{}{
		"amount":   49.90,
		"currency": "CLP",
	})
	ChargePayment(ctx, &middlewares.ResponseWriter{Writer: recorder}, r)

	require.Equal(t, http.StatusOK, recorder.Code)

	var payment models.Payment
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payment))
	require.NotEmpty(t, payment.ID)
	require.Equal(t, models.PaymentStatusCaptured, payment.Status)
	require.Equal(t, "clp", payment.Currency)
	require.Equal(t, 7, payment.UserID)
}

func TestChargePaymentInvalidAmount(t *testing.T) {
	ctx := newTestContext()

	recorder := httptest.NewRecorder()
	r := clientRequest(t, http.MethodPost, "/payment/charge", map[string]interface{}{
		"amount": -5,
	})
	ChargePayment(ctx, &middlewares.ResponseWriter{Writer: recorder}, r)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

type decliningGateway struct{}

func (decliningGateway) Authorize(*models.Payment) error {
	return errors.New("card declined")
}

func TestChargePaymentGatewayDecline(t *testing.T) {
	ctx := newTestContext()
	ctx.Payments.Gateway = decliningGateway{}

	recorder := httptest.NewRecorder()
	r := clientRequest(t, http.MethodPost, "/payment/charge", map[string]interface{}{
		"amount": 10,
	})
	ChargePayment(ctx, &middlewares.ResponseWriter{Writer: recorder}, r)

	require.Equal(t, http.StatusPaymentRequired, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	paymentID, _ := body["payment_id"].(string)
	require.NotEmpty(t, paymentID)

	failed, err := ctx.Payments.GetIntent(paymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, failed.Status)
}

func TestRefundPaymentNotFound(t *testing.T) {
	ctx := newTestContext()

	recorder := httptest.NewRecorder()
	r := clientRequest(t, http.MethodPost, "/payment/refund", map[string]interface{}{
		"payment_id": "missing",
	})
	RefundPayment(ctx, &middlewares.ResponseWriter{Writer: recorder}, r)

	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetPayments_WithoutStorage_Unavailable(t *testing.T) {
	// memory-only context, the list endpoints need persistent storage
	ctx := newTestContext()

	recorder := httptest.NewRecorder()
	r := clientRequest(t, http.MethodGet, "/payment", nil)
	GetPayments(ctx, &middlewares.ResponseWriter{Writer: recorder}, r)

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestChargePaymentRequiresRole(t *testing.T) {
	ctx := newTestContext()

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/payment/charge", bytes.NewBufferString(`{"amount":10}`))
	r.Header.Set("Content-Type", "application/json")
	ChargePayment(ctx, &middlewares.ResponseWriter{Writer: recorder}, r)

	require.Equal(t, http.StatusForbidden, recorder.Code)
}
