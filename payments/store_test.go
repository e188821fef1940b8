package payments_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/payments"
)

func TestMemoryPaymentStore_MetadataDetached(t *testing.T) {
	store := payments.NewMemoryPaymentStore()

	metadata := map[string]string{"order_id": "42"}
	require.NoError(t, store.SavePayment(&models.Payment{
		ID:       "pay-1",
		Amount:   decimal.NewFromInt(100),
		Metadata: metadata,
	}))

	// mutating the caller's map must not reach the stored entity
	metadata["order_id"] = "tampered"

	stored, err := store.GetPayment("pay-1")
	require.NoError(t, err)
	require.Equal(t, "42", stored.Metadata["order_id"])

	// and mutating a fetched copy must not reach the store either
	stored.Metadata["order_id"] = "tampered"
	again, err := store.GetPayment("pay-1")
	require.NoError(t, err)
	require.Equal(t, "42", again.Metadata["order_id"])
}

func TestMemoryInvoiceStore_MetadataDetached(t *testing.T) {
	store := payments.NewMemoryInvoiceStore()

	metadata := map[string]string{"po_number": "PO-7"}
	require.NoError(t, store.SaveInvoice(&models.Invoice{
		ID:        "inv-1",
		LineItems: []models.LineItem{{Description: "plan", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
		Metadata:  metadata,
	}))

	metadata["po_number"] = "tampered"

	stored, err := store.GetInvoice("inv-1")
	require.NoError(t, err)
	require.Equal(t, "PO-7", stored.Metadata["po_number"])
}
