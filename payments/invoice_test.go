package payments_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/payments"
)

type fixture struct {
	processor *payments.PaymentProcessor
	manager   *payments.InvoiceManager
}

func newFixture() *fixture {
	paymentStore := payments.NewMemoryPaymentStore()
	return &fixture{
		processor: payments.NewPaymentProcessor(paymentStore),
		manager:   payments.NewInvoiceManager(payments.NewMemoryInvoiceStore(), paymentStore),
	}
}

func lineItems() []models.LineItem {
	return []models.LineItem{
		{Description: "standard plan", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
		{Description: "setup fee", Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
	}
}

func (f *fixture) intent(t *testing.T) *models.Payment {
	t.Helper()
	intent, err := f.processor.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)
	return intent
}

func TestCreateInvoice_StartsDraft(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	invoice, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "USD", nil)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	require.Equal(t, "usd", invoice.Currency)
	require.Equal(t, intent.ID, invoice.PaymentID)
}

func TestCreateInvoice_UnknownPayment(t *testing.T) {
	f := newFixture()

	_, err := f.manager.CreateInvoice(1, "no-such-payment", lineItems(), "usd", nil)
	require.Equal(t, payments.ErrPaymentNotFound, err)
}

func TestCreateInvoice_EmptyLineItems(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	_, err := f.manager.CreateInvoice(1, intent.ID, nil, "usd", nil)
	require.Equal(t, payments.ErrNoLineItems, err)
}

func TestInvoiceTotal_EqualsSumOfLineItems(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	invoice, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)

	// 2 x 30 + 1 x 40
	require.True(t, invoice.Total().Equal(decimal.NewFromInt(100)),
		"expected total 100, got %s", invoice.Total())
}

func TestIssue_OnlyFromDraft(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	invoice, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)

	issued, err := f.manager.Issue(invoice.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusIssued, issued.Status)
	require.NotNil(t, issued.IssuedAt)

	_, err = f.manager.Issue(invoice.ID)
	require.Equal(t, payments.ErrInvalidState, err)
}

func TestMarkPaid_BeforeCharge_FailsWithPaymentNotCaptured(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	invoice, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)

	_, err = f.manager.Issue(invoice.ID)
	require.NoError(t, err)

	_, err = f.manager.MarkPaid(invoice.ID)
	require.Equal(t, payments.ErrPaymentNotCaptured, err)
}

func TestMarkPaid_AfterCharge(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	invoice, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)

	_, err = f.manager.Issue(invoice.ID)
	require.NoError(t, err)

	_, err = f.processor.Charge(intent.ID)
	require.NoError(t, err)

	paid, err := f.manager.MarkPaid(invoice.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
}

func TestMarkPaid_FromDraft_FailsWithInvalidState(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	invoice, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)

	_, err = f.manager.MarkPaid(invoice.ID)
	require.Equal(t, payments.ErrInvalidState, err)
}

func TestVoid_FromDraftAndIssued(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	draft, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)

	voided, err := f.manager.Void(draft.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusVoid, voided.Status)

	issued, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)
	_, err = f.manager.Issue(issued.ID)
	require.NoError(t, err)

	voided, err = f.manager.Void(issued.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusVoid, voided.Status)
}

func TestVoid_TerminalStates_Rejected(t *testing.T) {
	f := newFixture()
	intent := f.intent(t)

	invoice, err := f.manager.CreateInvoice(1, intent.ID, lineItems(), "usd", nil)
	require.NoError(t, err)

	_, err = f.manager.Void(invoice.ID)
	require.NoError(t, err)

	_, err = f.manager.Void(invoice.ID)
	require.Equal(t, payments.ErrInvalidState, err)

	_, err = f.manager.MarkPaid(invoice.ID)
	require.Equal(t, payments.ErrInvalidState, err)
}

func TestGetInvoice_Unknown(t *testing.T) {
	f := newFixture()

	_, err := f.manager.GetInvoice("no-such-invoice")
	require.Equal(t, payments.ErrInvoiceNotFound, err)
}
