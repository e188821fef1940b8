package payments_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/payments"
)

type declineGateway struct{}

func (declineGateway) Authorize(*models.Payment) error {
	return errors.New("card declined")
}

func newProcessor() *payments.PaymentProcessor {
	return payments.NewPaymentProcessor(payments.NewMemoryPaymentStore())
}

func TestCreateIntent_RejectsNonPositiveAmounts(t *testing.T) {
	p := newProcessor()

	for _, amount := range []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(-100),
	} {
		_, err := p.CreateIntent(1, amount, "usd", nil)
		if err != payments.ErrInvalidAmount {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestCreateIntent_StartsCreatedWithLowercaseCurrency(t *testing.T) {
	p := newProcessor()

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "USD", nil)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCreated, intent.Status)
	require.Equal(t, "usd", intent.Currency)
	require.NotEmpty(t, intent.ID)
}

func TestCharge_CapturesCreatedIntent(t *testing.T) {
	p := newProcessor()

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)

	charged, err := p.Charge(intent.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCaptured, charged.Status)
	require.NotNil(t, charged.CapturedAt)
}

func TestCharge_UnknownIntent(t *testing.T) {
	p := newProcessor()

	_, err := p.Charge("no-such-intent")
	if err != payments.ErrPaymentNotFound {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestCharge_Twice_FailsWithInvalidState(t *testing.T) {
	p := newProcessor()

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)

	_, err = p.Charge(intent.ID)
	require.NoError(t, err)

	_, err = p.Charge(intent.ID)
	if err != payments.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCharge_GatewayDecline_MarksIntentFailed(t *testing.T) {
	p := newProcessor()
	p.Gateway = declineGateway{}

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)

	_, err = p.Charge(intent.ID)
	require.Error(t, err)

	failed, err := p.GetIntent(intent.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, failed.Status)

	// failed is terminal, charging again is rejected
	_, err = p.Charge(intent.ID)
	require.Equal(t, payments.ErrInvalidState, err)
}

func TestRefund_FullLifecycle(t *testing.T) {
	p := newProcessor()

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)

	_, err = p.Charge(intent.ID)
	require.NoError(t, err)

	refunded, err := p.Refund(intent.ID, decimal.Zero)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	require.NotEmpty(t, refunded.RefundID)
	require.NotNil(t, refunded.RefundedAt)

	_, err = p.Refund(intent.ID, decimal.Zero)
	require.Equal(t, payments.ErrInvalidState, err)
}

func TestRefund_BeforeCharge_FailsWithInvalidState(t *testing.T) {
	p := newProcessor()

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)

	_, err = p.Refund(intent.ID, decimal.Zero)
	require.Equal(t, payments.ErrInvalidState, err)
}

func TestRefund_PartialAmountWithinCharge(t *testing.T) {
	p := newProcessor()

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)

	_, err = p.Charge(intent.ID)
	require.NoError(t, err)

	refunded, err := p.Refund(intent.ID, decimal.NewFromInt(40))
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRefunded, refunded.Status)
}

func TestRefund_AmountAboveCharge_Rejected(t *testing.T) {
	p := newProcessor()

	intent, err := p.CreateIntent(1, decimal.NewFromInt(100), "usd", nil)
	require.NoError(t, err)

	_, err = p.Charge(intent.ID)
	require.NoError(t, err)

	_, err = p.Refund(intent.ID, decimal.NewFromInt(150))
	require.Equal(t, payments.ErrRefundExceedsCharge, err)

	intact, err := p.GetIntent(intent.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCaptured, intact.Status)
}
