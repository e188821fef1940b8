package payments

import (
	"strings"
	"time"

	"bitbucket.org/vecpay/backend/models"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/shopspring/decimal"
)

// Gateway authorizes a captured charge against an external acquirer. A nil
// gateway skips authorization and captures directly.
type Gateway interface {
	Authorize(*models.Payment) error
}

// PaymentProcessor drives the payment intent lifecycle:
// created -> pending -> captured -> refunded, with failed as the error rail.
// Transitions are monotonic; a captured intent never goes back to pending.
//
// InvoiceManager is intentionally kept structurally identical to this type.
type PaymentProcessor struct {
	Store   PaymentStore
	Gateway Gateway
}

func NewPaymentProcessor(store PaymentStore) *PaymentProcessor {
	return &PaymentProcessor{Store: store}
}

func (p *PaymentProcessor) CreateIntent(userID int, amount decimal.Decimal, currency string, metadata map[string]string) (*models.Payment, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	if currency == "" {
		currency = "usd"
	}

	now := time.Now().UTC()
	intent := &models.Payment{
		ID:       uuid.NewString(),
		UserID:   userID,
		Amount:   amount,
		Currency: strings.ToLower(currency),
		Status:   models.PaymentStatusCreated,
		Metadata: metadata,
		Created:  now,
		Updated:  now,
	}

	if err := p.Store.SavePayment(intent); err != nil {
		return nil, err
	}

	return intent, nil
}

func (p *PaymentProcessor) Charge(paymentID string) (*models.Payment, error) {
	intent, err := p.Store.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}

	if intent == nil {
		return nil, ErrPaymentNotFound
	}

	if !intent.Status.Chargeable() {
		return nil, ErrInvalidState
	}

	if p.Gateway != nil {
		if gwErr := p.Gateway.Authorize(intent); gwErr != nil {
			intent.Status = models.PaymentStatusFailed
			intent.Updated = time.Now().UTC()
			if err := p.Store.SavePayment(intent); err != nil {
				return nil, err
			}
			return nil, gwErr
		}
	}

	now := time.Now().UTC()
	intent.Status = models.PaymentStatusCaptured
	intent.CapturedAt = &now
	intent.Updated = now

	if err := p.Store.SavePayment(intent); err != nil {
		return nil, err
	}

	return intent, nil
}

// Refund moves a captured intent to refunded. A zero amount refunds the full
// charge; partial refunds must not exceed it.
func (p *PaymentProcessor) Refund(paymentID string, amount decimal.Decimal) (*models.Payment, error) {
	intent, err := p.Store.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}

	if intent == nil {
		return nil, ErrPaymentNotFound
	}

	if intent.Status != models.PaymentStatusCaptured {
		return nil, ErrInvalidState
	}

	if amount.Sign() > 0 && amount.GreaterThan(intent.Amount) {
		return nil, ErrRefundExceedsCharge
	}

	now := time.Now().UTC()
	intent.Status = models.PaymentStatusRefunded
	intent.RefundID = shortuuid.New()
	intent.RefundedAt = &now
	intent.Updated = now

	if err := p.Store.SavePayment(intent); err != nil {
		return nil, err
	}

	return intent, nil
}

func (p *PaymentProcessor) GetIntent(paymentID string) (*models.Payment, error) {
	intent, err := p.Store.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}

	if intent == nil {
		return nil, ErrPaymentNotFound
	}

	return intent, nil
}
