package payments

import "github.com/pkg/errors"

// The whole taxonomy is value-based so handlers can map each failure to a
// structured response. Nothing here is fatal to the process.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrPaymentNotFound     = errors.New("payment intent not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrPaymentNotCaptured  = errors.New("linked payment is not captured")
	ErrNoLineItems         = errors.New("invoice must have at least one line item")
	ErrRefundExceedsCharge = errors.New("refund amount exceeds original charge")
)
