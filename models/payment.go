package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusRefunded || s == PaymentStatusFailed
}

func (s PaymentStatus) Chargeable() bool {
	return s == PaymentStatusCreated || s == PaymentStatusPending
}

type Payment struct {
	ID         string            `json:"id"`
	UserID     int               `json:"user_id,omitempty"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Status     PaymentStatus     `json:"status"`
	RefundID   string            `json:"refund_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Created    time.Time         `json:"created"`
	Updated    time.Time         `json:"updated"`
	CapturedAt *time.Time        `json:"captured_at,omitempty"`
	RefundedAt *time.Time        `json:"refunded_at,omitempty"`
}

type ChargePaymentOpts struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

var ChargePaymentRules = govalidator.MapData{
	"amount":   []string{"required", "float"},
	"currency": []string{"alpha"},
}

type RefundPaymentOpts struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
}

var RefundPaymentRules = govalidator.MapData{
	"payment_id": []string{"required"},
	"amount":     []string{"float"},
}

type GetPaymentsOpts struct {
	UserIDs   []int    `schema:"user_ids"`
	Statuses  []string `schema:"statuses"`
	LimitFrom int      `schema:"limit_from"`
	LimitTo   int      `schema:"limit_to"`
}

var GetPaymentsRules = govalidator.MapData{
	"user_ids":   []string{"array_int"},
	"statuses":   []string{"array_string"},
	"limit_from": []string{"numeric"},
	"limit_to":   []string{"numeric"},
}
