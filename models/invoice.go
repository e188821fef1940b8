package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "draft"
	InvoiceStatusIssued InvoiceStatus = "issued"
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusVoid   InvoiceStatus = "void"
)

// Terminal reports whether no further transition may leave the status.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Invoice struct {
	ID        string            `json:"id"`
	UserID    int               `json:"user_id,omitempty"`
	PaymentID string            `json:"payment_id,omitempty"`
	LineItems []LineItem        `json:"line_items"`
	Currency  string            `json:"currency"`
	Status    InvoiceStatus     `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Created   time.Time         `json:"created"`
	Updated   time.Time         `json:"updated"`
	IssuedAt  *time.Time        `json:"issued_at,omitempty"`
	PaidAt    *time.Time        `json:"paid_at,omitempty"`
	VoidedAt  *time.Time        `json:"voided_at,omitempty"`
}

// Total is always derived from the line items, never stored on its own.
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.LineItems {
		total = total.Add(item.Total())
	}
	return total
}

type InsertInvoiceOpts struct {
	PaymentID string            `json:"payment_id"`
	Currency  string            `json:"currency"`
	LineItems []LineItemOpts    `json:"line_items"`
	Metadata  map[string]string `json:"metadata"`
}

type LineItemOpts struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

var InsertInvoiceRules = govalidator.MapData{
	"payment_id": []string{"required"},
	"currency":   []string{"alpha"},
}

type GetInvoicesOpts struct {
	UserIDs   []int    `schema:"user_ids"`
	Statuses  []string `schema:"statuses"`
	LimitFrom int      `schema:"limit_from"`
	LimitTo   int      `schema:"limit_to"`
}

var GetInvoicesRules = govalidator.MapData{
	"user_ids":   []string{"array_int"},
	"statuses":   []string{"array_string"},
	"limit_from": []string{"numeric"},
	"limit_to":   []string{"numeric"},
}
