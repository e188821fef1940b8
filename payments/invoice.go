package payments

import (
	"strings"
	"time"

	"bitbucket.org/vecpay/backend/models"
	"github.com/google/uuid"
)

// InvoiceManager drives the invoice lifecycle:
// draft -> issued -> paid, with void reachable from any non-terminal state.
// An invoice only references its payment; it never owns the payment lifecycle.
//
// PaymentProcessor is intentionally kept structurally identical to this type.
type InvoiceManager struct {
	Store    InvoiceStore
	Payments PaymentStore
}

func NewInvoiceManager(store InvoiceStore, payments PaymentStore) *InvoiceManager {
	return &InvoiceManager{Store: store, Payments: payments}
}

func (m *InvoiceManager) CreateInvoice(userID int, paymentID string, lineItems []models.LineItem, currency string, metadata map[string]string) (*models.Invoice, error) {
	if len(lineItems) == 0 {
		return nil, ErrNoLineItems
	}

	payment, err := m.Payments.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}

	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	if currency == "" {
		currency = payment.Currency
	}

	now := time.Now().UTC()
	invoice := &models.Invoice{
		ID:        uuid.NewString(),
		UserID:    userID,
		PaymentID: paymentID,
		LineItems: lineItems,
		Currency:  strings.ToLower(currency),
		Status:    models.InvoiceStatusDraft,
		Metadata:  metadata,
		Created:   now,
		Updated:   now,
	}

	if err := m.Store.SaveInvoice(invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

func (m *InvoiceManager) Issue(invoiceID string) (*models.Invoice, error) {
	invoice, err := m.Store.GetInvoice(invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}

	if invoice.Status != models.InvoiceStatusDraft {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	invoice.Status = models.InvoiceStatusIssued
	invoice.IssuedAt = &now
	invoice.Updated = now

	if err := m.Store.SaveInvoice(invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// MarkPaid settles an issued invoice. The linked payment must already be
// captured; settling ahead of the charge is rejected.
func (m *InvoiceManager) MarkPaid(invoiceID string) (*models.Invoice, error) {
	invoice, err := m.Store.GetInvoice(invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}

	if invoice.Status != models.InvoiceStatusIssued {
		return nil, ErrInvalidState
	}

	payment, err := m.Payments.GetPayment(invoice.PaymentID)
	if err != nil {
		return nil, err
	}

	if payment == nil || payment.Status != models.PaymentStatusCaptured {
		return nil, ErrPaymentNotCaptured
	}

	now := time.Now().UTC()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now
	invoice.Updated = now

	if err := m.Store.SaveInvoice(invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

func (m *InvoiceManager) Void(invoiceID string) (*models.Invoice, error) {
	invoice, err := m.Store.GetInvoice(invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}

	if invoice.Status.Terminal() {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	invoice.Status = models.InvoiceStatusVoid
	invoice.VoidedAt = &now
	invoice.Updated = now

	if err := m.Store.SaveInvoice(invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

func (m *InvoiceManager) GetInvoice(invoiceID string) (*models.Invoice, error) {
	invoice, err := m.Store.GetInvoice(invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}

	return invoice, nil
}
