package payments

import (
	"sync"

	"bitbucket.org/vecpay/backend/models"
)

// PaymentStore is the persistence contract the processor needs: load by id
// and save. Lookups return nil, nil when the id is unknown.
type PaymentStore interface {
	GetPayment(id string) (*models.Payment, error)
	SavePayment(*models.Payment) error
}

// InvoiceStore mirrors PaymentStore for invoices.
type InvoiceStore interface {
	GetInvoice(id string) (*models.Invoice, error)
	SaveInvoice(*models.Invoice) error
}

type MemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*models.Payment
}

func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{
		payments: make(map[string]*models.Payment),
	}
}

func (s *MemoryPaymentStore) GetPayment(id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	clone.Metadata = cloneMetadata(p.Metadata)
	return &clone, nil
}

func (s *MemoryPaymentStore) SavePayment(p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *p
	clone.Metadata = cloneMetadata(p.Metadata)
	s.payments[p.ID] = &clone
	return nil
}

func (s *MemoryPaymentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.payments)
}

type MemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*models.Invoice
}

func NewMemoryInvoiceStore() *MemoryInvoiceStore {
	return &MemoryInvoiceStore{
		invoices: make(map[string]*models.Invoice),
	}
}

func (s *MemoryInvoiceStore) GetInvoice(id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, nil
	}
	clone := *inv
	clone.LineItems = append([]models.LineItem(nil), inv.LineItems...)
	clone.Metadata = cloneMetadata(inv.Metadata)
	return &clone, nil
}

func (s *MemoryInvoiceStore) SaveInvoice(inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *inv
	clone.LineItems = append([]models.LineItem(nil), inv.LineItems...)
	clone.Metadata = cloneMetadata(inv.Metadata)
	s.invoices[inv.ID] = &clone
	return nil
}

func (s *MemoryInvoiceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.invoices)
}

// cloneMetadata keeps stored entities detached from the caller's map.
func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
