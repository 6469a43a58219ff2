package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"invoicer/internal/core"
)

// EventType names an invoice lifecycle event.
type EventType string

const (
	EventInvoiceFinalized EventType = "invoice.finalized"
	EventPaymentUpdated   EventType = "invoice.payment_updated"
)

// InvoiceEvent is published whenever the invoice history changes. It carries
// the full record so consumers never need to read the store.
type InvoiceEvent struct {
	Type          EventType `json:"type"`
	InvoiceNumber string    `json:"invoiceNumber"`
	CustomerName  string    `json:"customerName"`
	InvoiceDate   string    `json:"invoiceDate"`
	TotalAmount   float64   `json:"totalAmount"`
	AmountPaid    float64   `json:"amountPaid"`
	PaymentStatus string    `json:"paymentStatus"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewInvoiceEvent snapshots inv for the given event type.
func NewInvoiceEvent(t EventType, inv core.SavedInvoice) *InvoiceEvent {
	return &InvoiceEvent{
		Type:          t,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		InvoiceDate:   inv.InvoiceDate,
		TotalAmount:   inv.TotalAmount,
		AmountPaid:    inv.AmountPaid,
		PaymentStatus: inv.PaymentStatus.String(),
		Timestamp:     time.Now().UTC(),
	}
}

// Invoice rebuilds the record carried by the event.
func (m *InvoiceEvent) Invoice() core.SavedInvoice {
	return core.NewSavedInvoice(m.InvoiceNumber, m.CustomerName, m.InvoiceDate, m.TotalAmount).
		WithPayment(m.AmountPaid)
}

// ToJSON converts the message to JSON bytes
func (m *InvoiceEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InvoiceEventFromJSON decodes an event and rejects unknown types.
func InvoiceEventFromJSON(data []byte) (*InvoiceEvent, error) {
	var msg InvoiceEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventInvoiceFinalized, EventPaymentUpdated:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.InvoiceNumber == "" {
		return nil, fmt.Errorf("event %s without invoice number", msg.Type)
	}
	return &msg, nil
}
