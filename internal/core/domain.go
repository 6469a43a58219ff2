package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for invoice dates.
const DateLayout = "2006-01-02"

const (
	Pending       PaymentStatus = "Pending"
	PartiallyPaid PaymentStatus = "Partially Paid"
	Received      PaymentStatus = "Received"
)

type (
	PaymentStatus string

	// LineItem is one billable row of an invoice being edited.
	LineItem struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Quantity    float64 `json:"quantity"`
		Rate        float64 `json:"rate"`
	}

	// SavedInvoice is the persisted record of a finalized invoice.
	SavedInvoice struct {
		InvoiceNumber string        `json:"invoiceNumber"`
		CustomerName  string        `json:"customerName"`
		InvoiceDate   string        `json:"invoiceDate"`
		TotalAmount   float64       `json:"totalAmount"`
		AmountPaid    float64       `json:"amountPaid"`
		PaymentStatus PaymentStatus `json:"paymentStatus"`
	}

	// Collection is the invoice history in creation order.
	Collection []SavedInvoice
)

var (
	ErrInvalidDate   = errors.New("invalid invoice date")
	ErrInvalidStatus = errors.New("invalid payment status")
)

// IsValid reports whether s is one of the known statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case Pending, PartiallyPaid, Received:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (s PaymentStatus) String() string {
	return string(s)
}

// NewSavedInvoice creates the record written when an invoice is finalized.
// Nothing has been paid yet, so the status is derived from a zero payment.
func NewSavedInvoice(number, customer, date string, total float64) SavedInvoice {
	return SavedInvoice{
		InvoiceNumber: number,
		CustomerName:  customer,
		InvoiceDate:   date,
		TotalAmount:   total,
		AmountPaid:    0,
		PaymentStatus: Classify(total, 0),
	}
}

// WithPayment returns a copy of the invoice with the paid amount replaced
// and the status recomputed.
func (s SavedInvoice) WithPayment(paid float64) SavedInvoice {
	if paid < 0 {
		paid = 0
	}
	s.AmountPaid = paid
	s.PaymentStatus = Classify(s.TotalAmount, paid)
	return s
}

// Remaining returns the amount still owed. Overpayment yields a negative value.
func (s SavedInvoice) Remaining() float64 {
	return s.TotalAmount - s.AmountPaid
}

// Date parses the invoice date.
func (s SavedInvoice) Date() (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s.InvoiceDate))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Period returns the calendar year and month of the invoice date.
// ok is false when the date cannot be parsed.
func (s SavedInvoice) Period() (year int, month time.Month, ok bool) {
	t, err := s.Date()
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// Validate checks the stored shape of a record, including the status invariant.
func (s SavedInvoice) Validate() error {
	if _, err := s.Date(); err != nil {
		return err
	}
	if !s.PaymentStatus.IsValid() {
		return ErrInvalidStatus
	}
	if s.PaymentStatus != Classify(s.TotalAmount, s.AmountPaid) {
		return ErrInvalidStatus
	}
	return nil
}

// Reconcile recomputes every status that disagrees with its amounts, e.g.
// after a hand edit of the stored history, and returns how many changed.
func (c Collection) Reconcile() int {
	n := 0
	for i, inv := range c {
		if inv.PaymentStatus != Classify(inv.TotalAmount, inv.AmountPaid) {
			c[i].PaymentStatus = Classify(inv.TotalAmount, inv.AmountPaid)
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Equal reports whether both collections hold the same records in the same order.
func (c Collection) Equal(other Collection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Today formats t as an invoice date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
