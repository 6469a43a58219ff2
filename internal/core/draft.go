package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound  = errors.New("line item not found")
	ErrEmptyCustomer = errors.New("empty customer name")
	ErrZeroTotal     = errors.New("invoice total is zero")
)

// Draft is an invoice being edited, before it is finalized and saved.
type Draft struct {
	InvoiceNumber   string     `json:"invoiceNumber"`
	CustomerName    string     `json:"customerName"`
	CustomerAddress string     `json:"customerAddress"`
	InvoiceDate     string     `json:"invoiceDate"`
	Items           []LineItem `json:"items"`
}

// NewLineItem returns an empty row with a fresh identifier.
func NewLineItem() LineItem {
	return LineItem{ID: uuid.NewString()}
}

// NewDraft starts an invoice dated today with a single empty row.
func NewDraft(number string, today time.Time) *Draft {
	return &Draft{
		InvoiceNumber: number,
		InvoiceDate:   Today(today),
		Items:         []LineItem{NewLineItem()},
	}
}

// AddItem appends an empty row and returns it.
func (d *Draft) AddItem() LineItem {
	it := NewLineItem()
	d.Items = append(d.Items, it)
	return it
}

// RemoveItem drops the row with the given id. It reports whether a row was removed.
func (d *Draft) RemoveItem(id string) bool {
	for i, it := range d.Items {
		if it.ID == id {
			d.Items = append(d.Items[:i:i], d.Items[i+1:]...)
			return true
		}
	}
	return false
}

// SetDescription replaces the description of a row.
func (d *Draft) SetDescription(id, description string) error {
	return d.update(id, func(it *LineItem) { it.Description = description })
}

// SetQuantity parses raw permissively and stores it as the row quantity.
func (d *Draft) SetQuantity(id, raw string) error {
	return d.update(id, func(it *LineItem) { it.Quantity = ParseAmount(raw) })
}

// SetRate parses raw permissively and stores it as the row rate.
func (d *Draft) SetRate(id, raw string) error {
	return d.update(id, func(it *LineItem) { it.Rate = ParseAmount(raw) })
}

func (d *Draft) update(id string, fn func(*LineItem)) error {
	for i := range d.Items {
		if d.Items[i].ID == id {
			fn(&d.Items[i])
			return nil
		}
	}
	return ErrItemNotFound
}

// Normalize assigns identifiers to rows that lack one and clamps negative or
// non-finite quantities and rates to 0. Drafts decoded from files go through
// here before use.
func (d *Draft) Normalize() {
	for i := range d.Items {
		if d.Items[i].ID == "" {
			d.Items[i].ID = uuid.NewString()
		}
		d.Items[i].Quantity = NonNegative(d.Items[i].Quantity)
		d.Items[i].Rate = NonNegative(d.Items[i].Rate)
	}
}

// Total is the sum over all rows.
func (d *Draft) Total() float64 {
	return Total(d.Items)
}

// AmountInWords spells out the draft total.
func (d *Draft) AmountInWords() string {
	return ToWords(d.Total())
}

// Record builds the saved record for this draft.
func (d *Draft) Record() SavedInvoice {
	return NewSavedInvoice(d.InvoiceNumber, d.CustomerName, d.InvoiceDate, d.Total())
}

// Saveable reports why a finalized draft would not be recorded in the
// history: a record needs a customer name and a positive total.
func (d *Draft) Saveable() error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return ErrEmptyCustomer
	}
	if d.Total() <= 0 {
		return ErrZeroTotal
	}
	return nil
}

// Reset clears the draft for the next invoice.
func (d *Draft) Reset(nextNumber string, today time.Time) {
	*d = *NewDraft(nextNumber, today)
}
