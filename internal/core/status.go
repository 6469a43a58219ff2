package core

// Classify derives the payment status of an invoice from its total and the
// amount paid so far.
//
// The checks run in this order: nothing paid is Pending, paying at least the
// total is Received, anything else is Partially Paid. Because of the order, a
// zero-total invoice with nothing paid is Pending rather than Received.
func Classify(total, paid float64) PaymentStatus {
	if paid <= 0 {
		return Pending
	}
	if paid >= total {
		return Received
	}
	return PartiallyPaid
}
