package core

import (
	"math/big"
	"regexp"
	"strings"
)

// FirstInvoiceNumber is used when there is no previous number to follow.
const FirstInvoiceNumber = "001"

var (
	leadingDigits = regexp.MustCompile(`^\d+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// NextInvoiceNumber increments the leading integer of current and zero-pads
// the result to three digits: "001" -> "002", "099" -> "100", "7 b" -> "008".
// Input without leading digits restarts at FirstInvoiceNumber.
//
// This is a convenience for the next draft; it does not guarantee uniqueness.
func NextInvoiceNumber(current string) string {
	m := leadingDigits.FindString(strings.TrimSpace(current))
	if m == "" {
		return FirstInvoiceNumber
	}
	n, ok := new(big.Int).SetString(m, 10)
	if !ok {
		return FirstInvoiceNumber
	}
	s := n.Add(n, big.NewInt(1)).String()
	if len(s) < 3 {
		s = strings.Repeat("0", 3-len(s)) + s
	}
	return s
}

// SuggestNextNumber returns the number following the most recently saved
// invoice, or FirstInvoiceNumber for an empty history.
func SuggestNextNumber(c Collection) string {
	if len(c) == 0 {
		return FirstInvoiceNumber
	}
	return NextInvoiceNumber(c[len(c)-1].InvoiceNumber)
}

// DocumentName builds the base file name for an exported invoice document,
// e.g. "Invoice-004-Acme_Tools". Missing parts fall back to "NA" and
// "customer".
func DocumentName(number, customer string) string {
	if number == "" {
		number = "NA"
	}
	customer = whitespaceRun.ReplaceAllString(customer, "_")
	if customer == "" {
		customer = "customer"
	}
	return "Invoice-" + number + "-" + customer
}
