package core

import (
	"math"
	"strconv"
	"strings"
)

var (
	onesWords  = [...]string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	tensWords  = [...]string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
	teensWords = [...]string{"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
)

const (
	// TooLarge is returned by ToWords for amounts beyond the crore grouping.
	TooLarge = "Number too large"

	maxWordDigits = 9
)

// ToWords spells out the integer part of amount using the Indian numbering
// system (crore, lakh, thousand), e.g. 1234567 ->
// "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven Only".
//
// Fractional subunits are dropped. Amounts with more than nine integer digits
// return TooLarge. Negative and non-finite inputs are outside the contract.
func ToWords(amount float64) string {
	n := math.Trunc(amount)
	if n == 0 {
		return "Zero Only"
	}
	digits := strconv.FormatFloat(n, 'f', 0, 64)
	if len(digits) > maxWordDigits {
		return TooLarge
	}

	crore, lakh, thousand, hundreds := splitIndian(digits)

	var b strings.Builder
	for _, g := range []struct{ digits, label string }{
		{crore, "Crore "},
		{lakh, "Lakh "},
		{thousand, "Thousand "},
	} {
		// A zero group carries no label.
		if w := groupWords(g.digits); w != "" {
			b.WriteString(w)
			b.WriteString(g.label)
		}
	}
	b.WriteString(groupWords(hundreds))

	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return "Zero Only"
	}
	return out + " Only"
}

// splitIndian partitions a digit string into crore, lakh, thousand and
// hundreds groups, least significant first: 3, 2, 2, rest.
func splitIndian(digits string) (crore, lakh, thousand, hundreds string) {
	n := len(digits)
	if n > 7 {
		crore = digits[:n-7]
	}
	if n > 5 {
		lakh = digits[max(0, n-7) : n-5]
	}
	if n > 3 {
		thousand = digits[max(0, n-5) : n-3]
	}
	hundreds = digits[max(0, n-3):]
	return crore, lakh, thousand, hundreds
}

// groupWords converts a group of up to three digits. A zero group yields "".
// Every word is followed by a space; the caller normalizes whitespace.
func groupWords(group string) string {
	n, err := strconv.Atoi(group)
	if err != nil || n == 0 {
		return ""
	}
	var b strings.Builder
	if n >= 100 {
		b.WriteString(onesWords[n/100])
		b.WriteString(" Hundred ")
		n %= 100
	}
	switch {
	case n >= 10 && n <= 19:
		b.WriteString(teensWords[n-10])
		b.WriteString(" ")
	default:
		if n >= 20 {
			b.WriteString(tensWords[n/10])
			b.WriteString(" ")
			n %= 10
		}
		if n >= 1 {
			b.WriteString(onesWords[n])
			b.WriteString(" ")
		}
	}
	return b.String()
}
