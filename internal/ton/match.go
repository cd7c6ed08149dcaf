package ton

import "strconv"

// Expected describes the transfer a purchase waits for.
type Expected struct {
	AmountNano int64
	Comment    string
	Sender     string // empty: any sender
}

// FindPayment returns the first transaction that pays exactly what was
// expected: amount, comment, sender when known, and an ordinary transaction.
func FindPayment(txs []Transaction, want Expected) *Transaction {
	amount := strconv.FormatInt(want.AmountNano, 10)
	for i := range txs {
		t := &txs[i]
		in := t.InMsg
		if in == nil {
			continue
		}
		if in.Value != amount {
			continue
		}
		if in.Comment() != want.Comment {
			continue
		}
		if want.Sender != "" && !SameAddress(in.Source, want.Sender) {
			continue
		}
		if t.Description != nil && t.Description.Type != "" && t.Description.Type != "ord" {
			continue
		}
		return t
	}
	return nil
}

// SameAddress compares two addresses in any supported form.
func SameAddress(a, b string) bool {
	if a == b {
		return true
	}
	ra, errA := NormalizeAddress(a)
	rb, errB := NormalizeAddress(b)
	return errA == nil && errB == nil && ra == rb
}
