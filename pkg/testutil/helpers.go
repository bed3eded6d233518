// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/credit-calculator/pkg/loans"
)

// FindPayment finds the schedule entry for a given month.
// Returns a pointer to the entry if found, nil otherwise.
func FindPayment(schedule []loans.Payment, month int) *loans.Payment {
	for i := range schedule {
		if schedule[i].Month == month {
			return &schedule[i]
		}
	}
	return nil
}

// FirstOvershoot returns the first month whose principal portion exceeds
// the balance still owed before it, or 0 when the installment never
// overpays the loan.
func FirstOvershoot(schedule []loans.Payment, principal float64) int {
	owed := principal
	for _, payment := range schedule {
		if payment.Principal > owed {
			return payment.Month
		}
		owed -= payment.Principal
	}
	return 0
}
