package testutil

import (
	"testing"

	"github.com/iwvelando/credit-calculator/pkg/loans"
)

func TestFindPayment(t *testing.T) {
	schedule := []loans.Payment{
		{Month: 1, Payment: 1000, Principal: 900, Interest: 100, Balance: 2100},
		{Month: 2, Payment: 1000, Principal: 950, Interest: 50, Balance: 1150},
		{Month: 3, Payment: 1000, Principal: 990, Interest: 10, Balance: 160},
	}

	tests := []struct {
		name            string
		month           int
		expectFound     bool
		expectedBalance float64
	}{
		{
			name:            "First month",
			month:           1,
			expectFound:     true,
			expectedBalance: 2100,
		},
		{
			name:            "Last month",
			month:           3,
			expectFound:     true,
			expectedBalance: 160,
		},
		{
			name:        "Month past the term",
			month:       4,
			expectFound: false,
		},
		{
			name:        "Month zero",
			month:       0,
			expectFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindPayment(schedule, tt.month)

			if tt.expectFound {
				if result == nil {
					t.Fatalf("FindPayment() expected to find month %d but got nil", tt.month)
				}
				if result.Month != tt.month || result.Balance != tt.expectedBalance {
					t.Errorf("FindPayment() returned %+v", *result)
				}
			} else if result != nil {
				t.Errorf("FindPayment() expected nil for month %d but got %+v", tt.month, *result)
			}
		})
	}
}

func TestFindPaymentReturnsPointer(t *testing.T) {
	schedule := []loans.Payment{{Month: 1, Balance: 10}}

	found := FindPayment(schedule, 1)
	if found == nil {
		t.Fatalf("FindPayment() returned nil")
	}
	if &schedule[0] != found {
		t.Errorf("FindPayment() should return pointer to original element")
	}
}

func TestFindPaymentNilSchedule(t *testing.T) {
	if result := FindPayment(nil, 1); result != nil {
		t.Errorf("FindPayment() with nil schedule should return nil, got %v", result)
	}
}

func TestFirstOvershoot(t *testing.T) {
	result, err := loans.Calculate(loans.Request{Principal: 100000000, AnnualRatePercent: 12.5, TermMonths: 12})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if month := FirstOvershoot(result.Schedule, result.Principal); month != 5 {
		t.Errorf("FirstOvershoot() = %d, expected 5", month)
	}

	exact, err := loans.Calculate(loans.Request{Principal: 12000, AnnualRatePercent: 0, TermMonths: 12})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if month := FirstOvershoot(exact.Schedule, exact.Principal); month != 0 {
		t.Errorf("FirstOvershoot() = %d, expected 0", month)
	}
}
