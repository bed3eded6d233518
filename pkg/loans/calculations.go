// Package loans implements the flat-rate credit engine: installment rounding,
// the monthly payment formula and the month-by-month payment schedule.
package loans

import (
	"errors"
	"fmt"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidInput is returned when the engine is handed values outside its
// precondition contract.
var ErrInvalidInput = errors.New("invalid loan input")

// Request holds the inputs of a single calculation.
type Request struct {
	Principal         float64 `json:"loan_amount" yaml:"loanAmount"`
	AnnualRatePercent float64 `json:"interest_rate" yaml:"interestRate"`
	TermMonths        int     `json:"loan_term_months" yaml:"loanTermMonths"`
}

// Payment holds the values for a given month of the schedule.
type Payment struct {
	Month     int     `json:"month" yaml:"month"`
	Payment   float64 `json:"payment" yaml:"payment"`
	Principal float64 `json:"principal" yaml:"principal"`
	Interest  float64 `json:"interest" yaml:"interest"`
	Balance   float64 `json:"balance" yaml:"balance"`
}

// Result is the full outcome of a calculation.
type Result struct {
	Request        `yaml:",inline"`
	MonthlyPayment float64   `json:"monthly_payment" yaml:"monthlyPayment"`
	TotalPayment   float64   `json:"total_payment" yaml:"totalPayment"`
	TotalInterest  float64   `json:"total_interest" yaml:"totalInterest"`
	Schedule       []Payment `json:"payment_schedule" yaml:"paymentSchedule"`
}

// Validate enforces the engine's precondition contract. Errors wrap
// ErrInvalidInput.
func (r Request) Validate() error {
	if !mathutil.IsFinite(r.Principal) || r.Principal <= 0 {
		return fmt.Errorf("%w: principal must be positive, got %v", ErrInvalidInput, r.Principal)
	}
	if !mathutil.IsFinite(r.AnnualRatePercent) ||
		r.AnnualRatePercent < constants.MinInterestRate || r.AnnualRatePercent > constants.MaxInterestRate {
		return fmt.Errorf("%w: interest rate must be between %.0f and %.0f, got %v",
			ErrInvalidInput, constants.MinInterestRate, constants.MaxInterestRate, r.AnnualRatePercent)
	}
	if r.TermMonths < constants.MinTermMonths || r.TermMonths > constants.MaxTermMonths {
		return fmt.Errorf("%w: term must be between %d and %d months, got %d",
			ErrInvalidInput, constants.MinTermMonths, constants.MaxTermMonths, r.TermMonths)
	}
	return nil
}

// RoundInstallment snaps a raw installment to the bucket rule: the fraction is
// truncated, then a remainder of 1-500 within the thousand rounds to the next
// 500 and 501-999 rounds to the next 1000. Exact thousands are unchanged.
func RoundInstallment(amount float64) (int64, error) {
	if !mathutil.IsFinite(amount) || amount < 0 {
		return 0, fmt.Errorf("%w: installment must be a non-negative number, got %v", ErrInvalidInput, amount)
	}
	truncated, ok := mathutil.Truncate(amount)
	if !ok {
		return 0, fmt.Errorf("%w: installment %v is out of range", ErrInvalidInput, amount)
	}

	remainder := truncated % constants.InstallmentBucket
	base := truncated - remainder

	switch {
	case remainder >= 1 && remainder <= constants.InstallmentHalfBucket:
		return base + constants.InstallmentHalfBucket, nil
	case remainder > constants.InstallmentHalfBucket:
		return base + constants.InstallmentBucket, nil
	default:
		return truncated, nil
	}
}

// CalculateMonthlyPayment returns the raw flat-rate installment. The annual
// percentage is applied once per period against the original principal, not
// divided by twelve.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	rate := mathutil.PercentToRate(annualInterestRate)
	if rate > 0 {
		return rate*principal + principal/float64(termMonths)
	}
	return principal / float64(termMonths)
}

// CalculateInterestPayment calculates the interest portion of a scheduled
// payment using the true monthly rate.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * (mathutil.PercentToRate(annualInterestRate) / constants.MonthsPerYear)
}

// Calculator runs calculations. It holds no state besides its logger and is
// safe for concurrent use.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator creates a new calculator instance.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger}
}

// Calculate runs the formula, the rounding rule and the schedule for req.
func Calculate(req Request) (Result, error) {
	return NewCalculator(nil).Calculate(req)
}

// Calculate runs the formula, the rounding rule and the schedule for req.
func (c *Calculator) Calculate(req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	raw := CalculateMonthlyPayment(req.Principal, req.AnnualRatePercent, req.TermMonths)
	rounded, err := RoundInstallment(raw)
	if err != nil {
		return Result{}, err
	}
	monthlyPayment := float64(rounded)

	c.logger.Debug("rounded monthly installment",
		zap.String("op", "loans.Calculate"),
		zap.Float64("raw", raw),
		zap.Int64("rounded", rounded),
	)

	schedule, err := c.GenerateSchedule(req.Principal, req.AnnualRatePercent, req.TermMonths, monthlyPayment)
	if err != nil {
		return Result{}, err
	}

	// Totals come from the installment, not from the rounded schedule rows.
	totalPayment := monthlyPayment * float64(req.TermMonths)
	totalInterest := totalPayment - req.Principal

	return Result{
		Request:        req,
		MonthlyPayment: mathutil.Round(monthlyPayment),
		TotalPayment:   mathutil.Round(totalPayment),
		TotalInterest:  mathutil.Round(totalInterest),
		Schedule:       schedule,
	}, nil
}

// GenerateSchedule creates the month-by-month breakdown for a rounded
// installment.
func (c *Calculator) GenerateSchedule(principal, annualInterestRate float64, termMonths int, monthlyPayment float64) ([]Payment, error) {
	req := Request{Principal: principal, AnnualRatePercent: annualInterestRate, TermMonths: termMonths}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !mathutil.IsFinite(monthlyPayment) || monthlyPayment < 0 {
		return nil, fmt.Errorf("%w: monthly payment must be a non-negative number, got %v", ErrInvalidInput, monthlyPayment)
	}

	schedule := make([]Payment, 0, termMonths)
	remaining := principal
	overshot := false

	for month := 1; month <= termMonths; month++ {
		interest := CalculateInterestPayment(remaining, annualInterestRate)
		principalPart := monthlyPayment - interest
		remaining -= principalPart

		if remaining < 0 && !overshot {
			overshot = true
			c.logger.Debug(fmt.Sprintf("month %d: carried balance %.2f below zero", month, remaining),
				zap.String("op", "loans.GenerateSchedule"),
			)
		}

		// Only the emitted balance is clamped; remaining carries on as is.
		schedule = append(schedule, Payment{
			Month:     month,
			Payment:   mathutil.Round(monthlyPayment),
			Principal: mathutil.Round(principalPart),
			Interest:  mathutil.Round(interest),
			Balance:   mathutil.Round(mathutil.Max(0, remaining)),
		})
	}

	return schedule, nil
}
