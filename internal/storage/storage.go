// Package storage persists snapshots of credit calculations.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no calculation has the requested id.
var ErrNotFound = errors.New("calculation not found")

// Record is one stored calculation. Money columns keep two decimals.
type Record struct {
	ID             uint            `gorm:"primaryKey"`
	LoanAmount     decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	InterestRate   decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	LoanTermMonths int             `gorm:"not null"`
	MonthlyPayment decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	TotalPayment   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	TotalInterest  decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	CustomerName   *string         `gorm:"size:255"`
	LoanType       string          `gorm:"size:255;not null;default:standard"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for Record.
func (Record) TableName() string {
	return "credit_calculations"
}

// Metadata holds the opaque labels stored next to a calculation. Nil fields
// are left untouched on update; ClearCustomerName removes the stored name.
type Metadata struct {
	CustomerName      *string
	LoanType          *string
	ClearCustomerName bool
}

// Page is one page of records, newest first.
type Page struct {
	Records     []Record
	CurrentPage int
	PerPage     int
	Total       int64
	LastPage    int
}

// Repository stores and retrieves calculation snapshots.
type Repository interface {
	Save(ctx context.Context, record *Record) error
	Find(ctx context.Context, id uint) (*Record, error)
	List(ctx context.Context, page, perPage int) (Page, error)
	UpdateMetadata(ctx context.Context, id uint, meta Metadata) (*Record, error)
	Delete(ctx context.Context, id uint) error
	Close() error
}

// NewRecord snapshots a calculation result and its metadata.
func NewRecord(result loans.Result, meta Metadata) Record {
	record := Record{
		LoanAmount:     money(result.Principal),
		InterestRate:   money(result.AnnualRatePercent),
		LoanTermMonths: result.TermMonths,
		MonthlyPayment: money(result.MonthlyPayment),
		TotalPayment:   money(result.TotalPayment),
		TotalInterest:  money(result.TotalInterest),
		CustomerName:   meta.CustomerName,
		LoanType:       constants.DefaultLoanType,
	}
	if meta.LoanType != nil && strings.TrimSpace(*meta.LoanType) != "" {
		record.LoanType = *meta.LoanType
	}
	return record
}

// StoredRequest returns req with its amounts rounded to the precision of
// the money columns. Calculations that will be saved run on these inputs so
// that a recomputation from the row matches the stored summary.
func StoredRequest(req loans.Request) loans.Request {
	req.Principal = money(req.Principal).InexactFloat64()
	req.AnnualRatePercent = money(req.AnnualRatePercent).InexactFloat64()
	return req
}

// Request rebuilds the inputs the record was calculated from.
func (r Record) Request() loans.Request {
	return loans.Request{
		Principal:         r.LoanAmount.InexactFloat64(),
		AnnualRatePercent: r.InterestRate.InexactFloat64(),
		TermMonths:        r.LoanTermMonths,
	}
}

// Apply copies the non-nil metadata fields onto the record and clears the
// customer name when asked to.
func (m Metadata) Apply(record *Record) {
	if m.ClearCustomerName {
		record.CustomerName = nil
	}
	if m.CustomerName != nil {
		name := *m.CustomerName
		record.CustomerName = &name
	}
	if m.LoanType != nil {
		record.LoanType = *m.LoanType
		if strings.TrimSpace(record.LoanType) == "" {
			record.LoanType = constants.DefaultLoanType
		}
	}
}

// Empty reports whether no field would change.
func (m Metadata) Empty() bool {
	return m.CustomerName == nil && m.LoanType == nil && !m.ClearCustomerName
}

func money(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Round(2)
}

// newPage fills in paging totals. page and perPage must already be normalized.
func newPage(records []Record, page, perPage int, total int64) Page {
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	if records == nil {
		records = []Record{}
	}
	return Page{
		Records:     records,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = constants.DefaultPerPage
	}
	return page, perPage
}
