package server

import (
	"fmt"
	"time"

	"github.com/iwvelando/credit-calculator/internal/storage"
	"github.com/iwvelando/credit-calculator/pkg/validation"
)

type envelope struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Errors  validation.FieldErrors `json:"errors,omitempty"`
}

// recordView renders stored money columns as fixed two-decimal strings.
type recordView struct {
	ID             uint      `json:"id"`
	LoanAmount     string    `json:"loan_amount"`
	InterestRate   string    `json:"interest_rate"`
	LoanTermMonths int       `json:"loan_term_months"`
	MonthlyPayment string    `json:"monthly_payment"`
	TotalPayment   string    `json:"total_payment"`
	TotalInterest  string    `json:"total_interest"`
	CustomerName   *string   `json:"customer_name"`
	LoanType       string    `json:"loan_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newRecordView(r *storage.Record) recordView {
	return recordView{
		ID:             r.ID,
		LoanAmount:     r.LoanAmount.StringFixed(2),
		InterestRate:   r.InterestRate.StringFixed(2),
		LoanTermMonths: r.LoanTermMonths,
		MonthlyPayment: r.MonthlyPayment.StringFixed(2),
		TotalPayment:   r.TotalPayment.StringFixed(2),
		TotalInterest:  r.TotalInterest.StringFixed(2),
		CustomerName:   r.CustomerName,
		LoanType:       r.LoanType,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type pageView struct {
	CurrentPage  int          `json:"current_page"`
	Data         []recordView `json:"data"`
	FirstPageURL string       `json:"first_page_url"`
	From         *int         `json:"from"`
	LastPage     int          `json:"last_page"`
	LastPageURL  string       `json:"last_page_url"`
	NextPageURL  *string      `json:"next_page_url"`
	Path         string       `json:"path"`
	PerPage      int          `json:"per_page"`
	PrevPageURL  *string      `json:"prev_page_url"`
	To           *int         `json:"to"`
	Total        int64        `json:"total"`
}

func newPageView(page storage.Page, path string) pageView {
	view := pageView{
		CurrentPage:  page.CurrentPage,
		Data:         make([]recordView, 0, len(page.Records)),
		FirstPageURL: pageURL(path, 1),
		LastPage:     page.LastPage,
		LastPageURL:  pageURL(path, page.LastPage),
		Path:         path,
		PerPage:      page.PerPage,
		Total:        page.Total,
	}
	for i := range page.Records {
		view.Data = append(view.Data, newRecordView(&page.Records[i]))
	}

	if n := len(page.Records); n > 0 {
		from := (page.CurrentPage-1)*page.PerPage + 1
		to := from + n - 1
		view.From = &from
		view.To = &to
	}
	if page.CurrentPage < page.LastPage {
		next := pageURL(path, page.CurrentPage+1)
		view.NextPageURL = &next
	}
	if page.CurrentPage > 1 {
		prev := pageURL(path, page.CurrentPage-1)
		view.PrevPageURL = &prev
	}
	return view
}

func pageURL(path string, page int) string {
	return fmt.Sprintf("%s?page=%d", path, page)
}
