package storage

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/shopspring/decimal"
)

func str(v string) *string { return &v }

func referenceResult(t *testing.T) loans.Result {
	t.Helper()
	result, err := loans.Calculate(loans.Request{Principal: 100000000, AnnualRatePercent: 12.5, TermMonths: 12})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	return result
}

func TestNewRecord(t *testing.T) {
	record := NewRecord(referenceResult(t), Metadata{CustomerName: str("Budi")})

	checks := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"loan amount", record.LoanAmount, "100000000.00"},
		{"interest rate", record.InterestRate, "12.50"},
		{"monthly payment", record.MonthlyPayment, "20833500.00"},
		{"total payment", record.TotalPayment, "250002000.00"},
		{"total interest", record.TotalInterest, "150002000.00"},
	}
	for _, c := range checks {
		if got := c.got.StringFixed(2); got != c.expected {
			t.Errorf("%s = %s, expected %s", c.name, got, c.expected)
		}
	}

	if record.LoanTermMonths != 12 {
		t.Errorf("LoanTermMonths = %d, expected 12", record.LoanTermMonths)
	}
	if record.CustomerName == nil || *record.CustomerName != "Budi" {
		t.Errorf("CustomerName = %v", record.CustomerName)
	}
	if record.LoanType != constants.DefaultLoanType {
		t.Errorf("LoanType = %q, expected %q", record.LoanType, constants.DefaultLoanType)
	}
}

func TestNewRecordLoanType(t *testing.T) {
	tests := []struct {
		name     string
		loanType *string
		expected string
	}{
		{"Absent", nil, "standard"},
		{"Blank", str("  "), "standard"},
		{"Given", str("mortgage"), "mortgage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NewRecord(referenceResult(t), Metadata{LoanType: tt.loanType})
			if record.LoanType != tt.expected {
				t.Errorf("LoanType = %q, expected %q", record.LoanType, tt.expected)
			}
		})
	}
}

func TestRecordRequest(t *testing.T) {
	record := NewRecord(referenceResult(t), Metadata{})
	request := record.Request()
	expected := loans.Request{Principal: 100000000, AnnualRatePercent: 12.5, TermMonths: 12}
	if request != expected {
		t.Errorf("Request() = %+v, expected %+v", request, expected)
	}
}

func TestStoredRequest(t *testing.T) {
	tests := []struct {
		name     string
		input    loans.Request
		expected loans.Request
	}{
		{"Already stored precision", loans.Request{Principal: 5000000, AnnualRatePercent: 6, TermMonths: 10}, loans.Request{Principal: 5000000, AnnualRatePercent: 6, TermMonths: 10}},
		{"Rate rounded half up", loans.Request{Principal: 100000000, AnnualRatePercent: 12.345, TermMonths: 12}, loans.Request{Principal: 100000000, AnnualRatePercent: 12.35, TermMonths: 12}},
		{"Amount cents rounded", loans.Request{Principal: 1000.456, AnnualRatePercent: 0, TermMonths: 3}, loans.Request{Principal: 1000.46, AnnualRatePercent: 0, TermMonths: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StoredRequest(tt.input)
			if got != tt.expected {
				t.Errorf("StoredRequest() = %+v, expected %+v", got, tt.expected)
			}
			result, err := loans.Calculate(got)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if back := NewRecord(result, Metadata{}).Request(); back != got {
				t.Errorf("stored row rebuilds %+v, expected %+v", back, got)
			}
		})
	}
}

func TestMetadataApply(t *testing.T) {
	tests := []struct {
		name         string
		meta         Metadata
		customerName *string
		loanType     string
		empty        bool
	}{
		{"Nothing set", Metadata{}, str("Budi"), "standard", true},
		{"New name", Metadata{CustomerName: str("Ani")}, str("Ani"), "standard", false},
		{"Clear name", Metadata{ClearCustomerName: true}, nil, "standard", false},
		{"Blank loan type", Metadata{LoanType: str(" ")}, str("Budi"), "standard", false},
		{"Loan type only", Metadata{LoanType: str("mortgage")}, str("Budi"), "mortgage", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Record{CustomerName: str("Budi"), LoanType: "standard"}
			if tt.meta.Empty() != tt.empty {
				t.Errorf("Empty() = %v, expected %v", tt.meta.Empty(), tt.empty)
			}
			tt.meta.Apply(&record)
			switch {
			case tt.customerName == nil && record.CustomerName != nil:
				t.Errorf("CustomerName = %q, expected nil", *record.CustomerName)
			case tt.customerName != nil && (record.CustomerName == nil || *record.CustomerName != *tt.customerName):
				t.Errorf("CustomerName = %v, expected %q", record.CustomerName, *tt.customerName)
			}
			if record.LoanType != tt.loanType {
				t.Errorf("LoanType = %q, expected %q", record.LoanType, tt.loanType)
			}
		})
	}
}

func TestMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	record := NewRecord(referenceResult(t), Metadata{CustomerName: str("Budi")})
	if err := repo.Save(ctx, &record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.ID != 1 {
		t.Fatalf("ID = %d, expected 1", record.ID)
	}
	if record.CreatedAt.IsZero() || !record.CreatedAt.Equal(record.UpdatedAt) {
		t.Errorf("unexpected timestamps %v / %v", record.CreatedAt, record.UpdatedAt)
	}

	found, err := repo.Find(ctx, record.ID)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !found.MonthlyPayment.Equal(record.MonthlyPayment) || *found.CustomerName != "Budi" {
		t.Errorf("Find() = %+v", found)
	}

	// Mutating the returned copy must not leak into the store.
	*found.CustomerName = "Changed"
	again, _ := repo.Find(ctx, record.ID)
	if *again.CustomerName != "Budi" {
		t.Errorf("stored record was mutated through a returned copy")
	}

	updated, err := repo.UpdateMetadata(ctx, record.ID, Metadata{LoanType: str("mortgage")})
	if err != nil {
		t.Fatalf("UpdateMetadata() error = %v", err)
	}
	if updated.LoanType != "mortgage" || *updated.CustomerName != "Budi" {
		t.Errorf("UpdateMetadata() = %+v", updated)
	}
	if !updated.TotalPayment.Equal(record.TotalPayment) {
		t.Errorf("UpdateMetadata() changed computed fields")
	}

	cleared, err := repo.UpdateMetadata(ctx, record.ID, Metadata{ClearCustomerName: true})
	if err != nil {
		t.Fatalf("UpdateMetadata() error = %v", err)
	}
	if cleared.CustomerName != nil || cleared.LoanType != "mortgage" {
		t.Errorf("UpdateMetadata() clearing name = %+v", cleared)
	}

	if err := repo.Delete(ctx, record.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Find(ctx, record.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find() after delete error = %v, expected ErrNotFound", err)
	}
	if err := repo.Delete(ctx, record.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, expected ErrNotFound", err)
	}
	if _, err := repo.UpdateMetadata(ctx, 99, Metadata{LoanType: str("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateMetadata() on missing id error = %v", err)
	}
}

func TestMemoryRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	result := referenceResult(t)
	for i := 0; i < 23; i++ {
		record := NewRecord(result, Metadata{})
		if err := repo.Save(ctx, &record); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		page      int
		perPage   int
		count     int
		firstID   uint
		lastPage  int
		effective int
	}{
		{"First page", 1, 10, 10, 23, 3, 1},
		{"Second page", 2, 10, 10, 13, 3, 2},
		{"Last page", 3, 10, 3, 3, 3, 3},
		{"Past the end", 4, 10, 0, 0, 3, 4},
		{"Defaults", 0, 0, 10, 23, 3, 1},
		{"Single page", 1, 50, 23, 23, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.page, tt.perPage)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(page.Records) != tt.count {
				t.Fatalf("len(Records) = %d, expected %d", len(page.Records), tt.count)
			}
			if tt.count > 0 && page.Records[0].ID != tt.firstID {
				t.Errorf("first ID = %d, expected %d", page.Records[0].ID, tt.firstID)
			}
			if page.Total != 23 || page.LastPage != tt.lastPage || page.CurrentPage != tt.effective {
				t.Errorf("page = {current %d, total %d, last %d}", page.CurrentPage, page.Total, page.LastPage)
			}
			for i := 1; i < len(page.Records); i++ {
				if page.Records[i].CreatedAt.After(page.Records[i-1].CreatedAt) {
					t.Errorf("records not newest first at %d", i)
				}
			}
		})
	}
}

func TestMemoryRepositoryEmptyList(t *testing.T) {
	page, err := NewMemoryRepository().List(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Records == nil || len(page.Records) != 0 {
		t.Errorf("Records = %v, expected empty slice", page.Records)
	}
	if page.LastPage != 1 || page.Total != 0 {
		t.Errorf("page = %+v", page)
	}
}

func TestMemoryRepositoryConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	result := referenceResult(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record := NewRecord(result, Metadata{})
			if err := repo.Save(ctx, &record); err != nil {
				t.Errorf("Save() error = %v", err)
			}
		}()
	}
	wg.Wait()

	page, err := repo.List(ctx, 1, 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 50 {
		t.Errorf("Total = %d, expected 50", page.Total)
	}
	seen := make(map[uint]bool)
	for _, record := range page.Records {
		if seen[record.ID] {
			t.Errorf("duplicate id %d", record.ID)
		}
		seen[record.ID] = true
	}
}

func TestMemoryRepositoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record := NewRecord(referenceResult(t), Metadata{})
	if err := NewMemoryRepository().Save(ctx, &record); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, expected context.Canceled", err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, name := range []string{
		"migrations/000001_create_credit_calculations_table.up.sql",
		"migrations/000001_create_credit_calculations_table.down.sql",
	} {
		data, err := fs.ReadFile(migrationFiles, name)
		if err != nil {
			t.Errorf("missing embedded migration %s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("embedded migration %s is empty", name)
		}
	}
}
