package format

import (
	"strings"
	"testing"
)

func TestCurrencyEnglish(t *testing.T) {
	f, err := NewFormatter("en-US", "$")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Zero", 0, "$0.00"},
		{"Small", 5, "$5.00"},
		{"Thousands", 1234.56, "$1,234.56"},
		{"Millions", 20833500, "$20,833,500.00"},
		{"Negative", -1234.5, "-$1,234.50"},
		{"Negative rounds to zero", -0.001, "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestIntegerAndPercent(t *testing.T) {
	f, err := NewFormatter("en", "")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	if got := f.Integer(600); got != "600" {
		t.Errorf("Integer(600) = %q", got)
	}
	if got := f.Integer(1200); got != "1,200" {
		t.Errorf("Integer(1200) = %q", got)
	}
	if got := f.Percent(12.5); got != "12.50%" {
		t.Errorf("Percent(12.5) = %q", got)
	}
}

func TestCurrencyIndonesianSymbol(t *testing.T) {
	f, err := NewFormatter("id-ID", "Rp")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	got := f.Currency(20833500)
	if !strings.HasPrefix(got, "Rp") {
		t.Errorf("Currency() = %q, expected Rp prefix", got)
	}
	if !strings.Contains(got, "20") || !strings.Contains(got, "833") {
		t.Errorf("Currency() = %q, expected digits of the amount", got)
	}
}

func TestNewFormatterInvalidLocale(t *testing.T) {
	if _, err := NewFormatter("not a locale!", "$"); err == nil {
		t.Fatal("expected error for invalid locale")
	}
}
