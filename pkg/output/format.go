// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/format"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"gopkg.in/yaml.v3"
)

// Write renders result in the requested output format.
func Write(w io.Writer, outputFormat string, result loans.Result, f *format.Formatter) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, result, f)
	case constants.OutputFormatCSV:
		return CsvFormat(w, result)
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, result loans.Result, f *format.Formatter) error {
	ew := &errWriter{w: w}

	ew.printf("--- Credit calculation ---\n")
	ew.printf("Loan amount     | %s\n", f.Currency(result.Principal))
	ew.printf("Interest rate   | %s\n", f.Percent(result.AnnualRatePercent))
	ew.printf("Term            | %s months\n", f.Integer(result.TermMonths))
	ew.printf("Monthly payment | %s\n", f.Currency(result.MonthlyPayment))
	ew.printf("Total payment   | %s\n", f.Currency(result.TotalPayment))
	ew.printf("Total interest  | %s\n", f.Currency(result.TotalInterest))
	ew.printf("\n")
	ew.printf("Month | Payment | Principal | Interest | Balance\n")
	ew.printf("_____ | _______ | _________ | ________ | _______\n")
	for _, payment := range result.Schedule {
		ew.printf("%5d | %s | %s | %s | %s\n",
			payment.Month,
			f.Number(payment.Payment),
			f.Number(payment.Principal),
			f.Number(payment.Interest),
			f.Number(payment.Balance),
		)
	}

	return ew.err
}

// CsvFormat outputs the schedule in comma-separated value format.
func CsvFormat(w io.Writer, result loans.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "payment", "principal", "interest", "balance"}); err != nil {
		return err
	}
	for _, payment := range result.Schedule {
		record := []string{
			strconv.Itoa(payment.Month),
			formatFloat(payment.Payment),
			formatFloat(payment.Principal),
			formatFloat(payment.Interest),
			formatFloat(payment.Balance),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the result as indented JSON.
func JSONFormat(w io.Writer, result loans.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// YAMLFormat outputs the result as YAML.
func YAMLFormat(w io.Writer, result loans.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
