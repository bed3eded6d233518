package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/iwvelando/credit-calculator/internal/storage"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/validation"
)

// Numbers are pointers so a missing field can be told apart from zero. The
// loan amount cap keeps every derived total inside a numeric(15,2) column.
type calculateRequest struct {
	LoanAmount     *float64 `json:"loan_amount" validate:"required,min=1,max=10000000000"`
	InterestRate   *float64 `json:"interest_rate" validate:"required,min=0,max=100"`
	LoanTermMonths *float64 `json:"loan_term_months" validate:"required,wholenumber,min=1,max=600"`
}

func (c calculateRequest) loanRequest() loans.Request {
	return loans.Request{
		Principal:         *c.LoanAmount,
		AnnualRatePercent: *c.InterestRate,
		TermMonths:        int(*c.LoanTermMonths),
	}
}

type storeRequest struct {
	calculateRequest
	CustomerName *string `json:"customer_name" validate:"omitempty,max=255"`
	LoanType     *string `json:"loan_type" validate:"omitempty,max=255"`
}

func (s storeRequest) metadata() storage.Metadata {
	return storage.Metadata{CustomerName: s.CustomerName, LoanType: s.LoanType}
}

type updateRequest struct {
	CustomerName *string `json:"customer_name" validate:"omitempty,max=255"`
	LoanType     *string `json:"loan_type" validate:"omitempty,max=255"`

	clearCustomerName bool
}

// UnmarshalJSON tells an explicit "customer_name": null, which clears the
// name, apart from an absent key, which leaves it alone.
func (u *updateRequest) UnmarshalJSON(data []byte) error {
	type fields updateRequest
	var decoded fields
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}

	*u = updateRequest(decoded)
	if raw, ok := present["customer_name"]; ok && string(bytes.TrimSpace(raw)) == "null" {
		u.clearCustomerName = true
	}
	return nil
}

func (u updateRequest) metadata() storage.Metadata {
	return storage.Metadata{
		CustomerName:      u.CustomerName,
		LoanType:          u.LoanType,
		ClearCustomerName: u.clearCustomerName,
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst at
// its zero value so that validation reports the missing fields. It writes
// the error response itself and reports whether decoding succeeded.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxBytesErr):
		h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", maxBytesErr.Limit), op)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		fieldErrors := validation.FieldErrors{}
		fieldErrors.Add(typeErr.Field, typeMessage(typeErr))
		h.respondValidationErrors(w, r, fieldErrors, op)
	default:
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("malformed JSON body: %v", err), op)
	}
	return false
}

// validate runs the struct rules and writes a 422 response on failure.
func (h *handler) validate(w http.ResponseWriter, r *http.Request, payload interface{}, op string) bool {
	err := h.validator.Struct(payload)
	if err == nil {
		return true
	}

	var fieldErrors validation.FieldErrors
	if errors.As(err, &fieldErrors) {
		h.respondValidationErrors(w, r, fieldErrors, op)
		return false
	}
	h.respondErrorWithOp(w, r, http.StatusInternalServerError, "Internal server error", op)
	return false
}

func typeMessage(err *json.UnmarshalTypeError) string {
	label := strings.ReplaceAll(err.Field, "_", " ")
	kind := err.Type.Kind()
	if kind == reflect.Ptr {
		kind = err.Type.Elem().Kind()
	}

	switch kind {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return fmt.Sprintf("The %s field must be a number.", label)
	case reflect.String:
		return fmt.Sprintf("The %s field must be a string.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
