// Package application defines the loan-application record served by the listing API.
package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ID is an opaque record identifier. Backends emit it either as a JSON string
// or as a JSON number; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a string, a number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding record id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Record is a single loan application as returned by the listing endpoint.
type Record struct {
	ID          ID              `json:"guid"`
	Company     string          `json:"company"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	LoanAmount  decimal.Decimal `json:"loan_amount"`
	DateCreated time.Time       `json:"date_created"`
	ExpiryDate  time.Time       `json:"expiry_date"`
}

// UnmarshalJSON decodes a record, falling back to a json-server style "id"
// field when "guid" is absent.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain

		AltID ID `json:"id"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = aux.AltID
	}
	return nil
}
