// Package display turns application records into display-ready field values.
//
// Every function here is pure: no shared mutable state, no I/O, and no dependence
// on the process locale or time zone.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/applist/internal/application"
)

// CurrencySymbol prefixes every formatted loan amount.
const CurrencySymbol = "£"

// commaGroupSize is the number of digits between group separators.
const commaGroupSize = 3

// printer groups thousands with the British English convention.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.BritishEnglish)

// FormatDate renders t as DD-MM-YYYY using t's own calendar fields.
// The timestamp is not converted to the local zone, so the rendering is the
// same on every machine.
// Example: FormatDate(2024-01-15T10:30:00Z) returns "15-01-2024".
func FormatDate(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("%02d-%02d-%d", day, int(month), year)
}

// FormatCurrency renders amount rounded to a whole pound with comma grouping.
// Example: FormatCurrency(decimal.NewFromInt(50000)) returns "£50,000".
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(0)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	return sign + CurrencySymbol + groupWhole(rounded)
}

// groupWhole formats a non-negative whole decimal with thousands separators.
// Values beyond int64 fall back to manual grouping of the digit string.
func groupWhole(whole decimal.Decimal) string {
	bi := whole.BigInt()
	if bi.IsInt64() {
		return printer.Sprintf("%d", bi.Int64())
	}

	digits := bi.String()
	var parts []string
	for len(digits) > commaGroupSize {
		parts = append([]string{digits[len(digits)-commaGroupSize:]}, parts...)
		digits = digits[:len(digits)-commaGroupSize]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}

// FormatName joins first and last name with a single space.
func FormatName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Field labels in rendering order.
const (
	LabelCompany         = "Company"
	LabelName            = "Name"
	LabelEmail           = "Email"
	LabelLoanAmount      = "Loan Amount"
	LabelApplicationDate = "Application Date"
	LabelExpiryDate      = "Expiry date"
)

// Field is a single labelled display cell.
type Field struct {
	Label string
	Value string
}

// Row holds the display values of one record.
type Row struct {
	ID              application.ID `json:"id,omitempty"`
	Company         string         `json:"company"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	LoanAmount      string         `json:"loan_amount"`
	ApplicationDate string         `json:"application_date"`
	ExpiryDate      string         `json:"expiry_date"`
}

// FormatRecord formats every displayed field of r.
func FormatRecord(r application.Record) Row {
	return Row{
		ID:              r.ID,
		Company:         r.Company,
		Name:            FormatName(r.FirstName, r.LastName),
		Email:           r.Email,
		LoanAmount:      FormatCurrency(r.LoanAmount),
		ApplicationDate: FormatDate(r.DateCreated),
		ExpiryDate:      FormatDate(r.ExpiryDate),
	}
}

// FormatRecords formats records in order.
func FormatRecords(records []application.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, FormatRecord(r))
	}
	return rows
}

// Fields returns the row's cells in the fixed rendering order.
func (r Row) Fields() []Field {
	return []Field{
		{Label: LabelCompany, Value: r.Company},
		{Label: LabelName, Value: r.Name},
		{Label: LabelEmail, Value: r.Email},
		{Label: LabelLoanAmount, Value: r.LoanAmount},
		{Label: LabelApplicationDate, Value: r.ApplicationDate},
		{Label: LabelExpiryDate, Value: r.ExpiryDate},
	}
}

// Labels returns the field labels in rendering order.
func Labels() []string {
	return []string{
		LabelCompany, LabelName, LabelEmail,
		LabelLoanAmount, LabelApplicationDate, LabelExpiryDate,
	}
}
