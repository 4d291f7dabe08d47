package bimport

import (
	"strings"

	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain/customer"
)

// Horizon tables written by a staged record.
const (
	BorrowerTable        = "borrower"
	BorrowerPhoneTable   = "borrower_phone"
	BorrowerAddressTable = "borrower_address"
	BorrowerBarcodeTable = "borrower_barcode"
	BorrowerBStatTable   = "borrower_bstat"
)

// Record is a customer in bimport table format.
type Record struct {
	lines []string
}

var _ customer.FormattedCustomer = (*Record)(nil)

// NewRecord formats c. Fields are "; " separated, so embedded semicolons are replaced.
func NewRecord(c *customer.Customer, cfg config.BImportConfig) *Record {
	v := func(f customer.Field) string {
		return strings.ReplaceAll(c.Value(f), ";", ",")
	}
	barcode := v(customer.ID)
	return &Record{lines: []string{
		"M- " + row(BorrowerTable, barcode, v(customer.Name), v(customer.PrivilegeExpires), v(customer.PIN)),
		row(BorrowerPhoneTable, cfg.PhoneType, v(customer.Phone)),
		row(BorrowerAddressTable, v(customer.Street), "", v(customer.City), v(customer.PostalCode), v(customer.Name), v(customer.Email)),
		row(BorrowerBarcodeTable, barcode),
	}}
}

// HeaderLines returns the table layout matching records built by NewRecord.
func HeaderLines(cfg config.BImportConfig) []string {
	lines := []string{
		"x- " + row(BorrowerTable, cfg.UniqueKey, "name", "expiration_date", "pin"),
		row(BorrowerPhoneTable, "phone_type", "phone_no"),
		row(BorrowerAddressTable, "address1", "address2", "city_st", "postal_code", "email_name", "email_address"),
		row(BorrowerBarcodeTable, "bbarcode"),
	}
	if len(cfg.BStats) > 0 || cfg.SexBStat {
		lines = append(lines, row(BorrowerBStatTable, "bstat"))
	}
	return lines
}

func row(table string, fields ...string) string {
	return table + ": " + strings.Join(fields, "; ")
}

// AddBStat appends a borrower_bstat line.
func (r *Record) AddBStat(bstat string) {
	r.lines = append(r.lines, row(BorrowerBStatTable, bstat))
}

// FormattedRecord returns the record lines.
func (r *Record) FormattedRecord() []string {
	return append([]string(nil), r.lines...)
}

func (r *Record) String() string {
	return strings.Join(r.lines, "\n") + "\n"
}

// Normalize applies site bstats: a sex-derived m, f or u when enabled, then the static list.
func Normalize(c *customer.Customer, r *Record, cfg config.BImportConfig) {
	if cfg.SexBStat {
		switch strings.ToUpper(c.Value(customer.Sex)) {
		case "M":
			r.AddBStat("m")
		case "F":
			r.AddBStat("f")
		default:
			r.AddBStat("u")
		}
	}
	for _, b := range cfg.BStats {
		if b = strings.TrimSpace(b); b != "" {
			r.AddBStat(b)
		}
	}
}
