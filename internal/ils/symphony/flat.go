package symphony

import (
	"strings"
	"time"

	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain/customer"
)

const documentBoundary = "*** DOCUMENT BOUNDARY ***"

// FlatRecord is a customer rendered in the Symphony flat user format read by loadflatuser.
type FlatRecord struct {
	lines []string
}

var _ customer.FormattedCustomer = (*FlatRecord)(nil)

// NewFlatRecord formats c. granted is the privilege-granted date written to the record.
func NewFlatRecord(c *customer.Customer, cfg config.SymphonyConfig, granted time.Time) *FlatRecord {
	r := &FlatRecord{}
	r.lines = append(r.lines, documentBoundary)
	r.tag("USER_ID", c.Value(customer.ID))
	r.tag("USER_FIRST_NAME", c.Value(customer.FirstName))
	r.tag("USER_LAST_NAME", c.Value(customer.LastName))
	r.tag("USER_PREFERRED_NAME", c.Value(customer.Name))
	r.tag("USER_LIBRARY", cfg.UserLibrary)
	r.tag("USER_PROFILE", cfg.UserProfile)
	r.tag("USER_PREF_LANG", cfg.UserPrefLang)
	r.tag("USER_PIN", c.Value(customer.PIN))
	r.tag("USER_STATUS", cfg.UserStatus)
	r.tag("USER_ROUTING_FLAG", cfg.UserRoutingFlag)
	r.tag("USER_CHG_HIST_RULE", cfg.UserChargeHistRule)
	r.tag("USER_PRIV_GRANTED", granted.Format("20060102"))
	r.tag("USER_PRIV_EXPIRES", c.Value(customer.PrivilegeExpires))
	r.tag("USER_BIRTH_DATE", c.Value(customer.DOB))
	r.tag("USER_CATEGORY2", c.Value(customer.Sex))
	r.tag("USER_ACCESS", cfg.UserAccess)
	r.tag("USER_ENVIRONMENT", cfg.UserEnvironment)

	r.lines = append(r.lines, ".USER_ADDR1_BEGIN.")
	r.tag("STREET", c.Value(customer.Street))
	r.tag("CITY/STATE", cityState(c))
	r.tag("POSTALCODE", c.Value(customer.PostalCode))
	r.tag("PHONE", c.Value(customer.Phone))
	r.tag("EMAIL", c.Value(customer.Email))
	r.lines = append(r.lines, ".USER_ADDR1_END.")
	return r
}

// tag appends a ".NAME.   |avalue" line; empty values are omitted.
func (r *FlatRecord) tag(name, value string) {
	if value == "" {
		return
	}
	r.lines = append(r.lines, "."+name+".   |a"+value)
}

func cityState(c *customer.Customer) string {
	city := c.Value(customer.City)
	prov := strings.ToUpper(c.Value(customer.Province))
	switch {
	case city == "":
		return prov
	case prov == "":
		return city
	}
	return city + ", " + prov
}

// FormattedRecord returns the record lines without terminators.
func (r *FlatRecord) FormattedRecord() []string {
	return append([]string(nil), r.lines...)
}

// String joins the record for loadflatuser's standard input.
func (r *FlatRecord) String() string {
	return strings.Join(r.lines, "\n") + "\n"
}
