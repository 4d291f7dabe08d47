package customer

import "strings"

// Field names a customer attribute.
type Field string

// Customer field constants.
const (
	ID               Field = "ID"
	PIN              Field = "PIN"
	Name             Field = "NAME"
	Street           Field = "STREET"
	City             Field = "CITY"
	Province         Field = "PROVINCE"
	PostalCode       Field = "POSTALCODE"
	Sex              Field = "SEX"
	Email            Field = "EMAIL"
	Phone            Field = "PHONE"
	DOB              Field = "DOB"
	PrivilegeExpires Field = "PRIVILEGE_EXPIRES"
	FirstName        Field = "FIRSTNAME"
	LastName         Field = "LASTNAME"
)

// Unset is the placeholder the federation uses for a field with no value.
const Unset = "X"

// aliases maps alternate wire names onto canonical fields.
var aliases = map[string]Field{
	"GENDER": Sex,
}

// Customer is a normalized, policy-approved customer record.
type Customer struct {
	fields map[Field]string
}

// New creates an empty customer.
func New() *Customer {
	return &Customer{fields: make(map[Field]string)}
}

// FromMap builds a customer from wire field names (case-insensitive).
func FromMap(m map[string]string) *Customer {
	c := New()
	for k, v := range m {
		key := strings.ToUpper(strings.TrimSpace(k))
		if f, ok := aliases[key]; ok {
			c.Set(f, v)
			continue
		}
		c.Set(Field(key), v)
	}
	return c
}

// Set stores a field value.
func (c *Customer) Set(f Field, v string) {
	c.fields[f] = strings.TrimSpace(v)
}

// Get returns the field value, or "" when absent.
func (c *Customer) Get(f Field) string {
	return c.fields[f]
}

// IsEmpty reports whether the field is absent, blank or the Unset placeholder.
func (c *Customer) IsEmpty(f Field) bool {
	v, ok := c.fields[f]
	return !ok || v == "" || v == Unset
}

// Value returns the field value, or "" when the field is empty.
func (c *Customer) Value(f Field) string {
	if c.IsEmpty(f) {
		return ""
	}
	return c.fields[f]
}

// FormattedCustomer is a customer rendered in a backend-specific record format.
type FormattedCustomer interface {
	FormattedRecord() []string
}
