package ils

import (
	"strings"

	"github.com/metro-mecard/mecard/internal/domain/customer"
)

// Vars holds placeholder values substituted into argument templates as {name}.
type Vars map[string]string

// Expand substitutes {name} placeholders in every argument. Unknown placeholders are left as is.
func Expand(args []string, vars Vars) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// CustomerVars exposes a customer's fields as template placeholders.
// Empty fields expand to "".
func CustomerVars(c *customer.Customer) Vars {
	return Vars{
		"id":       c.Value(customer.ID),
		"pin":      c.Value(customer.PIN),
		"name":     c.Value(customer.Name),
		"first":    c.Value(customer.FirstName),
		"last":     c.Value(customer.LastName),
		"street":   c.Value(customer.Street),
		"city":     c.Value(customer.City),
		"province": c.Value(customer.Province),
		"postal":   c.Value(customer.PostalCode),
		"email":    c.Value(customer.Email),
		"phone":    c.Value(customer.Phone),
		"dob":      c.Value(customer.DOB),
		"expiry":   c.Value(customer.PrivilegeExpires),
		"sex":      c.Value(customer.Sex),
	}
}

// Merge returns a copy of v overlaid with other.
func (v Vars) Merge(other Vars) Vars {
	out := make(Vars, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}
