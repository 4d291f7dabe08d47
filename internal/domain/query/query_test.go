package query

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Type{GetCustomer, CreateCustomer, UpdateCustomer, GetStatus, Null}
	for _, q := range valid {
		if !q.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", q)
		}
	}

	invalid := []Type{"", "DELETE_CUSTOMER", "get_customer"}
	for _, q := range invalid {
		if q.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", q)
		}
	}
}

func TestParse(t *testing.T) {
	if got := Parse(" create_customer "); got != CreateCustomer {
		t.Errorf("Parse() = %q, want %q", got, CreateCustomer)
	}
	if got := Parse("bogus"); got.IsValid() {
		t.Errorf("Parse(bogus) = %q should be invalid", got)
	}
}
