package query

import (
	"strings"

	"github.com/metro-mecard/mecard/internal/domain/customer"
)

// Type is the abstract operation a client asks the federation server to perform.
type Type string

// Query type constants.
const (
	GetCustomer    Type = "GET_CUSTOMER"
	CreateCustomer Type = "CREATE_CUSTOMER"
	UpdateCustomer Type = "UPDATE_CUSTOMER"
	GetStatus      Type = "GET_STATUS"
	// Null is a connectivity probe answered without touching the ILS.
	Null Type = "NULL"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	return t == GetCustomer || t == CreateCustomer || t == UpdateCustomer || t == GetStatus || t == Null
}

// Parse converts a wire token into a Type. Matching is case-insensitive.
func Parse(s string) Type {
	return Type(strings.ToUpper(strings.TrimSpace(s)))
}

// Request is an already-decoded protocol request.
type Request struct {
	Type          Type
	TransactionID string
	UserID        string
	PIN           string
	Customer      *customer.Customer
}
