package responder

import (
	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/domain/customer"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
)

// Builder is the subset of ils.RequestBuilder the service dispatches to.
type Builder interface {
	Name() string
	GetCustomer(id, pin string) (command.Command, error)
	CreateUser(c *customer.Customer) (command.Command, error)
	UpdateUser(c *customer.Customer) (command.Command, error)
	GetStatus() (command.Command, error)
	IsSuccessful(q query.Type, st command.Status, resp *response.Response) bool
}
