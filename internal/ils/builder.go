// Package ils adapts the abstract customer operations onto per-backend commands.
package ils

import (
	"strings"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/domain"
	"github.com/metro-mecard/mecard/internal/domain/customer"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
)

// RequestBuilder turns an abstract operation into a Command for one backend
// and interprets that Command's Status.
type RequestBuilder interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	GetCustomer(id, pin string) (command.Command, error)
	CreateUser(c *customer.Customer) (command.Command, error)
	UpdateUser(c *customer.Customer) (command.Command, error)
	GetStatus() (command.Command, error)
	// IsSuccessful classifies st and sets the response code and message.
	IsSuccessful(q query.Type, st command.Status, resp *response.Response) bool
}

// Adaptor answers every operation as unsupported. Backends embed it and
// override the operations they implement.
type Adaptor struct {
	Backend string
}

// Name returns the backend name.
func (a Adaptor) Name() string { return a.Backend }

// GetCustomer is unsupported.
func (a Adaptor) GetCustomer(_, _ string) (command.Command, error) {
	return nil, domain.NewUnsupported(a.Backend, string(query.GetCustomer))
}

// CreateUser is unsupported.
func (a Adaptor) CreateUser(_ *customer.Customer) (command.Command, error) {
	return nil, domain.NewUnsupported(a.Backend, string(query.CreateCustomer))
}

// UpdateUser is unsupported.
func (a Adaptor) UpdateUser(_ *customer.Customer) (command.Command, error) {
	return nil, domain.NewUnsupported(a.Backend, string(query.UpdateCustomer))
}

// GetStatus is unsupported.
func (a Adaptor) GetStatus() (command.Command, error) {
	return nil, domain.NewUnsupported(a.Backend, string(query.GetStatus))
}

// IsSuccessful answers NULL with SUCCESS and anything else with UNKNOWN.
func (a Adaptor) IsSuccessful(q query.Type, _ command.Status, resp *response.Response) bool {
	if q == query.Null {
		resp.SetCode(response.Success)
		resp.SetResponse("null command back at you")
		return true
	}
	return a.Unknown(q, resp)
}

// Unknown sets UNKNOWN for a query type the backend does not handle.
func (a Adaptor) Unknown(q query.Type, resp *response.Response) bool {
	resp.SetCode(response.Unknown)
	resp.SetResponse(a.Backend + " doesn't know how to execute the query type: " + string(q))
	return false
}

// Succeeded reports success for st. A non-empty marker found in stdout is
// success regardless of exit code, and its absence is failure. With no marker
// the exit code decides.
func Succeeded(st command.Status, marker string) bool {
	if marker != "" {
		return strings.Contains(st.Stdout, marker)
	}
	return st.ExitCode == 0
}

// Diagnostic returns the tool's own text for a failure message, preferring stderr.
func Diagnostic(st command.Status) string {
	text := strings.TrimSpace(st.Stderr)
	if text == "" {
		text = strings.TrimSpace(st.Stdout)
	}
	return strings.Join(strings.Fields(text), " ")
}

// Outcome sets resp from ok: okCode plus okMsg, or failCode plus failMsg and the tool diagnostic.
func Outcome(ok bool, st command.Status, resp *response.Response, okCode response.Code, okMsg string, failCode response.Code, failMsg string) bool {
	if ok {
		resp.SetCode(okCode)
		resp.SetResponse(okMsg)
		return true
	}
	resp.SetCode(failCode)
	resp.SetResponse(failMsg)
	resp.SetResponse(Diagnostic(st))
	return false
}
