// Package debug answers every operation with a configured canned result,
// for exercising the federation without a live ILS.
package debug

import (
	"strings"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain/customer"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/ils"
)

// Builder implements ils.RequestBuilder with static commands.
type Builder struct {
	ils.Adaptor
	cfg config.DebugConfig
}

var _ ils.RequestBuilder = (*Builder)(nil)

// New creates a debug builder answering from cfg.
func New(cfg config.DebugConfig) *Builder {
	return &Builder{Adaptor: ils.Adaptor{Backend: config.BackendDebug}, cfg: cfg}
}

func canned(q query.Type, result string) command.Command {
	if result == "" {
		result = string(response.Success)
	}
	return command.NewStaticLabeled("debug "+string(q), command.Status{Stdout: result})
}

// GetCustomer returns the canned lookup result.
func (b *Builder) GetCustomer(_, _ string) (command.Command, error) {
	return canned(query.GetCustomer, b.cfg.GetCustomerResult), nil
}

// CreateUser returns the canned create result.
func (b *Builder) CreateUser(_ *customer.Customer) (command.Command, error) {
	return canned(query.CreateCustomer, b.cfg.CreateCustomerResult), nil
}

// UpdateUser returns the canned update result.
func (b *Builder) UpdateUser(_ *customer.Customer) (command.Command, error) {
	return canned(query.UpdateCustomer, b.cfg.UpdateCustomerResult), nil
}

// GetStatus returns the canned status result.
func (b *Builder) GetStatus() (command.Command, error) {
	return canned(query.GetStatus, b.cfg.StatusResult), nil
}

// IsSuccessful reads the canned stdout as "CODE" or "CODE|message".
func (b *Builder) IsSuccessful(q query.Type, st command.Status, resp *response.Response) bool {
	if !q.IsValid() {
		return b.Unknown(q, resp)
	}
	if q == query.Null && b.cfg.NullResult == "" {
		return b.Adaptor.IsSuccessful(q, st, resp)
	}
	out := st.Stdout
	if q == query.Null {
		out = b.cfg.NullResult
	}
	codeText, msg, _ := strings.Cut(strings.TrimSpace(out), "|")
	code := response.Code(strings.ToUpper(codeText))
	if !code.IsValid() {
		code = response.Error
		msg = "debug result is not a response code: " + codeText
	}
	resp.SetCode(code)
	resp.SetResponse(msg)
	return code == response.Success || code == response.OK
}
