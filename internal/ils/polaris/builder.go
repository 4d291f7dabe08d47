// Package polaris drives a Polaris ILS through an external PAPI client tool,
// passing the customer as an argument set.
package polaris

import (
	"fmt"
	"time"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain"
	"github.com/metro-mecard/mecard/internal/domain/customer"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/ils"
)

// Builder implements ils.RequestBuilder for Polaris.
type Builder struct {
	ils.Adaptor
	cfg     config.PolarisConfig
	msgs    config.MessagesConfig
	timeout time.Duration
}

var _ ils.RequestBuilder = (*Builder)(nil)

// New creates a Polaris builder.
func New(cfg config.PolarisConfig, msgs config.MessagesConfig, timeout time.Duration) *Builder {
	return &Builder{
		Adaptor: ils.Adaptor{Backend: config.BackendPolaris},
		cfg:     cfg,
		msgs:    msgs,
		timeout: timeout,
	}
}

func (b *Builder) vars() ils.Vars {
	return ils.Vars{
		"server":   b.cfg.Server,
		"user":     b.cfg.User,
		"password": b.cfg.Password,
		"org":      b.cfg.OrgID,
	}
}

// GetCustomer looks the patron up by barcode and PIN; the PIN is masked in logs.
func (b *Builder) GetCustomer(id, pin string) (command.Command, error) {
	return b.process(b.cfg.GetCustomerArgs, b.vars().Merge(ils.Vars{"id": id, "pin": pin}), pin)
}

// CreateUser registers a new patron from the customer argument set.
func (b *Builder) CreateUser(c *customer.Customer) (command.Command, error) {
	return b.customerProcess(b.cfg.CreateArgs, c)
}

// UpdateUser rewrites an existing patron from the customer argument set.
func (b *Builder) UpdateUser(c *customer.Customer) (command.Command, error) {
	return b.customerProcess(b.cfg.UpdateArgs, c)
}

// GetStatus checks that the PAPI service answers.
func (b *Builder) GetStatus() (command.Command, error) {
	return b.process(b.cfg.StatusArgs, b.vars())
}

func (b *Builder) customerProcess(args []string, c *customer.Customer) (command.Command, error) {
	if c == nil || c.IsEmpty(customer.ID) {
		return nil, fmt.Errorf("polaris: customer id required: %w", domain.ErrInvalidCustomer)
	}
	return b.process(args, ils.CustomerVars(c).Merge(b.vars()), c.Value(customer.PIN))
}

func (b *Builder) process(args []string, vars ils.Vars, secrets ...string) (command.Command, error) {
	cmd, err := command.New(command.Config{
		Args:    ils.Expand(args, vars),
		Timeout: b.timeout,
		Secrets: append(secrets, b.cfg.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("polaris: %w: %w", err, domain.ErrConfig)
	}
	return cmd, nil
}

// IsSuccessful applies the single PAPI success marker to every operation.
func (b *Builder) IsSuccessful(q query.Type, st command.Status, resp *response.Response) bool {
	ok := ils.Succeeded(st, b.cfg.SuccessMarker)
	switch q {
	case query.GetCustomer:
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.CustomerFound, response.Fail, b.msgs.CustomerNotFound)
	case query.CreateCustomer:
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.SuccessJoin, response.Fail, b.msgs.AccountNotCreated)
	case query.UpdateCustomer:
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.SuccessUpdate, response.Fail, b.msgs.AccountNotUpdated)
	case query.GetStatus:
		return ils.Outcome(ok, st, resp, response.OK, b.msgs.ILSAvailable, response.Unavailable, b.msgs.ILSUnavailable)
	}
	return b.Adaptor.IsSuccessful(q, st, resp)
}
