// Package symphony drives a SirsiDynix Symphony ILS through its flat-file API tools.
package symphony

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

// Builder implements ils.RequestBuilder for Symphony.
type Builder struct {
	ils.Adaptor
	cfg     config.SymphonyConfig
	msgs    config.MessagesConfig
	timeout time.Duration
	now     func() time.Time
}

var _ ils.RequestBuilder = (*Builder)(nil)

// New creates a Symphony builder.
func New(cfg config.SymphonyConfig, msgs config.MessagesConfig, timeout time.Duration) *Builder {
	return &Builder{
		Adaptor: ils.Adaptor{Backend: config.BackendSymphony},
		cfg:     cfg,
		msgs:    msgs,
		timeout: timeout,
		now:     time.Now,
	}
}

// GetCustomer pipes the user id into the lookup pipeline.
func (b *Builder) GetCustomer(id, pin string) (command.Command, error) {
	return b.process(b.cfg.GetCustomerArgs, ils.Vars{"id": id, "pin": pin}, id+"\n", pin)
}

// CreateUser loads a new flat user record.
func (b *Builder) CreateUser(c *customer.Customer) (command.Command, error) {
	return b.load(b.cfg.CreateArgs, c)
}

// UpdateUser replaces an existing flat user record.
func (b *Builder) UpdateUser(c *customer.Customer) (command.Command, error) {
	return b.load(b.cfg.UpdateArgs, c)
}

// GetStatus runs the configured availability probe.
func (b *Builder) GetStatus() (command.Command, error) {
	return b.process(b.cfg.StatusArgs, nil, "")
}

func (b *Builder) load(args []string, c *customer.Customer) (command.Command, error) {
	if c == nil || c.IsEmpty(customer.ID) {
		return nil, fmt.Errorf("symphony: customer id required: %w", domain.ErrInvalidCustomer)
	}
	rec := NewFlatRecord(c, b.cfg, b.now())
	return b.process(args, ils.CustomerVars(c), rec.String(), c.Value(customer.PIN))
}

func (b *Builder) process(args []string, vars ils.Vars, stdin string, secrets ...string) (command.Command, error) {
	cmd, err := command.New(command.Config{
		Args:    ils.Expand(args, vars),
		Stdin:   stdin,
		Timeout: b.timeout,
		Secrets: secrets,
	})
	if err != nil {
		return nil, fmt.Errorf("symphony: %w: %w", err, domain.ErrConfig)
	}
	return cmd, nil
}

// IsSuccessful classifies the API tool output.
func (b *Builder) IsSuccessful(q query.Type, st command.Status, resp *response.Response) bool {
	switch q {
	case query.GetCustomer:
		ok := ils.Succeeded(st, b.cfg.GetCustomerMarker)
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.CustomerFound, response.Fail, b.msgs.CustomerNotFound)
	case query.CreateCustomer:
		ok := ils.Succeeded(st, b.cfg.CreateMarker)
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.SuccessJoin, response.Fail, b.msgs.AccountNotCreated)
	case query.UpdateCustomer:
		ok := ils.Succeeded(st, b.cfg.UpdateMarker)
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.SuccessUpdate, response.Fail, b.msgs.AccountNotUpdated)
	case query.GetStatus:
		ok := ils.Succeeded(st, b.cfg.StatusMarker)
		return ils.Outcome(ok, st, resp, response.OK, b.msgs.ILSAvailable, response.Unavailable, b.msgs.ILSUnavailable)
	}
	return b.Adaptor.IsSuccessful(q, st, resp)
}
