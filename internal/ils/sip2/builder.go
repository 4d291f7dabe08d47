// Package sip2 reaches a SIP2-speaking ILS through an external SIP client tool.
// SIP2 can look customers up and report status but cannot create or update them.
package sip2

import (
	"fmt"
	"strconv"
	"time"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/ils"
)

// Builder implements ils.RequestBuilder for SIP2.
type Builder struct {
	ils.Adaptor
	cfg     config.SIP2Config
	msgs    config.MessagesConfig
	timeout time.Duration
}

var _ ils.RequestBuilder = (*Builder)(nil)

// New creates a SIP2 builder.
func New(cfg config.SIP2Config, msgs config.MessagesConfig, timeout time.Duration) *Builder {
	return &Builder{
		Adaptor: ils.Adaptor{Backend: config.BackendSIP2},
		cfg:     cfg,
		msgs:    msgs,
		timeout: timeout,
	}
}

func (b *Builder) vars() ils.Vars {
	return ils.Vars{
		"host":        b.cfg.Host,
		"port":        strconv.Itoa(b.cfg.Port),
		"user":        b.cfg.User,
		"password":    b.cfg.Password,
		"institution": b.cfg.Institution,
	}
}

// GetCustomer requests patron information.
func (b *Builder) GetCustomer(id, pin string) (command.Command, error) {
	return b.process(b.cfg.GetCustomerArgs, b.vars().Merge(ils.Vars{"id": id, "pin": pin}), pin)
}

// GetStatus requests ACS status.
func (b *Builder) GetStatus() (command.Command, error) {
	return b.process(b.cfg.StatusArgs, b.vars())
}

func (b *Builder) process(args []string, vars ils.Vars, secrets ...string) (command.Command, error) {
	cmd, err := command.New(command.Config{
		Args:    ils.Expand(args, vars),
		Timeout: b.timeout,
		Secrets: append(secrets, b.cfg.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("sip2: %w: %w", err, domain.ErrConfig)
	}
	return cmd, nil
}

// IsSuccessful classifies the SIP client output.
func (b *Builder) IsSuccessful(q query.Type, st command.Status, resp *response.Response) bool {
	switch q {
	case query.GetCustomer:
		ok := ils.Succeeded(st, b.cfg.ValidPatronMark)
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.CustomerFound, response.Fail, b.msgs.CustomerNotFound)
	case query.GetStatus:
		ok := ils.Succeeded(st, b.cfg.OnlineStatusMark)
		return ils.Outcome(ok, st, resp, response.OK, b.msgs.ILSAvailable, response.Unavailable, b.msgs.ILSUnavailable)
	}
	return b.Adaptor.IsSuccessful(q, st, resp)
}
