// Package responder answers decoded protocol requests through the configured ILS backend.
package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/domain"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/logger"
	"github.com/metro-mecard/mecard/internal/metrics"
)

// Service dispatches one request per call. It is safe for concurrent use.
type Service struct {
	builder Builder
	delim   string
	logger  *zap.Logger
}

// New creates a Service packing response lines with delim.
func New(b Builder, delim string, logger *zap.Logger) *Service {
	if delim == "" {
		delim = response.DefaultDelimiter
	}
	return &Service{builder: b, delim: delim, logger: logger}
}

// Backend returns the name of the backend requests are dispatched to.
func (s *Service) Backend() string { return s.builder.Name() }

// Handle executes req and returns its response. Errors never escape:
// they are folded into the response code.
func (s *Service) Handle(ctx context.Context, req query.Request) *response.Response {
	start := time.Now()
	resp := response.New()
	log := logger.ForTransaction(ctx, s.logger, req.TransactionID)

	var st command.Status
	cmd, err := s.build(req)
	switch {
	case err != nil:
		classify(err, resp)
	case cmd == nil:
		// NULL never reaches the ILS.
		s.builder.IsSuccessful(req.Type, st, resp)
	default:
		log.Debug("executing command",
			zap.String("query", string(req.Type)),
			zap.Stringer("command", cmd))
		st = cmd.Execute(ctx)
		s.builder.IsSuccessful(req.Type, st, resp)
	}

	took := time.Since(start)
	metrics.ObserveTransaction(s.builder.Name(), string(req.Type), string(resp.Code()), took)

	fields := []zap.Field{
		zap.String("query", string(req.Type)),
		zap.String("backend", s.builder.Name()),
		zap.String("code", string(resp.Code())),
		zap.Int("exit_code", st.ExitCode),
		zap.Duration("latency", took),
	}
	switch resp.Code() {
	case response.ConfigError, response.Error:
		log.Error("transaction", append(fields, zap.Error(err))...)
	case response.Unknown:
		log.Warn("transaction", append(fields, zap.Error(err))...)
	default:
		log.Info("transaction", fields...)
	}
	return resp
}

// HandleLine executes req and packs the response line.
func (s *Service) HandleLine(ctx context.Context, req query.Request) string {
	return s.Handle(ctx, req).Pack(s.delim)
}

// build selects the operation. A nil command with a nil error means the
// request is answered without executing anything.
func (s *Service) build(req query.Request) (command.Command, error) {
	switch req.Type {
	case query.Null:
		return nil, nil
	case query.GetCustomer:
		return s.builder.GetCustomer(req.UserID, req.PIN)
	case query.CreateCustomer:
		if req.Customer == nil {
			return nil, fmt.Errorf("create customer: %w", domain.ErrInvalidCustomer)
		}
		return s.builder.CreateUser(req.Customer)
	case query.UpdateCustomer:
		if req.Customer == nil {
			return nil, fmt.Errorf("update customer: %w", domain.ErrInvalidCustomer)
		}
		return s.builder.UpdateUser(req.Customer)
	case query.GetStatus:
		return s.builder.GetStatus()
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownQuery, req.Type)
}

// classify maps a build error onto a response code.
func classify(err error, resp *response.Response) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedOperation), errors.Is(err, domain.ErrUnknownQuery):
		resp.SetCode(response.Unknown)
	case errors.Is(err, domain.ErrConfig):
		resp.SetCode(response.ConfigError)
	default:
		resp.SetCode(response.Error)
	}
	resp.SetResponse(err.Error())
}
