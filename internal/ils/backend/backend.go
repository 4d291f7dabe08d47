// Package backend selects the RequestBuilder for the configured ILS.
package backend

import (
	"fmt"
	"time"

	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain"
	"github.com/metro-mecard/mecard/internal/ils"
	"github.com/metro-mecard/mecard/internal/ils/bimport"
	"github.com/metro-mecard/mecard/internal/ils/debug"
	"github.com/metro-mecard/mecard/internal/ils/polaris"
	"github.com/metro-mecard/mecard/internal/ils/sip2"
	"github.com/metro-mecard/mecard/internal/ils/symphony"
)

// New returns the builder for cfg.ILS.Backend.
func New(cfg config.Config) (ils.RequestBuilder, error) {
	timeout := time.Duration(cfg.ILS.CommandTimeoutSec) * time.Second
	switch cfg.ILS.Backend {
	case config.BackendSymphony:
		return symphony.New(cfg.Symphony, cfg.Messages, timeout), nil
	case config.BackendSIP2:
		return sip2.New(cfg.SIP2, cfg.Messages, timeout), nil
	case config.BackendPolaris:
		return polaris.New(cfg.Polaris, cfg.Messages, timeout), nil
	case config.BackendBImport:
		if err := cfg.ValidateBImport(); err != nil {
			return nil, err
		}
		return bimport.New(cfg.BImport, cfg.Messages), nil
	case config.BackendDebug:
		return debug.New(cfg.Debug), nil
	default:
		return nil, fmt.Errorf("unknown ils backend %q: %w", cfg.ILS.Backend, domain.ErrConfig)
	}
}
