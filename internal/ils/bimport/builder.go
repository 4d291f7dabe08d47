// Package bimport stages customer records for a Horizon batch import.
//
// The bimport tool cannot run per request or concurrently, so CreateUser and
// UpdateUser only write a staged record and answer with a synthetic success.
// The batch loader picks the records up later.
package bimport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain"
	"github.com/metro-mecard/mecard/internal/domain/customer"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/ils"
)

// Builder implements ils.RequestBuilder by staging records.
// GetCustomer and GetStatus fall through to the adaptor.
type Builder struct {
	ils.Adaptor
	cfg   config.BImportConfig
	msgs  config.MessagesConfig
	newID func() string
}

var _ ils.RequestBuilder = (*Builder)(nil)

// New creates a staging builder.
func New(cfg config.BImportConfig, msgs config.MessagesConfig) *Builder {
	return &Builder{
		Adaptor: ils.Adaptor{Backend: config.BackendBImport},
		cfg:     cfg,
		msgs:    msgs,
		newID:   func() string { return uuid.NewString()[:8] },
	}
}

// CreateUser stages c and returns a static success.
func (b *Builder) CreateUser(c *customer.Customer) (command.Command, error) {
	return b.stage(c)
}

// UpdateUser stages c; bimport adds or modifies by key, so it is the same as create.
func (b *Builder) UpdateUser(c *customer.Customer) (command.Command, error) {
	return b.stage(c)
}

func (b *Builder) stage(c *customer.Customer) (command.Command, error) {
	if c == nil || c.IsEmpty(customer.ID) {
		return nil, fmt.Errorf("bimport: customer id required: %w", domain.ErrInvalidCustomer)
	}
	if b.cfg.LoadDir == "" {
		return nil, fmt.Errorf("bimport: load_dir not set: %w", domain.ErrConfig)
	}

	rec := NewRecord(c, b.cfg)
	Normalize(c, rec, b.cfg)

	txID := TransactionID(c.Value(customer.ID), b.newID())
	path, err := b.write(StagedName(txID), rec.String())
	if err != nil {
		return nil, err
	}
	return command.NewStaticLabeled("staged "+path, command.Status{ExitCode: 0, Stdout: SuccessMarker}), nil
}

// write creates the staged file under a temporary name and renames it into
// place, so the loader never sees a partial record.
func (b *Builder) write(name, content string) (string, error) {
	tmp, err := os.CreateTemp(b.cfg.LoadDir, ".staging-*")
	if err != nil {
		return "", fmt.Errorf("bimport: create staged record: %w: %w", err, domain.ErrStaging)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("bimport: write staged record: %w: %w", err, domain.ErrStaging)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("bimport: close staged record: %w: %w", err, domain.ErrStaging)
	}

	path := filepath.Join(b.cfg.LoadDir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("bimport: publish staged record: %w: %w", err, domain.ErrStaging)
	}
	return path, nil
}

// TransactionID builds a file-safe transaction id from the customer key and a unique suffix.
func TransactionID(customerID, unique string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, customerID)
	return clean + "-" + unique
}

// IsSuccessful reports the staging outcome. A later batch failure is not reflected here.
func (b *Builder) IsSuccessful(q query.Type, st command.Status, resp *response.Response) bool {
	switch q {
	case query.CreateCustomer:
		ok := ils.Succeeded(st, SuccessMarker)
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.SuccessJoin, response.Fail, b.msgs.AccountNotCreated)
	case query.UpdateCustomer:
		ok := ils.Succeeded(st, SuccessMarker)
		return ils.Outcome(ok, st, resp, response.Success, b.msgs.SuccessUpdate, response.Fail, b.msgs.AccountNotUpdated)
	}
	return b.Adaptor.IsSuccessful(q, st, resp)
}

// WriteHeader provisions the header template in the load directory.
// An existing header is replaced.
func WriteHeader(cfg config.BImportConfig) (string, error) {
	if cfg.LoadDir == "" {
		return "", fmt.Errorf("bimport: load_dir not set: %w", domain.ErrConfig)
	}
	if err := os.MkdirAll(cfg.LoadDir, 0o750); err != nil {
		return "", fmt.Errorf("bimport: create load dir: %w", err)
	}
	path := HeaderPath(cfg.LoadDir)
	content := strings.Join(HeaderLines(cfg), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		return "", fmt.Errorf("bimport: write header: %w", err)
	}
	return path, nil
}
