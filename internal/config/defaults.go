package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/metro-mecard/mecard/internal/domain"
)

// DefaultFailedPattern matches bimport result lines such as "<error> 21221012345678 ...".
const DefaultFailedPattern = `^\s*<error>\s+(\S+)`

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8089
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 50
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 30
	}
	if c.Protocol.Delimiter == "" {
		c.Protocol.Delimiter = "|"
	}
	if c.ILS.CommandTimeoutSec <= 0 {
		c.ILS.CommandTimeoutSec = 60
	}
	c.applySymphonyDefaults()
	c.applySIP2Defaults()
	c.applyPolarisDefaults()
	c.applyBImportDefaults()
	c.applyLoaderDefaults()
	c.applyMessageDefaults()
	if c.Outcome.KeyPrefix == "" {
		c.Outcome.KeyPrefix = "mecard:"
	}
	if c.Outcome.TTLHours <= 0 {
		c.Outcome.TTLHours = 7 * 24
	}
}

func (c *Config) applySymphonyDefaults() {
	s := &c.Symphony
	if len(s.GetCustomerArgs) == 0 {
		s.GetCustomerArgs = []string{"/bin/bash", "-c", "seluser -iB -oU | dumpflatuser"}
	}
	if len(s.CreateArgs) == 0 {
		s.CreateArgs = []string{"loadflatuser", "-aU", "-bU", "-l", "ADMIN|PCGUI-DISC", "-mc", "-n", "-y"}
	}
	if len(s.UpdateArgs) == 0 {
		s.UpdateArgs = []string{"loadflatuser", "-aR", "-bR", "-l", "ADMIN|PCGUI-DISC", "-mu", "-n", "-y"}
	}
	if len(s.StatusArgs) == 0 {
		s.StatusArgs = []string{"getpathname", "api"}
	}
	setDefault(&s.GetCustomerMarker, ".USER_ID.")
	setDefault(&s.CreateMarker, "$<user> $(1402)")
	setDefault(&s.UpdateMarker, "$<user> $(1403)")
	setDefault(&s.UserPrefLang, "ENGLISH")
	setDefault(&s.UserStatus, "OK")
	setDefault(&s.UserRoutingFlag, "Y")
	setDefault(&s.UserChargeHistRule, "ALLCHARGES")
	setDefault(&s.UserAccess, "PUBLIC")
	setDefault(&s.UserEnvironment, "PUBLIC")
}

func (c *Config) applySIP2Defaults() {
	s := &c.SIP2
	if s.Port <= 0 {
		s.Port = 6001
	}
	if len(s.GetCustomerArgs) == 0 {
		s.GetCustomerArgs = []string{
			"sipclient", "-host", "{host}", "-port", "{port}", "-user", "{user}",
			"-password", "{password}", "-institution", "{institution}",
			"-patron", "{id}", "-pin", "{pin}", "patron-information",
		}
	}
	if len(s.StatusArgs) == 0 {
		s.StatusArgs = []string{
			"sipclient", "-host", "{host}", "-port", "{port}", "-user", "{user}",
			"-password", "{password}", "-institution", "{institution}", "sc-status",
		}
	}
	setDefault(&s.ValidPatronMark, "|BLY|")
	setDefault(&s.OnlineStatusMark, "98Y")
}

func (c *Config) applyPolarisDefaults() {
	p := &c.Polaris
	base := []string{"polaris-papi", "-server", "{server}", "-user", "{user}", "-password", "{password}"}
	if len(p.GetCustomerArgs) == 0 {
		p.GetCustomerArgs = append(append([]string{}, base...), "patron-get", "-barcode", "{id}", "-pin", "{pin}")
	}
	if len(p.CreateArgs) == 0 {
		p.CreateArgs = append(append([]string{}, base...),
			"patron-create", "-org", "{org}", "-barcode", "{id}", "-pin", "{pin}",
			"-first", "{first}", "-last", "{last}", "-street", "{street}", "-city", "{city}",
			"-state", "{province}", "-postal", "{postal}", "-email", "{email}", "-phone", "{phone}",
			"-birthdate", "{dob}", "-expires", "{expiry}", "-gender", "{sex}")
	}
	if len(p.UpdateArgs) == 0 {
		p.UpdateArgs = append(append([]string{}, base...),
			"patron-update", "-barcode", "{id}", "-pin", "{pin}", "-street", "{street}", "-city", "{city}",
			"-state", "{province}", "-postal", "{postal}", "-email", "{email}", "-phone", "{phone}",
			"-expires", "{expiry}")
	}
	if len(p.StatusArgs) == 0 {
		p.StatusArgs = append(append([]string{}, base...), "api-status")
	}
	setDefault(&p.SuccessMarker, `"PAPIErrorCode":0`)
}

func (c *Config) applyBImportDefaults() {
	b := &c.BImport
	setDefault(&b.Executable, "bimport")
	setDefault(&b.Version, "fm41")
	setDefault(&b.BType, "bawb")
	setDefault(&b.MailType, "dom")
	setDefault(&b.UniqueKey, "second_id")
	setDefault(&b.PhoneType, "h-noTC")
	f := &b.Flags
	setDefault(&f.Server, "/s")
	setDefault(&f.User, "/u")
	setDefault(&f.Password, "/p")
	setDefault(&f.Database, "/d")
	setDefault(&f.Alias, "/a")
	setDefault(&f.Header, "/h")
	setDefault(&f.Data, "/i")
	setDefault(&f.Key, "/k")
	setDefault(&f.Format, "/f")
	setDefault(&f.BType, "/b")
	setDefault(&f.MailType, "/m")
	setDefault(&f.Location, "/l")
	setDefault(&f.Indexed, "/n")
}

func (c *Config) applyLoaderDefaults() {
	l := &c.Loader
	setDefault(&l.LockDir, ".")
	setDefault(&l.LockFile, "metro-load.pid")
	setDefault(&l.FailureDir, c.BImport.LoadDir)
	setDefault(&l.FailedPattern, DefaultFailedPattern)
	if l.IntervalSec <= 0 {
		l.IntervalSec = 300
	}
	if l.TimeoutSec <= 0 {
		l.TimeoutSec = 1800
	}
	if l.StaleLockSec <= 0 {
		l.StaleLockSec = 2 * l.TimeoutSec
	}
	if l.DebounceMillis <= 0 {
		l.DebounceMillis = 2000
	}
	if l.RetainCombined == nil {
		retain := true
		l.RetainCombined = &retain
	}
}

func (c *Config) applyMessageDefaults() {
	m := &c.Messages
	setDefault(&m.SuccessJoin, "Welcome! Your account has been created.")
	setDefault(&m.SuccessUpdate, "Your account has been updated.")
	setDefault(&m.AccountNotCreated, "Sorry, your account could not be created. Please contact the library.")
	setDefault(&m.AccountNotUpdated, "Sorry, your account could not be updated. Please contact the library.")
	setDefault(&m.CustomerFound, "customer found")
	setDefault(&m.CustomerNotFound, "Sorry, we could not find your account.")
	setDefault(&m.ILSAvailable, "ILS available")
	setDefault(&m.ILSUnavailable, "ILS unavailable")
	setDefault(&m.NullResponse, "null command back at you")
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.ILS.Backend {
	case BackendSymphony, BackendDebug:
	case BackendSIP2:
		if c.SIP2.Host == "" {
			return missing("sip2.host")
		}
	case BackendPolaris:
		if c.Polaris.Server == "" {
			return missing("polaris.server")
		}
	case BackendBImport:
		if err := c.ValidateBImport(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("ils.backend must be one of symphony, sip2, bimport, polaris, debug, got %q: %w",
			c.ILS.Backend, domain.ErrConfig)
	}
	if c.Outcome.Enabled && len(c.Outcome.Addrs) == 0 {
		return missing("outcome.addrs")
	}
	return nil
}

// ValidateBImport checks the properties the bimport staging path and loader require.
func (c *Config) ValidateBImport() error {
	b := c.BImport
	required := []struct {
		name, val string
	}{
		{"bimport.load_dir", b.LoadDir},
		{"bimport.server", b.Server},
		{"bimport.user", b.User},
		{"bimport.database", b.Database},
		{"bimport.location", b.Location},
	}
	for _, r := range required {
		if r.val == "" {
			return missing(r.name)
		}
	}
	switch b.Encoding {
	case "", "utf-8", "windows-1252":
	default:
		return fmt.Errorf("bimport.encoding must be \"utf-8\" or \"windows-1252\", got %q: %w", b.Encoding, domain.ErrConfig)
	}
	if _, err := regexp.Compile(c.Loader.FailedPattern); err != nil {
		return fmt.Errorf("loader.failed_pattern: %w: %w", err, domain.ErrConfig)
	}
	return nil
}

func missing(name string) error {
	return fmt.Errorf("%s is required: %w", name, domain.ErrConfig)
}

func setDefault(field *string, val string) {
	if *field == "" {
		*field = val
	}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, domain.ErrConfig)
}
