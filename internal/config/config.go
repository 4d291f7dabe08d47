package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendSymphony = "symphony"
	BackendSIP2     = "sip2"
	BackendBImport  = "bimport"
	BackendPolaris  = "polaris"
	BackendDebug    = "debug"
)

// Config holds the MeCard server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Protocol ProtocolConfig `yaml:"protocol"`
	ILS      ILSConfig      `yaml:"ils"`
	Symphony SymphonyConfig `yaml:"symphony"`
	SIP2     SIP2Config     `yaml:"sip2"`
	Polaris  PolarisConfig  `yaml:"polaris"`
	BImport  BImportConfig  `yaml:"bimport"`
	Debug    DebugConfig    `yaml:"debug"`
	Loader   LoaderConfig   `yaml:"loader"`
	Outcome  OutcomeConfig  `yaml:"outcome"`
	Messages MessagesConfig `yaml:"messages"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	// File enables rotated file output in addition to the console.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds admin HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ProtocolConfig holds response line settings.
type ProtocolConfig struct {
	Delimiter string `yaml:"delimiter"`
}

// ILSConfig selects the backend this server talks to.
type ILSConfig struct {
	Backend           string `yaml:"backend"` // symphony, sip2, bimport, polaris, debug
	CommandTimeoutSec int    `yaml:"command_timeout_sec"`
}

// SymphonyConfig holds Symphony flat-file loader settings.
type SymphonyConfig struct {
	GetCustomerArgs []string `yaml:"get_customer_args"`
	CreateArgs      []string `yaml:"create_args"`
	UpdateArgs      []string `yaml:"update_args"`
	StatusArgs      []string `yaml:"status_args"`

	GetCustomerMarker string `yaml:"get_customer_marker"`
	CreateMarker      string `yaml:"create_marker"`
	UpdateMarker      string `yaml:"update_marker"`
	StatusMarker      string `yaml:"status_marker"`

	UserLibrary        string `yaml:"user_library"`
	UserProfile        string `yaml:"user_profile"`
	UserPrefLang       string `yaml:"user_pref_lang"`
	UserStatus         string `yaml:"user_status"`
	UserRoutingFlag    string `yaml:"user_routing_flag"`
	UserChargeHistRule string `yaml:"user_chg_hist_rule"`
	UserAccess         string `yaml:"user_access"`
	UserEnvironment    string `yaml:"user_environment"`
}

// SIP2Config holds settings for the external SIP2 client tool.
type SIP2Config struct {
	Host             string   `yaml:"host"`
	Port             int      `yaml:"port"`
	User             string   `yaml:"user"`
	Password         string   `yaml:"password"`
	Institution      string   `yaml:"institution"`
	GetCustomerArgs  []string `yaml:"get_customer_args"`
	StatusArgs       []string `yaml:"status_args"`
	ValidPatronMark  string   `yaml:"valid_patron_marker"`
	OnlineStatusMark string   `yaml:"online_status_marker"`
}

// PolarisConfig holds settings for the external Polaris API client tool.
type PolarisConfig struct {
	Server          string   `yaml:"server"`
	User            string   `yaml:"user"`
	Password        string   `yaml:"password"`
	OrgID           string   `yaml:"org_id"`
	GetCustomerArgs []string `yaml:"get_customer_args"`
	CreateArgs      []string `yaml:"create_args"`
	UpdateArgs      []string `yaml:"update_args"`
	StatusArgs      []string `yaml:"status_args"`
	SuccessMarker   string   `yaml:"success_marker"`
}

// BImportConfig holds Horizon bimport settings.
type BImportConfig struct {
	LoadDir     string `yaml:"load_dir"`
	BImportDir  string `yaml:"bimport_dir"`
	Executable  string `yaml:"executable"`
	Server      string `yaml:"server"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	ServerAlias string `yaml:"server_alias"`
	Version     string `yaml:"version"`   // like fm41
	BType       string `yaml:"btype"`     // like bawb
	MailType    string `yaml:"mail_type"` // dom
	Location    string `yaml:"location"`  // like lalap
	Indexed     bool   `yaml:"indexed"`
	UniqueKey   string `yaml:"unique_key"`
	PhoneType   string `yaml:"phone_type"`
	// Encoding of the combined data file: "" (utf-8) or "windows-1252".
	Encoding string `yaml:"encoding"`
	// BStats are appended to every staged record.
	BStats []string `yaml:"bstats"`
	// SexBStat appends m/f/u derived from the customer's sex.
	SexBStat bool              `yaml:"sex_bstat"`
	Flags    BImportFlagConfig `yaml:"flags"`
}

// BImportFlagConfig holds the switch spellings the bimport tool expects.
type BImportFlagConfig struct {
	Server   string `yaml:"server"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Alias    string `yaml:"alias"`
	Header   string `yaml:"header"`
	Data     string `yaml:"data"`
	Key      string `yaml:"key"`
	Format   string `yaml:"format"`
	BType    string `yaml:"btype"`
	MailType string `yaml:"mail_type"`
	Location string `yaml:"location"`
	Indexed  string `yaml:"indexed"`
}

// DebugConfig holds canned results for the debug backend.
type DebugConfig struct {
	StatusResult         string `yaml:"status_result"`
	GetCustomerResult    string `yaml:"get_customer_result"`
	CreateCustomerResult string `yaml:"create_customer_result"`
	UpdateCustomerResult string `yaml:"update_customer_result"`
	NullResult           string `yaml:"null_result"`
}

// LoaderConfig holds deferred batch loader settings.
type LoaderConfig struct {
	// Enabled runs the scheduler inside the server process.
	Enabled        bool   `yaml:"enabled"`
	Upload         bool   `yaml:"upload"`
	LockDir        string `yaml:"lock_dir"`
	LockFile       string `yaml:"lock_file"`
	FailureDir     string `yaml:"failure_dir"`
	IntervalSec    int    `yaml:"interval_sec"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	StaleLockSec   int    `yaml:"stale_lock_sec"`
	Watch          bool   `yaml:"watch"`
	DebounceMillis int    `yaml:"debounce_ms"`
	RetainCombined *bool  `yaml:"retain_combined"`
	// FailedPattern matches a failed record line; group 1 captures the customer key.
	FailedPattern string `yaml:"failed_pattern"`
}

// OutcomeConfig holds the Valkey store used to publish failed transactions.
type OutcomeConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
	TTLHours  int      `yaml:"ttl_hours"`
}

// MessagesConfig holds the customer-facing message text per outcome.
type MessagesConfig struct {
	SuccessJoin       string `yaml:"success_join"`
	SuccessUpdate     string `yaml:"success_update"`
	AccountNotCreated string `yaml:"account_not_created"`
	AccountNotUpdated string `yaml:"account_not_updated"`
	CustomerFound     string `yaml:"customer_found"`
	CustomerNotFound  string `yaml:"customer_not_found"`
	ILSAvailable      string `yaml:"ils_available"`
	ILSUnavailable    string `yaml:"ils_unavailable"`
	NullResponse      string `yaml:"null_response"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
