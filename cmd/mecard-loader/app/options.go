package app

import (
	"github.com/spf13/pflag"

	"github.com/metro-mecard/mecard/internal/config"
)

// Options holds the flags shared by every subcommand.
type Options struct {
	ConfigFile string
	LockDir    string
	Upload     bool
	LogLevel   string
}

// AddFlags registers the shared flags on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", "", "config file (default: config/<ENV>.yaml)")
	fs.StringVarP(&o.LockDir, "pid-dir", "p", "", "directory for the lock file (overrides loader.lock_dir)")
	fs.BoolVarP(&o.Upload, "upload", "U", false, "run the bimport tool; without it staged records are only combined and cleaned")
	fs.StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error (overrides logging.level)")
}

// Load reads the configuration and applies flag overrides.
func (o *Options) Load(uploadSet bool) (config.Config, string, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if o.ConfigFile != "" {
		cfg, err = config.LoadFile(o.ConfigFile)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", err
	}
	if o.LockDir != "" {
		cfg.Loader.LockDir = o.LockDir
	}
	if uploadSet {
		cfg.Loader.Upload = o.Upload
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	return cfg, env, nil
}
