package loader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain"
)

// Config is the settings for one loader. It is a value; nothing in this
// package keeps process-wide state.
type Config struct {
	LoadDir    string
	LockPath   string
	FailureDir string
	// Upload runs the bimport tool; without it the run only combines and cleans.
	Upload         bool
	Timeout        time.Duration
	StaleAfter     time.Duration
	RetainCombined bool
	// Encoding of the combined file: "" or "utf-8" writes UTF-8, "windows-1252" transcodes.
	Encoding      string
	FailedPattern *regexp.Regexp
	Tool          config.BImportConfig
}

// ConfigFrom derives loader settings from the application configuration.
func ConfigFrom(cfg config.Config) (Config, error) {
	if err := cfg.ValidateBImport(); err != nil {
		return Config{}, err
	}
	re, err := regexp.Compile(cfg.Loader.FailedPattern)
	if err != nil {
		return Config{}, fmt.Errorf("loader.failed_pattern: %w: %w", err, domain.ErrConfig)
	}
	if re.NumSubexp() < 1 {
		return Config{}, fmt.Errorf("loader.failed_pattern needs a capture group for the customer key: %w", domain.ErrConfig)
	}
	retain := true
	if cfg.Loader.RetainCombined != nil {
		retain = *cfg.Loader.RetainCombined
	}
	return Config{
		LoadDir:        cfg.BImport.LoadDir,
		LockPath:       filepath.Join(cfg.Loader.LockDir, cfg.Loader.LockFile),
		FailureDir:     cfg.Loader.FailureDir,
		Upload:         cfg.Loader.Upload,
		Timeout:        time.Duration(cfg.Loader.TimeoutSec) * time.Second,
		StaleAfter:     time.Duration(cfg.Loader.StaleLockSec) * time.Second,
		RetainCombined: retain,
		Encoding:       cfg.BImport.Encoding,
		FailedPattern:  re,
		Tool:           cfg.BImport,
	}, nil
}
