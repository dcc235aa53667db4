// Package config loads the ledgerkit deployment configuration.
//
// Configuration comes from an optional YAML file plus environment
// overrides; every field has a working default so a bare deployment
// needs no file at all. The BALANCE_FILE variable overrides the primary
// ledger path, matching how the bot has always been pointed at its data.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvBalanceFile overrides Config.LedgerPath when set.
const EnvBalanceFile = "BALANCE_FILE"

// DefaultLedgerPath is the primary blob location when nothing else is
// configured.
const DefaultLedgerPath = "balance.json"

// Config is the full deployment configuration.
type Config struct {
	// LedgerPath is the primary ledger blob location.
	LedgerPath string `yaml:"ledger_path"`

	// BackupDir holds backup generations. Defaults to a "backups"
	// directory next to the ledger file.
	BackupDir string `yaml:"backup_dir"`

	// BackupKeep is how many backup generations Prune retains.
	// Negative disables pruning. Default 50.
	BackupKeep int `yaml:"backup_keep"`

	// AuditDB is the SQLite audit log path. Empty disables the audit
	// sink (changes are still logged).
	AuditDB string `yaml:"audit_db"`

	// Verbose switches logging to debug level.
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LedgerPath: DefaultLedgerPath,
		BackupKeep: 50,
	}
}

// Load reads the YAML file at path, fills in defaults, and applies
// environment overrides. An empty path (or a missing file at the
// default location) yields the defaults with overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if env := os.Getenv(EnvBalanceFile); env != "" {
		cfg.LedgerPath = env
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = DefaultLedgerPath
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(filepath.Dir(cfg.LedgerPath), "backups")
	}
	return cfg, nil
}
