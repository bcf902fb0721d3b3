package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	oraerrors "github.com/oraops/oradbctl/pkg/errors"
)

// EnvSysPassword is consulted when connection.password is absent from the
// document. EnvOracleHome fills database.oracle_home the same way.
const (
	EnvSysPassword = "ORADBCTL_SYS_PASSWORD"
	EnvOracleHome  = "ORACLE_HOME"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig loads a target-state document from disk, applies defaults and
// environment fallbacks, validates it, and returns the resulting model.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oraerrors.NewParseError(path, 0, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, oraerrors.NewParseError(path, extractLine(err), err)
	}

	ApplyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills omitted fields with their documented defaults. The
// Oracle home and sys password fall back to the environment so documents can
// stay free of secrets and host-local paths.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Database.State == "" {
		cfg.Database.State = "present"
	}
	if cfg.Database.OracleHome == "" {
		cfg.Database.OracleHome = os.Getenv(EnvOracleHome)
	}

	if cfg.Connection.Host == "" {
		cfg.Connection.Host = "localhost"
	}
	if cfg.Connection.Port == 0 {
		cfg.Connection.Port = 1521
	}
	if cfg.Connection.User == "" {
		cfg.Connection.User = "sys"
	}
	if cfg.Connection.Password == "" {
		cfg.Connection.Password = os.Getenv(EnvSysPassword)
	}

	if cfg.Properties.DefaultTablespaceType == "" {
		cfg.Properties.DefaultTablespaceType = "smallfile"
	}

	if cfg.Create == nil {
		cfg.Create = &Create{}
	}
	if cfg.Create.Template == "" {
		cfg.Create.Template = "General_Purpose.dbc"
	}
	if cfg.Create.StorageType == "" {
		cfg.Create.StorageType = "FS"
	}
	if cfg.Create.ConfigType == "" {
		cfg.Create.ConfigType = "SI"
	}
	if cfg.Create.DatabaseType == "" {
		cfg.Create.DatabaseType = "MULTIPURPOSE"
	}
	if cfg.Create.CharacterSet == "" {
		cfg.Create.CharacterSet = "AL32UTF8"
	}
	if !cfg.Create.LocalUndoSet {
		cfg.Create.LocalUndo = true
	}
	if !cfg.Create.TotalMemorySet && cfg.Create.TotalMemoryMB == 0 {
		cfg.Create.TotalMemoryMB = 1024
	}
	if cfg.Create.SystemPassword == "" {
		cfg.Create.SystemPassword = cfg.Connection.Password
	}
	if cfg.Create.DBSnmpPassword == "" {
		cfg.Create.DBSnmpPassword = cfg.Connection.Password
	}
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
