package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the full target-state document for one database.
type Config struct {
	Database   Database   `yaml:"database"`
	Connection Connection `yaml:"connection,omitempty"`
	Properties Properties `yaml:"properties,omitempty"`
	Create     *Create    `yaml:"create,omitempty"`
}

// Database identifies the managed instance and its target lifecycle state.
type Database struct {
	Name       string `yaml:"name" validate:"required,db_name"`
	UniqueName string `yaml:"unique_name,omitempty"`
	SID        string `yaml:"sid,omitempty"`
	OracleHome string `yaml:"oracle_home,omitempty"`
	State      string `yaml:"state,omitempty" validate:"required,oneof=present absent started"`
	MustExist  bool   `yaml:"must_exist,omitempty"`
}

// Connection holds listener settings for the administrative session.
type Connection struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Sysdba reports whether the session should request the SYSDBA privilege.
// Only the sys account connects with it.
func (c Connection) Sysdba() bool {
	return strings.EqualFold(c.User, "sys")
}

// Properties is the declared durable configuration of the database.
type Properties struct {
	Archivelog            bool   `yaml:"archivelog,omitempty"`
	ForceLogging          bool   `yaml:"force_logging,omitempty"`
	Flashback             bool   `yaml:"flashback,omitempty"`
	DefaultTablespaceType string `yaml:"default_tablespace_type,omitempty" validate:"required,oneof=smallfile bigfile"`
	DefaultTablespace     string `yaml:"default_tablespace,omitempty"`
	DefaultTempTablespace string `yaml:"default_temp_tablespace,omitempty"`
}

// Create carries the options used only when the database must be created.
type Create struct {
	ResponseFile     string   `yaml:"responsefile,omitempty"`
	Template         string   `yaml:"template,omitempty"`
	SystemPassword   string   `yaml:"system_password,omitempty"`
	DBSnmpPassword   string   `yaml:"dbsnmp_password,omitempty"`
	Container        bool     `yaml:"container,omitempty"`
	LocalUndo        bool     `yaml:"local_undo,omitempty"`
	LocalUndoSet     bool     `yaml:"-"`
	DatafileDest     string   `yaml:"datafile_dest,omitempty"`
	RecoveryfileDest string   `yaml:"recoveryfile_dest,omitempty"`
	StorageType      string   `yaml:"storage_type,omitempty" validate:"required,oneof=FS ASM"`
	ConfigType       string   `yaml:"dbconfig_type,omitempty" validate:"required,oneof=SI RAC RACONENODE"`
	DatabaseType     string   `yaml:"db_type,omitempty" validate:"required,oneof=MULTIPURPOSE DATA_WAREHOUSING OLTP"`
	RACOneService    string   `yaml:"racone_service,omitempty"`
	CharacterSet     string   `yaml:"characterset,omitempty"`
	MemoryPercentage int      `yaml:"memory_percentage,omitempty" validate:"omitempty,min=1,max=100"`
	TotalMemoryMB    int      `yaml:"total_memory_mb,omitempty" validate:"omitempty,min=1"`
	TotalMemorySet   bool     `yaml:"-"`
	NodeList         []string `yaml:"nodelist,omitempty"`
	AMM              bool     `yaml:"amm,omitempty"`
	InitParams       []string `yaml:"initparams,omitempty" validate:"omitempty,dive,init_param"`
	CustomScripts    []string `yaml:"customscripts,omitempty"`
}

// UnmarshalYAML records which memory and undo keys the document actually set,
// so defaulting can tell an explicit value apart from an omitted one.
func (c *Create) UnmarshalYAML(value *yaml.Node) error {
	type rawCreate Create
	var temp rawCreate
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*c = Create(temp)
	c.LocalUndoSet = hasYAMLKey(value, "local_undo")
	c.TotalMemorySet = hasYAMLKey(value, "total_memory_mb")
	return nil
}

func hasYAMLKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i]
		if strings.EqualFold(k.Value, key) {
			return true
		}
	}
	return false
}
