package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	oraerrors "github.com/oraops/oradbctl/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	// Database names start with a letter and run at most eight characters,
	// the portion dbca uses for the SID prefix.
	dbNamePattern    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_$#]{0,7}$`)
	initParamPattern = regexp.MustCompile(`^[^=\s]+=.+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("db_name", func(fl validator.FieldLevel) bool {
			return dbNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("init_param", func(fl validator.FieldLevel) bool {
			return initParamPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the document.
// It expects defaults to have been applied already.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return oraerrors.NewConfigError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if cfg.Database.OracleHome == "" {
		return oraerrors.NewConfigError("database.oracle_home",
			fmt.Sprintf("no Oracle home: set database.oracle_home or %s", EnvOracleHome), nil)
	}
	if cfg.Connection.Password == "" {
		return oraerrors.NewConfigError("connection.password",
			fmt.Sprintf("no password for %s: set connection.password or %s", cfg.Connection.User, EnvSysPassword), nil)
	}

	if cfg.Create != nil {
		if err := validateCreate(cfg.Create); err != nil {
			return err
		}
	}

	return nil
}

func validateCreate(c *Create) error {
	if c.MemoryPercentage > 0 && c.TotalMemorySet {
		return oraerrors.NewConfigError("create.memory_percentage",
			"memory_percentage and total_memory_mb are mutually exclusive", nil)
	}

	if c.ConfigType == "RAC" && len(c.NodeList) == 0 {
		return oraerrors.NewConfigError("create.nodelist",
			"a RAC database needs at least one node in nodelist", nil)
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return oraerrors.NewConfigError(field, msg, err)
	}

	return oraerrors.NewConfigError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
