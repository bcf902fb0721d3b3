package errors

import (
	"fmt"
	"strings"
)

// ConfigError reports a target-state document or credential problem detected
// before any reconciliation work starts.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

// NewConfigError constructs a ConfigError.
func NewConfigError(field, message string, err error) error {
	return &ConfigError{Field: field, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError reports a target-state document that could not be read or
// decoded. Line is zero when the position is unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	return &ParseError{Path: path, Line: line, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NotFoundError reports that the named database is not present in the
// instance registry for the current control mode.
type NotFoundError struct {
	Name string
}

// NewNotFoundError constructs a NotFoundError.
func NewNotFoundError(name string) error {
	return &NotFoundError{Name: name}
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("database %s not found", e.Name)
}

// DivergentInstallationError reports that the database already exists but is
// registered under a different Oracle home than the one requested. The same
// logical database cannot straddle two installations, so this is never
// resolved automatically.
type DivergentInstallationError struct {
	Name           string
	RequestedHome  string
	RegisteredHome string
	Detail         string
}

// NewDivergentInstallationError constructs a DivergentInstallationError.
func NewDivergentInstallationError(name, requested, registered, detail string) error {
	return &DivergentInstallationError{
		Name:           name,
		RequestedHome:  requested,
		RegisteredHome: registered,
		Detail:         detail,
	}
}

func (e *DivergentInstallationError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("database %s already exists in a different Oracle home", e.Name)
	if e.RegisteredHome != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.RegisteredHome)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// CommandError reports a failed external command. Stdout and stderr are
// captured verbatim so the operator sees exactly what the tool saw.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// NewCommandError constructs a CommandError.
func NewCommandError(argv []string, exitCode int, stdout, stderr string, err error) error {
	return &CommandError{Argv: argv, ExitCode: exitCode, Stdout: stdout, Stderr: stderr, Err: err}
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	cmd := strings.Join(e.Argv, " ")
	if e.Err != nil {
		return fmt.Sprintf("command failed: %v - COMMAND: %s", e.Err, cmd)
	}
	return fmt.Sprintf("command exited %d - STDOUT: %s, STDERR: %s, COMMAND: %s", e.ExitCode, e.Stdout, e.Stderr, cmd)
}

// Unwrap exposes the spawn error, if any.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SQLError reports a failed statement on the administrative session. It
// covers both read failures during observation and ALTER DATABASE failures
// during plan execution.
type SQLError struct {
	Statement string
	Err       error
}

// NewSQLError constructs a SQLError.
func NewSQLError(statement string, err error) error {
	return &SQLError{Statement: statement, Err: err}
}

func (e *SQLError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("sql error: %v - STATEMENT: %s", e.Err, e.Statement)
}

// Unwrap exposes the driver error.
func (e *SQLError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
