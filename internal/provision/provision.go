package provision

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/oraops/oradbctl/internal/config"
	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/runner"
	oraerrors "github.com/oraops/oradbctl/pkg/errors"
)

// Provisioner creates and removes databases through dbca and probes the
// installed software release.
type Provisioner struct {
	run runner.Runner
	fs  afero.Fs
	log *logger.Logger
}

// New creates a Provisioner.
func New(run runner.Runner, fs afero.Fs, log *logger.Logger) *Provisioner {
	return &Provisioner{run: run, fs: fs, log: log.WithComponent("provision")}
}

// Version probes the software release of an Oracle home and returns it as
// major.minor, for example "19.0" or "12.2".
func (p *Provisioner) Version(ctx context.Context, home string) (string, error) {
	cmd := runner.Command{
		Path: filepath.Join(home, "bin", "sqlplus"),
		Args: []string{"-V"},
	}
	res, err := p.run.Run(ctx, cmd)
	if err != nil {
		return "", oraerrors.NewCommandError(cmd.Argv(), -1, "", "", err)
	}
	if res.ExitCode != 0 {
		return "", oraerrors.NewCommandError(cmd.Argv(), res.ExitCode, res.Stdout, res.Stderr, nil)
	}

	// Banner shape: "SQL*Plus: Release 19.0.0.0.0 - Production".
	fields := strings.Fields(res.Stdout)
	if len(fields) < 3 {
		return "", fmt.Errorf("unexpected sqlplus -V output %q", res.Stdout)
	}
	parts := strings.SplitN(fields[2], ".", 3)
	if len(parts) < 2 {
		return "", fmt.Errorf("unexpected release token %q in sqlplus -V output", fields[2])
	}
	return parts[0] + "." + parts[1], nil
}

// CreateRequest carries everything dbca needs to create one database.
type CreateRequest struct {
	Name        string
	SID         string
	UniqueName  string
	Home        string
	Version     string
	SysPassword string
	Options     config.Create
}

// CreateArgs renders the dbca argument list for the request. A response file
// replaces the whole flag set; only init parameters ride along with it.
func (p *Provisioner) CreateArgs(req CreateRequest) ([]string, error) {
	args := []string{"-createDatabase", "-silent"}
	opts := req.Options

	if opts.ResponseFile != "" {
		ok, err := afero.Exists(p.fs, opts.ResponseFile)
		if err != nil || !ok {
			return nil, oraerrors.NewConfigError("create.responsefile",
				fmt.Sprintf("responsefile %s doesn't exist", opts.ResponseFile), err)
		}
		args = append(args, "-responseFile", opts.ResponseFile)
		if params := initParams(req); len(params) > 0 {
			args = append(args, "-initParams", strings.Join(params, ","))
		}
		return args, nil
	}

	args = append(args, "-gdbName", req.Name)
	if req.SID != "" {
		args = append(args, "-sid", req.SID)
	}

	systemPassword := opts.SystemPassword
	if systemPassword == "" {
		systemPassword = req.SysPassword
	}
	dbsnmpPassword := opts.DBSnmpPassword
	if dbsnmpPassword == "" {
		dbsnmpPassword = req.SysPassword
	}
	args = append(args,
		"-sysPassword", req.SysPassword,
		"-systemPassword", systemPassword,
		"-dbsnmpPassword", dbsnmpPassword,
	)

	if opts.Template != "" {
		args = append(args, "-templateName", opts.Template)
	}

	if releaseAtLeast(req.Version, 12, 1) {
		if opts.Container {
			args = append(args, "-createAsContainerDatabase", "true",
				"-useLocalUndoForPDBs", strconv.FormatBool(opts.LocalUndo))
		} else {
			args = append(args, "-createAsContainerDatabase", "false")
		}
	}

	if opts.DatafileDest != "" {
		args = append(args, "-datafileDestination", opts.DatafileDest)
	}
	if opts.RecoveryfileDest != "" {
		args = append(args, "-recoveryAreaDestination", opts.RecoveryfileDest)
	}
	if opts.StorageType != "" {
		args = append(args, "-storageType", opts.StorageType)
	}

	// dbca renamed the flag in 12.2; before 12.1 the topology came from the
	// template alone.
	configType := opts.ConfigType
	if configType == "SI" {
		configType = "SINGLE"
	}
	if releaseAtLeast(req.Version, 12, 2) {
		args = append(args, "-databaseConfigType", configType)
	} else if releaseEquals(req.Version, 12, 1) {
		args = append(args, "-databaseConfType", configType)
	}

	if opts.ConfigType == "RACONENODE" {
		service := opts.RACOneService
		if service == "" {
			service = req.Name + "_ronserv"
		}
		args = append(args, "-RACOneNodeServiceName", service)
	}

	if opts.CharacterSet != "" {
		args = append(args, "-characterSet", opts.CharacterSet)
	}

	if opts.MemoryPercentage > 0 {
		args = append(args, "-memoryPercentage", strconv.Itoa(opts.MemoryPercentage))
	} else if opts.TotalMemoryMB > 0 {
		args = append(args, "-totalMemory", strconv.Itoa(opts.TotalMemoryMB))
	}

	if opts.ConfigType == "RAC" && len(opts.NodeList) > 0 {
		args = append(args, "-nodelist", strings.Join(opts.NodeList, ","))
	}

	if opts.DatabaseType != "" {
		args = append(args, "-databaseType", opts.DatabaseType)
	}

	args = append(args, memoryManagementArgs(req.Version, opts.AMM)...)

	if len(opts.CustomScripts) > 0 {
		args = append(args, "-customScripts", strings.Join(opts.CustomScripts, ","))
	}

	if params := initParams(req); len(params) > 0 {
		args = append(args, "-initParams", strings.Join(params, ","))
	}

	return args, nil
}

// Create runs dbca to create the database described by the request.
func (p *Provisioner) Create(ctx context.Context, req CreateRequest) error {
	args, err := p.CreateArgs(req)
	if err != nil {
		return err
	}

	cmd := runner.Command{
		Path: filepath.Join(req.Home, "bin", "dbca"),
		Args: args,
	}
	p.log.WithDatabase(req.Name).Info("creating database")

	res, err := p.run.Run(ctx, cmd)
	if err != nil {
		return oraerrors.NewCommandError(cmd.Argv(), -1, "", "", err)
	}
	if res.ExitCode != 0 {
		return oraerrors.NewCommandError(cmd.Argv(), res.ExitCode, res.Stdout, res.Stderr, nil)
	}
	return nil
}

// Remove runs dbca to delete the database. The source name depends on the
// control mode and, when an instance id is declared, on whether the topology
// is RAC: a RAC database is always deleted by database name, never by one
// instance's id.
func (p *Provisioner) Remove(ctx context.Context, id model.InstanceIdentity, topo model.Topology, sysPassword string) error {
	cmd := runner.Command{
		Path: filepath.Join(id.Home, "bin", "dbca"),
		Args: []string{
			"-deleteDatabase", "-silent",
			"-sourceDB", RemovalSource(id, topo),
			"-sysDBAUserName", "sys",
			"-sysDBAPassword", sysPassword,
		},
	}
	p.log.WithDatabase(id.Name).Info("removing database")

	res, err := p.run.Run(ctx, cmd)
	if err != nil {
		return oraerrors.NewCommandError(cmd.Argv(), -1, "", "", err)
	}
	if res.ExitCode != 0 {
		return oraerrors.NewCommandError(cmd.Argv(), res.ExitCode, res.Stdout, res.Stderr, nil)
	}
	return nil
}

// RemovalSource resolves the -sourceDB identifier for a delete.
func RemovalSource(id model.InstanceIdentity, topo model.Topology) string {
	if id.Mode == model.ClusterManaged {
		switch {
		case id.UniqueName != "":
			return id.UniqueName
		case id.SID != "" && topo.IsRAC:
			return id.Name
		case id.SID != "":
			return id.SID
		default:
			return id.Name
		}
	}
	return id.EffectiveSID()
}

func initParams(req CreateRequest) []string {
	var pairs []string
	if req.UniqueName != "" {
		pairs = append(pairs, "db_name="+req.Name, "db_unique_name="+req.UniqueName)
	}
	pairs = append(pairs, req.Options.InitParams...)
	return pairs
}

// memoryManagementArgs maps the automatic memory management choice onto the
// flag each release generation understands.
func memoryManagementArgs(version string, amm bool) []string {
	switch {
	case releaseAtLeast(version, 12, 2):
		if amm {
			return []string{"-memoryMgmtType", "AUTO"}
		}
		return []string{"-memoryMgmtType", "AUTO_SGA"}
	case releaseEquals(version, 12, 1):
		return []string{"-automaticMemoryManagement", strconv.FormatBool(amm)}
	case releaseEquals(version, 11, 2):
		if amm {
			return []string{"-automaticMemoryManagement"}
		}
	}
	return nil
}

func parseRelease(v string) (major, minor int) {
	parts := strings.SplitN(v, ".", 3)
	major, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}

func releaseAtLeast(v string, major, minor int) bool {
	ma, mi := parseRelease(v)
	if ma != major {
		return ma > major
	}
	return mi >= minor
}

func releaseEquals(v string, major, minor int) bool {
	ma, mi := parseRelease(v)
	return ma == major && mi == minor
}
