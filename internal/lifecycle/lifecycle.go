package lifecycle

import (
	"context"
	"path/filepath"

	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/runner"
	oraerrors "github.com/oraops/oradbctl/pkg/errors"
)

// Backend drives stop/start transitions for one control mode. A backend is
// selected once at the start of a pass and injected wherever lifecycle
// operations are needed; callers never branch on mode themselves.
type Backend interface {
	// Stop shuts the database down with the immediate option.
	Stop(ctx context.Context, id model.InstanceIdentity) error
	// Start opens the database normally.
	Start(ctx context.Context, id model.InstanceIdentity) error
	// StartMount brings the database to the mount state. On a RAC topology
	// only the instance the session observed is started.
	StartMount(ctx context.Context, id model.InstanceIdentity, topo model.Topology) error
}

// Select returns the backend for the given control mode.
func Select(mode model.ControlMode, run runner.Runner, log *logger.Logger) Backend {
	if mode == model.ClusterManaged {
		return &clusterBackend{run: run, log: log.WithComponent("lifecycle")}
	}
	return &standaloneBackend{run: run, log: log.WithComponent("lifecycle")}
}

// clusterBackend delegates lifecycle transitions to srvctl.
type clusterBackend struct {
	run runner.Runner
	log *logger.Logger
}

func (b *clusterBackend) Stop(ctx context.Context, id model.InstanceIdentity) error {
	b.log.WithDatabase(id.Name).Info("stopping database")
	return b.srvctl(ctx, id, "stop", "database", "-d", id.Target(), "-o", "immediate")
}

func (b *clusterBackend) Start(ctx context.Context, id model.InstanceIdentity) error {
	b.log.WithDatabase(id.Name).Info("starting database")
	return b.srvctl(ctx, id, "start", "database", "-d", id.Target())
}

func (b *clusterBackend) StartMount(ctx context.Context, id model.InstanceIdentity, topo model.Topology) error {
	b.log.WithDatabase(id.Name).Info("starting database to mount state")
	if topo.IsRAC {
		return b.srvctl(ctx, id, "start", "instance", "-d", id.Target(), "-i", topo.InstanceName, "-o", "mount")
	}
	return b.srvctl(ctx, id, "start", "database", "-d", id.Target(), "-o", "mount")
}

func (b *clusterBackend) srvctl(ctx context.Context, id model.InstanceIdentity, args ...string) error {
	cmd := runner.Command{
		Path: filepath.Join(id.Home, "bin", "srvctl"),
		Args: args,
	}
	res, err := b.run.Run(ctx, cmd)
	if err != nil {
		return oraerrors.NewCommandError(cmd.Argv(), -1, "", "", err)
	}
	if res.ExitCode != 0 {
		return oraerrors.NewCommandError(cmd.Argv(), res.ExitCode, res.Stdout, res.Stderr, nil)
	}
	return nil
}

// Scripts fed to sqlplus on stdin. The instance is addressed through the
// ORACLE_SID environment of the spawned process, never the process-global
// environment of this tool.
const (
	shutdownScript = "connect / as sysdba\nshutdown immediate;\nexit\n"
	startupScript  = "connect / as sysdba\nstartup;\nexit\n"
	mountScript    = "connect / as sysdba\nstartup mount;\nexit\n"
)

// standaloneBackend drives a local instance through sqlplus.
type standaloneBackend struct {
	run runner.Runner
	log *logger.Logger
}

func (b *standaloneBackend) Stop(ctx context.Context, id model.InstanceIdentity) error {
	b.log.WithDatabase(id.Name).Info("stopping database")
	return b.sqlplus(ctx, id, shutdownScript)
}

func (b *standaloneBackend) Start(ctx context.Context, id model.InstanceIdentity) error {
	b.log.WithDatabase(id.Name).Info("starting database")
	return b.sqlplus(ctx, id, startupScript)
}

func (b *standaloneBackend) StartMount(ctx context.Context, id model.InstanceIdentity, _ model.Topology) error {
	b.log.WithDatabase(id.Name).Info("starting database to mount state")
	return b.sqlplus(ctx, id, mountScript)
}

func (b *standaloneBackend) sqlplus(ctx context.Context, id model.InstanceIdentity, script string) error {
	cmd := runner.Command{
		Path:  filepath.Join(id.Home, "bin", "sqlplus"),
		Args:  []string{"/nolog"},
		Env:   []string{"ORACLE_HOME=" + id.Home, "ORACLE_SID=" + id.EffectiveSID()},
		Stdin: script,
	}
	res, err := b.run.Run(ctx, cmd)
	if err != nil {
		return oraerrors.NewCommandError(cmd.Argv(), -1, "", "", err)
	}
	if res.ExitCode != 0 {
		return oraerrors.NewCommandError(cmd.Argv(), res.ExitCode, res.Stdout, res.Stderr, nil)
	}
	return nil
}
