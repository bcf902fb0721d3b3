package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/oraops/oradbctl/internal/config"
	"github.com/oraops/oradbctl/internal/inspect"
	"github.com/oraops/oradbctl/internal/lifecycle"
	"github.com/oraops/oradbctl/internal/locator"
	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/provision"
	"github.com/oraops/oradbctl/internal/reconcile"
	"github.com/oraops/oradbctl/internal/runner"
	"github.com/oraops/oradbctl/internal/session"
)

func newLogger(verbose, pretty bool) (*logger.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, Pretty: pretty})
}

// buildDriver assembles a reconciliation driver against the live host: real
// filesystem, real process runner, real Oracle sessions. The control mode and
// the software version of the configured home are resolved here, once per
// invocation.
func buildDriver(ctx context.Context, cfg *config.Config, log *logger.Logger, events reconcile.Sink, dryRun bool) (*reconcile.Driver, error) {
	fs := afero.NewOsFs()
	run := runner.NewExec(log)
	prov := provision.New(run, fs, log)
	mode := locator.DetectMode(fs)

	version, err := prov.Version(ctx, cfg.Database.OracleHome)
	if err != nil {
		return nil, err
	}

	pass := model.Pass{
		ID:      uuid.NewString(),
		Mode:    mode,
		Home:    cfg.Database.OracleHome,
		Version: version,
	}

	log.WithPass(pass.ID).WithFields(map[string]any{
		"mode":    string(mode),
		"version": version,
	}).Debug("resolved reconciliation pass")

	return reconcile.New(reconcile.Options{
		Config:      cfg,
		Pass:        pass,
		Locator:     locator.New(fs, run, log),
		Sessions:    session.NewOracleFactory(log),
		Backend:     lifecycle.Select(mode, run, log),
		Provisioner: prov,
		Inspector:   inspect.New(log),
		Logger:      log,
		Events:      events,
		DryRun:      dryRun,
	}), nil
}
