package tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oraops/oradbctl/internal/config"
	"github.com/oraops/oradbctl/internal/inspect"
	"github.com/oraops/oradbctl/internal/lifecycle"
	"github.com/oraops/oradbctl/internal/locator"
	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/provision"
	"github.com/oraops/oradbctl/internal/reconcile"
	"github.com/oraops/oradbctl/internal/runner"
	"github.com/oraops/oradbctl/internal/runner/runnertest"
	"github.com/oraops/oradbctl/internal/session/sessiontest"
)

const oracleHome = "/u01/app/oracle/product/19.0.0/dbhome_1"

// stack wires a full reconciliation driver over an in-memory filesystem, a
// scripted process runner, and a scripted SQL session. Everything between
// those two boundaries is the real thing.
type stack struct {
	fs      afero.Fs
	run     *runnertest.Fake
	sess    *sessiontest.Fake
	factory *sessiontest.FakeFactory
	log     *logger.Logger
}

func newStack(t *testing.T) *stack {
	t.Helper()
	sess := &sessiontest.Fake{}
	return &stack{
		fs:      afero.NewMemMapFs(),
		run:     &runnertest.Fake{},
		sess:    sess,
		factory: &sessiontest.FakeFactory{Session: sess},
		log:     logger.Nop(),
	}
}

func (s *stack) registerStandalone(t *testing.T, name string) {
	t.Helper()
	oratab := "# This file is used by ORACLE utilities.\n" + name + ":" + oracleHome + ":N\n"
	require.NoError(t, afero.WriteFile(s.fs, "/etc/oratab", []byte(oratab), 0o644))
}

func (s *stack) registerCluster(t *testing.T) {
	t.Helper()
	require.NoError(t, afero.WriteFile(s.fs, "/etc/oracle/olr.loc", []byte("olrconfig_loc=/u01/app/grid/cdata/host.olr\n"), 0o644))
}

func (s *stack) driver(t *testing.T, cfg *config.Config, dryRun bool) *reconcile.Driver {
	t.Helper()
	mode := locator.DetectMode(s.fs)
	return reconcile.New(reconcile.Options{
		Config:      cfg,
		Pass:        model.Pass{ID: uuid.NewString(), Mode: mode, Home: cfg.Database.OracleHome, Version: "19.0"},
		Locator:     locator.New(s.fs, s.run, s.log),
		Sessions:    s.factory,
		Backend:     lifecycle.Select(mode, s.run, s.log),
		Provisioner: provision.New(s.run, s.fs, s.log),
		Inspector:   inspect.New(s.log),
		Logger:      s.log,
		SettleDelay: time.Millisecond,
		DryRun:      dryRun,
	})
}

// stubObservation scripts one full snapshot of the database.
func (s *stack) stubObservation(archivelog, forceLogging, flashback bool) {
	logMode := "NOARCHIVELOG"
	if archivelog {
		logMode = "ARCHIVELOG"
	}
	s.sess.StubRow("v$database", logMode, onOff(forceLogging), onOff(flashback))
	s.sess.StubRow("v$instance", "NO", "orcl", "dbhost01")
	s.sess.StubRow("DEFAULT_TBS_TYPE", "smallfile")
	s.sess.StubRow("DEFAULT_PERMANENT_TABLESPACE", "users")
	s.sess.StubRow("DEFAULT_TEMP_TABLESPACE", "temp")
}

func onOff(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func parseConfigDoc(t *testing.T, doc string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	cfg, err := config.ParseConfig(path)
	require.NoError(t, err)
	return cfg
}

func TestIntegration_Apply_ConvergesExistingDatabase(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	s.registerStandalone(t, "orcl")

	cfg := parseConfigDoc(t, `database:
  name: orcl
  oracle_home: `+oracleHome+`
connection:
  password: manager
properties:
  archivelog: true
  force_logging: true
`)

	s.stubObservation(false, true, false)
	s.stubObservation(true, true, false)

	out, err := s.driver(t, cfg, false).Run(context.Background())
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.False(t, out.Created)
	require.Contains(t, out.Message, "has been put in the intended state")

	// Enabling archivelog needs the full restart cycle through sqlplus.
	require.Len(t, s.run.Calls, 4)
	for _, call := range s.run.Calls {
		require.Equal(t, filepath.Join(oracleHome, "bin", "sqlplus"), call.Path)
		require.Contains(t, call.Env, "ORACLE_SID=orcl")
	}
	require.Contains(t, s.run.Calls[1].Stdin, "startup mount;")
	require.Equal(t, []string{"alter database archivelog"}, s.sess.Execs)
	require.Equal(t, 1, s.sess.CloseCalls)
}

func TestIntegration_Apply_SecondPassMakesNoChanges(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	s.registerStandalone(t, "orcl")

	cfg := parseConfigDoc(t, `database:
  name: orcl
  oracle_home: `+oracleHome+`
connection:
  password: manager
properties:
  archivelog: true
  force_logging: true
`)

	s.stubObservation(true, true, false)

	out, err := s.driver(t, cfg, false).Run(context.Background())
	require.NoError(t, err)
	require.False(t, out.Changed)
	require.Contains(t, out.Message, "already exists and is in the intended state")
	require.Empty(t, s.run.Calls)
	require.Empty(t, s.sess.Execs)
}

func TestIntegration_Apply_CreatesMissingDatabase(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	// No oratab at all: nothing is registered on this host.

	cfg := parseConfigDoc(t, `database:
  name: newdb
  oracle_home: `+oracleHome+`
connection:
  password: manager
create:
  container: true
  datafile_dest: /u02/oradata
  recoveryfile_dest: /u02/fra
`)

	// The software version is probed before the pass starts.
	s.run.Enqueue(runner.Result{Stdout: "SQL*Plus: Release 19.0.0.0.0 - Production"}, nil)
	prov := provision.New(s.run, s.fs, s.log)
	version, err := prov.Version(context.Background(), oracleHome)
	require.NoError(t, err)
	require.Equal(t, "19.0", version)

	s.sess.StubRow("v$database", "NOARCHIVELOG", "NO", "NO")
	s.sess.StubRow("v$instance", "NO", "newdb", "dbhost01")
	s.sess.StubRow("DEFAULT_TBS_TYPE", "smallfile")
	s.sess.StubRow("DEFAULT_PERMANENT_TABLESPACE", "users")
	s.sess.StubRow("DEFAULT_TEMP_TABLESPACE", "temp")

	out, err := s.driver(t, cfg, false).Run(context.Background())
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.True(t, out.Created)
	require.Equal(t, "Database newdb successfully created (NOARCHIVELOG)", out.Message)

	created, err := s.run.CallWith("-createDatabase")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(oracleHome, "bin", "dbca"), created.Path)
	line := created.String()
	require.Contains(t, line, "-gdbName newdb")
	require.Contains(t, line, "-templateName General_Purpose.dbc")
	require.Contains(t, line, "-datafileDestination /u02/oradata")
	require.Contains(t, line, "-recoveryAreaDestination /u02/fra")
	require.Contains(t, line, "-storageType FS")
	require.Contains(t, line, "-createAsContainerDatabase true")
	require.Contains(t, line, "-useLocalUndoForPDBs true")
	require.NotContains(t, line, "manager", "passwords must be redacted in rendered command lines")
}

func TestIntegration_Apply_RemovesDeclaredAbsent(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	s.registerStandalone(t, "orcl")

	cfg := parseConfigDoc(t, `database:
  name: orcl
  oracle_home: `+oracleHome+`
  state: absent
connection:
  password: manager
`)

	s.sess.StubRow("v$instance", "NO", "orcl", "dbhost01")

	out, err := s.driver(t, cfg, false).Run(context.Background())
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.Equal(t, "Successfully removed database orcl", out.Message)

	require.Len(t, s.run.Calls, 1)
	removed := s.run.Calls[0]
	require.Contains(t, removed.Args, "-deleteDatabase")
	require.Contains(t, removed.Args, "-sourceDB")
	require.Contains(t, removed.Args, "orcl")
	require.Equal(t, 1, s.sess.CloseCalls)
}

func TestIntegration_Apply_ClusterRestartGoesThroughSrvctl(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	s.registerCluster(t)

	cfg := parseConfigDoc(t, `database:
  name: orcl
  oracle_home: `+oracleHome+`
connection:
  password: manager
properties:
  archivelog: true
`)

	s.run.Enqueue(runner.Result{
		Stdout: "Database unique name: orcl\nOracle home: " + oracleHome,
	}, nil)

	s.stubObservation(false, false, false)
	s.stubObservation(true, false, false)

	out, err := s.driver(t, cfg, false).Run(context.Background())
	require.NoError(t, err)
	require.True(t, out.Changed)

	lines := s.run.CommandLines()
	require.Len(t, lines, 5)
	srvctl := filepath.Join(oracleHome, "bin", "srvctl")
	require.Equal(t, srvctl+" config database -d orcl", lines[0])
	require.Equal(t, srvctl+" stop database -d orcl -o immediate", lines[1])
	require.Equal(t, srvctl+" start database -d orcl -o mount", lines[2])
	require.Equal(t, srvctl+" stop database -d orcl -o immediate", lines[3])
	require.Equal(t, srvctl+" start database -d orcl", lines[4])
}

func TestIntegration_Apply_DryRunReportsWithoutExecuting(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	s.registerStandalone(t, "orcl")

	cfg := parseConfigDoc(t, `database:
  name: orcl
  oracle_home: `+oracleHome+`
connection:
  password: manager
properties:
  archivelog: true
`)

	s.stubObservation(false, false, false)

	out, err := s.driver(t, cfg, true).Run(context.Background())
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.Contains(t, out.Message, "would be put in the intended state")
	require.Empty(t, s.run.Calls)
	require.Empty(t, s.sess.Execs)
}

func TestIntegration_Check_ReportsDivergence(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	s.registerStandalone(t, "orcl")

	cfg := parseConfigDoc(t, `database:
  name: orcl
  oracle_home: `+oracleHome+`
connection:
  password: manager
properties:
  archivelog: true
  flashback: true
`)

	s.stubObservation(false, false, false)

	report, err := s.driver(t, cfg, false).Check(context.Background())
	require.NoError(t, err)
	require.True(t, report.Found)
	require.Equal(t, model.Standalone, report.Identity.Mode)
	require.Equal(t, 2, report.Plan.Len())
	require.Empty(t, s.sess.Execs)
	require.Empty(t, s.run.Calls)
}
