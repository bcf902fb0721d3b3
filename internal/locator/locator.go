package locator

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/runner"
	oraerrors "github.com/oraops/oradbctl/pkg/errors"
)

const (
	olrLocation = "/etc/oracle/olr.loc"
	oratabPath  = "/etc/oratab"
)

// DetectMode reports how instances on this host are controlled. The presence
// of the Grid Infrastructure local registry marker means srvctl owns the
// lifecycle; otherwise instances are managed directly through sqlplus.
func DetectMode(fs afero.Fs) model.ControlMode {
	if ok, err := afero.Exists(fs, olrLocation); err == nil && ok {
		return model.ClusterManaged
	}
	return model.Standalone
}

// Request names the database to resolve against the instance registry.
type Request struct {
	Name       string
	UniqueName string
	SID        string
	Home       string
	Mode       model.ControlMode
}

// Locator resolves a requested database to a registered instance identity.
// It only reads; registries are never modified here.
type Locator struct {
	fs  afero.Fs
	run runner.Runner
	log *logger.Logger
}

// New creates a Locator over the given filesystem and command runner.
func New(fs afero.Fs, run runner.Runner, log *logger.Logger) *Locator {
	return &Locator{fs: fs, run: run, log: log.WithComponent("locator")}
}

// Locate resolves the request. The database not being registered at all is
// reported as *errors.NotFoundError; being registered under a different
// Oracle home is *errors.DivergentInstallationError.
func (l *Locator) Locate(ctx context.Context, req Request) (model.InstanceIdentity, error) {
	if req.Mode == model.ClusterManaged {
		return l.locateCluster(ctx, req)
	}
	return l.locateStandalone(req)
}

func (l *Locator) locateCluster(ctx context.Context, req Request) (model.InstanceIdentity, error) {
	target := req.UniqueName
	if target == "" {
		target = req.Name
	}

	cmd := runner.Command{
		Path: filepath.Join(req.Home, "bin", "srvctl"),
		Args: []string{"config", "database", "-d", target},
	}
	res, err := l.run.Run(ctx, cmd)
	if err != nil {
		return model.InstanceIdentity{}, oraerrors.NewCommandError(cmd.Argv(), -1, "", "", err)
	}

	if res.ExitCode != 0 {
		if strings.Contains(res.Stdout, "PRCD-1229") || strings.Contains(res.Stderr, "PRCD-1229") {
			return model.InstanceIdentity{}, oraerrors.NewDivergentInstallationError(
				req.Name, req.Home, "", res.PrimaryOutput())
		}
		l.log.WithDatabase(req.Name).Debug("not registered with clusterware")
		return model.InstanceIdentity{}, oraerrors.NewNotFoundError(req.Name)
	}

	id := model.InstanceIdentity{
		Name:       req.Name,
		UniqueName: req.UniqueName,
		SID:        req.SID,
		Mode:       req.Mode,
		Home:       req.Home,
	}
	for _, raw := range strings.Split(res.Stdout, "\n") {
		line := strings.TrimSpace(raw)
		if v, ok := strings.CutPrefix(line, "Database unique name:"); ok && id.UniqueName == "" {
			id.UniqueName = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "Oracle home:"); ok {
			home := strings.TrimSpace(v)
			if !sameHome(home, req.Home) {
				return model.InstanceIdentity{}, oraerrors.NewDivergentInstallationError(
					req.Name, req.Home, home, "")
			}
			id.Home = home
		}
	}
	return id, nil
}

func (l *Locator) locateStandalone(req Request) (model.InstanceIdentity, error) {
	data, err := afero.ReadFile(l.fs, oratabPath)
	if err != nil {
		l.log.WithDatabase(req.Name).Debug("no oratab on this host")
		return model.InstanceIdentity{}, oraerrors.NewNotFoundError(req.Name)
	}

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r")
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, " ") {
			continue
		}

		fields := strings.SplitN(line, ":", 3)
		if len(fields) < 2 {
			continue
		}
		key, home := fields[0], fields[1]
		if key != req.Name && (req.SID == "" || key != req.SID) {
			continue
		}

		if !sameHome(home, req.Home) {
			return model.InstanceIdentity{}, oraerrors.NewDivergentInstallationError(
				req.Name, req.Home, home, "")
		}
		return model.InstanceIdentity{
			Name:       req.Name,
			UniqueName: req.UniqueName,
			SID:        req.SID,
			Mode:       req.Mode,
			Home:       home,
		}, nil
	}

	return model.InstanceIdentity{}, oraerrors.NewNotFoundError(req.Name)
}

// sameHome compares installation paths ignoring a trailing slash.
func sameHome(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
