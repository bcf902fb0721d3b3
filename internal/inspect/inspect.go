package inspect

import (
	"context"
	"fmt"

	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/session"
)

const (
	logStateQuery = "select log_mode, force_logging, flashback_on from v$database"
	topologyQuery = "select parallel, instance_name, host_name from v$instance"
)

// Inspector reads live database state. Observations are never cached; the
// driver re-reads after every state-changing batch.
type Inspector struct {
	log *logger.Logger
}

// New creates an Inspector.
func New(log *logger.Logger) *Inspector {
	return &Inspector{log: log.WithComponent("inspect")}
}

// Observe reads the durable configuration and topology of the connected
// database in a single pass.
func (i *Inspector) Observe(ctx context.Context, s session.Session) (model.ObservedProperties, error) {
	var obs model.ObservedProperties

	var logMode, forceLogging, flashbackOn string
	if err := s.QueryRow(ctx, logStateQuery, &logMode, &forceLogging, &flashbackOn); err != nil {
		return obs, err
	}
	obs.Archivelog = logMode == "ARCHIVELOG"
	obs.ForceLogging = forceLogging == "YES"
	obs.Flashback = flashbackOn == "YES"

	var parallel string
	if err := s.QueryRow(ctx, topologyQuery, &parallel, &obs.Topology.InstanceName, &obs.Topology.HostName); err != nil {
		return obs, err
	}
	obs.Topology.IsRAC = parallel == "YES"

	var err error
	if obs.DefaultTablespaceType, err = i.property(ctx, s, "DEFAULT_TBS_TYPE"); err != nil {
		return obs, err
	}
	if obs.DefaultTablespace, err = i.property(ctx, s, "DEFAULT_PERMANENT_TABLESPACE"); err != nil {
		return obs, err
	}
	if obs.DefaultTempTablespace, err = i.property(ctx, s, "DEFAULT_TEMP_TABLESPACE"); err != nil {
		return obs, err
	}

	i.log.WithFields(map[string]any{
		"archivelog":    obs.Archivelog,
		"force_logging": obs.ForceLogging,
		"flashback":     obs.Flashback,
		"rac":           obs.Topology.IsRAC,
	}).Debug("observed live state")

	return obs, nil
}

// Topology reads only the instance facts needed for restart orchestration
// and removal targeting.
func (i *Inspector) Topology(ctx context.Context, s session.Session) (model.Topology, error) {
	var topo model.Topology
	var parallel string
	if err := s.QueryRow(ctx, topologyQuery, &parallel, &topo.InstanceName, &topo.HostName); err != nil {
		return topo, err
	}
	topo.IsRAC = parallel == "YES"
	return topo, nil
}

// property reads one row from database_properties, lowercased so values
// compare directly against declared configuration.
func (i *Inspector) property(ctx context.Context, s session.Session, name string) (string, error) {
	query := fmt.Sprintf("select lower(property_value) from database_properties where property_name = '%s'", name)
	var value string
	if err := s.QueryRow(ctx, query, &value); err != nil {
		return "", err
	}
	return value, nil
}
