package inspect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oraops/oradbctl/internal/logger"
	"github.com/oraops/oradbctl/internal/session/sessiontest"
)

func stubHealthyDatabase(fake *sessiontest.Fake) {
	fake.StubRow("v$database", "ARCHIVELOG", "YES", "NO")
	fake.StubRow("v$instance", "NO", "orcl", "dbhost01")
	fake.StubRow("DEFAULT_TBS_TYPE", "smallfile")
	fake.StubRow("DEFAULT_PERMANENT_TABLESPACE", "users")
	fake.StubRow("DEFAULT_TEMP_TABLESPACE", "temp")
}

func TestObserveMapsDatabaseState(t *testing.T) {
	t.Parallel()

	fake := &sessiontest.Fake{}
	stubHealthyDatabase(fake)

	obs, err := New(logger.Nop()).Observe(context.Background(), fake)
	require.NoError(t, err)

	require.True(t, obs.Archivelog)
	require.True(t, obs.ForceLogging)
	require.False(t, obs.Flashback)
	require.Equal(t, "smallfile", obs.DefaultTablespaceType)
	require.Equal(t, "users", obs.DefaultTablespace)
	require.Equal(t, "temp", obs.DefaultTempTablespace)
	require.False(t, obs.Topology.IsRAC)
	require.Equal(t, "orcl", obs.Topology.InstanceName)
	require.Equal(t, "dbhost01", obs.Topology.HostName)
}

func TestObserveDetectsRAC(t *testing.T) {
	t.Parallel()

	fake := &sessiontest.Fake{}
	fake.StubRow("v$database", "NOARCHIVELOG", "NO", "NO")
	fake.StubRow("v$instance", "YES", "orcl1", "racnode01")
	fake.StubRow("DEFAULT_TBS_TYPE", "smallfile")
	fake.StubRow("DEFAULT_PERMANENT_TABLESPACE", "users")
	fake.StubRow("DEFAULT_TEMP_TABLESPACE", "temp")

	obs, err := New(logger.Nop()).Observe(context.Background(), fake)
	require.NoError(t, err)
	require.True(t, obs.Topology.IsRAC)
	require.Equal(t, "orcl1", obs.Topology.InstanceName)
}

func TestObserveSurfacesQueryFailure(t *testing.T) {
	t.Parallel()

	fake := &sessiontest.Fake{}
	fake.StubRowErr("v$database", errors.New("ORA-01034: ORACLE not available"))

	_, err := New(logger.Nop()).Observe(context.Background(), fake)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ORA-01034")
}

func TestTopologyReadsInstanceFactsOnly(t *testing.T) {
	t.Parallel()

	fake := &sessiontest.Fake{}
	fake.StubRow("v$instance", "YES", "orcl2", "racnode02")

	topo, err := New(logger.Nop()).Topology(context.Background(), fake)
	require.NoError(t, err)
	require.True(t, topo.IsRAC)
	require.Equal(t, "orcl2", topo.InstanceName)
	require.Len(t, fake.Queries, 1)
}
