package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/oraops/oradbctl/internal/reconcile"
	"github.com/oraops/oradbctl/internal/tui"
)

func executeCommand(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd.Execute()
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validDoc = `database:
  name: orcl
  oracle_home: /u01/app/oracle/product/19.0.0/dbhome_1
connection:
  password: manager
`

func TestApplyCommandParsesFlags(t *testing.T) {
	original := applyCmdRunner
	t.Cleanup(func() { applyCmdRunner = original })

	var captured applyOptions
	applyCmdRunner = func(opts applyOptions) error {
		captured = opts
		return nil
	}

	cfgPath := writeConfigFile(t, validDoc)

	root := newRootCmd()
	err := executeCommand(root, "apply", "--config", cfgPath, "--dry-run", "--verbose")
	require.NoError(t, err)

	require.Equal(t, cfgPath, captured.ConfigPath)
	require.True(t, captured.DryRun)
	require.True(t, captured.Verbose)
}

func TestApplyCommandValidatesConfigFile(t *testing.T) {
	root := newRootCmd()
	err := executeCommand(root, "apply", "--config", "/path/does/not/exist")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestValidateConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("returns error when config path is empty", func(t *testing.T) {
		t.Parallel()
		err := validateConfigPath("")
		require.Error(t, err)
		require.Contains(t, err.Error(), "required")
	})

	t.Run("returns error when config path is whitespace", func(t *testing.T) {
		t.Parallel()
		err := validateConfigPath("   ")
		require.Error(t, err)
		require.Contains(t, err.Error(), "required")
	})

	t.Run("returns error when config file does not exist", func(t *testing.T) {
		t.Parallel()
		err := validateConfigPath("/nonexistent/path/config.yaml")
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not exist")
	})

	t.Run("returns error when config path is a directory", func(t *testing.T) {
		t.Parallel()
		err := validateConfigPath(t.TempDir())
		require.Error(t, err)
		require.Contains(t, err.Error(), "directory")
	})

	t.Run("succeeds for valid config file", func(t *testing.T) {
		t.Parallel()
		tmpFile := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))
		require.NoError(t, validateConfigPath(tmpFile))
	})
}

func TestRunApply(t *testing.T) {
	t.Run("handles invalid config file", func(t *testing.T) {
		cfgPath := writeConfigFile(t, "database: [broken")

		err := runApply(applyOptions{ConfigPath: cfgPath, NonInteractive: true})
		require.Error(t, err)
		require.Contains(t, err.Error(), "parse error")
	})
}

func TestDispatchTUIMessage(t *testing.T) {
	t.Run("non-interactive mode updates state in place", func(t *testing.T) {
		modelState := tui.NewModel("orcl", true)
		msg := tui.StageMsg{Event: reconcile.Event{Stage: reconcile.StageLocate, Status: reconcile.StatusDone}}

		dispatchTUIMessage(false, nil, &modelState, msg)

		require.Equal(t, 1, modelState.CompletedStages())
	})

	t.Run("interactive mode with nil program does nothing", func(t *testing.T) {
		modelState := tui.NewModel("orcl", false)
		msg := tui.StageMsg{Event: reconcile.Event{Stage: reconcile.StageLocate, Status: reconcile.StatusDone}}

		dispatchTUIMessage(true, nil, &modelState, msg)

		require.Zero(t, modelState.CompletedStages())
	})
}
