package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/config"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// sqliteOptions points the CLI at a fresh SQLite file.
func sqliteOptions(t *testing.T) *RootOptions {
	t.Helper()
	return &RootOptions{Config: &config.Config{
		DataBackend:   config.BackendSQLite,
		DBPath:        filepath.Join(t.TempDir(), "data", "ledger.db"),
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
		CurrencyCode:  "EUR",
		LogLevel:      "info",
		FanoutLimit:   4,
	}}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "splitledger", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"balances", "settle", "friends", "analytics", "simulate", "seed", "token", "migrate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, sqliteOptions(t), "--format", "xml", "simulate", "testdata/ledger.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRequiredFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"balances without user", []string{"balances"}, "--user is required"},
		{"settle without group", []string{"settle", "--user", "alice"}, "--group is required"},
		{"friends without user", []string{"friends"}, "--user is required"},
		{"token without user", []string{"token"}, "--user is required"},
		{"analytics without user", []string{"analytics"}, "--user is required"},
		{"analytics bad period", []string{"analytics", "--user", "alice", "--period", "2w"}, `invalid --period "2w"`},
		{"analytics bad as-of", []string{"analytics", "--user", "alice", "--as-of", "31/01/2024"}, `invalid --as-of "31/01/2024"`},
		{"dates without group", []string{"balances", "--user", "alice", "--from", "2024-01-01"}, "--from and --to require --group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, sqliteOptions(t), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
