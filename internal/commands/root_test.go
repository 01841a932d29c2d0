package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_LogFlagsApply(t *testing.T) {
	root := NewRoot("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--log-level", "debug", "--log-format", "text", "version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "scriptflow test")
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	root := NewRoot("test")

	want := []string{"build", "catalog", "providers", "validate", "sessions", "auth", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
