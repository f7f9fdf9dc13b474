package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range GetRootCmd().Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"start", "version"} {
		assert.True(t, names[want], "expected root command to have subcommand %q", want)
	}
}

func TestGetConfigFile_DefaultsEmpty(t *testing.T) {
	assert.Empty(t, GetConfigFile())
}
