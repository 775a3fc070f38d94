package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, ":8080", addr.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("cors-origin"))
}

func TestServeCmd_ServiceNotConfigured(t *testing.T) {
	setServices(t, nil, nil, nil, nil)

	_, err := execute(t, "", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestMCPServeCmd_ServiceNotConfigured(t *testing.T) {
	setServices(t, nil, nil, nil, nil)

	_, err := execute(t, "", "mcp", "serve")

	assert.Error(t, err)
}

func TestServeCmd_MCPFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("mcp")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestMCPServeCmd_AddrDefaultsToStdio(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}
