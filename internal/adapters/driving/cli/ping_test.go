package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

func TestPingCmd_HealthyBackend(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("ping")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend is up.")
	assert.Contains(t, out, "Schema is in place.")
	assert.Contains(t, out, "0 book(s) indexed.")
}

func TestPingCmd_MissingPlugin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.PluginInstalled = false

	_, err := execute("ping")
	require.ErrorIs(t, err, domain.ErrPluginMissing)
}

func TestPingCmd_UnreachableBackend(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.Unavailable = true

	_, err := execute("ping")
	require.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
