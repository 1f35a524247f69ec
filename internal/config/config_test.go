package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"https://api.devnet.solana.com"}, cfg.Solana.RPCURLs)
	assert.Equal(t, 5*time.Second, cfg.Solana.GetCheckTimeout())
	assert.Equal(t, "Hello from Solana Starter!", cfg.Demo.Message)
	assert.Equal(t, "5onjZQHpbNJytKMUs5L6JPzW6WgRs14P94DzzenjqmKs", cfg.Demo.Destination)
	assert.Equal(t, uint64(1000), cfg.Demo.Lamports)
	assert.Equal(t, "0.01", cfg.Demo.TokenAmount)
	assert.Equal(t, 300*time.Second, cfg.Metadata.GetRevalidate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MINIAPP_SERVER_PORT", "9090")
	t.Setenv("MINIAPP_HOST_BRIDGE_URL", "ws://host.local/bridge")
	t.Setenv("MINIAPP_LOGGER_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "ws://host.local/bridge", cfg.Host.BridgeURL)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_EnvOverridesAccountAssociation(t *testing.T) {
	t.Setenv("MINIAPP_METADATA_ASSOCIATION_HEADER", "eyJmaWQiOjF9")
	t.Setenv("MINIAPP_METADATA_ASSOCIATION_PAYLOAD", "eyJkb21haW4iOiJ4In0")
	t.Setenv("MINIAPP_METADATA_ASSOCIATION_SIGNATURE", "MHgxMjM")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "eyJmaWQiOjF9", cfg.Metadata.AssociationHeader)
	assert.Equal(t, "eyJkb21haW4iOiJ4In0", cfg.Metadata.AssociationPayload)
	assert.Equal(t, "MHgxMjM", cfg.Metadata.AssociationSignature)
}

func TestLoad_MissingFileKeepsStdoutClean(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	_, loadErr := Load(t.TempDir())
	os.Stdout = stdout
	require.NoError(t, w.Close())

	written, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, loadErr)
	assert.Empty(t, written)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
solana:
  rpc_urls:
    - https://rpc-a.example
    - wss://rpc-b.example
  commitment: finalized
metadata:
  app_url: https://miniapp.example/
  revalidate: 60s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://rpc-a.example", "wss://rpc-b.example"}, cfg.Solana.RPCURLs)
	assert.Equal(t, "finalized", cfg.Solana.Commitment)
	assert.Equal(t, time.Minute, cfg.Metadata.GetRevalidate())
	assert.Equal(t, "https://miniapp.example/icon.png", cfg.Metadata.URL("/icon.png"))
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}
