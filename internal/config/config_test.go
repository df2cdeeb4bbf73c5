package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"network": {"interface": "enp3s0"},
		"sweep": {"enabled": true, "timeout": "2s", "batch_size": 10, "retries": 1, "rate_limit": "20ms"},
		"poisoning": {"refresh_enabled": true, "refresh_interval": "3s"},
		"bandwidth": {"download_kbps": 512, "upload_kbps": 256, "drop_packets": false},
		"files": {"output_file": "out.json"}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "enp3s0", cfg.Network.Interface)
	require.Equal(t, 2*time.Second, cfg.GetSweepTimeout())
	require.Equal(t, 20*time.Millisecond, cfg.GetSweepRateLimit())
	require.Equal(t, 3*time.Second, cfg.GetRefreshInterval())
	require.Equal(t, 10, cfg.GetSweepBatchSize())
	require.Equal(t, 512, cfg.Bandwidth.DownloadKbps)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestDurationFallbacks(t *testing.T) {
	var cfg Config
	cfg.Sweep.Timeout = "bogus"
	cfg.Poisoning.RefreshInterval = ""

	require.Equal(t, 4*time.Second, cfg.GetSweepTimeout())
	require.Equal(t, 50*time.Millisecond, cfg.GetSweepRateLimit())
	require.Equal(t, 2*time.Second, cfg.GetRefreshInterval())
	require.Equal(t, 25, cfg.GetSweepBatchSize())
}

func TestRefreshIntervalClamped(t *testing.T) {
	var cfg Config
	cfg.Poisoning.RefreshInterval = "100ms"
	require.Equal(t, time.Second, cfg.GetRefreshInterval())

	cfg.Poisoning.RefreshInterval = "30s"
	require.Equal(t, 5*time.Second, cfg.GetRefreshInterval())
}
