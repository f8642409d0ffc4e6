package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "category_mean", cfg.Anomaly.Method)
	assert.InDelta(t, 3.0, cfg.Anomaly.ThresholdMultiplier, 1e-9)
	assert.Equal(t, 60, cfg.Anomaly.LookbackDays)
	assert.False(t, cfg.Streak.ExcludeFutureDays)
	assert.Equal(t, "sandbox", cfg.Plaid.Environment)
	assert.Equal(t, 24*time.Hour, cfg.LLM.CacheTTL)
	assert.NotContains(t, cfg.Database.Path, "~")
	assert.False(t, cfg.Server.TLS)
	assert.True(t, strings.HasSuffix(cfg.Server.CertDir, filepath.Join(".config", "noumi", "certs")), cfg.Server.CertDir)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: ` + filepath.Join(dir, "noumi.db") + `
server:
  addr: ":9090"
anomaly:
  method: zscore
  zscore_sigma: 2.5
streak:
  exclude_future_days: true
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, filepath.Join(dir, "noumi.db"), cfg.Database.Path)
	assert.True(t, cfg.Streak.ExcludeFutureDays)
	assert.Equal(t, "json", cfg.Logging.Format)

	dc := cfg.Anomaly.DetectorConfig()
	assert.Equal(t, model.MethodZScore, dc.Method)
	assert.InDelta(t, 2.5, dc.ZScoreSigma, 1e-9)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NOUMI_SERVER_ADDR", ":7000")
	t.Setenv("NOUMI_ANOMALY_THRESHOLD_MULTIPLIER", "4")

	v := viper.New()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.InDelta(t, 4.0, cfg.Anomaly.ThresholdMultiplier, 1e-9)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate func(v *viper.Viper)
		name   string
	}{
		{name: "negative threshold", mutate: func(v *viper.Viper) { v.Set("anomaly.threshold_multiplier", -1) }},
		{name: "unknown method", mutate: func(v *viper.Viper) { v.Set("anomaly.method", "lstm") }},
		{name: "zero lookback", mutate: func(v *viper.Viper) { v.Set("anomaly.lookback_days", 0) }},
		{name: "bad log level", mutate: func(v *viper.Viper) { v.Set("logging.level", "chatty") }},
		{name: "bad log format", mutate: func(v *viper.Viper) { v.Set("logging.format", "xml") }},
		{name: "bad plaid env", mutate: func(v *viper.Viper) { v.Set("plaid.environment", "staging") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.mutate(v)
			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestDetectorConfig_CategoryAlias(t *testing.T) {
	a := AnomalyConfig{Method: "category", ThresholdMultiplier: 3}
	assert.Equal(t, model.MethodCategoryMean, a.DetectorConfig().Method)
	assert.Equal(t, 72*time.Hour, AnomalyConfig{LookbackDays: 3}.Lookback())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("NOUMI_TEST_DIR", "/tmp/noumi")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "data.db"), ExpandPath("~/data.db"))
	assert.Equal(t, "/tmp/noumi/data.db", ExpandPath("$NOUMI_TEST_DIR/data.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
