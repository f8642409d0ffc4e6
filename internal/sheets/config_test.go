package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	oauth := func(c Config) Config {
		c.ClientID, c.ClientSecret, c.RefreshToken = "client", "secret", "refresh"
		return c
	}

	tests := []struct {
		wantErr error
		name    string
		errMsg  string
		config  Config
	}{
		{name: "oauth defaults", config: oauth(DefaultConfig())},
		{
			name:   "service account",
			config: Config{ServiceAccountPath: "/path/to/key.json", BatchSize: 100},
		},
		{
			name:    "no auth",
			config:  DefaultConfig(),
			wantErr: common.ErrMissingConfig,
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:     "client",
				RefreshToken: "refresh",
				BatchSize:    100,
			},
			wantErr: common.ErrMissingConfig,
		},
		{
			name: "both auth methods",
			config: func() Config {
				c := oauth(DefaultConfig())
				c.ServiceAccountPath = "/path/to/key.json"
				return c
			}(),
			wantErr: common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods",
		},
		{
			name:    "zero batch size",
			config:  Config{ServiceAccountPath: "/key.json"},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retry delay",
			config:  Config{ServiceAccountPath: "/key.json", BatchSize: 10, RetryDelay: -time.Second},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}
