package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/config"
)

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.ServerAddress)
	assert.Equal(t, "generations.json", cfg.FileStoragePath)
	assert.Equal(t, config.ModeFile, cfg.Mode)
	assert.Equal(t, "{{NUM}}", cfg.DefaultPlaceholder)
	assert.Equal(t, 1, cfg.DefaultItemsPerSlide)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "60-M", cfg.RateLimit)
	assert.False(t, cfg.TrustProxy, "forwarded headers are not trusted by default")
	assert.Len(t, cfg.SecretKey, 64, "missing key must be generated")
}

func TestLoad_Precedence(t *testing.T) {
	path := writeJSON(t, `{
		"server_address": "json:1",
		"grpc_address": "json:2",
		"trusted_subnet": "10.0.0.0/8",
		"max_upload_mb": 5,
		"default_items_per_slide": 3
	}`)

	t.Setenv("SERVER_ADDRESS", "env:1")
	t.Setenv("MAX_UPLOAD_MB", "7")

	cfg, err := config.Load([]string{"-c", path, "-a", "flag:1"})
	require.NoError(t, err)

	assert.Equal(t, "flag:1", cfg.ServerAddress, "flag wins over env and JSON")
	assert.Equal(t, int64(7), cfg.MaxUploadMB, "env wins over JSON")
	assert.Equal(t, "json:2", cfg.GRPCAddress, "JSON wins over default")
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.Equal(t, 3, cfg.DefaultItemsPerSlide)
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeJSON(t, `{"rate_limit": "5-S"}`)
	t.Setenv("CONFIG", path)

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "5-S", cfg.RateLimit)
}

func TestLoad_TrustProxy(t *testing.T) {
	tests := []struct {
		name string
		json string
		env  string
		args []string
		want bool
	}{
		{name: "json", json: `{"trust_proxy": true}`, want: true},
		{name: "env over json", json: `{"trust_proxy": true}`, env: "false", want: false},
		{name: "flag", args: []string{"-p"}, want: true},
		{name: "flag over env", env: "true", args: []string{"-p=false"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.json != "" {
				args = append([]string{"-c", writeJSON(t, tt.json)}, args...)
			}
			if tt.env != "" {
				t.Setenv("TRUST_PROXY", tt.env)
			}

			cfg, err := config.Load(args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.TrustProxy)
		})
	}
}

func TestLoad_Mode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "database", args: []string{"-d", "postgres://u:p@localhost/db"}, want: config.ModeDatabase},
		{name: "file", args: []string{"-f", "journal.json"}, want: config.ModeFile},
		{name: "memory", args: []string{"-f", ""}, want: config.ModeMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Mode)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad rate", args: []string{"-r", "quickly"}},
		{name: "bad subnet", args: []string{"-t", "10.0.0.0/33"}},
		{name: "bad address", args: []string{"-a", "localhost"}},
		{name: "bad grpc address", args: []string{"-g", "nohost"}},
		{name: "zero upload", args: []string{"-m", "0"}},
		{name: "unknown flag", args: []string{"-zzz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadItemsPerSlide(t *testing.T) {
	t.Setenv("DEFAULT_ITEMS_PER_SLIDE", "0")
	_, err := config.Load(nil)
	assert.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := config.Load([]string{"-config", filepath.Join(t.TempDir(), "absent.json")})
	assert.Error(t, err)
}

func TestValidate_HTTPS(t *testing.T) {
	cfg := config.Default()
	cfg.EnableHTTPS = true
	cfg.TLSCertPath = ""
	assert.Error(t, cfg.Validate())

	cfg.TLSCertPath = "cert.pem"
	assert.NoError(t, cfg.Validate())
}
