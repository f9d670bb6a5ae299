package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: s3cret
database:
  driver: memory
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(5<<20), cfg.Media.MaxUploadBytes)
	assert.Equal(t, "/v1/media/files", cfg.Media.PublicBaseURL)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, 4, cfg.Worker.Count)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
auth:
  jwt_secret: from-file
database:
  driver: postgres
  host: db
`)
	t.Setenv("FAMTREE_SERVER_PORT", "9100")
	t.Setenv("FAMTREE_JWT_SECRET", "from-env")
	t.Setenv("FAMTREE_DATABASE_URL", "postgres://u:p@elsewhere:5432/fam")
	t.Setenv("FAMTREE_NATS_URL", "nats://nats:4222")
	t.Setenv("FAMTREE_CACHE_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres://u:p@elsewhere:5432/fam", cfg.Database.DSN())
	assert.True(t, cfg.NATS.Enabled)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadMissingFileUsesEnvOnly(t *testing.T) {
	t.Setenv("FAMTREE_JWT_SECRET", "x")
	t.Setenv("FAMTREE_DB_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "auth:\n  jwt_secret: x\ndatabase:\n  driver: mysql\n"},
		{"missing secret", "database:\n  driver: memory\n"},
		{"negative upload limit", "auth:\n  jwt_secret: x\nmedia:\n  max_upload_bytes: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDSNFromParts(t *testing.T) {
	d := DatabaseConfig{User: "fam", Password: "pw", Host: "localhost", Port: 5432, Name: "famtree"}
	assert.Equal(t, "postgres://fam:pw@localhost:5432/famtree?sslmode=disable", d.DSN())
}
