package testutils

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RequireIntegration skips the test unless INTEGRATION=1 is set
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run container-backed tests")
	}
}

// SetupTestRedis starts a Redis container and returns its host and port.
// The container is terminated when the test ends.
func SetupTestRedis(t *testing.T) (string, int) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	mapped, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return containerEndpoint(t, container, mapped.Port())
}

// PostgresConfig holds the credentials of a test database
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// SetupTestPostgres starts a PostgreSQL container. The container is
// terminated when the test ends.
func SetupTestPostgres(t *testing.T) PostgresConfig {
	t.Helper()
	ctx := context.Background()

	cfg := PostgresConfig{Database: "dietcompass_test", Username: "test_user", Password: "test_password"}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw,noexec,nosuid,size=256m",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	mapped, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	cfg.Host, cfg.Port = containerEndpoint(t, container, mapped.Port())
	return cfg
}

func containerEndpoint(t *testing.T, container testcontainers.Container, mappedPort string) (string, int) {
	t.Helper()

	host, err := container.Host(context.Background())
	require.NoError(t, err)

	port, err := strconv.Atoi(mappedPort)
	require.NoError(t, err)
	return host, port
}
