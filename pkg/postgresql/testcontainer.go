//go:build integration

package postgresql

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestContainerConfig holds configuration for the test container
type TestContainerConfig struct {
	Image            string
	Database         string
	Username         string
	Password         string
	StartupTimeout   time.Duration
	Migrations       fs.FS  // applied in lexical order after start
	MigrationPattern string // default "*.up.sql"
}

// DefaultTestContainerConfig returns a default configuration
func DefaultTestContainerConfig() *TestContainerConfig {
	return &TestContainerConfig{
		Image:            "postgres:15-alpine",
		Database:         "test_db",
		Username:         "test_user",
		Password:         "test_pass",
		StartupTimeout:   3 * time.Minute,
		MigrationPattern: "*.up.sql",
	}
}

// TestHelper owns a disposable PostgreSQL container for one test (or suite).
type TestHelper struct {
	T         *testing.T
	Container testcontainers.Container
	Client    *Client
	ConnStr   string
}

// NewTestHelper starts a container, applies migrations and registers cleanup on t.
func NewTestHelper(t *testing.T, config *TestContainerConfig) *TestHelper {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	if config == nil {
		config = DefaultTestContainerConfig()
	}
	if config.MigrationPattern == "" {
		config.MigrationPattern = "*.up.sql"
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, config.Image,
		postgres.WithDatabase(config.Database),
		postgres.WithUsername(config.Username),
		postgres.WithPassword(config.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(config.StartupTimeout),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate test container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)

	h := &TestHelper{
		T:         t,
		Container: container,
		Client:    NewClientFromPool(pool),
		ConnStr:   connStr,
	}

	if config.Migrations != nil {
		require.NoError(t, h.applyMigrations(ctx, config.Migrations, config.MigrationPattern))
	}

	return h
}

func (h *TestHelper) applyMigrations(ctx context.Context, migrations fs.FS, pattern string) error {
	files, err := fs.Glob(migrations, pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migration files match %s", pattern)
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations, file)
		if err != nil {
			return err
		}
		sql := strings.TrimSpace(string(content))
		if sql == "" {
			continue
		}
		if _, err := h.Client.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", file, err)
		}
	}

	return nil
}

// TruncateTables empties the given tables between tests.
func (h *TestHelper) TruncateTables(tables ...string) {
	for _, table := range tables {
		_, err := h.Client.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		require.NoError(h.T, err)
	}
}

// ExecuteSQL executes SQL and fails test on error
func (h *TestHelper) ExecuteSQL(sql string, args ...any) {
	_, err := h.Client.Exec(context.Background(), sql, args...)
	require.NoError(h.T, err)
}
