package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testDSNOnce sync.Once
	testDSN     string
)

// getSharedPostgresDSN returns the DSN of a shared PostgreSQL container. The
// container is reused across all tests in the package for performance.
func getSharedPostgresDSN(t *testing.T) string {
	t.Helper()

	testDSNOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			if termErr := testcontainers.TerminateContainer(pgContainer); termErr != nil {
				t.Logf("failed to terminate container: %s", termErr)
			}
			t.Fatalf("failed to get connection string: %v", err)
		}

		testDSN = connectionStr
	})

	return testDSN
}
