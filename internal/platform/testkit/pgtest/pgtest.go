//go:build integration_pg

// Package pgtest starts throwaway postgres servers for integration tests
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Image is the server every integration test runs against
const Image = "postgres:16-alpine"

// Start boots a fresh server and returns its DSN; the container goes away
// with the test
func Start(t testing.TB, db string) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        Image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "tagtime",
				"POSTGRES_PASSWORD": "tagtime",
				"POSTGRES_DB":       db,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				// the entrypoint restarts the server once after init
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("pgtest: start %s: %v", Image, err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("pgtest: host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("pgtest: port: %v", err)
	}
	return fmt.Sprintf("postgres://tagtime:tagtime@%s:%s/%s?sslmode=disable", host, port.Port(), db)
}
