//go:build integration

// Package testutil starts the external services integration tests run against.
package testutil

import (
	"context"
	"fmt"
	"os"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Postgres is a database reachable by integration tests.
type Postgres struct {
	URL       string
	container testcontainers.Container
}

// StartPostgres returns TEST_DATABASE_URL when set, and otherwise starts a
// throwaway PostgreSQL container.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return &Postgres{URL: url}, nil
	}

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("events_test"),
		tcpostgres.WithUsername("events"),
		tcpostgres.WithPassword("events"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("reading postgres connection string: %w", err)
	}

	return &Postgres{URL: url, container: container}, nil
}

// Terminate stops the container, if one was started.
func (p *Postgres) Terminate(ctx context.Context) error {
	if p.container == nil {
		return nil
	}
	return p.container.Terminate(ctx)
}
