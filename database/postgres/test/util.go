package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
)

const (
	containerName     = "postgres"
	containerVersion  = "13-alpine"
	containerAutoKill = 120 // seconds

	port     = 5432
	username = "sandwich"
	password = "sandwich"
	database = "sandwich"
)

// StartPostgresDB starts a throwaway Postgres container. It returns a pgx
// connection URL and a cleanup function that removes the container.
func StartPostgresDB(pool *dockertest.Pool) (databaseUrl string, cleanup func(), err error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: containerName,
		Tag:        containerVersion,
		Env: []string{
			"POSTGRES_USER=" + username,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + database,
		},
		ExposedPorts: []string{fmt.Sprintf("%d/tcp", port)},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "could not start postgres container")
	}

	// Set a timeout to automatically kill the container
	if err := resource.Expire(containerAutoKill); err != nil {
		_ = pool.Purge(resource)
		return "", nil, errors.Wrap(err, "could not set container expiry")
	}

	hostAndPort := resource.GetHostPort(fmt.Sprintf("%d/tcp", port))
	databaseUrl = fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", username, password, hostAndPort, database)

	cleanup = func() {
		if err := pool.Purge(resource); err != nil {
			fmt.Printf("Could not purge resource: %s\n", err)
		}
	}

	return databaseUrl, cleanup, nil
}

// WaitForConnection retries until the database accepts connections. The pgx
// stdlib driver must be registered by the caller.
func WaitForConnection(pool *dockertest.Pool, databaseUrl string) (*sql.DB, error) {
	pool.MaxWait = 60 * time.Second

	var db *sql.DB
	err := pool.Retry(func() error {
		var err error
		db, err = sql.Open("pgx", databaseUrl)
		if err != nil {
			return err
		}
		if err = db.Ping(); err != nil {
			_ = db.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to postgres")
	}

	return db, nil
}
