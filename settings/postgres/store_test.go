package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/ory/dockertest/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	postgrestest "github.com/code-payments/iap-sandwich/database/postgres/test"
	"github.com/code-payments/iap-sandwich/settings/tests"

	_ "github.com/jackc/pgx/v4/stdlib"
)

var (
	testDB *sql.DB
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		fmt.Printf("Docker is not available, skipping postgres tests: %v\n", err)
		os.Exit(m.Run())
	}

	// Start a postgres container
	databaseUrl, cleanup, err := postgrestest.StartPostgresDB(pool)
	if err != nil {
		fmt.Printf("Error starting postgres image: %v\n", err)
		os.Exit(1)
	}

	// Wait for the database to be ready
	testDB, err = postgrestest.WaitForConnection(pool, databaseUrl)
	if err != nil {
		cleanup()
		fmt.Printf("Error waiting for connection: %v\n", err)
		os.Exit(1)
	}

	if err = ApplySchema(context.Background(), testDB); err != nil {
		cleanup()
		fmt.Printf("Error applying schema: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = testDB.Close()
	cleanup()
	os.Exit(code)
}

func TestSettings_PostgresStore(t *testing.T) {
	if testDB == nil {
		t.Skip("docker is not available")
	}

	testStore := NewInPostgres(testDB)
	teardown := func() {
		testStore.(*pgStore).reset()
	}
	tests.RunStoreTests(t, testStore, teardown)
}

func TestTranslateError(t *testing.T) {
	missing := &pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: "relation does not exist"}
	assert.ErrorIs(t, translateError(errors.Wrap(missing, "query")), ErrSchemaMissing)

	other := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	assert.Same(t, other, translateError(other))

	assert.NoError(t, translateError(nil))
}
