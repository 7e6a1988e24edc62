package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/iap-sandwich/settings"
)

// ErrSchemaMissing is returned when the settings table does not exist.
var ErrSchemaMissing = errors.New("settings schema not applied")

type pgStore struct {
	db *sqlx.DB
}

// NewInPostgres returns a settings.Store backed by db, which must have been
// opened with the pgx driver.
func NewInPostgres(db *sql.DB) settings.Store {
	return &pgStore{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// ApplySchema creates the settings table if it does not exist.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return errors.Wrap(err, "failed to apply settings schema")
}

func (s *pgStore) reset() {
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM `+settingsTable)
	if err != nil {
		panic(err)
	}
}

func (s *pgStore) Get(ctx context.Context, key string) (string, error) {
	var model settingModel
	query := `SELECT "key", "value", "createdAt", "updatedAt" FROM ` + settingsTable + ` WHERE "key" = $1`
	err := s.db.GetContext(ctx, &model, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", settings.ErrNotFound
	} else if err != nil {
		return "", errors.Wrapf(translateError(err), "failed to get setting %s", key)
	}

	return model.Value, nil
}

func (s *pgStore) Set(ctx context.Context, key, value string) error {
	currentTime := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+settingsTable+` ("key", "value", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value", "updatedAt" = EXCLUDED."updatedAt"
	`, key, value, currentTime, currentTime)
	if err != nil {
		return errors.Wrapf(translateError(err), "failed to set setting %s", key)
	}
	return nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return ErrSchemaMissing
	}
	return err
}
