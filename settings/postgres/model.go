package postgres

import "time"

const settingsTable = "sandwich_settings"

// Schema creates the settings table. It is safe to apply more than once.
const Schema = `
CREATE TABLE IF NOT EXISTS ` + settingsTable + ` (
	"key"       TEXT PRIMARY KEY,
	"value"     TEXT NOT NULL,
	"createdAt" TIMESTAMP WITH TIME ZONE NOT NULL,
	"updatedAt" TIMESTAMP WITH TIME ZONE NOT NULL
)`

// settingModel maps to the sandwich_settings table
type settingModel struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"createdAt"`
	UpdatedAt time.Time `db:"updatedAt"`
}
