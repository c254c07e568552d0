// Package sqlite wires a SQLite backend into the store factory. Mostly used
// for local runs and tests; the implementation is the shared database/sql
// store with a SQLite dialect.
package sqlite

import (
	"context"

	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"census/internal/store"
	"census/internal/store/sqlstore"
)

var dialect = sqlstore.Dialect{
	Name:         "sqlite",
	InsertPlace:  "INSERT INTO places (city, county, country) VALUES (?, ?, ?)",
	InsertPerson: "INSERT INTO people (given_name, family_name, date_of_birth, place_of_birth_id) VALUES (?, ?, ?, ?)",

	CountByCountry: `SELECT pl.country, COUNT(pe.id)
FROM people pe
JOIN places pl ON pe.place_of_birth_id = pl.id
GROUP BY pl.country`,

	SelectPlaces: "SELECT id, city, county, country FROM places ORDER BY id",
	SelectPeople: "SELECT id, given_name, family_name, date_of_birth, place_of_birth_id FROM people ORDER BY id",

	CreateTables: []string{
		`CREATE TABLE IF NOT EXISTS places (
  id INTEGER PRIMARY KEY,
  city TEXT NOT NULL,
  county TEXT NOT NULL,
  country TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS people (
  id INTEGER PRIMARY KEY,
  given_name TEXT NOT NULL,
  family_name TEXT NOT NULL,
  date_of_birth TEXT NOT NULL,
  place_of_birth_id INTEGER NOT NULL REFERENCES places (id)
)`,
	},
}

func init() {
	store.Register("sqlite", func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return sqlstore.Open(ctx, "sqlite", cfg.DSN, dialect)
	})
}
