// Package mysql wires the MySQL backend into the store factory. MySQL is the
// default backend; the original data set lives in a MySQL container. The
// implementation is the shared database/sql store with a MySQL dialect.
package mysql

import (
	"context"

	_ "github.com/go-sql-driver/mysql"

	"census/internal/store"
	"census/internal/store/sqlstore"
)

var dialect = sqlstore.Dialect{
	Name:         "mysql",
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
  id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  city VARCHAR(255) NOT NULL,
  county VARCHAR(255) NOT NULL,
  country VARCHAR(255) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS people (
  id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  given_name VARCHAR(255) NOT NULL,
  family_name VARCHAR(255) NOT NULL,
  date_of_birth VARCHAR(64) NOT NULL,
  place_of_birth_id BIGINT NOT NULL,
  FOREIGN KEY (place_of_birth_id) REFERENCES places (id)
)`,
	},
}

func init() {
	store.Register("mysql", func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return sqlstore.Open(ctx, "mysql", cfg.DSN, dialect)
	})
}
