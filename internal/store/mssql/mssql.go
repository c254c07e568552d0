// Package mssql wires a SQL Server backend into the store factory. Generated
// ids come back via OUTPUT INSERTED since the driver does not support
// LastInsertId.
package mssql

import (
	"context"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"census/internal/store"
	"census/internal/store/sqlstore"
)

var dialect = sqlstore.Dialect{
	Name:         "mssql",
	InsertPlace:  "INSERT INTO places (city, county, country) OUTPUT INSERTED.id VALUES (@p1, @p2, @p3)",
	InsertPerson: "INSERT INTO people (given_name, family_name, date_of_birth, place_of_birth_id) VALUES (@p1, @p2, @p3, @p4)",
	ReturnsID:    true,

	CountByCountry: `SELECT pl.country, COUNT(pe.id)
FROM people pe
JOIN places pl ON pe.place_of_birth_id = pl.id
GROUP BY pl.country`,

	SelectPlaces: "SELECT id, city, county, country FROM places ORDER BY id",
	SelectPeople: "SELECT id, given_name, family_name, date_of_birth, place_of_birth_id FROM people ORDER BY id",

	CreateTables: []string{
		`IF OBJECT_ID(N'places', N'U') IS NULL
CREATE TABLE places (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  city NVARCHAR(255) NOT NULL,
  county NVARCHAR(255) NOT NULL,
  country NVARCHAR(255) NOT NULL
)`,
		`IF OBJECT_ID(N'people', N'U') IS NULL
CREATE TABLE people (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  given_name NVARCHAR(255) NOT NULL,
  family_name NVARCHAR(255) NOT NULL,
  date_of_birth NVARCHAR(64) NOT NULL,
  place_of_birth_id BIGINT NOT NULL REFERENCES places (id)
)`,
	},
}

func init() {
	store.Register("mssql", func(ctx context.Context, cfg store.Config) (store.Store, error) {
		// Validate the DSN early to fail fast on obvious mistakes.
		if _, err := msdsn.Parse(cfg.DSN); err != nil {
			return nil, fmt.Errorf("mssql dsn: %w", err)
		}
		return sqlstore.Open(ctx, "sqlserver", cfg.DSN, dialect)
	})
}
