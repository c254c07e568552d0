// Package postgres implements a Postgres-backed store.Store using pgx v5 and
// registers it with the store factory. A single pgx.Conn is used rather than
// a pool: the pipeline holds exactly one connection for the duration of a run.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"census/internal/model"
	"census/internal/store"
)

const (
	insertPlaceSQL  = "INSERT INTO places (city, county, country) VALUES ($1, $2, $3) RETURNING id"
	insertPersonSQL = "INSERT INTO people (given_name, family_name, date_of_birth, place_of_birth_id) VALUES ($1, $2, $3, $4)"

	countByCountrySQL = `SELECT pl.country, COUNT(pe.id)
FROM people pe
JOIN places pl ON pe.place_of_birth_id = pl.id
GROUP BY pl.country`

	selectPlacesSQL = "SELECT id, city, county, country FROM places ORDER BY id"
	selectPeopleSQL = "SELECT id, given_name, family_name, date_of_birth, place_of_birth_id FROM people ORDER BY id"
)

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS places (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  city TEXT NOT NULL,
  county TEXT NOT NULL,
  country TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS people (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  given_name TEXT NOT NULL,
  family_name TEXT NOT NULL,
  date_of_birth TEXT NOT NULL,
  place_of_birth_id BIGINT NOT NULL REFERENCES places (id)
)`,
}

// Store is the pgx-backed implementation.
type Store struct {
	conn *pgx.Conn
}

var _ store.Store = (*Store)(nil)

func init() {
	store.Register("postgres", func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return New(ctx, cfg.DSN)
	})
}

// New connects to Postgres. pgx.Connect pings as part of the handshake, so a
// not-ready database fails here and the retry loop in store.Connect handles it.
func New(ctx context.Context, dsn string) (*Store, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{conn: conn}, nil
}

// Close closes the connection; the pipeline is already done with ctx by then.
func (s *Store) Close() { _ = s.conn.Close(context.Background()) }

// InsertPlace inserts one place and scans the generated id via RETURNING.
func (s *Store) InsertPlace(ctx context.Context, p model.Place) (int64, error) {
	var id int64
	if err := s.conn.QueryRow(ctx, insertPlaceSQL, p.City, p.County, p.Country).Scan(&id); err != nil {
		return 0, &store.StoreError{Op: "insert place", Err: err}
	}
	return id, nil
}

// InsertPerson inserts one person row.
func (s *Store) InsertPerson(ctx context.Context, p model.Person) error {
	_, err := s.conn.Exec(ctx, insertPersonSQL, p.GivenName, p.FamilyName, p.DateOfBirth, p.PlaceOfBirthID)
	if err != nil {
		return &store.StoreError{Op: "insert person", Err: err}
	}
	return nil
}

// CheckTables probes both tables with a zero-row select.
func (s *Store) CheckTables(ctx context.Context) error {
	for _, table := range []string{model.PlacesTable, model.PeopleTable} {
		if _, err := s.conn.Exec(ctx, "SELECT 1 FROM "+table+" WHERE 1 = 0"); err != nil {
			return &store.SchemaError{Table: table, Err: err}
		}
	}
	return nil
}

// EnsureSchema applies the static DDL.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range createTables {
		if _, err := s.conn.Exec(ctx, ddl); err != nil {
			return &store.StoreError{Op: "create tables", Err: err}
		}
	}
	return nil
}

// CountByCountry runs the population aggregate.
func (s *Store) CountByCountry(ctx context.Context) ([]model.CountryCount, error) {
	rows, err := s.conn.Query(ctx, countByCountrySQL)
	if err != nil {
		return nil, &store.QueryError{Op: "population by country", Err: err}
	}
	defer rows.Close()

	var out []model.CountryCount
	for rows.Next() {
		var c model.CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, &store.QueryError{Op: "population by country: scan", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.QueryError{Op: "population by country", Err: err}
	}
	return out, nil
}

// Places dumps the places table ordered by id.
func (s *Store) Places(ctx context.Context) ([]model.Place, error) {
	rows, err := s.conn.Query(ctx, selectPlacesSQL)
	if err != nil {
		return nil, &store.QueryError{Op: "select places", Err: err}
	}
	defer rows.Close()

	var out []model.Place
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.ID, &p.City, &p.County, &p.Country); err != nil {
			return nil, &store.QueryError{Op: "select places: scan", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.QueryError{Op: "select places", Err: err}
	}
	return out, nil
}

// People dumps the people table ordered by id.
func (s *Store) People(ctx context.Context) ([]model.Person, error) {
	rows, err := s.conn.Query(ctx, selectPeopleSQL)
	if err != nil {
		return nil, &store.QueryError{Op: "select people", Err: err}
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(&p.ID, &p.GivenName, &p.FamilyName, &p.DateOfBirth, &p.PlaceOfBirthID); err != nil {
			return nil, &store.QueryError{Op: "select people: scan", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.QueryError{Op: "select people", Err: err}
	}
	return out, nil
}

// Begin starts a transaction for per-file loading.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, &store.StoreError{Op: "begin transaction", Err: err}
	}
	return &pgTx{tx: tx}, nil
}

// pgTx adapts pgx.Tx to store.Tx.
type pgTx struct {
	tx pgx.Tx
}

var _ store.Tx = (*pgTx)(nil)

func (t *pgTx) InsertPlace(ctx context.Context, p model.Place) (int64, error) {
	var id int64
	if err := t.tx.QueryRow(ctx, insertPlaceSQL, p.City, p.County, p.Country).Scan(&id); err != nil {
		return 0, &store.StoreError{Op: "insert place", Err: err}
	}
	return id, nil
}

func (t *pgTx) InsertPerson(ctx context.Context, p model.Person) error {
	if _, err := t.tx.Exec(ctx, insertPersonSQL, p.GivenName, p.FamilyName, p.DateOfBirth, p.PlaceOfBirthID); err != nil {
		return &store.StoreError{Op: "insert person", Err: err}
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return &store.StoreError{Op: "commit", Err: err}
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return &store.StoreError{Op: "rollback", Err: err}
	}
	return nil
}
