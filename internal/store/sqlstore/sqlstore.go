// Package sqlstore implements store.Store on top of database/sql for the
// backends that speak it (MySQL, SQLite, MSSQL). Backend packages supply a
// Dialect carrying their statically declared SQL: the insert statements, the
// population aggregate, and the create-table DDL. Keeping the SQL as data in
// the dialect means one implementation of the row plumbing serves all three
// backends.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"census/internal/model"
	"census/internal/store"
)

// Dialect is the static SQL surface of one database/sql backend.
type Dialect struct {
	// Name is the backend kind, used in error text.
	Name string

	// InsertPlace and InsertPerson are full parameterized statements in the
	// backend's placeholder style. When ReturnsID is set, InsertPlace yields
	// the generated id as a single-row result (OUTPUT/RETURNING); otherwise
	// the id comes from Result.LastInsertId.
	InsertPlace  string
	InsertPerson string
	ReturnsID    bool

	// CountByCountry is the population aggregate query; it must yield
	// (country, count) rows.
	CountByCountry string

	// SelectPlaces and SelectPeople dump full table contents ordered by id.
	SelectPlaces string
	SelectPeople string

	// CreateTables holds the DDL applied by EnsureSchema, in order.
	CreateTables []string
}

// Store is a database/sql-backed store.Store.
type Store struct {
	db *sql.DB
	d  Dialect
}

var _ store.Store = (*Store)(nil)

// Open connects using the named driver and verifies the connection with a
// bounded ping. The pool is capped at one connection: the pipeline is fully
// sequential, and a single connection also keeps SQLite in-memory databases
// coherent.
func Open(ctx context.Context, driver, dsn string, d Dialect) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Name)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}
	return &Store{db: db, d: d}, nil
}

// Close closes the underlying pool.
func (s *Store) Close() { _ = s.db.Close() }

// execer is the subset of *sql.DB and *sql.Tx the insert path uses.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertPlace(ctx context.Context, q execer, d Dialect, p model.Place) (int64, error) {
	if d.ReturnsID {
		var id int64
		if err := q.QueryRowContext(ctx, d.InsertPlace, p.City, p.County, p.Country).Scan(&id); err != nil {
			return 0, &store.StoreError{Op: "insert place", Err: err}
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, d.InsertPlace, p.City, p.County, p.Country)
	if err != nil {
		return 0, &store.StoreError{Op: "insert place", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &store.StoreError{Op: "insert place: read generated id", Err: err}
	}
	return id, nil
}

func insertPerson(ctx context.Context, q execer, d Dialect, p model.Person) error {
	_, err := q.ExecContext(ctx, d.InsertPerson, p.GivenName, p.FamilyName, p.DateOfBirth, p.PlaceOfBirthID)
	if err != nil {
		return &store.StoreError{Op: "insert person", Err: err}
	}
	return nil
}

// InsertPlace inserts one place row and returns its generated id.
func (s *Store) InsertPlace(ctx context.Context, p model.Place) (int64, error) {
	return insertPlace(ctx, s.db, s.d, p)
}

// InsertPerson inserts one person row.
func (s *Store) InsertPerson(ctx context.Context, p model.Person) error {
	return insertPerson(ctx, s.db, s.d, p)
}

// CheckTables probes both tables with a zero-row select.
func (s *Store) CheckTables(ctx context.Context) error {
	for _, table := range []string{model.PlacesTable, model.PeopleTable} {
		probe := fmt.Sprintf("SELECT 1 FROM %s WHERE 1 = 0", table)
		if _, err := s.db.ExecContext(ctx, probe); err != nil {
			return &store.SchemaError{Table: table, Err: err}
		}
	}
	return nil
}

// EnsureSchema applies the dialect's create-table DDL.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range s.d.CreateTables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return &store.StoreError{Op: "create tables", Err: err}
		}
	}
	return nil
}

// CountByCountry runs the population aggregate.
func (s *Store) CountByCountry(ctx context.Context) ([]model.CountryCount, error) {
	rows, err := s.db.QueryContext(ctx, s.d.CountByCountry)
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
	rows, err := s.db.QueryContext(ctx, s.d.SelectPlaces)
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
	rows, err := s.db.QueryContext(ctx, s.d.SelectPeople)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &store.StoreError{Op: "begin transaction", Err: err}
	}
	return &sqlTx{tx: tx, d: s.d}, nil
}

// sqlTx adapts *sql.Tx to store.Tx using the same dialect-driven inserts.
type sqlTx struct {
	tx *sql.Tx
	d  Dialect
}

var _ store.Tx = (*sqlTx)(nil)

func (t *sqlTx) InsertPlace(ctx context.Context, p model.Place) (int64, error) {
	return insertPlace(ctx, t.tx, t.d, p)
}

func (t *sqlTx) InsertPerson(ctx context.Context, p model.Person) error {
	return insertPerson(ctx, t.tx, t.d, p)
}

func (t *sqlTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return &store.StoreError{Op: "commit", Err: err}
	}
	return nil
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return &store.StoreError{Op: "rollback", Err: err}
	}
	return nil
}
